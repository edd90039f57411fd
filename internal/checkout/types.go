package checkout

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingInfo is the first checkout form. Validation runs in field order and
// reports only the first failure.
type ShippingInfo struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required,contains=@"`
	Phone      string `json:"phone" validate:"required,min=10"`
	Address    string `json:"address" validate:"required,min=5"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required,min=3"`
	Country    string `json:"country" validate:"required"`
}

// PaymentInfo is the second checkout form. It is never stored on the session.
type PaymentInfo struct {
	CardNumber string `json:"card_number" validate:"required"`
	CardName   string `json:"card_name" validate:"required"`
	ExpiryDate string `json:"expiry_date" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
}

// PaymentSummary is the only card data that leaves the checkout.
type PaymentSummary struct {
	Last4    string         `json:"last4"`
	CardType enums.CardType `json:"card_type"`
}

// Confirmation is the order payload produced by a successful checkout. Amounts
// are priced with the checkout policy.
type Confirmation struct {
	OrderID      uuid.UUID       `json:"order_id"`
	SessionID    string          `json:"-"`
	Email        string          `json:"email"`
	Total        decimal.Decimal `json:"total"`
	Quote        pricing.Quote   `json:"quote"`
	Items        []cart.Line     `json:"items"`
	ShippingInfo ShippingInfo    `json:"shipping_info"`
	Payment      PaymentSummary  `json:"payment_info"`
	CreatedAt    time.Time       `json:"created_at"`
}

// View is the read-only state of a checkout session.
type View struct {
	SessionID    string             `json:"session_id"`
	Step         enums.CheckoutStep `json:"step"`
	ShippingInfo *ShippingInfo      `json:"shipping_info,omitempty"`
	Confirmation *Confirmation      `json:"confirmation,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}
