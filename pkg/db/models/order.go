package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order stores a confirmed checkout payload. Card data is limited to the last
// four digits and the detected network.
type Order struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SessionID    string          `gorm:"column:session_id;not null;index:orders_session_id_idx"`
	Email        string          `gorm:"column:email;not null"`
	Subtotal     decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Tax          decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null"`
	Shipping     decimal.Decimal `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	Items        []OrderLine     `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ShippingInfo OrderShipping   `gorm:"column:shipping_info;type:jsonb;serializer:json;not null"`
	CardLast4    string          `gorm:"column:card_last4;not null"`
	CardType     string          `gorm:"column:card_type;not null"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// OrderLine is the persisted shape of a cart line.
type OrderLine struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name,omitempty"`
	SelectedSize  *string         `json:"selected_size,omitempty"`
	SelectedColor *string         `json:"selected_color,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VariantKey    string          `json:"variant_key"`
}

// OrderShipping is the persisted shipping address.
type OrderShipping struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}
