package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSummary is one row of the order history.
type OrderSummary struct {
	ID         uuid.UUID       `json:"id"`
	Email      string          `json:"email"`
	Total      decimal.Decimal `json:"total"`
	TotalItems int             `json:"total_items"`
	CardLast4  string          `json:"card_last4"`
	CreatedAt  time.Time       `json:"created_at"`
}

// OrderList wraps a page of summaries plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// OrderDetail is the full stored confirmation.
type OrderDetail struct {
	ID           uuid.UUID               `json:"id"`
	Email        string                  `json:"email"`
	Subtotal     decimal.Decimal         `json:"subtotal"`
	Tax          decimal.Decimal         `json:"tax"`
	Shipping     decimal.Decimal         `json:"shipping"`
	Total        decimal.Decimal         `json:"total"`
	Items        []models.OrderLine      `json:"items"`
	ShippingInfo models.OrderShipping    `json:"shipping_info"`
	Payment      checkout.PaymentSummary `json:"payment_info"`
	CreatedAt    time.Time               `json:"created_at"`
}

func fromConfirmation(conf checkout.Confirmation) *models.Order {
	items := make([]models.OrderLine, 0, len(conf.Items))
	for _, line := range conf.Items {
		items = append(items, models.OrderLine{
			ProductID:     line.ProductID,
			Name:          line.Name,
			SelectedSize:  line.SelectedSize,
			SelectedColor: line.SelectedColor,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			VariantKey:    line.VariantKey,
		})
	}
	quote := conf.Quote.Rounded()
	ship := conf.ShippingInfo
	return &models.Order{
		ID:        conf.OrderID,
		SessionID: conf.SessionID,
		Email:     conf.Email,
		Subtotal:  quote.Subtotal,
		Tax:       quote.Tax,
		Shipping:  quote.Shipping,
		Total:     quote.Total,
		Items:     items,
		ShippingInfo: models.OrderShipping{
			FirstName:  ship.FirstName,
			LastName:   ship.LastName,
			Email:      ship.Email,
			Phone:      ship.Phone,
			Address:    ship.Address,
			City:       ship.City,
			PostalCode: ship.PostalCode,
			Country:    ship.Country,
		},
		CardLast4: conf.Payment.Last4,
		CardType:  conf.Payment.CardType.String(),
		CreatedAt: conf.CreatedAt,
	}
}

func toSummary(order models.Order) OrderSummary {
	items := 0
	for _, line := range order.Items {
		items += line.Quantity
	}
	return OrderSummary{
		ID:         order.ID,
		Email:      order.Email,
		Total:      order.Total,
		TotalItems: items,
		CardLast4:  order.CardLast4,
		CreatedAt:  order.CreatedAt,
	}
}

func toDetail(order models.Order) *OrderDetail {
	cardType, err := enums.ParseCardType(order.CardType)
	if err != nil {
		cardType = enums.CardTypeUnknown
	}
	return &OrderDetail{
		ID:           order.ID,
		Email:        order.Email,
		Subtotal:     order.Subtotal,
		Tax:          order.Tax,
		Shipping:     order.Shipping,
		Total:        order.Total,
		Items:        order.Items,
		ShippingInfo: order.ShippingInfo,
		Payment:      checkout.PaymentSummary{Last4: order.CardLast4, CardType: cardType},
		CreatedAt:    order.CreatedAt,
	}
}
