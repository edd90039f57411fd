package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the narrow catalog row the cart reads when capturing prices.
type Product struct {
	ID        string          `gorm:"column:id;type:text;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Image     *string         `gorm:"column:image"`
	Sizes     []string        `gorm:"column:sizes;type:jsonb;serializer:json"`
	Colors    []string        `gorm:"column:colors;type:jsonb;serializer:json"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
