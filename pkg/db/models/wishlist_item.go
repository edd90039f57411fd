package models

import (
	"time"
)

// WishlistItem links a user to a favorited product.
type WishlistItem struct {
	UserID    string    `gorm:"column:user_id;type:text;primaryKey;index:wishlist_items_user_id_idx"`
	ProductID string    `gorm:"column:product_id;type:text;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
