package wishlist

import (
	"context"

	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores favorites in wishlist_items.
type Repository struct {
	repo.Base
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// GetFavorites returns the user's favorite product ids, oldest first.
func (r *Repository) GetFavorites(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.DB(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ?", userID).
		Order("created_at ASC, product_id ASC").
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// IsFavorite reports whether the product is in the user's set.
func (r *Repository) IsFavorite(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// SetFavorite adds or removes the product. Both directions are idempotent.
func (r *Repository) SetFavorite(ctx context.Context, userID, productID string, present bool) error {
	if !present {
		return r.DB(ctx).
			Where("user_id = ? AND product_id = ?", userID, productID).
			Delete(&models.WishlistItem{}).Error
	}
	return r.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WishlistItem{UserID: userID, ProductID: productID}).Error
}
