package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product is the catalog view used when adding to the cart.
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Image  *string         `json:"image,omitempty"`
	Sizes  []string        `json:"sizes,omitempty"`
	Colors []string        `json:"colors,omitempty"`
}

// CartProduct returns the fields captured on a cart line.
func (p Product) CartProduct() cart.Product {
	return cart.Product{ID: p.ID, Name: p.Name, Price: p.Price, Image: p.Image}
}

// CheckSelection rejects a size or color outside the product's options.
// Products without options accept any selection.
func (p Product) CheckSelection(size, color *string) error {
	if err := checkAxis("selected_size", size, p.Sizes); err != nil {
		return err
	}
	return checkAxis("selected_color", color, p.Colors)
}

func checkAxis(field string, value *string, options []string) error {
	if value == nil || len(options) == 0 {
		return nil
	}
	selected := strings.TrimSpace(*value)
	if selected == "" {
		return nil
	}
	for _, option := range options {
		if option == selected {
			return nil
		}
	}
	reason := fmt.Sprintf("must be one of %s", strings.Join(options, ", "))
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+reason).WithDetails(map[string]any{
		"field":  field,
		"reason": reason,
	})
}

type productFinder interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

// Service looks up purchasable products.
type Service interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

type service struct {
	products productFinder
}

// NewService builds a catalog service.
func NewService(products productFinder) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{products: products}, nil
}

// GetProduct returns an active product. Inactive products are reported as
// missing.
func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required").WithDetails(map[string]any{
			"field":  "product_id",
			"reason": "is required",
		})
	}
	row, err := s.products.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !row.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &Product{
		ID:     row.ID,
		Name:   row.Name,
		Price:  row.Price,
		Image:  row.Image,
		Sizes:  row.Sizes,
		Colors: row.Colors,
	}, nil
}
