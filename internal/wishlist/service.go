package wishlist

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Backend is the favorite-set store of one user account.
type Backend interface {
	GetFavorites(ctx context.Context, userID string) ([]string, error)
	SetFavorite(ctx context.Context, userID, productID string, present bool) error
}

// membershipReader is implemented by backends that can answer for a single
// product without loading the whole set.
type membershipReader interface {
	IsFavorite(ctx context.Context, userID, productID string) (bool, error)
}

type productLookup interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Backend Backend
	Catalog productLookup
	Logger  *logger.Logger
}

// Service flips and lists favorites.
type Service interface {
	Toggle(ctx context.Context, userID, productID string) (bool, error)
	Set(ctx context.Context, userID, productID string, present bool) error
	List(ctx context.Context, userID string) ([]string, error)
}

type service struct {
	backend Backend
	catalog productLookup
	logg    *logger.Logger
	locks   *keyedMutex
}

// NewService builds a wishlist service. Catalog is optional; without it added
// products are not checked for existence.
func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("wishlist backend required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		backend: params.Backend,
		catalog: params.Catalog,
		logg:    params.Logger,
		locks:   newKeyedMutex(),
	}, nil
}

// Toggle flips membership of productID and returns whether it is now present.
// Toggles of one user run one at a time, each reading the membership the
// previous one wrote.
func (s *service) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	userID, productID, err := normalizeIDs(userID, productID)
	if err != nil {
		return false, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	present, err := s.isFavorite(ctx, userID, productID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorites")
	}
	next := !present
	if err := s.apply(ctx, userID, productID, next); err != nil {
		return present, err
	}
	return next, nil
}

// Set forces membership to present.
func (s *service) Set(ctx context.Context, userID, productID string, present bool) error {
	userID, productID, err := normalizeIDs(userID, productID)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(userID)
	defer unlock()
	return s.apply(ctx, userID, productID, present)
}

func (s *service) List(ctx context.Context, userID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	ids, err := s.backend.GetFavorites(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load favorites")
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *service) apply(ctx context.Context, userID, productID string, present bool) error {
	if present && s.catalog != nil {
		if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
			return err
		}
	}
	if err := s.backend.SetFavorite(ctx, userID, productID, present); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update favorites")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"user_id":    userID,
		"product_id": productID,
		"present":    present,
	})
	s.logg.Debug(ctx, "wishlist.updated")
	return nil
}

func (s *service) isFavorite(ctx context.Context, userID, productID string) (bool, error) {
	if reader, ok := s.backend.(membershipReader); ok {
		return reader.IsFavorite(ctx, userID, productID)
	}
	ids, err := s.backend.GetFavorites(ctx, userID)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, productID), nil
}

func normalizeIDs(userID, productID string) (string, string, error) {
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if productID == "" {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required").WithDetails(map[string]any{
			"field":  "product_id",
			"reason": "is required",
		})
	}
	return userID, productID, nil
}
