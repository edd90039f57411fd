package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxSelectionLength = 64

// CartSessions hands out the cart of a client session.
type CartSessions interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
}

// PolicyLookup resolves a named pricing policy.
type PolicyLookup interface {
	Policy(name enums.TaxPolicy) (pricing.Policy, error)
}

type addCartItemRequest struct {
	ProductID     string  `json:"product_id" validate:"required"`
	SelectedSize  *string `json:"selected_size"`
	SelectedColor *string `json:"selected_color"`
	Quantity      *int    `json:"quantity" validate:"omitempty,gte=1"`
}

type updateCartItemRequest struct {
	ProductID     string  `json:"product_id" validate:"required"`
	SelectedSize  *string `json:"selected_size"`
	SelectedColor *string `json:"selected_color"`
	Quantity      *int    `json:"quantity" validate:"required"`
}

type cartMutationResponse struct {
	Line    *cart.Line    `json:"line,omitempty"`
	Updated *bool         `json:"updated,omitempty"`
	Removed *int          `json:"removed,omitempty"`
	Cart    cart.Snapshot `json:"cart"`
}

type quoteResponse struct {
	Policy enums.TaxPolicy `json:"policy"`
	Quote  pricing.Quote   `json:"quote"`
}

// CartFetch returns the session cart with its totals.
func CartFetch(carts CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartAddItem adds a catalog product to the session cart at its current price.
func CartAddItem(carts CartSessions, products catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if products == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := products.GetProduct(ctx, payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		size, color := sanitizeSelection(payload.SelectedSize), sanitizeSelection(payload.SelectedColor)
		if err := product.CheckSelection(size, color); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}
		line, err := store.Add(ctx, product.CartProduct(), size, color, quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartMutationResponse{Line: &line, Cart: store.Snapshot()})
	}
}

// CartUpdateItem sets the quantity of one variant. A quantity of zero or less
// removes the variant; an unknown variant leaves the cart unchanged.
func CartUpdateItem(carts CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, err := store.UpdateQuantity(ctx, payload.ProductID, *payload.Quantity,
			sanitizeSelection(payload.SelectedSize), sanitizeSelection(payload.SelectedColor))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationResponse{Updated: &updated, Cart: store.Snapshot()})
	}
}

// CartRemoveItem removes exactly the variant named by the query parameters
// product_id, selected_size and selected_color.
func CartRemoveItem(carts CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()
		productID := validators.SanitizeString(query.Get("product_id"), maxSelectionLength)
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required").WithDetails(map[string]any{
				"field":  "product_id",
				"reason": "is required",
			}))
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		removed, err := store.RemoveVariant(ctx, productID, queryOptional(r, "selected_size"), queryOptional(r, "selected_color"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		count := 0
		if removed {
			count = 1
		}
		responses.WriteSuccess(w, cartMutationResponse{Removed: &count, Cart: store.Snapshot()})
	}
}

// CartRemoveProduct removes every variant of a product.
func CartRemoveProduct(carts CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID := validators.SanitizeString(chi.URLParam(r, "productId"), maxSelectionLength)
		if productID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		removed, err := store.RemoveAllVariantsOfProduct(ctx, productID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationResponse{Removed: &removed, Cart: store.Snapshot()})
	}
}

// CartClear empties the session cart.
func CartClear(carts CartSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.Clear(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, store.Snapshot())
	}
}

// CartQuote prices the session cart with the policy named by ?policy=, the
// cart page policy by default.
func CartQuote(carts CartSessions, policies PolicyLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if policies == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing engine unavailable"))
			return
		}

		name := enums.TaxPolicy(validators.ParseQueryString(r, "policy", string(enums.TaxPolicyCart), 32))
		policy, err := policies.Policy(name)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		store, err := sessionCart(r, carts)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, quoteResponse{Policy: policy.Name, Quote: policy.Quote(store.Lines()).Rounded()})
	}
}

func sessionCart(r *http.Request, carts CartSessions) (*cart.Store, error) {
	if carts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	return carts.Get(r.Context(), sessionID)
}

func sanitizeSelection(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*value, maxSelectionLength)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func queryOptional(r *http.Request, key string) *string {
	values, ok := r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return sanitizeSelection(&values[0])
}
