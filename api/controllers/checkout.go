package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CheckoutSessions tracks the checkout of each client session.
type CheckoutSessions interface {
	Begin(sessionID string) (*checkout.Session, error)
	Get(sessionID string) (*checkout.Session, error)
	Discard(sessionID string) error
}

// The request shapes mirror checkout.ShippingInfo and checkout.PaymentInfo
// without validation tags; the session validates them in field order.
type shippingRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type paymentRequest struct {
	CardNumber string `json:"card_number"`
	CardName   string `json:"card_name"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

// CheckoutBegin opens the checkout of the session, or returns the one in progress.
func CheckoutBegin(sessions CheckoutSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sess, err := sessions.Begin(middleware.SessionIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.State())
	}
}

// CheckoutState returns the current checkout step without card data.
func CheckoutState(sessions CheckoutSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := activeCheckout(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sess.State())
	}
}

// CheckoutShipping submits the shipping form and advances to payment.
func CheckoutShipping(sessions CheckoutSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload shippingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sess, err := activeCheckout(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		view, err := sess.SubmitShipping(checkout.ShippingInfo(payload))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutBack returns from payment to shipping.
func CheckoutBack(sessions CheckoutSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := activeCheckout(r, sessions)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := sess.Back()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CheckoutPayment submits the payment form. On success the order confirmation
// is returned and the cart is emptied.
func CheckoutPayment(sessions CheckoutSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		sess, err := activeCheckout(r, sessions)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		conf, err := sess.SubmitPayment(ctx, checkout.PaymentInfo(payload))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, conf)
	}
}

// CheckoutDiscard abandons the checkout of the session.
func CheckoutDiscard(sessions CheckoutSessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if sessions == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		if err := sessions.Discard(middleware.SessionIDFromContext(ctx)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"discarded": true})
	}
}

func activeCheckout(r *http.Request, sessions CheckoutSessions) (*checkout.Session, error) {
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable")
	}
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session context missing")
	}
	return sessions.Get(sessionID)
}
