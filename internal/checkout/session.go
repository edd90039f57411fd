package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/payment"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

// CartStore is the slice of the cart the checkout reads and clears.
type CartStore interface {
	Lines() []cart.Line
	ReadLegacy(ctx context.Context) []cart.Line
	Clear(ctx context.Context) error
}

// CartProvider resolves the cart of a client session.
type CartProvider interface {
	Cart(ctx context.Context, sessionID string) (CartStore, error)
}

// CartProviderFunc adapts a function to CartProvider.
type CartProviderFunc func(ctx context.Context, sessionID string) (CartStore, error)

func (f CartProviderFunc) Cart(ctx context.Context, sessionID string) (CartStore, error) {
	return f(ctx, sessionID)
}

// OrderGateway receives confirmed orders. The cart is cleared only after it
// accepts the payload.
type OrderGateway interface {
	CreateOrder(ctx context.Context, order Confirmation) (uuid.UUID, error)
}

type outcomeRecorder interface {
	IncCheckoutOutcome(result string)
	ObservePayment(outcome string, duration time.Duration)
}

// Dependencies are shared by every checkout session.
type Dependencies struct {
	Carts    CartProvider
	Payments payment.Authorizer
	Orders   OrderGateway
	Policy   pricing.Policy
	Logger   *logger.Logger
	Metrics  outcomeRecorder
}

func (d Dependencies) validate() error {
	if d.Carts == nil {
		return fmt.Errorf("cart provider required")
	}
	if d.Payments == nil {
		return fmt.Errorf("payment authorizer required")
	}
	if d.Orders == nil {
		return fmt.Errorf("order gateway required")
	}
	return nil
}

const (
	resultCompleted   = "completed"
	resultRejected    = "rejected"
	resultEmptyCart   = "empty_cart"
	resultInterrupted = "interrupted"
	resultOrderFailed = "order_failed"
)

// Session is one checkout attempt: shipping, then payment, then completed.
// While a payment is being authorized the session sits in the submitting step
// and refuses another submission.
type Session struct {
	mu           sync.Mutex
	id           string
	step         enums.CheckoutStep
	shipping     *ShippingInfo
	confirmation *Confirmation
	updatedAt    time.Time
	// discarded sessions were dropped from the registry and accept no further steps
	discarded bool

	deps       Dependencies
	now        func() time.Time
	onComplete func(*Session)
}

func newSession(id string, deps Dependencies, now func() time.Time) *Session {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Session{
		id:        id,
		step:      enums.CheckoutStepShipping,
		updatedAt: now(),
		deps:      deps,
		now:       now,
	}
}

// ID returns the client session id the checkout belongs to.
func (s *Session) ID() string {
	return s.id
}

// State returns a read-only view of the session.
func (s *Session) State() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// SubmitShipping validates the shipping form and advances to payment. On the
// first failing field the session stays where it is.
func (s *Session) SubmitShipping(info ShippingInfo) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStepLocked(enums.CheckoutStepShipping); err != nil {
		return s.viewLocked(), err
	}
	if err := ValidateShipping(info); err != nil {
		return s.viewLocked(), err
	}
	normalized := info.normalize()
	s.shipping = &normalized
	s.step = enums.CheckoutStepPayment
	s.updatedAt = s.now()
	return s.viewLocked(), nil
}

// Back returns from payment to shipping, keeping the entered shipping info.
func (s *Session) Back() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.discarded {
		return s.viewLocked(), s.stepErrorLocked()
	}
	switch s.step {
	case enums.CheckoutStepPayment:
		s.step = enums.CheckoutStepShipping
		s.updatedAt = s.now()
	case enums.CheckoutStepShipping:
	default:
		return s.viewLocked(), s.stepErrorLocked()
	}
	return s.viewLocked(), nil
}

// SubmitPayment authorizes the payment and, on success, hands the order off and
// clears the cart. Any failure returns the session to the payment step with the
// cart untouched.
func (s *Session) SubmitPayment(ctx context.Context, info PaymentInfo) (conf *Confirmation, err error) {
	shipping, err := s.beginSubmission(info)
	if err != nil {
		return nil, err
	}
	defer func() {
		s.finishSubmission(conf)
		if conf != nil && s.onComplete != nil {
			s.onComplete(s)
		}
	}()
	return s.process(ctx, shipping, info.normalize())
}

func (s *Session) beginSubmission(info PaymentInfo) (ShippingInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireStepLocked(enums.CheckoutStepPayment); err != nil {
		return ShippingInfo{}, err
	}
	if err := ValidatePayment(info); err != nil {
		return ShippingInfo{}, err
	}
	if payment.NormalizeCardNumber(info.CardNumber) == "" {
		return ShippingInfo{}, pkgerrors.New(pkgerrors.CodeValidation, "card_number must contain digits").WithDetails(map[string]any{
			"field":  "card_number",
			"reason": "must contain digits",
		})
	}
	s.step = enums.CheckoutStepSubmitting
	s.updatedAt = s.now()
	return *s.shipping, nil
}

func (s *Session) finishSubmission(conf *Confirmation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conf != nil {
		s.step = enums.CheckoutStepCompleted
		s.confirmation = conf
	} else {
		s.step = enums.CheckoutStepPayment
	}
	s.updatedAt = s.now()
}

func (s *Session) process(ctx context.Context, shipping ShippingInfo, info PaymentInfo) (*Confirmation, error) {
	logg := s.deps.Logger
	ctx = logg.WithSessionID(ctx, s.id)

	store, err := s.deps.Carts.Cart(ctx, s.id)
	if err != nil {
		return nil, err
	}
	lines := store.Lines()
	if len(lines) == 0 {
		lines = store.ReadLegacy(ctx)
		if len(lines) > 0 {
			logg.Info(ctx, "checkout.legacy_cart_used")
		}
	}
	if len(lines) == 0 {
		s.recordOutcome(resultEmptyCart)
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty").WithDetails(map[string]any{
			"field":  "cart",
			"reason": "must contain at least one item",
		})
	}

	card := payment.NormalizeCardNumber(info.CardNumber)
	started := s.now()
	outcome, err := s.deps.Payments.Authorize(ctx, payment.Request{
		CardNumber: card,
		Expiry:     info.ExpiryDate,
		CVV:        info.CVV,
	})
	if err != nil {
		s.observePayment(resultInterrupted, started)
		s.recordOutcome(resultInterrupted)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment authorization interrupted")
	}
	s.observePayment(outcome.String(), started)
	ctx = logg.WithField(ctx, "payment_outcome", outcome.String())

	switch outcome {
	case enums.PaymentOutcomeTestSuccess:
	case enums.PaymentOutcomeTestParamMismatch:
		s.recordOutcome(resultRejected)
		logg.Info(ctx, "checkout.payment_rejected")
		return nil, rejected(outcome, "expiry date or cvv does not match the test card")
	case enums.PaymentOutcomeNonTestReject:
		s.recordOutcome(resultRejected)
		logg.Info(ctx, "checkout.payment_rejected")
		return nil, rejected(outcome, "card was declined")
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unexpected payment outcome %q", outcome))
	}

	quote := s.deps.Policy.Quote(lines)
	conf := &Confirmation{
		OrderID:      uuid.New(),
		SessionID:    s.id,
		Email:        shipping.Email,
		Total:        quote.Total,
		Quote:        quote,
		Items:        lines,
		ShippingInfo: shipping,
		Payment: PaymentSummary{
			Last4:    payment.Last4(card),
			CardType: payment.DetectCardType(card),
		},
		CreatedAt: s.now().UTC(),
	}

	orderID, err := s.deps.Orders.CreateOrder(ctx, *conf)
	if err != nil {
		s.recordOutcome(resultOrderFailed)
		logg.Error(ctx, "checkout.order_handoff_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order could not be placed")
	}
	if orderID != uuid.Nil {
		conf.OrderID = orderID
	}

	if err := store.Clear(ctx); err != nil {
		// the order exists; a stale persisted cart is preferable to failing it
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "checkout.cart_clear_failed")
	}

	s.recordOutcome(resultCompleted)
	logg.Info(logg.WithField(ctx, "order_id", conf.OrderID.String()), "checkout.completed")
	return conf, nil
}

func rejected(outcome enums.PaymentOutcome, message string) error {
	details := map[string]any{"outcome": outcome.String()}
	if outcome == enums.PaymentOutcomeNonTestReject {
		details["hint"] = "use the test card to place an order"
	}
	return pkgerrors.New(pkgerrors.CodePaymentRejected, message).WithDetails(details)
}

func (s *Session) requireStepLocked(step enums.CheckoutStep) error {
	if s.discarded {
		return s.stepErrorLocked()
	}
	if s.step == step {
		return nil
	}
	return s.stepErrorLocked()
}

func (s *Session) stepErrorLocked() error {
	details := map[string]any{"step": s.step.String()}
	if s.discarded {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout was discarded; begin a new one").WithDetails(details)
	}
	switch s.step {
	case enums.CheckoutStepSubmitting:
		return pkgerrors.New(pkgerrors.CodeCheckoutInProgress, "a payment is already being processed").WithDetails(details)
	case enums.CheckoutStepCompleted:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already completed").WithDetails(details)
	case enums.CheckoutStepShipping:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "shipping info must be submitted first").WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "go back to shipping to change the address").WithDetails(details)
}

func (s *Session) viewLocked() View {
	view := View{SessionID: s.id, Step: s.step, UpdatedAt: s.updatedAt}
	if s.shipping != nil {
		shipping := *s.shipping
		view.ShippingInfo = &shipping
	}
	if s.confirmation != nil {
		conf := *s.confirmation
		view.Confirmation = &conf
	}
	return view
}

// expire discards the session when it sat idle past ttl. A submission in
// flight is never expired.
func (s *Session) expire(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == enums.CheckoutStepSubmitting || now.Sub(s.updatedAt) <= ttl {
		return false
	}
	s.discarded = true
	return true
}

// discard marks the session terminal unless a payment is in flight, so a
// handler still holding it cannot submit afterwards.
func (s *Session) discard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.step == enums.CheckoutStepSubmitting {
		return false
	}
	s.discarded = true
	return true
}

func (s *Session) recordOutcome(result string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.IncCheckoutOutcome(result)
	}
}

func (s *Session) observePayment(outcome string, started time.Time) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObservePayment(outcome, s.now().Sub(started))
	}
}
