package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Request is the data sent to the simulated gateway.
type Request struct {
	CardNumber string
	Expiry     string
	CVV        string
}

// TestInstrument is the single card the simulator approves.
type TestInstrument struct {
	Number string
	Expiry string
	CVV    string
}

// Authorizer decides the outcome of a payment request.
type Authorizer interface {
	Authorize(ctx context.Context, req Request) (enums.PaymentOutcome, error)
}

// Simulator is a deterministic stand-in for a payment processor. Only the test
// instrument with its exact expiry and cvv succeeds; other cards are declined
// after a processing delay.
type Simulator struct {
	instrument TestInstrument
	delay      time.Duration
	after      func(time.Duration) <-chan time.Time
}

// NewSimulator builds a simulator for the given test instrument.
func NewSimulator(instrument TestInstrument, delay time.Duration) (*Simulator, error) {
	instrument.Number = NormalizeCardNumber(instrument.Number)
	if len(instrument.Number) != 16 {
		return nil, fmt.Errorf("test card number must have 16 digits")
	}
	if strings.TrimSpace(instrument.Expiry) == "" || strings.TrimSpace(instrument.CVV) == "" {
		return nil, fmt.Errorf("test card expiry and cvv are required")
	}
	if delay < 0 {
		return nil, fmt.Errorf("simulated delay must not be negative")
	}
	return &Simulator{instrument: instrument, delay: delay, after: time.After}, nil
}

// NewSimulatorFromConfig builds a simulator from payment config.
func NewSimulatorFromConfig(cfg config.PaymentConfig) (*Simulator, error) {
	return NewSimulator(TestInstrument{
		Number: cfg.TestCardNumber,
		Expiry: cfg.TestCardExpiry,
		CVV:    cfg.TestCardCVV,
	}, cfg.SimulatedDelay)
}

// Authorize classifies the request. The only error is the context ending while
// a decline is being processed.
func (s *Simulator) Authorize(ctx context.Context, req Request) (enums.PaymentOutcome, error) {
	if NormalizeCardNumber(req.CardNumber) == s.instrument.Number {
		if strings.TrimSpace(req.Expiry) == s.instrument.Expiry && strings.TrimSpace(req.CVV) == s.instrument.CVV {
			return enums.PaymentOutcomeTestSuccess, nil
		}
		return enums.PaymentOutcomeTestParamMismatch, nil
	}

	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.after(s.delay):
		}
	}
	return enums.PaymentOutcomeNonTestReject, nil
}
