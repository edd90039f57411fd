package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, delay time.Duration) *Simulator {
	t.Helper()
	sim, err := NewSimulatorFromConfig(config.PaymentConfig{
		TestCardNumber: "4532123456789012",
		TestCardExpiry: "12/28",
		TestCardCVV:    "123",
		SimulatedDelay: delay,
	})
	require.NoError(t, err)
	return sim
}

func TestAuthorizeOutcomes(t *testing.T) {
	t.Parallel()

	sim := newTestSimulator(t, 0)
	cases := []struct {
		name string
		req  Request
		want enums.PaymentOutcome
	}{
		{name: "test card exact match", req: Request{CardNumber: "4532123456789012", Expiry: "12/28", CVV: "123"}, want: enums.PaymentOutcomeTestSuccess},
		{name: "test card with spaces", req: Request{CardNumber: "4532 1234 5678 9012", Expiry: "12/28", CVV: "123"}, want: enums.PaymentOutcomeTestSuccess},
		{name: "test card wrong expiry and cvv", req: Request{CardNumber: "4532123456789012", Expiry: "01/20", CVV: "000"}, want: enums.PaymentOutcomeTestParamMismatch},
		{name: "test card wrong cvv only", req: Request{CardNumber: "4532123456789012", Expiry: "12/28", CVV: "124"}, want: enums.PaymentOutcomeTestParamMismatch},
		{name: "other card", req: Request{CardNumber: "4111111111111111", Expiry: "12/28", CVV: "123"}, want: enums.PaymentOutcomeNonTestReject},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := sim.Authorize(context.Background(), tc.req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAuthorizeDelaysOnlyDeclines(t *testing.T) {
	t.Parallel()

	sim := newTestSimulator(t, time.Hour)
	var waited []time.Duration
	sim.after = func(d time.Duration) <-chan time.Time {
		waited = append(waited, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}

	_, err := sim.Authorize(context.Background(), Request{CardNumber: "4532123456789012", Expiry: "12/28", CVV: "123"})
	require.NoError(t, err)
	assert.Empty(t, waited)

	got, err := sim.Authorize(context.Background(), Request{CardNumber: "5500000000000004", Expiry: "12/28", CVV: "123"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentOutcomeNonTestReject, got)
	assert.Equal(t, []time.Duration{time.Hour}, waited)
}

func TestAuthorizeHonoursContext(t *testing.T) {
	t.Parallel()

	sim := newTestSimulator(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Authorize(ctx, Request{CardNumber: "4111111111111111", Expiry: "12/28", CVV: "123"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewSimulatorValidatesInstrument(t *testing.T) {
	t.Parallel()

	_, err := NewSimulator(TestInstrument{Number: "1234", Expiry: "12/28", CVV: "123"}, 0)
	assert.Error(t, err)
	_, err = NewSimulator(TestInstrument{Number: "4532123456789012"}, 0)
	assert.Error(t, err)
	_, err = NewSimulator(TestInstrument{Number: "4532123456789012", Expiry: "12/28", CVV: "123"}, -time.Second)
	assert.Error(t, err)
}
