package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRequiresDependencies(t *testing.T) {
	_, err := NewRegistry(Dependencies{}, time.Minute)
	require.Error(t, err)
}

func TestBeginReturnsOpenSession(t *testing.T) {
	f := newFixture(t, nil)

	first, err := f.registry.Begin("s1")
	require.NoError(t, err)
	second, err := f.registry.Begin("s1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = f.registry.Begin(" ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	f := newFixture(t, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.registry.now = func() time.Time { return now }

	sess, err := f.registry.Begin("s1")
	require.NoError(t, err)
	_, err = sess.SubmitShipping(validShipping())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	got, err := f.registry.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepPayment, got.State().Step)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, f.registry.Sweep())
	_, err = f.registry.Get("s1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	fresh, err := f.registry.Begin("s1")
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStepShipping, fresh.State().Step)
}

func TestDiscardRemovesSession(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.registry.Begin("s1")
	require.NoError(t, err)

	require.NoError(t, f.registry.Discard("s1"))
	assert.Zero(t, f.registry.Len())
	require.NoError(t, f.registry.Discard("missing"))
}

func TestDiscardedSessionRejectsLaterSteps(t *testing.T) {
	f := newFixture(t, nil)
	f.addItem(t, 50, 1)
	sess := atPayment(t, f)

	require.NoError(t, f.registry.Discard("s1"))

	_, err := sess.SubmitPayment(context.Background(), PaymentInfo{
		CardNumber: testCard,
		CardName:   "Ada Lovelace",
		ExpiryDate: "12/28",
		CVV:        "123",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Zero(t, f.gateway.count())
	assert.Equal(t, 1, f.store.ItemCount())

	_, err = sess.Back()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	_, err = sess.SubmitShipping(validShipping())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}
