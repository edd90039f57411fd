package cart

import (
	"bytes"
	"context"
	"errors"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = SlotKeys{Primary: "sess:cart", Legacy: "sess:cart_raw"}

func strPtr(v string) *string { return &v }

func product(id string, price int64) Product {
	return Product{ID: id, Name: "Product " + id, Price: decimal.NewFromInt(price)}
}

func openStore(t *testing.T, storage SlotStorage) *Store {
	t.Helper()
	store, err := Open(context.Background(), storage, testKeys, nil, nil)
	require.NoError(t, err)
	return store
}

func TestAddSingleLine(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())

	_, err := store.Add(context.Background(), product("P1", 50), strPtr("M"), strPtr("Black"), 1)
	require.NoError(t, err)

	assert.True(t, store.Total().Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 1, store.ItemCount())
}

func TestAddSameVariantMerges(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	ctx := context.Background()

	_, err := store.Add(ctx, product("P1", 50), strPtr("M"), strPtr("Black"), 1)
	require.NoError(t, err)
	line, err := store.Add(ctx, product("P1", 50), strPtr("M"), strPtr("Black"), 2)
	require.NoError(t, err)

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 3, line.Quantity)
	assert.True(t, store.Total().Equal(decimal.NewFromInt(150)))
}

func TestAddDistinctVariants(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	ctx := context.Background()

	_, err := store.Add(ctx, product("P1", 50), strPtr("M"), strPtr("Black"), 1)
	require.NoError(t, err)
	_, err = store.Add(ctx, product("P1", 50), strPtr("L"), strPtr("Black"), 1)
	require.NoError(t, err)

	lines := store.Lines()
	require.Len(t, lines, 2)
	assert.NotEqual(t, lines[0].VariantKey, lines[1].VariantKey)
	assert.Equal(t, "P1-M-Black", lines[0].VariantKey)
	assert.True(t, store.Total().Equal(decimal.NewFromInt(100)))
}

func TestAddKeepsPriceCapturedAtAddTime(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	ctx := context.Background()

	_, err := store.Add(ctx, product("P1", 50), nil, nil, 1)
	require.NoError(t, err)
	_, err = store.Add(ctx, product("P1", 80), nil, nil, 1)
	require.NoError(t, err)

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddRejectsInvalidInput(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	ctx := context.Background()

	_, err := store.Add(ctx, product("P1", 50), nil, nil, 0)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = store.Add(ctx, product("P1", -1), nil, nil, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = store.Add(ctx, Product{Price: decimal.NewFromInt(1)}, nil, nil, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, store.Lines())
}

func TestRepeatedAddsSumQuantities(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	ctx := context.Background()

	quantities := []int{1, 4, 2, 7, 3}
	want := 0
	for _, qty := range quantities {
		_, err := store.Add(ctx, product("P2", 10), strPtr("S"), nil, qty)
		require.NoError(t, err)
		want += qty
	}

	lines := store.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, want, lines[0].Quantity)
}

func TestRemoveThenAddLeavesNoResidue(t *testing.T) {
	ctx := context.Background()
	fresh := openStore(t, NewMemorySlotStorage())
	_, err := fresh.Add(ctx, product("P1", 50), strPtr("M"), nil, 2)
	require.NoError(t, err)

	cycled := openStore(t, NewMemorySlotStorage())
	_, err = cycled.Add(ctx, product("P1", 50), strPtr("M"), nil, 5)
	require.NoError(t, err)
	removed, err := cycled.RemoveVariant(ctx, "P1", strPtr("M"), nil)
	require.NoError(t, err)
	require.True(t, removed)
	_, err = cycled.Add(ctx, product("P1", 50), strPtr("M"), nil, 2)
	require.NoError(t, err)

	assert.Equal(t, fresh.Lines(), cycled.Lines())
}

func TestUpdateQuantityZeroMatchesRemoveVariant(t *testing.T) {
	ctx := context.Background()
	seed := func() *Store {
		s := openStore(t, NewMemorySlotStorage())
		_, err := s.Add(ctx, product("P1", 50), strPtr("M"), strPtr("Black"), 2)
		require.NoError(t, err)
		_, err = s.Add(ctx, product("P1", 50), strPtr("L"), strPtr("Black"), 1)
		require.NoError(t, err)
		return s
	}

	updated := seed()
	changed, err := updated.UpdateQuantity(ctx, "P1", 0, strPtr("M"), strPtr("Black"))
	require.NoError(t, err)
	assert.True(t, changed)

	removed := seed()
	_, err = removed.RemoveVariant(ctx, "P1", strPtr("M"), strPtr("Black"))
	require.NoError(t, err)

	assert.Equal(t, removed.Lines(), updated.Lines())
}

func TestUpdateQuantitySetsExactly(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	ctx := context.Background()

	_, err := store.Add(ctx, product("P1", 50), nil, nil, 4)
	require.NoError(t, err)

	changed, err := store.UpdateQuantity(ctx, "P1", 2, nil, nil)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, store.ItemCount())

	changed, err = store.UpdateQuantity(ctx, "P1", 9, strPtr("XL"), nil)
	require.NoError(t, err)
	assert.False(t, changed, "unknown variants are left alone")
	assert.Len(t, store.Lines(), 1)
}

func TestRemoveDualMode(t *testing.T) {
	ctx := context.Background()
	seed := func() *Store {
		s := openStore(t, NewMemorySlotStorage())
		for _, size := range []string{"S", "M", "L"} {
			_, err := s.Add(ctx, product("P1", 10), strPtr(size), nil, 1)
			require.NoError(t, err)
		}
		_, err := s.Add(ctx, product("P2", 20), nil, nil, 1)
		require.NoError(t, err)
		return s
	}

	byProduct := seed()
	n, err := byProduct.Remove(ctx, "P1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, byProduct.Lines(), 1)
	assert.Equal(t, "P2", byProduct.Lines()[0].ProductID)

	byVariant := seed()
	n, err = byVariant.Remove(ctx, "P1", strPtr("M"), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, byVariant.Lines(), 3)

	n, err = byVariant.Remove(ctx, "P1", strPtr("M"), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTotalIndependentOfAddOrder(t *testing.T) {
	ctx := context.Background()
	type add struct {
		id    string
		size  string
		qty   int
		price int64
	}
	adds := []add{{"A", "S", 2, 15}, {"B", "M", 1, 99}, {"A", "L", 3, 15}, {"C", "", 4, 7}}

	forward := openStore(t, NewMemorySlotStorage())
	for _, a := range adds {
		_, err := forward.Add(ctx, product(a.id, a.price), strPtr(a.size), nil, a.qty)
		require.NoError(t, err)
	}
	backward := openStore(t, NewMemorySlotStorage())
	for i := len(adds) - 1; i >= 0; i-- {
		a := adds[i]
		_, err := backward.Add(ctx, product(a.id, a.price), strPtr(a.size), nil, a.qty)
		require.NoError(t, err)
	}

	assert.True(t, forward.Total().Equal(backward.Total()))
	assert.Equal(t, forward.ItemCount(), backward.ItemCount())
}

func TestPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemorySlotStorage()

	store := openStore(t, storage)
	_, err := store.Add(ctx, Product{ID: "P1", Name: "Tee", Price: decimal.RequireFromString("19.99"), Image: strPtr("tee.png")}, strPtr("M"), strPtr("Black"), 2)
	require.NoError(t, err)
	_, err = store.Add(ctx, product("P2", 5), nil, nil, 1)
	require.NoError(t, err)

	reopened := openStore(t, storage)
	before, after := store.Lines(), reopened.Lines()
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].VariantKey, after[i].VariantKey)
		assert.Equal(t, before[i].Quantity, after[i].Quantity)
		assert.True(t, before[i].UnitPrice.Equal(after[i].UnitPrice))
		assert.Equal(t, before[i].Image, after[i].Image)
	}

	legacy, err := ReadLegacySnapshot(ctx, storage, testKeys.Legacy)
	require.NoError(t, err)
	assert.Len(t, legacy, 2, "every write is mirrored into the legacy slot")
}

func TestOpenDiscardsCorruptSnapshot(t *testing.T) {
	cases := map[string]string{
		"not json":          "{oops",
		"wrong shape":       `{"product_id":"P1"}`,
		"zero quantity":     `[{"product_id":"P1","quantity":0,"unit_price":"5","variant_key":"P1-no-size-no-color"}]`,
		"mismatched key":    `[{"product_id":"P1","quantity":1,"unit_price":"5","variant_key":"P2-no-size-no-color"}]`,
		"duplicate variant": `[{"product_id":"P1","quantity":1,"unit_price":"5","variant_key":"P1-no-size-no-color"},{"product_id":"P1","quantity":1,"unit_price":"5","variant_key":"P1-no-size-no-color"}]`,
	}

	for name, raw := range cases {
		raw := raw
		t.Run(name, func(t *testing.T) {
			storage := NewMemorySlotStorage()
			require.NoError(t, storage.Save(context.Background(), testKeys.Primary, raw))

			var buf bytes.Buffer
			logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
			store, err := Open(context.Background(), storage, testKeys, logg, nil)
			require.NoError(t, err)
			assert.Empty(t, store.Lines())
			assert.Contains(t, buf.String(), "cart.snapshot_discarded")
		})
	}
}

func TestOpenSurfacesStorageFailure(t *testing.T) {
	_, err := Open(context.Background(), failingStorage{loadErr: errors.New("redis down")}, testKeys, nil, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestMutationStandsWhenPersistFails(t *testing.T) {
	storage := &failingStorage{saveErr: errors.New("disk full")}
	store, err := Open(context.Background(), storage, testKeys, nil, nil)
	require.NoError(t, err)

	_, err = store.Add(context.Background(), product("P1", 50), nil, nil, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Equal(t, 1, store.ItemCount())
}

func TestClearEmptiesBothSlots(t *testing.T) {
	ctx := context.Background()
	storage := NewMemorySlotStorage()
	store := openStore(t, storage)

	_, err := store.Add(ctx, product("P1", 50), nil, nil, 1)
	require.NoError(t, err)
	require.NoError(t, store.Clear(ctx))

	assert.Empty(t, store.Lines())
	assert.Empty(t, store.ReadLegacy(ctx))
	assert.Empty(t, openStore(t, storage).Lines())
}

func TestReadLegacyMergesAndDerivesKeys(t *testing.T) {
	ctx := context.Background()
	storage := NewMemorySlotStorage()
	raw := `[{"product_id":"P1","selected_size":"M","quantity":1,"unit_price":50},{"product_id":"P1","selected_size":"M","quantity":2,"unit_price":50},{"product_id":"P2","selected_color":"","quantity":1,"unit_price":"9.5"}]`
	require.NoError(t, storage.Save(ctx, testKeys.Legacy, raw))

	store := openStore(t, storage)
	lines := store.ReadLegacy(ctx)
	require.Len(t, lines, 2)
	assert.Equal(t, "P1-M-no-color", lines[0].VariantKey)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "P2-no-size-no-color", lines[1].VariantKey)
	assert.True(t, Total(lines).Equal(decimal.RequireFromString("159.5")))
}

func TestReadLegacySwallowsCorruption(t *testing.T) {
	ctx := context.Background()
	storage := NewMemorySlotStorage()
	require.NoError(t, storage.Save(ctx, testKeys.Legacy, "garbage"))

	_, err := ReadLegacySnapshot(ctx, storage, testKeys.Legacy)
	assert.True(t, IsCorrupt(err))
	assert.Empty(t, openStore(t, storage).ReadLegacy(ctx))
}

func TestLinesReturnsCopy(t *testing.T) {
	store := openStore(t, NewMemorySlotStorage())
	_, err := store.Add(context.Background(), product("P1", 50), strPtr("M"), nil, 1)
	require.NoError(t, err)

	lines := store.Lines()
	lines[0].Quantity = 99
	*lines[0].SelectedSize = "XXL"

	fresh := store.Lines()
	assert.Equal(t, 1, fresh[0].Quantity)
	assert.Equal(t, "M", *fresh[0].SelectedSize)
}

func TestMutationsAreCounted(t *testing.T) {
	recorder := &recordingMetrics{}
	store, err := Open(context.Background(), NewMemorySlotStorage(), testKeys, nil, recorder)
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = store.Add(ctx, product("P1", 1), nil, nil, 1)
	_, _ = store.UpdateQuantity(ctx, "P1", 3, nil, nil)
	_ = store.Clear(ctx)

	assert.Equal(t, []string{"add", "update_quantity", "clear"}, recorder.ops)
}

type failingStorage struct {
	loadErr error
	saveErr error
}

func (f failingStorage) Load(context.Context, string) (string, bool, error) {
	return "", false, f.loadErr
}

func (f failingStorage) Save(context.Context, string, string) error {
	return f.saveErr
}

type recordingMetrics struct {
	ops []string
}

func (r *recordingMetrics) IncCartMutation(op string) {
	r.ops = append(r.ops, op)
}
