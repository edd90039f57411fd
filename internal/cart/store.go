package cart

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// SlotKeys names the primary slot and the legacy mirror of one cart.
type SlotKeys struct {
	Primary string
	Legacy  string
}

type mutationRecorder interface {
	IncCartMutation(operation string)
}

// Store owns the lines of one cart. It is the only writer of its slots; every
// mutation is applied in memory first and then written to storage.
type Store struct {
	mu      sync.Mutex
	lines   []Line
	storage SlotStorage
	keys    SlotKeys
	logg    *logger.Logger
	metrics mutationRecorder
}

// Open rehydrates a cart from its primary slot. A missing slot yields an empty
// cart; a corrupt one is logged and discarded.
func Open(ctx context.Context, storage SlotStorage, keys SlotKeys, logg *logger.Logger, metrics mutationRecorder) (*Store, error) {
	if storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart slot storage required")
	}
	if keys.Primary == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart slot key required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{storage: storage, keys: keys, logg: logg, metrics: metrics}

	raw, ok, err := storage.Load(ctx, keys.Primary)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return s, nil
	}
	lines, err := decodeLines(raw)
	if err != nil {
		ctx = logg.WithFields(ctx, map[string]any{"slot": keys.Primary, "error": err.Error()})
		logg.Warn(ctx, "cart.snapshot_discarded")
		return s, nil
	}
	s.lines = lines
	return s, nil
}

// Add merges quantity into the line for the selected variant, or appends a
// new line priced at the product's current price.
func (s *Store) Add(ctx context.Context, product Product, size, color *string, quantity int) (Line, error) {
	if strings.TrimSpace(product.ID) == "" {
		return Line{}, validationError("product_id", "is required")
	}
	if quantity < 1 {
		return Line{}, validationError("quantity", "must be at least 1")
	}
	if product.Price.IsNegative() {
		return Line{}, validationError("unit_price", "must not be negative")
	}
	size = normalizeSelection(size)
	color = normalizeSelection(color)
	key := ResolveKey(product.ID, size, color)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(key); i >= 0 {
		s.lines[i].Quantity += quantity
		line := s.lines[i]
		return line, s.persist(ctx, enums.CartOperationAdd)
	}

	line := Line{
		ProductID:     product.ID,
		Name:          product.Name,
		Image:         cloneString(product.Image),
		SelectedSize:  size,
		SelectedColor: color,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		VariantKey:    key,
	}
	s.lines = append(s.lines, line)
	return line, s.persist(ctx, enums.CartOperationAdd)
}

// RemoveVariant removes exactly the line for the selected variant.
func (s *Store) RemoveVariant(ctx context.Context, productID string, size, color *string) (bool, error) {
	key := ResolveKey(productID, size, color)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return false, nil
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return true, s.persist(ctx, enums.CartOperationRemoveVariant)
}

// RemoveAllVariantsOfProduct removes every line of the product and reports how
// many were dropped.
func (s *Store) RemoveAllVariantsOfProduct(ctx context.Context, productID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.lines[:0]
	removed := 0
	for _, line := range s.lines {
		if line.ProductID == productID {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	s.lines = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persist(ctx, enums.CartOperationRemoveProduct)
}

// Remove keeps the older single-call contract: without any selection it drops
// all variants of the product, otherwise only the selected variant.
func (s *Store) Remove(ctx context.Context, productID string, size, color *string) (int, error) {
	if normalizeSelection(size) == nil && normalizeSelection(color) == nil {
		return s.RemoveAllVariantsOfProduct(ctx, productID)
	}
	removed, err := s.RemoveVariant(ctx, productID, size, color)
	if removed {
		return 1, err
	}
	return 0, err
}

// UpdateQuantity sets the selected variant's quantity exactly. A quantity of
// zero or less removes the variant. Unknown variants are left alone.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int, size, color *string) (bool, error) {
	if quantity <= 0 {
		return s.RemoveVariant(ctx, productID, size, color)
	}
	key := ResolveKey(productID, size, color)

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(key)
	if i < 0 {
		return false, nil
	}
	s.lines[i].Quantity = quantity
	return true, s.persist(ctx, enums.CartOperationUpdateQuantity)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.persist(ctx, enums.CartOperationClear)
}

// Total sums unit price times quantity over all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.lines)
}

// ItemCount sums the quantities of all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ItemCount(s.lines)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLines(s.lines)
}

// Snapshot returns the lines together with their totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Lines:     cloneLines(s.lines),
		Total:     Total(s.lines),
		ItemCount: ItemCount(s.lines),
	}
}

// ReadLegacy returns the lines of the legacy slot. Corrupt contents are logged
// and read as an empty cart.
func (s *Store) ReadLegacy(ctx context.Context) []Line {
	if s.keys.Legacy == "" {
		return nil
	}
	lines, err := ReadLegacySnapshot(ctx, s.storage, s.keys.Legacy)
	if err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"slot": s.keys.Legacy, "error": err.Error()})
		s.logg.Warn(ctx, "cart.legacy_snapshot_unreadable")
		return nil
	}
	return lines
}

// ReadLegacySnapshot reads raw cart contents from the legacy slot. A missing
// slot reads as an empty cart.
func ReadLegacySnapshot(ctx context.Context, storage SlotStorage, key string) ([]Line, error) {
	raw, ok, err := storage.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	return decodeLegacyLines(raw)
}

func (s *Store) indexOf(key string) int {
	for i, line := range s.lines {
		if line.VariantKey == key {
			return i
		}
	}
	return -1
}

// persist writes the current lines to the primary slot and mirrors them into
// the legacy slot. Callers hold s.mu so writes land in mutation order.
func (s *Store) persist(ctx context.Context, op enums.CartOperation) error {
	if s.metrics != nil {
		s.metrics.IncCartMutation(op.String())
	}
	raw, err := encodeLines(s.lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}

	err = s.storage.Save(ctx, s.keys.Primary, raw)
	if s.keys.Legacy != "" {
		err = multierr.Append(err, s.storage.Save(ctx, s.keys.Legacy, raw))
	}
	if err != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"operation": op.String(), "slot": s.keys.Primary})
		s.logg.Error(ctx, "cart.persist_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

func validationError(field, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, field+" "+reason).WithDetails(map[string]any{
		"field":  field,
		"reason": reason,
	})
}

// IsCorrupt reports whether err came from an unusable persisted cart.
func IsCorrupt(err error) bool {
	return errors.Is(err, ErrCorruptSnapshot)
}
