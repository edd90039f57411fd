package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCorruptSnapshot marks a persisted cart payload that could not be used.
var ErrCorruptSnapshot = errors.New("cart snapshot is corrupt")

// Product is the catalog data captured when a line is first added.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image *string
}

// Line is one priced, quantified cart entry identified by its variant key.
type Line struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name,omitempty"`
	Image         *string         `json:"image,omitempty"`
	SelectedSize  *string         `json:"selected_size,omitempty"`
	SelectedColor *string         `json:"selected_color,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VariantKey    string          `json:"variant_key"`
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l Line) validate() error {
	switch {
	case strings.TrimSpace(l.ProductID) == "":
		return fmt.Errorf("line missing product id")
	case l.Quantity < 1:
		return fmt.Errorf("line %s has quantity %d", l.VariantKey, l.Quantity)
	case l.UnitPrice.IsNegative():
		return fmt.Errorf("line %s has negative unit price", l.VariantKey)
	case l.VariantKey != ResolveKey(l.ProductID, l.SelectedSize, l.SelectedColor):
		return fmt.Errorf("line %s does not match its selections", l.VariantKey)
	}
	return nil
}

// Snapshot is a read-only view of the cart with its derived totals.
type Snapshot struct {
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Total sums unit price times quantity over all lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// ItemCount sums quantities over all lines.
func ItemCount(lines []Line) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

func encodeLines(lines []Line) (string, error) {
	if lines == nil {
		lines = []Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encoding cart lines: %w", err)
	}
	return string(raw), nil
}

// decodeLines parses the primary slot. Any invalid or duplicated line makes the
// whole payload unusable.
func decodeLines(raw string) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if err := line.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if _, dup := seen[line.VariantKey]; dup {
			return nil, fmt.Errorf("%w: duplicate variant %s", ErrCorruptSnapshot, line.VariantKey)
		}
		seen[line.VariantKey] = struct{}{}
	}
	return lines, nil
}

// decodeLegacyLines parses raw cart contents written by older flows. Those
// writers did not always store a variant key, so keys are re-derived and
// repeated variants are merged.
func decodeLegacyLines(raw string) ([]Line, error) {
	var rows []Line
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	lines := make([]Line, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		row.SelectedSize = normalizeSelection(row.SelectedSize)
		row.SelectedColor = normalizeSelection(row.SelectedColor)
		row.VariantKey = ResolveKey(row.ProductID, row.SelectedSize, row.SelectedColor)
		if err := row.validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if i, ok := index[row.VariantKey]; ok {
			lines[i].Quantity += row.Quantity
			continue
		}
		index[row.VariantKey] = len(lines)
		lines = append(lines, row)
	}
	return lines, nil
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, line := range lines {
		out[i] = line
		out[i].SelectedSize = cloneString(line.SelectedSize)
		out[i].SelectedColor = cloneString(line.SelectedColor)
		out[i].Image = cloneString(line.Image)
	}
	return out
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
