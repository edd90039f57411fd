package cart

import "strings"

const (
	noSizePlaceholder  = "no-size"
	noColorPlaceholder = "no-color"
)

// ResolveKey derives the composite identity of a cart line. An absent or blank
// selection maps to a fixed placeholder so a product without variant axes has a
// single canonical key.
func ResolveKey(productID string, size, color *string) string {
	sizePart := noSizePlaceholder
	if s := normalizeSelection(size); s != nil {
		sizePart = *s
	}
	colorPart := noColorPlaceholder
	if c := normalizeSelection(color); c != nil {
		colorPart = *c
	}
	return productID + "-" + sizePart + "-" + colorPart
}

// normalizeSelection treats an empty selection the same as no selection.
func normalizeSelection(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
