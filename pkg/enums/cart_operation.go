package enums

import "fmt"

// CartOperation labels cart mutations for metrics and logs.
type CartOperation string

const (
	CartOperationAdd            CartOperation = "add"
	CartOperationRemoveVariant  CartOperation = "remove_variant"
	CartOperationRemoveProduct  CartOperation = "remove_product"
	CartOperationUpdateQuantity CartOperation = "update_quantity"
	CartOperationClear          CartOperation = "clear"
)

var validCartOperations = []CartOperation{
	CartOperationAdd,
	CartOperationRemoveVariant,
	CartOperationRemoveProduct,
	CartOperationUpdateQuantity,
	CartOperationClear,
}

// String implements fmt.Stringer.
func (o CartOperation) String() string {
	return string(o)
}

// IsValid reports whether the value is a known CartOperation.
func (o CartOperation) IsValid() bool {
	for _, candidate := range validCartOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseCartOperation converts raw input into a CartOperation.
func ParseCartOperation(value string) (CartOperation, error) {
	for _, candidate := range validCartOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart operation %q", value)
}
