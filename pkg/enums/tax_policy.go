package enums

import "fmt"

// TaxPolicy names one of the independently configured pricing call sites.
type TaxPolicy string

const (
	TaxPolicyCart     TaxPolicy = "cart"
	TaxPolicyCheckout TaxPolicy = "checkout"
)

var validTaxPolicies = []TaxPolicy{
	TaxPolicyCart,
	TaxPolicyCheckout,
}

// String implements fmt.Stringer.
func (t TaxPolicy) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TaxPolicy.
func (t TaxPolicy) IsValid() bool {
	for _, candidate := range validTaxPolicies {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTaxPolicy converts raw input into a TaxPolicy.
func ParseTaxPolicy(value string) (TaxPolicy, error) {
	for _, candidate := range validTaxPolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tax policy %q", value)
}
