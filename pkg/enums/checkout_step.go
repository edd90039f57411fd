package enums

import "fmt"

// CheckoutStep tracks where a checkout session is in the shipping to payment flow.
type CheckoutStep string

const (
	CheckoutStepShipping   CheckoutStep = "shipping"
	CheckoutStepPayment    CheckoutStep = "payment"
	CheckoutStepSubmitting CheckoutStep = "submitting"
	CheckoutStepCompleted  CheckoutStep = "completed"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepShipping,
	CheckoutStepPayment,
	CheckoutStepSubmitting,
	CheckoutStepCompleted,
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CheckoutStep.
func (s CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}

// IsTerminal reports whether no further transitions are allowed.
func (s CheckoutStep) IsTerminal() bool {
	return s == CheckoutStepCompleted
}
