package enums

import "fmt"

// PaymentOutcome is the result reported by the payment simulator.
type PaymentOutcome string

const (
	PaymentOutcomeTestSuccess       PaymentOutcome = "test_success"
	PaymentOutcomeTestParamMismatch PaymentOutcome = "test_param_mismatch"
	PaymentOutcomeNonTestReject     PaymentOutcome = "non_test_reject"
)

var validPaymentOutcomes = []PaymentOutcome{
	PaymentOutcomeTestSuccess,
	PaymentOutcomeTestParamMismatch,
	PaymentOutcomeNonTestReject,
}

// String implements fmt.Stringer.
func (p PaymentOutcome) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentOutcome.
func (p PaymentOutcome) IsValid() bool {
	for _, candidate := range validPaymentOutcomes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentOutcome converts raw input into a PaymentOutcome.
func ParsePaymentOutcome(value string) (PaymentOutcome, error) {
	for _, candidate := range validPaymentOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment outcome %q", value)
}

// Approved reports whether the outcome completes an order.
func (p PaymentOutcome) Approved() bool {
	return p == PaymentOutcomeTestSuccess
}
