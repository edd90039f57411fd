package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// normalize trims every field so whitespace-only input counts as empty.
func (s ShippingInfo) normalize() ShippingInfo {
	return ShippingInfo{
		FirstName:  strings.TrimSpace(s.FirstName),
		LastName:   strings.TrimSpace(s.LastName),
		Email:      strings.TrimSpace(s.Email),
		Phone:      strings.TrimSpace(s.Phone),
		Address:    strings.TrimSpace(s.Address),
		City:       strings.TrimSpace(s.City),
		PostalCode: strings.TrimSpace(s.PostalCode),
		Country:    strings.TrimSpace(s.Country),
	}
}

func (p PaymentInfo) normalize() PaymentInfo {
	return PaymentInfo{
		CardNumber: strings.TrimSpace(p.CardNumber),
		CardName:   strings.TrimSpace(p.CardName),
		ExpiryDate: strings.TrimSpace(p.ExpiryDate),
		CVV:        strings.TrimSpace(p.CVV),
	}
}

// ValidateShipping reports the first failing shipping field.
func ValidateShipping(info ShippingInfo) error {
	return firstFieldError(validate.Struct(info.normalize()))
}

// ValidatePayment reports the first missing payment field.
func ValidatePayment(info PaymentInfo) error {
	return firstFieldError(validate.Struct(info.normalize()))
}

// firstFieldError keeps only the first failure. The validator walks fields in
// declaration order, which is the order the forms present them.
func firstFieldError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	fe := fieldErrs[0]
	reason := fieldReason(fe)
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %s", fe.Field(), reason)).WithDetails(map[string]any{
		"field":  fe.Field(),
		"reason": reason,
	})
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "contains":
		return fmt.Sprintf("must contain %q", fe.Param())
	}
	return "is invalid"
}
