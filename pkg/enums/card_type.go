package enums

import "fmt"

// CardType is the card network detected from the card number prefix.
type CardType string

const (
	CardTypeVisa       CardType = "visa"
	CardTypeMastercard CardType = "mastercard"
	CardTypeAmex       CardType = "amex"
	CardTypeDiscover   CardType = "discover"
	CardTypeUnknown    CardType = "unknown"
)

var validCardTypes = []CardType{
	CardTypeVisa,
	CardTypeMastercard,
	CardTypeAmex,
	CardTypeDiscover,
	CardTypeUnknown,
}

// String implements fmt.Stringer.
func (c CardType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CardType.
func (c CardType) IsValid() bool {
	for _, candidate := range validCardTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCardType converts raw input into a CardType.
func ParseCardType(value string) (CardType, error) {
	for _, candidate := range validCardTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid card type %q", value)
}
