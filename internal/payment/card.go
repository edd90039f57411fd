package payment

import (
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// NormalizeCardNumber strips everything but digits.
func NormalizeCardNumber(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Last4 returns the final four digits of the normalized number.
func Last4(raw string) string {
	digits := NormalizeCardNumber(raw)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// DetectCardType maps the number's issuer prefix to a card network.
func DetectCardType(raw string) enums.CardType {
	digits := NormalizeCardNumber(raw)
	switch {
	case digits == "":
		return enums.CardTypeUnknown
	case strings.HasPrefix(digits, "4"):
		return enums.CardTypeVisa
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return enums.CardTypeAmex
	case prefixInRange(digits, 2, 51, 55), prefixInRange(digits, 4, 2221, 2720):
		return enums.CardTypeMastercard
	case strings.HasPrefix(digits, "6011"), strings.HasPrefix(digits, "65"), prefixInRange(digits, 3, 644, 649):
		return enums.CardTypeDiscover
	}
	return enums.CardTypeUnknown
}

func prefixInRange(digits string, width, low, high int) bool {
	if len(digits) < width {
		return false
	}
	prefix, err := strconv.Atoi(digits[:width])
	if err != nil {
		return false
	}
	return prefix >= low && prefix <= high
}
