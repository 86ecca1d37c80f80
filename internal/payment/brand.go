package payment

import "strings"

// DetectBrand guesses the card brand from the PAN prefix. Unknown prefixes
// come back empty; the backend treats them as a generic card.
func DetectBrand(pan string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, pan)

	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "4"):
		return "visa"
	case hasPrefixInRange(digits, 2, 51, 55), hasPrefixInRange(digits, 4, 2221, 2720):
		return "mastercard"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "amex"
	case strings.HasPrefix(digits, "6011"), strings.HasPrefix(digits, "65"),
		hasPrefixInRange(digits, 3, 644, 649):
		return "discover"
	default:
		return ""
	}
}

func hasPrefixInRange(digits string, width, lo, hi int) bool {
	if len(digits) < width {
		return false
	}
	prefix := 0
	for _, r := range digits[:width] {
		prefix = prefix*10 + int(r-'0')
	}
	return prefix >= lo && prefix <= hi
}
