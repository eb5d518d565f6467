package backend

import "strings"

const (
	defaultPhoneCode = "52"
	nationalDigits   = 10
)

// splitPhone separates a phone number into country code and national number.
// Anything that is not a digit is dropped. Numbers longer than ten digits
// carry their country code as the leading digits; shorter ones get
// defaultCode.
func splitPhone(raw, defaultCode string) (code, number string) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if defaultCode == "" {
		defaultCode = defaultPhoneCode
	}
	if len(digits) <= nationalDigits {
		return defaultCode, digits
	}
	return digits[:len(digits)-nationalDigits], digits[len(digits)-nationalDigits:]
}

// SplitPhone is splitPhone with the Mexican country code as default.
func SplitPhone(raw string) (code, number string) {
	return splitPhone(raw, defaultPhoneCode)
}
