// internal/validate/phone.go
package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var e164Rx = regexp.MustCompile(`^\+[0-9]{10,15}$`)

// NormalizePhone canonicalizes a raw phone value into an E.164-like string.
// Spreadsheet exports produce all kinds of garbage here: punctuation,
// exponent notation from numeric cells, missing country codes. Returns
// ("", false) when the value cannot be made usable.
func NormalizePhone(raw, countryCode string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}

	// Numeric cells exported as floats, e.g. "5.551234567e+09".
	if strings.ContainsAny(s, "eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			s = strconv.FormatFloat(f, 'f', 0, 64)
		}
	}

	hasPlus := strings.HasPrefix(s, "+")
	digits := keepDigits(s)

	if !hasPlus {
		switch {
		case len(digits) == 10:
			digits = countryCode + digits
		case len(digits) == 11 && strings.HasPrefix(digits, countryCode):
			// already carries the country code
		default:
			return "", false
		}
	}

	normalized := "+" + digits
	if !e164Rx.MatchString(normalized) {
		return "", false
	}
	return normalized, true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteByte(byte(c))
		}
	}
	return b.String()
}
