// Package phone normalizes and validates dialable phone numbers into the
// canonical "+<countrycode><digits>" form used as the contact identity key.
package phone

import (
	"errors"
	"strings"
)

var (
	ErrNoDigits          = errors.New("phone: no digits in input")
	ErrUnsupportedPrefix = errors.New("phone: unsupported country prefix")
	ErrBadLength         = errors.New("phone: digit count outside 7..15")
)

// Length bounds for the digit count (country code included, "+" excluded).
// E.164 caps at 15; anything under 7 is not a dialable subscriber number.
const (
	minDigits = 7
	maxDigits = 15
)

// countryPrefixes is the fixed, ordered set of supported country codes.
// Matching is first-match in this order. Overlapping prefixes are not
// disambiguated further; ordering is the tie-breaker.
var countryPrefixes = []string{
	"+256", "+254", "+255", "+250", "+257", "+211", "+243", "+260", "+263", "+265",
	"+251", "+252", "+249", "+234", "+233", "+27", "+91", "+92", "+880", "+971",
	"+966", "+20", "+212", "+44", "+49", "+33", "+39", "+34", "+31", "+1",
}

// Normalize canonicalizes raw user input into "+<cc><digits>".
//
// Everything except digits and a leading "+" is stripped. Input that already
// carries a "+" must start with a supported country prefix. Input without one
// is treated as local format: a single leading "0" is dropped and defaultCC
// is prepended.
func Normalize(raw, defaultCC string) (string, error) {
	plus := strings.HasPrefix(strings.TrimSpace(raw), "+")
	digits := keepDigits(raw)
	if digits == "" {
		return "", ErrNoDigits
	}

	var candidate string
	if plus {
		candidate = "+" + digits
		if matchPrefix(candidate) == "" {
			return "", ErrUnsupportedPrefix
		}
	} else {
		digits = strings.TrimPrefix(digits, "0")
		cc, err := CleanCountryCode(defaultCC)
		if err != nil {
			return "", err
		}
		candidate = cc + digits
	}

	if n := len(candidate) - 1; n < minDigits || n > maxDigits {
		return "", ErrBadLength
	}
	if !Valid(candidate) {
		return "", ErrUnsupportedPrefix
	}
	return candidate, nil
}

// Valid reports whether phone is a canonical number: supported prefix,
// digits only after the "+", digit count within bounds.
func Valid(phone string) bool {
	if !strings.HasPrefix(phone, "+") {
		return false
	}
	rest := phone[1:]
	if len(rest) < minDigits || len(rest) > maxDigits {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return matchPrefix(phone) != ""
}

// CleanCountryCode normalizes a configured default country code ("256",
// "+256") and checks it against the supported set.
func CleanCountryCode(cc string) (string, error) {
	digits := keepDigits(cc)
	if digits == "" {
		return "", ErrNoDigits
	}
	out := "+" + digits
	for _, p := range countryPrefixes {
		if out == p {
			return out, nil
		}
	}
	return "", ErrUnsupportedPrefix
}

func matchPrefix(phone string) string {
	for _, p := range countryPrefixes {
		if strings.HasPrefix(phone, p) {
			return p
		}
	}
	return ""
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
