// Package phone turns user-entered phone numbers into canonical "+<country code><national number>" form.
package phone

import (
	"fmt"
	"strings"

	"waphone/internal/domain"
)

const (
	DefaultCountry   = "EG"
	DefaultDialCode  = "20"
	DefaultMinLength = 9
	DefaultMaxLength = 15
)

// DialCodes maps upper-case ISO 3166-1 alpha-2 codes to dial codes.
type DialCodes map[string]string

// Lookup is case-insensitive and never returns an empty string.
func (d DialCodes) Lookup(iso string) string {
	if code, ok := d[strings.ToUpper(strings.TrimSpace(iso))]; ok && code != "" {
		return code
	}
	return DefaultDialCode
}

// Table returns the built-in dial code table. Callers must not modify it.
func Table() DialCodes { return countryDialCodes }

// DialCode looks up iso in the built-in table, defaulting to Egypt.
func DialCode(iso string) string { return countryDialCodes.Lookup(iso) }

type Normalizer struct {
	MinLength      int
	MaxLength      int
	DefaultCountry string
	Codes          DialCodes
}

// NewNormalizer applies the default bounds and country when zero values are given.
func NewNormalizer(minLen, maxLen int, country string, codes DialCodes) *Normalizer {
	if minLen <= 0 {
		minLen = DefaultMinLength
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxLength
	}
	if strings.TrimSpace(country) == "" {
		country = DefaultCountry
	}
	if codes == nil {
		codes = countryDialCodes
	}
	return &Normalizer{MinLength: minLen, MaxLength: maxLen, DefaultCountry: country, Codes: codes}
}

// Normalize returns raw in canonical form.
//
// Input that already carries a leading '+' is only stripped of non-digits; its length is not checked.
// Otherwise the digit count must fall within [MinLength, MaxLength], a single leading zero (local
// trunk prefix) is dropped and the default country's dial code is prepended.
func (n *Normalizer) Normalize(raw string) (string, error) {
	cleaned := keep(raw, func(r rune) bool { return isDigit(r) || r == '+' })
	if strings.HasPrefix(cleaned, "+") {
		return "+" + digits(cleaned), nil
	}

	national := digits(cleaned)
	if len(national) < n.MinLength || len(national) > n.MaxLength {
		return "", fmt.Errorf("%w: phone %q has %d digits, want %d-%d", domain.ErrValidation, raw, len(national), n.MinLength, n.MaxLength)
	}

	codes := n.Codes
	if codes == nil {
		codes = countryDialCodes
	}
	national = strings.TrimPrefix(national, "0")
	return "+" + codes.Lookup(n.DefaultCountry) + national, nil
}

// Digits strips everything except ASCII digits.
func Digits(s string) string { return digits(s) }

func digits(s string) string { return keep(s, isDigit) }

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func keep(s string, ok func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
