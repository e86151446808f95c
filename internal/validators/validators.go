// Package validators provides programmatic, post-regex validation functions
// for specific sensitive data types: structural and known-invalid-pattern
// checks that a regex alone cannot express. They reduce false positives on
// rules that opt into ProgrammaticValidation.
package validators

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Func validates a raw matched string, returning true if the match should be
// treated as genuine and redacted.
type Func func(match string) bool

// registry maps a rule name to its validator. Names not present default to
// accept-everything (the caller logs a debug note in that case).
var registry = map[string]Func{
	"us_ssn":          ValidSSN,
	"uk_nino":         ValidUKNINO,
	"visa_card":       ValidLuhn,
	"mastercard_card": ValidLuhn,
	"amex_card":       ValidLuhn,
	"discover_card":   ValidLuhn,
}

// Lookup returns the validator registered for ruleName, if any.
func Lookup(ruleName string) (Func, bool) {
	f, ok := registry[ruleName]
	return f, ok
}

// ValidSSN validates a US Social Security Number of the form "AAA-GG-SSSS".
//
// Invalid area numbers: 000, 666, >= 900, or in [700, 729].
// Invalid group/serial: either part is all zero.
func ValidSSN(ssn string) bool {
	ssn = width.Fold.String(ssn)
	parts := strings.Split(ssn, "-")
	if len(parts) != 3 {
		return false
	}
	area, group, serial := parts[0], parts[1], parts[2]

	if len(area) != 3 || !allDigits(area) {
		return false
	}
	if len(group) != 2 || !allDigits(group) {
		return false
	}
	if len(serial) != 4 || !allDigits(serial) {
		return false
	}

	areaNum, err := strconv.Atoi(area)
	if err != nil {
		return false
	}
	groupNum, err := strconv.Atoi(group)
	if err != nil {
		return false
	}
	serialNum, err := strconv.Atoi(serial)
	if err != nil {
		return false
	}

	if areaNum == 0 || areaNum == 666 || areaNum >= 900 || (areaNum >= 700 && areaNum <= 729) {
		return false
	}
	if groupNum == 0 || serialNum == 0 {
		return false
	}
	return true
}

var invalidNINOPrefixes = map[string]struct{}{
	"BF": {}, "BG": {}, "EH": {}, "GB": {}, "JE": {}, "NK": {},
	"KN": {}, "LI": {}, "NT": {}, "TN": {}, "ZZ": {},
}

var invalidNINOPrefixChars = map[byte]struct{}{
	'D': {}, 'F': {}, 'I': {}, 'Q': {}, 'U': {}, 'V': {}, 'O': {},
}

var validNINOSuffixChars = map[byte]struct{}{
	'A': {}, 'B': {}, 'C': {}, 'D': {},
}

// ValidUKNINO validates a UK National Insurance Number of the form
// "AA DDDDDD A" (2 letters, 6 digits, 1 suffix letter), per HMRC's published
// prefix/suffix exclusion rules.
func ValidUKNINO(nino string) bool {
	normalized := normalizeNINO(nino)
	if len(normalized) != 9 {
		return false
	}

	if !isAlpha(normalized[0]) || !isAlpha(normalized[1]) {
		return false
	}
	for i := 2; i < 8; i++ {
		if normalized[i] < '0' || normalized[i] > '9' {
			return false
		}
	}
	if !isAlpha(normalized[8]) {
		return false
	}

	prefix := normalized[0:2]
	if _, bad := invalidNINOPrefixes[prefix]; bad {
		return false
	}
	if _, bad := invalidNINOPrefixChars[normalized[0]]; bad {
		return false
	}
	if _, bad := invalidNINOPrefixChars[normalized[1]]; bad {
		return false
	}
	if _, ok := validNINOSuffixChars[normalized[8]]; !ok {
		return false
	}
	return true
}

// normalizeNINO folds full-width digits/letters (as seen in text pasted
// from some East Asian IME terminal sessions) to their halfwidth ASCII
// equivalents, strips whitespace, and uppercases.
func normalizeNINO(s string) string {
	upper := strings.ToUpper(width.Fold.String(s))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidLuhn runs the Luhn checksum over the digit characters of match,
// ignoring any separators (spaces, dashes) that a card-number rule's
// capture may include. Used by the payment-card family of rules.
func ValidLuhn(match string) bool {
	var digits []int
	for _, r := range match {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, int(r-'0'))
		case r == ' ' || r == '-':
			continue
		default:
			return false
		}
	}
	if len(digits) < 12 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
