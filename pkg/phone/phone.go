// Package phone converts heterogeneous phone number strings into E.164 form
// for the countries AutoRemind supports. Normalization gates deduplication
// and display, so it must stay deterministic: identical input always yields
// identical output, and no input ever produces an error.
package phone

import (
	"regexp"
	"strings"
)

type countryRule struct {
	pattern *regexp.Regexp
	prefix  string
	// dropLeadingZero strips the national trunk prefix before applying
	// the country code.
	dropLeadingZero bool
}

// Rules are checked in order because national formats overlap: the Swiss
// 07[4-9] block must be tested before the French 07 block, the Portuguese
// 09 block before the French 09 block, and bare Italian numbers before the
// nine-digit Portuguese fallback.
var rules = []countryRule{
	// Leading-zero national mobile formats.
	{regexp.MustCompile(`^07[4-9]\d{7}$`), "+41", true},           // Switzerland
	{regexp.MustCompile(`^09\d{8}$`), "+351", true},               // Portugal
	{regexp.MustCompile(`^0[67]\d{8}$`), "+33", true},             // France
	{regexp.MustCompile(`^07\d{9}$`), "+44", true},                // United Kingdom
	{regexp.MustCompile(`^01[5-7]\d{8,9}$`), "+49", true},         // Germany
	// Bare mobile formats (no trunk prefix).
	{regexp.MustCompile(`^3\d{8,9}$`), "+39", false},              // Italy
	{regexp.MustCompile(`^[67]\d{8}$`), "+34", false},             // Spain
	{regexp.MustCompile(`^9[1236]\d{7}$`), "+351", false},         // Portugal
	{regexp.MustCompile(`^[2-9]\d{2}[2-9]\d{6}$`), "+1", false},   // North America
}

var nineDigits = regexp.MustCompile(`^\d{9}$`)

// Normalize returns the E.164 form of raw. It is pure and total: empty input
// returns the empty string, and unrecognized input is returned with a
// best-effort "+" prefix rather than an error.
func Normalize(raw string) string {
	cleaned := clean(raw)
	if cleaned == "" {
		return ""
	}

	if strings.HasPrefix(cleaned, "00") {
		cleaned = "+" + cleaned[2:]
	}
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}

	for _, rule := range rules {
		if !rule.pattern.MatchString(cleaned) {
			continue
		}
		digits := cleaned
		if rule.dropLeadingZero {
			digits = digits[1:]
		}
		return rule.prefix + digits
	}

	// Any other nine-digit number defaults to Portugal.
	if nineDigits.MatchString(cleaned) {
		return "+351" + cleaned
	}

	return "+" + cleaned
}

// clean strips everything except digits and a single leading "+".
func clean(raw string) string {
	trimmed := strings.TrimSpace(raw)
	var b strings.Builder
	if strings.HasPrefix(trimmed, "+") {
		b.WriteByte('+')
	}
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}
