// Package normalize makes free-form fund, category and column names
// comparable across sources. Every function is pure and total.
package normalize

import (
	"strings"
	"unicode"
)

// planKeywords mark a trailing " - " segment as a plan/option variant.
var planKeywords = []string{"regular", "direct", "growth", "dividend", "idcw", "bonus", "plan"}

const segmentSeparator = " - "

// CleanText lowercases s, drops everything outside [a-z0-9] and then maps
// every remaining 'o' to '0', so O/0 typos in category codes compare equal.
func CleanText(s string) string {
	return strings.ReplaceAll(alnum(s), "o", "0")
}

// FundName lowercases s and drops everything outside [a-z0-9].
func FundName(s string) string {
	return alnum(s)
}

// ColumnName lowercases s and removes all whitespace.
func ColumnName(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// CoreFundName strips a trailing plan/option segment such as
// " - Direct Plan Growth" from a fund name. Names without such a segment
// are returned trimmed.
func CoreFundName(s string) string {
	if strings.Contains(s, segmentSeparator) {
		parts := strings.Split(s, segmentSeparator)
		last := strings.ToLower(parts[len(parts)-1])
		for _, kw := range planKeywords {
			if strings.Contains(last, kw) {
				return strings.TrimSpace(strings.Join(parts[:len(parts)-1], segmentSeparator))
			}
		}
	}
	return strings.TrimSpace(s)
}

// FundKey is the matching key for a fund: its core name, alnum-normalized.
func FundKey(s string) string {
	return FundName(CoreFundName(s))
}

// alnum lowercases s and keeps only ASCII letters and digits
func alnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
