package exercise

import (
	"strings"
	"unicode"
)

// Normalize prepares a response or accepted answer for comparison.
//
// Normalization rules:
// - Whitespace is trimmed and internal runs collapse to a single space
// - Comparison is case-insensitive
// - Typographic quotes and apostrophes fold to their ASCII forms
// - Trailing sentence punctuation (. ! ?) is dropped
func Normalize(s string) string {
	s = strings.Map(foldQuote, s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || unicode.IsSpace(r)
	})
	return strings.ToLower(s)
}

func foldQuote(r rune) rune {
	switch r {
	case '‘', '’', 'ʼ', '`', '´':
		return '\''
	case '“', '”':
		return '"'
	}
	return r
}

// matches classifies a normalized response against an item.
func matches(cmp Comparison, item Item, normalized string) bool {
	switch cmp {
	case ComparisonExact:
		return normalized == Normalize(item.Canonical())
	default:
		for _, a := range item.Accept {
			if normalized == Normalize(a) {
				return true
			}
		}
		return false
	}
}
