// Package search builds the page-level text index and answers the
// query modes over it.
package search

import (
	"regexp"
	"strings"
	"unicode"
)

var dottedAcronymRe = regexp.MustCompile(`\b(?:[A-Za-z]\.){2,}`)

// collapseDottedAcronyms rewrites "U.S." as "US" so acronyms index and
// query the same way regardless of punctuation.
func collapseDottedAcronyms(s string) string {
	return dottedAcronymRe.ReplaceAllStringFunc(s, func(m string) string {
		return strings.ReplaceAll(m, ".", "")
	})
}

// SearchableText lowercases and replaces every non-alphanumeric rune
// (other than whitespace) with a single space.
func SearchableText(normalized string) string {
	s := collapseDottedAcronyms(normalized)
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Tokenize splits searchable text on whitespace, keeping order and
// duplicates.
func Tokenize(searchable string) []string {
	return strings.Fields(searchable)
}

// QueryTokens applies the exact index-side pipeline to a raw query.
func QueryTokens(query string) []string {
	return Tokenize(SearchableText(query))
}
