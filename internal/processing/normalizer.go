// Package processing turns raw OCR output into normalized text and
// extracted entities ready for indexing.
package processing

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer(
	"ﬀ", "ff",
	"ﬁ", "fi",
	"ﬂ", "fl",
	"ﬃ", "ffi",
	"ﬄ", "ffl",
	"ﬅ", "st",
	"ﬆ", "st",
	"æ", "ae",
	"œ", "oe",
	"Æ", "AE",
	"Œ", "OE",
)

// Normalize produces the canonical text form stored alongside the raw
// OCR output: NFKC, ligatures expanded, hyphenated line breaks joined,
// control characters stripped, whitespace runs collapsed. Applying it
// twice gives the same result.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := ligatures.Replace(raw)
	s = norm.NFKC.String(s)

	// A soft or ASCII hyphen at end of line is a typesetting break, not
	// a real hyphen: "flow-\nchart" reads "flowchart".
	s = strings.ReplaceAll(s, "­\n", "")
	s = strings.ReplaceAll(s, "­\r\n", "")
	s = joinHyphenBreaks(s)
	s = strings.ReplaceAll(s, "­", "")

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimRight(b.String(), " ")
}

// joinHyphenBreaks removes "-\n" only when both sides are letters, so
// real dash usage ("pre-\n2010" stays split) survives.
func joinHyphenBreaks(s string) string {
	runes := []rune(s)
	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '-' && i > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i-1]) {
			j := i + 1
			if runes[j] == '\r' && j+1 < len(runes) {
				j++
			}
			if runes[j] == '\n' && j+1 < len(runes) && unicode.IsLetter(runes[j+1]) {
				i = j
				continue
			}
		}
		out = append(out, r)
	}
	return string(out)
}
