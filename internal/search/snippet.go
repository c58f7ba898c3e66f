package search

import "strings"

const snippetContext = 80

// Snippet returns up to 80 characters of context on each side of the
// first match, trimmed to word boundaries. Short pages are returned
// whole. matchStart/matchEnd are byte offsets into text; a negative
// matchStart means no position is known and the head of the page is
// used instead.
func Snippet(text string, matchStart, matchEnd int) string {
	if len(text) < 2*snippetContext {
		return text
	}
	if matchStart < 0 || matchStart >= len(text) {
		matchStart, matchEnd = 0, 0
	}
	if matchEnd < matchStart {
		matchEnd = matchStart
	}
	if matchEnd > len(text) {
		matchEnd = len(text)
	}

	start := matchStart - snippetContext
	if start < 0 {
		start = 0
	}
	end := matchEnd + snippetContext
	if end > len(text) {
		end = len(text)
	}

	// Trim partial words at the cut points, never inside the match.
	if start > 0 {
		if idx := strings.IndexByte(text[start:matchStart], ' '); idx >= 0 {
			start += idx + 1
		}
	}
	if end < len(text) {
		if idx := strings.LastIndexByte(text[matchEnd:end], ' '); idx >= 0 {
			end = matchEnd + idx
		}
	}
	return text[start:end]
}
