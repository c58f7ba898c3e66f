package search

import "strings"

// keywordScore implements the proximity-weighted AND score: for each
// query token, count_in_page / (1 + distance to the nearest occurrence
// of any other query token). Returns (score, false) when some query
// token is absent. A single-token query scores by raw count.
func keywordScore(pageTokens, queryTokens []string) (float64, bool) {
	if len(queryTokens) == 0 {
		return 0, false
	}
	positions := make(map[string][]int, len(queryTokens))
	for _, qt := range queryTokens {
		positions[qt] = nil
	}
	for i, t := range pageTokens {
		if _, ok := positions[t]; ok {
			positions[t] = append(positions[t], i)
		}
	}
	for _, ps := range positions {
		if len(ps) == 0 {
			return 0, false
		}
	}
	uniq := make([]string, 0, len(positions))
	for qt := range positions {
		uniq = append(uniq, qt)
	}

	var score float64
	for _, qt := range uniq {
		count := float64(len(positions[qt]))
		if len(uniq) == 1 {
			score += count
			continue
		}
		nearest := -1
		for _, p := range positions[qt] {
			for _, other := range uniq {
				if other == qt {
					continue
				}
				for _, op := range positions[other] {
					d := p - op
					if d < 0 {
						d = -d
					}
					if nearest < 0 || d < nearest {
						nearest = d
					}
				}
			}
		}
		score += count / float64(1+nearest)
	}
	return score, true
}

// phraseCount counts contiguous occurrences of the query token
// sequence in the page token sequence.
func phraseCount(pageTokens, queryTokens []string) int {
	if len(queryTokens) == 0 || len(pageTokens) < len(queryTokens) {
		return 0
	}
	count := 0
	for i := 0; i+len(queryTokens) <= len(pageTokens); i++ {
		match := true
		for j, qt := range queryTokens {
			if pageTokens[i+j] != qt {
				match = false
				break
			}
		}
		if match {
			count++
		}
	}
	return count
}

// trigrams returns the character trigram set of a token, padding short
// tokens so one- and two-letter words still produce a gram.
func trigrams(token string) map[string]struct{} {
	out := make(map[string]struct{})
	if token == "" {
		return out
	}
	padded := "  " + token + " "
	runes := []rune(padded)
	for i := 0; i+3 <= len(runes); i++ {
		out[string(runes[i:i+3])] = struct{}{}
	}
	return out
}

// trigramJaccard is |A∩B| / |A∪B| over character trigrams, case-folded.
func trigramJaccard(a, b string) float64 {
	ta := trigrams(strings.ToLower(a))
	tb := trigrams(strings.ToLower(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// fuzzyScore computes per-query-token best trigram similarity against
// the page tokens. The page matches when at least half the query tokens
// have a best similarity at or above threshold; the score is the mean
// best similarity over all query tokens.
func fuzzyScore(pageTokens, queryTokens []string, threshold float64) (float64, bool) {
	if len(queryTokens) == 0 {
		return 0, false
	}
	matched := 0
	var sum float64
	for _, qt := range queryTokens {
		best := 0.0
		for _, pt := range pageTokens {
			if s := trigramJaccard(qt, pt); s > best {
				best = s
			}
		}
		if best >= threshold {
			matched++
		}
		sum += best
	}
	if matched*2 < len(queryTokens) {
		return 0, false
	}
	return sum / float64(len(queryTokens)), true
}
