package ocr

import (
	"sort"
	"strings"
)

// boxIOU is intersection-over-union of two axis-aligned boxes.
func boxIOU(a, b Word) float64 {
	ix := maxf(a.X, b.X)
	iy := maxf(a.Y, b.Y)
	ix2 := minf(a.X+a.Width, b.X+b.Width)
	iy2 := minf(a.Y+a.Height, b.Y+b.Height)
	if ix2 <= ix || iy2 <= iy {
		return 0
	}
	inter := (ix2 - ix) * (iy2 - iy)
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// editDistance is the Levenshtein distance, case-insensitive.
func editDistance(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = minInt3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// sameWord reports whether two detections refer to the same physical
// word: boxes overlap strongly and text differs by at most one edit.
func sameWord(a, b Word, minIOU float64) bool {
	if boxIOU(a, b) < minIOU {
		return false
	}
	return editDistance(a.Text, b.Text) <= 1
}

// preferWord picks the better of two detections of the same word:
// higher confidence wins, longer text breaks ties (a fuller read of a
// partially clipped word).
func preferWord(a, b Word) Word {
	if b.Confidence > a.Confidence {
		return b
	}
	if b.Confidence == a.Confidence && len(b.Text) > len(a.Text) {
		return b
	}
	return a
}

// MergeWordSets folds later word sets into the first, collapsing
// duplicate detections of the same physical word. minIOU controls how
// much box overlap counts as the same word. Output is in reading order
// (top to bottom, then left to right).
func MergeWordSets(sets [][]Word, minIOU float64) []Word {
	var merged []Word
	for _, set := range sets {
		for _, cand := range set {
			matched := false
			for i := range merged {
				if sameWord(merged[i], cand, minIOU) {
					merged[i] = preferWord(merged[i], cand)
					matched = true
					break
				}
			}
			if !matched {
				merged = append(merged, cand)
			}
		}
	}
	sortReadingOrder(merged)
	return merged
}

// sortReadingOrder orders words into rows by vertical overlap, then
// left to right within a row.
func sortReadingOrder(words []Word) {
	sort.SliceStable(words, func(i, j int) bool {
		a, b := words[i], words[j]
		// Same row when the vertical centers fall inside each other.
		ac := a.Y + a.Height/2
		bc := b.Y + b.Height/2
		if ac >= b.Y && ac <= b.Y+b.Height || bc >= a.Y && bc <= a.Y+a.Height {
			return a.X < b.X
		}
		return ac < bc
	})
}

// PruneLowConfidence drops words below the threshold.
func PruneLowConfidence(words []Word, threshold float64) []Word {
	if threshold <= 0 {
		return words
	}
	out := words[:0]
	for _, w := range words {
		if w.Confidence >= threshold {
			out = append(out, w)
		}
	}
	return out
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
