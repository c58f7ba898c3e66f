package processing

import (
	"strings"

	"github.com/yungbote/docindex-backend/internal/domain/docs"
)

// SpanBoxer maps character spans of normalized text back onto word
// bounding boxes. Alignment is positional: each word box is matched to
// its first occurrence in the text at or after the previous word's end,
// so boxes whose text was altered by normalization are skipped.
type SpanBoxer struct {
	spans []wordSpan
}

type wordSpan struct {
	start, end int
	box        docs.WordBox
}

func NewSpanBoxer(text string, boxes []docs.WordBox) *SpanBoxer {
	b := &SpanBoxer{}
	cursor := 0
	for _, box := range boxes {
		w := strings.TrimSpace(box.Text)
		if w == "" || cursor >= len(text) {
			continue
		}
		idx := strings.Index(text[cursor:], w)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		b.spans = append(b.spans, wordSpan{start: start, end: start + len(w), box: box})
		cursor = start + len(w)
	}
	return b
}

// Enclose returns the minimum bbox covering every word overlapping
// [start, end), plus the mean confidence of those words. ok is false
// when no aligned word overlaps the span.
func (b *SpanBoxer) Enclose(start, end int) (bbox docs.BBox, confidence float64, ok bool) {
	if b == nil || start >= end {
		return docs.BBox{}, 0, false
	}
	var (
		minX, minY, maxX, maxY float64
		confSum                float64
		n                      int
	)
	for _, s := range b.spans {
		if s.end <= start || s.start >= end {
			continue
		}
		x2 := s.box.X + s.box.Width
		y2 := s.box.Y + s.box.Height
		if n == 0 {
			minX, minY, maxX, maxY = s.box.X, s.box.Y, x2, y2
		} else {
			if s.box.X < minX {
				minX = s.box.X
			}
			if s.box.Y < minY {
				minY = s.box.Y
			}
			if x2 > maxX {
				maxX = x2
			}
			if y2 > maxY {
				maxY = y2
			}
		}
		confSum += s.box.Confidence
		n++
	}
	if n == 0 {
		return docs.BBox{}, 0, false
	}
	return docs.BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, confSum / float64(n), true
}
