// Package ocr runs text recognition over rendered page images through a
// set of interchangeable engines, merges their output and persists the
// result with its downstream artifacts.
package ocr

import (
	"context"
	"strings"
)

// Word is one recognized token with its box in the coordinates of the
// image the engine was given.
type Word struct {
	Text       string
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Confidence float64
}

// Result is a single engine pass over a single image.
type Result struct {
	Engine string
	Words  []Word
}

// FullText joins word texts in reading order (the order engines emit).
func (r *Result) FullText() string {
	if r == nil || len(r.Words) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Words))
	for _, w := range r.Words {
		if w.Text != "" {
			parts = append(parts, w.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Confidence is the character-length-weighted mean word confidence, so
// long well-recognized words dominate stray specks.
func (r *Result) Confidence() float64 {
	if r == nil || len(r.Words) == 0 {
		return 0
	}
	var weighted, total float64
	for _, w := range r.Words {
		n := float64(len(w.Text))
		if n == 0 {
			continue
		}
		weighted += w.Confidence * n
		total += n
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// Engine is one OCR backend. The image is always PNG bytes; langs uses
// ISO 639 codes with engine-specific mapping.
type Engine interface {
	Name() string
	Extract(ctx context.Context, img []byte, langs []string) (*Result, error)
}
