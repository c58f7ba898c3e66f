package ocr

import (
	"testing"
)

func TestBoxIOU(t *testing.T) {
	a := Word{X: 0, Y: 0, Width: 10, Height: 10}
	b := Word{X: 5, Y: 0, Width: 10, Height: 10}
	got := boxIOU(a, b)
	want := 50.0 / 150.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("iou: got %v want %v", got, want)
	}
	if boxIOU(a, Word{X: 20, Y: 20, Width: 5, Height: 5}) != 0 {
		t.Fatal("disjoint boxes must have zero iou")
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"invoice", "invoice", 0},
		{"Invoice", "invoice", 0},
		{"invoice", "invoce", 1},
		{"cat", "dog", 3},
		{"", "abc", 3},
	}
	for _, c := range cases {
		if got := editDistance(c.a, c.b); got != c.want {
			t.Fatalf("editDistance(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMergeWordSetsCollapsesAgreement(t *testing.T) {
	setA := []Word{
		{Text: "Invoice", X: 100, Y: 50, Width: 80, Height: 20, Confidence: 0.90},
		{Text: "Total", X: 100, Y: 100, Width: 60, Height: 20, Confidence: 0.70},
	}
	setB := []Word{
		// Same box, one edit away, higher confidence: wins.
		{Text: "lnvoice", X: 101, Y: 50, Width: 80, Height: 20, Confidence: 0.95},
		// Different row entirely: passes through.
		{Text: "Due", X: 100, Y: 150, Width: 40, Height: 20, Confidence: 0.80},
	}

	merged := MergeWordSets([][]Word{setA, setB}, 0.5)
	if len(merged) != 3 {
		t.Fatalf("want 3 merged words, got %d: %+v", len(merged), merged)
	}
	if merged[0].Text != "lnvoice" || merged[0].Confidence != 0.95 {
		t.Fatalf("merged word should keep the higher-confidence read: %+v", merged[0])
	}
	if merged[1].Text != "Total" || merged[2].Text != "Due" {
		t.Fatalf("reading order broken: %+v", merged)
	}
}

func TestMergeWordSetsPrefersLongerTextOnTie(t *testing.T) {
	setA := []Word{{Text: "repor", X: 0, Y: 0, Width: 50, Height: 10, Confidence: 0.8}}
	setB := []Word{{Text: "report", X: 0, Y: 0, Width: 50, Height: 10, Confidence: 0.8}}

	merged := MergeWordSets([][]Word{setA, setB}, 0.5)
	if len(merged) != 1 || merged[0].Text != "report" {
		t.Fatalf("want the longer tie-break read, got %+v", merged)
	}
}

func TestMergeWordSetsKeepsDistinctTextApart(t *testing.T) {
	// Same box but text far apart is two detections, not one word.
	setA := []Word{{Text: "alpha", X: 0, Y: 0, Width: 50, Height: 10, Confidence: 0.9}}
	setB := []Word{{Text: "omega", X: 0, Y: 0, Width: 50, Height: 10, Confidence: 0.9}}

	merged := MergeWordSets([][]Word{setA, setB}, 0.5)
	if len(merged) != 2 {
		t.Fatalf("want 2 words, got %+v", merged)
	}
}

func TestPruneLowConfidence(t *testing.T) {
	words := []Word{
		{Text: "keep", Confidence: 0.31},
		{Text: "drop", Confidence: 0.29},
		{Text: "edge", Confidence: 0.30},
	}
	out := PruneLowConfidence(words, 0.30)
	if len(out) != 2 || out[0].Text != "keep" || out[1].Text != "edge" {
		t.Fatalf("got %+v", out)
	}
}

func TestResultConfidenceWeightsByLength(t *testing.T) {
	r := &Result{Words: []Word{
		{Text: "a", Confidence: 0.0},
		{Text: "abcdefghi", Confidence: 1.0},
	}}
	got := r.Confidence()
	want := 0.9
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence: got %v want %v", got, want)
	}
	if (&Result{}).Confidence() != 0 {
		t.Fatal("empty result confidence must be 0")
	}
}

func TestResultFullText(t *testing.T) {
	r := &Result{Words: []Word{{Text: "quarterly"}, {Text: ""}, {Text: "report"}}}
	if got := r.FullText(); got != "quarterly report" {
		t.Fatalf("got %q", got)
	}
}
