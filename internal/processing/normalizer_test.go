package processing

import "testing"

func TestNormalizeWhitespaceCollapse(t *testing.T) {
	got := Normalize("report   of \t findings\n\nfinal")
	if got != "report of findings final" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeHyphenLineBreak(t *testing.T) {
	if got := Normalize("flow-\nchart"); got != "flowchart" {
		t.Fatalf("got %q", got)
	}
	// A hyphen before digits is real punctuation, not a line break.
	if got := Normalize("pre-\n2010"); got != "pre- 2010" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeSoftHyphen(t *testing.T) {
	if got := Normalize("docu­\nment"); got != "document" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeLigatures(t *testing.T) {
	if got := Normalize("eﬃcient ﬁle"); got != "efficient file" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeStripsControlCharacters(t *testing.T) {
	if got := Normalize("ok\x00\x07fine"); got != "okfine" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"flow-\nchart with  spaces",
		"eﬃcient­\nreading",
		"already normal text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
