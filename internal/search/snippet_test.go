package search

import (
	"strings"
	"testing"
)

func TestSnippetShortTextReturnedWhole(t *testing.T) {
	text := "a short page of text"
	if got := Snippet(text, 2, 7); got != text {
		t.Fatalf("got %q", got)
	}
}

func TestSnippetWindowsAroundMatch(t *testing.T) {
	words := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		words = append(words, "filler")
	}
	words[50] = "needle"
	text := strings.Join(words, " ")

	start := strings.Index(text, "needle")
	got := Snippet(text, start, start+len("needle"))

	if !strings.Contains(got, "needle") {
		t.Fatalf("match lost: %q", got)
	}
	if len(got) > 2*snippetContext+len("needle") {
		t.Fatalf("snippet too long: %d chars", len(got))
	}
	// Word-boundary trimming: no partial "iller" fragments at the edges.
	if strings.HasPrefix(got, "iller") || strings.HasSuffix(got, "fille") {
		t.Fatalf("partial word at edge: %q", got)
	}
}

func TestSnippetUnknownPositionUsesHead(t *testing.T) {
	text := strings.Repeat("word ", 100)
	got := Snippet(text, -1, -1)
	if !strings.HasPrefix(text, got) {
		t.Fatalf("head snippet expected, got %q", got)
	}
	if got == "" {
		t.Fatal("snippet must not be empty")
	}
}
