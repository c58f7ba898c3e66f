package search

import (
	"math"
	"testing"
)

func TestSearchableText(t *testing.T) {
	got := SearchableText("The U.S. Dept. filed Case #42-A!")
	want := "the us dept filed case 42 a"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestQueryTokensMatchesIndexSide(t *testing.T) {
	index := Tokenize(SearchableText("Report of the U.S. Marshals"))
	query := QueryTokens("u.s. marshals")
	if len(query) != 2 || query[0] != "us" || query[1] != "marshals" {
		t.Fatalf("query tokens: %v", query)
	}
	if n := phraseCount(index, query); n != 1 {
		t.Fatalf("dotted acronym should match its collapsed index form, count=%d", n)
	}
}

func TestKeywordScoreRequiresAllTokens(t *testing.T) {
	page := []string{"annual", "budget", "review"}
	if _, ok := keywordScore(page, []string{"budget", "missing"}); ok {
		t.Fatal("absent token must not match")
	}
	if _, ok := keywordScore(page, []string{"budget"}); !ok {
		t.Fatal("present token must match")
	}
}

func TestKeywordScoreProximity(t *testing.T) {
	near := []string{"grand", "jury", "x", "x", "x"}
	far := []string{"grand", "x", "x", "x", "jury"}
	q := []string{"grand", "jury"}

	sNear, ok := keywordScore(near, q)
	if !ok {
		t.Fatal("near page should match")
	}
	sFar, ok := keywordScore(far, q)
	if !ok {
		t.Fatal("far page should match")
	}
	if sNear <= sFar {
		t.Fatalf("adjacent tokens must outscore distant ones: %v vs %v", sNear, sFar)
	}
	// Adjacent single occurrences: each term scores 1/(1+1).
	if math.Abs(sNear-1.0) > 1e-9 {
		t.Fatalf("near score: %v", sNear)
	}
}

func TestKeywordScoreSingleTokenCounts(t *testing.T) {
	page := []string{"tax", "form", "tax", "return", "tax"}
	s, ok := keywordScore(page, []string{"tax"})
	if !ok || s != 3 {
		t.Fatalf("single-token score should be the raw count: %v %v", s, ok)
	}
}

func TestPhraseCount(t *testing.T) {
	page := []string{"the", "grand", "jury", "met", "the", "grand", "jury"}
	if n := phraseCount(page, []string{"grand", "jury"}); n != 2 {
		t.Fatalf("count: %d", n)
	}
	if n := phraseCount(page, []string{"jury", "grand"}); n != 0 {
		t.Fatalf("order matters: %d", n)
	}
	if n := phraseCount([]string{"a"}, []string{"a", "b"}); n != 0 {
		t.Fatalf("short page: %d", n)
	}
}

func TestTrigramJaccard(t *testing.T) {
	if s := trigramJaccard("warrant", "warrant"); s != 1.0 {
		t.Fatalf("identical tokens: %v", s)
	}
	if s := trigramJaccard("warrant", "warrent"); s < 0.4 || s >= 1.0 {
		t.Fatalf("near-miss should be partial: %v", s)
	}
	if s := trigramJaccard("warrant", "zzz"); s != 0 {
		t.Fatalf("unrelated tokens: %v", s)
	}
}

func TestFuzzyScoreHalfCoverage(t *testing.T) {
	page := []string{"warrant", "issued"}

	// One of two tokens matches: exactly 50%, which qualifies.
	s, ok := fuzzyScore(page, []string{"warrent", "nonsensezz"}, 0.4)
	if !ok {
		t.Fatalf("50%% coverage should match, score=%v", s)
	}

	// Zero of two: fails.
	if _, ok := fuzzyScore(page, []string{"xxxxx", "yyyyy"}, 0.4); ok {
		t.Fatal("no coverage must not match")
	}
}
