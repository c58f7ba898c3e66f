package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sitePage = `<!DOCTYPE html>
<html><body>
<h2>Court Filings</h2>
<p><a href="/files/filing-001.pdf">Filing 001</a></p>
<p><a href="/files/filing-002.pdf">Filing 002 under the Transparency Act</a></p>
<h2>DOJ Disclosure Materials</h2>
<p><a href="/files/disclosure-001.pdf">Disclosure 001</a></p>
<h3>Photographs</h3>
<p><a href="/files/photo-001.jpg">Photo 001</a></p>
<p><a href="/about">About this page</a></p>
</body></html>`

func TestSiteCrawlerSectionsAndExclusions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(sitePage))
	}))
	defer srv.Close()

	rules, err := DefaultRules()
	if err != nil {
		t.Fatalf("DefaultRules: %v", err)
	}
	c := NewSiteCrawler(testLog(t), srv.URL+"/epstein", rules)
	got, err := c.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("want 4 descriptors, got %+v", got)
	}

	byName := map[string]Descriptor{}
	for _, d := range got {
		byName[d.Filename] = d
	}

	if d := byName["filing-001.pdf"]; d.SectionLabel != "Court Filings" || d.ExcludeReason != "" {
		t.Fatalf("filing-001: %+v", d)
	}
	if d := byName["filing-002.pdf"]; d.ExcludeReason != "transparency_act_link" {
		t.Fatalf("link text exclusion missing: %+v", d)
	}
	if d := byName["disclosure-001.pdf"]; d.ExcludeReason != "doj_disclosure_section" {
		t.Fatalf("section exclusion missing: %+v", d)
	}
	if d := byName["photo-001.jpg"]; d.SectionLabel != "Photographs" || d.ExcludeReason != "" {
		t.Fatalf("photo: %+v", d)
	}
	if _, ok := byName["about"]; ok {
		t.Fatal("non-file anchor must be skipped")
	}
}

func TestRulesFileOverride(t *testing.T) {
	rs, err := parseRules([]byte(`
exclusions:
  - match: link_text_contains
    value: "sealed"
    reason: "sealed_material"
`))
	if err != nil {
		t.Fatalf("parseRules: %v", err)
	}
	if got := rs.ExcludeReason("Any Section", "Sealed exhibit 4"); got != "sealed_material" {
		t.Fatalf("got %q", got)
	}
	if got := rs.ExcludeReason("Any Section", "Open exhibit"); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestParseRulesRejectsUnknownMatcher(t *testing.T) {
	_, err := parseRules([]byte(`
exclusions:
  - match: regex
    value: "x"
    reason: "r"
`))
	if err == nil {
		t.Fatal("unknown matcher must error")
	}
}
