package processing

import (
	"testing"

	"github.com/yungbote/docindex-backend/internal/domain/docs"
)

func mentionsOfKind(ms []Mention, kind string) []Mention {
	var out []Mention
	for _, m := range ms {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func TestExtractEmails(t *testing.T) {
	ms := mentionsOfKind(Extract("Contact John.Doe+tag@Example.COM or admin@sub.example.org."), KindEmail)
	if len(ms) != 2 {
		t.Fatalf("want 2 emails, got %+v", ms)
	}
	if ms[0].Normalized != "john.doe+tag@example.com" {
		t.Fatalf("normalized: %q", ms[0].Normalized)
	}
	if ms[0].Value != "John.Doe+tag@Example.COM" {
		t.Fatalf("as-found value: %q", ms[0].Value)
	}
}

func TestExtractPhones(t *testing.T) {
	text := "Call (212) 555-0147 or 646-555-0199, fax 212.555.0100, intl +1 917 555 0123, raw 9175550188."
	ms := mentionsOfKind(Extract(text), KindPhone)
	if len(ms) != 5 {
		t.Fatalf("want 5 phones, got %d: %+v", len(ms), ms)
	}
	want := []string{"2125550147", "6465550199", "2125550100", "9175550123", "9175550188"}
	for i, m := range ms {
		if m.Normalized != want[i] {
			t.Fatalf("phone %d: got %q want %q", i, m.Normalized, want[i])
		}
	}
}

func TestExtractDates(t *testing.T) {
	text := "Filed 2019-03-04, heard 3/4/2019, continued March 5, 2019, decided 6 March 2019."
	ms := mentionsOfKind(Extract(text), KindDate)
	if len(ms) != 4 {
		t.Fatalf("want 4 dates, got %d: %+v", len(ms), ms)
	}
	byValue := map[string]string{}
	for _, m := range ms {
		byValue[m.Value] = m.Normalized
	}
	if byValue["2019-03-04"] != "2019-03-04" {
		t.Fatalf("iso: %+v", byValue)
	}
	if byValue["3/4/2019"] != "2019-03-04" {
		t.Fatalf("slash: %+v", byValue)
	}
	if byValue["March 5, 2019"] != "2019-03-05" {
		t.Fatalf("month first: %+v", byValue)
	}
	if byValue["6 March 2019"] != "2019-03-06" {
		t.Fatalf("day first: %+v", byValue)
	}
}

func TestExtractDateAmbiguousYear(t *testing.T) {
	ms := mentionsOfKind(Extract("Signed 3/4/19 in person."), KindDate)
	if len(ms) != 1 {
		t.Fatalf("want 1 date, got %+v", ms)
	}
	if ms[0].Normalized != "" {
		t.Fatalf("two-digit years must not be canonicalized: %q", ms[0].Normalized)
	}
	if ms[0].Value != "3/4/19" {
		t.Fatalf("value: %q", ms[0].Value)
	}
}

func TestExtractDateOutOfRangeYear(t *testing.T) {
	ms := mentionsOfKind(Extract("Dated 1850-01-01 and 2019-02-30."), KindDate)
	if len(ms) != 2 {
		t.Fatalf("want 2 dates, got %+v", ms)
	}
	for _, m := range ms {
		if m.Normalized != "" {
			t.Fatalf("invalid dates must keep empty normalized: %+v", m)
		}
	}
}

func TestExtractNames(t *testing.T) {
	text := "The witness Maria Gonzalez met Robert James Wilson on Monday. The Bureau declined."
	ms := mentionsOfKind(Extract(text), KindName)
	if len(ms) != 2 {
		t.Fatalf("want 2 names, got %+v", ms)
	}
	if ms[0].Value != "Maria Gonzalez" {
		t.Fatalf("first name: %q", ms[0].Value)
	}
	if ms[1].Value != "Robert James Wilson" {
		t.Fatalf("second name: %q", ms[1].Value)
	}
}

func TestExtractNamesRejectsSingleAndStoplisted(t *testing.T) {
	ms := mentionsOfKind(Extract("Gonzalez arrived. United States Department replied. SCREAMING CAPS ignored."), KindName)
	if len(ms) != 0 {
		t.Fatalf("want no names, got %+v", ms)
	}
}

func TestDedupMentionsKeepsFirst(t *testing.T) {
	text := "Email a@b.co then again a@b.co later."
	ms := DedupMentions(Extract(text))
	emails := mentionsOfKind(ms, KindEmail)
	if len(emails) != 1 {
		t.Fatalf("want 1 deduped email, got %+v", emails)
	}
	if emails[0].Start != 6 {
		t.Fatalf("should keep first occurrence, start=%d", emails[0].Start)
	}
}

func TestSpanBoxerEnclose(t *testing.T) {
	text := "Maria Gonzalez attended"
	boxes := []docs.WordBox{
		{Text: "Maria", X: 100, Y: 50, Width: 60, Height: 20, Confidence: 0.9},
		{Text: "Gonzalez", X: 170, Y: 48, Width: 100, Height: 24, Confidence: 0.8},
		{Text: "attended", X: 280, Y: 50, Width: 90, Height: 20, Confidence: 0.95},
	}
	boxer := NewSpanBoxer(text, boxes)

	bbox, conf, ok := boxer.Enclose(0, len("Maria Gonzalez"))
	if !ok {
		t.Fatal("span should map to boxes")
	}
	if bbox.X != 100 || bbox.Y != 48 || bbox.Width != 170 || bbox.Height != 24 {
		t.Fatalf("bbox: %+v", bbox)
	}
	if diff := conf - 0.85; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("confidence: %v", conf)
	}

	if _, _, ok := boxer.Enclose(1000, 1010); ok {
		t.Fatal("span outside text must not map")
	}
}
