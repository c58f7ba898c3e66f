package processing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entity kinds emitted by Extract.
const (
	KindEmail = "email"
	KindPhone = "phone"
	KindDate  = "date"
	KindName  = "name"
)

// Mention is one detected entity with its character span in the
// normalized text. Normalized is empty when no canonical form exists
// (e.g. a date whose year cannot be validated).
type Mention struct {
	Kind       string
	Value      string
	Normalized string
	Start      int
	End        int
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	phoneRe = regexp.MustCompile(
		`\(\d{3}\)\s?\d{3}[-.\s]?\d{4}` +
			`|\+1[\s.-]?\d{3}[\s.-]?\d{3}[\s.-]?\d{4}` +
			`|\b\d{3}-\d{3}-\d{4}\b` +
			`|\b\d{3}\.\d{3}\.\d{4}\b` +
			`|\b\d{10}\b`)

	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)

	monthNames = `January|February|March|April|May|June|July|August|September|October|November|December|` +
		`Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec`
	monthFirstRe = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayFirstRe   = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthNames + `)\.?,?\s+(\d{4})\b`)

	nameTokenRe = regexp.MustCompile(`^[A-Z][a-z]+$`)
)

var monthByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Extract runs all detectors over normalized text. Output is not
// deduplicated; DedupMentions applies the per-page collapse.
func Extract(text string) []Mention {
	if text == "" {
		return nil
	}
	var out []Mention
	out = append(out, extractEmails(text)...)
	out = append(out, extractPhones(text)...)
	out = append(out, extractDates(text)...)
	out = append(out, extractNames(text)...)
	return out
}

// DedupMentions collapses duplicates of the same kind and canonical
// value, keeping the first occurrence (and therefore its bbox).
func DedupMentions(mentions []Mention) []Mention {
	seen := make(map[string]struct{}, len(mentions))
	out := make([]Mention, 0, len(mentions))
	for _, m := range mentions {
		key := m.Normalized
		if key == "" {
			key = m.Value
		}
		key = m.Kind + "\x00" + key
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func extractEmails(text string) []Mention {
	var out []Mention
	for _, loc := range emailRe.FindAllStringIndex(text, -1) {
		v := text[loc[0]:loc[1]]
		out = append(out, Mention{
			Kind:       KindEmail,
			Value:      v,
			Normalized: strings.ToLower(v),
			Start:      loc[0],
			End:        loc[1],
		})
	}
	return out
}

func extractPhones(text string) []Mention {
	var out []Mention
	for _, loc := range phoneRe.FindAllStringIndex(text, -1) {
		v := text[loc[0]:loc[1]]
		digits := keepDigits(v)
		if len(digits) < 10 {
			continue
		}
		out = append(out, Mention{
			Kind:       KindPhone,
			Value:      v,
			Normalized: digits[len(digits)-10:],
			Start:      loc[0],
			End:        loc[1],
		})
	}
	return out
}

func extractDates(text string) []Mention {
	var out []Mention
	taken := make([][2]int, 0, 8)

	add := func(start, end int, y, m, d int, yearKnown bool) {
		for _, t := range taken {
			if start < t[1] && end > t[0] {
				return
			}
		}
		taken = append(taken, [2]int{start, end})
		mention := Mention{
			Kind:  KindDate,
			Value: text[start:end],
			Start: start,
			End:   end,
		}
		if yearKnown && validDate(y, m, d) {
			mention.Normalized = fmt.Sprintf("%04d-%02d-%02d", y, m, d)
		}
		out = append(out, mention)
	}

	for _, loc := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		y := atoiAt(text, loc, 1)
		m := atoiAt(text, loc, 2)
		d := atoiAt(text, loc, 3)
		add(loc[0], loc[1], y, m, d, true)
	}
	for _, loc := range monthFirstRe.FindAllStringSubmatchIndex(text, -1) {
		mon := monthFromName(text[loc[2]:loc[3]])
		d := atoiAt(text, loc, 2)
		y := atoiAt(text, loc, 3)
		add(loc[0], loc[1], y, int(mon), d, mon != 0)
	}
	for _, loc := range dayFirstRe.FindAllStringSubmatchIndex(text, -1) {
		d := atoiAt(text, loc, 1)
		mon := monthFromName(text[loc[4]:loc[5]])
		y := atoiAt(text, loc, 3)
		add(loc[0], loc[1], y, int(mon), d, mon != 0)
	}
	for _, loc := range slashDateRe.FindAllStringSubmatchIndex(text, -1) {
		m := atoiAt(text, loc, 1)
		d := atoiAt(text, loc, 2)
		yearStr := text[loc[6]:loc[7]]
		y := atoiAt(text, loc, 3)
		// Two-digit years cannot be resolved to a century.
		add(loc[0], loc[1], y, m, d, len(yearStr) == 4)
	}
	return out
}

func extractNames(text string) []Mention {
	type token struct {
		text       string
		start, end int
	}
	var tokens []token
	pos := 0
	for _, f := range strings.Fields(text) {
		start := strings.Index(text[pos:], f) + pos
		end := start + len(f)
		pos = end
		tokens = append(tokens, token{text: f, start: start, end: end})
	}

	isNamePart := func(t token) bool {
		trimmed := strings.TrimRight(t.text, ".,;:")
		return nameTokenRe.MatchString(trimmed) && !inStoplist(trimmed)
	}

	var out []Mention
	i := 0
	for i < len(tokens) {
		if !isNamePart(tokens[i]) {
			i++
			continue
		}
		j := i
		for j < len(tokens) && j-i < 4 && isNamePart(tokens[j]) {
			// Punctuation after a token ends the run at that token.
			j++
			if strings.ContainsAny(tokens[j-1].text, ".,;:") {
				break
			}
		}
		if j-i >= 2 {
			start := tokens[i].start
			endTok := tokens[j-1]
			value := strings.TrimRight(text[start:endTok.end], ".,;:")
			out = append(out, Mention{
				Kind:       KindName,
				Value:      value,
				Normalized: value,
				Start:      start,
				End:        start + len(value),
			})
		}
		i = j
	}
	return out
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func atoiAt(text string, loc []int, group int) int {
	s, e := loc[2*group], loc[2*group+1]
	if s < 0 || e < 0 {
		return 0
	}
	n, _ := strconv.Atoi(text[s:e])
	return n
}

func monthFromName(name string) time.Month {
	key := strings.ToLower(name)
	if len(key) > 3 {
		key = key[:3]
	}
	return monthByPrefix[key]
}

// validDate checks calendar validity and the year window used for
// canonicalization: nothing before 1900, nothing past next year.
func validDate(y, m, d int) bool {
	if y < 1900 || y > time.Now().Year()+1 {
		return false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Year() == y && int(t.Month()) == m && t.Day() == d
}
