package ocr

import (
	"strings"
	"testing"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t1700\t2200\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t120\t80\t160\t40\t96.5\tInvoice\n" +
	"5\t1\t1\t1\t1\t2\t300\t80\t90\t40\t-1\tskipme\n" +
	"5\t1\t1\t1\t1\t3\t410\t80\t110\t40\t88\tTotal\n" +
	"5\t1\t1\t1\t2\t1\t120\t140\t80\t40\t70\t \n" +
	"4\t1\t1\t1\t2\t0\t0\t140\t500\t40\t95\tnotaword\n"

func TestParseTesseractTSV(t *testing.T) {
	words := parseTesseractTSV(sampleTSV)
	if len(words) != 2 {
		t.Fatalf("want 2 words, got %d: %+v", len(words), words)
	}
	first := words[0]
	if first.Text != "Invoice" || first.X != 120 || first.Y != 80 || first.Width != 160 || first.Height != 40 {
		t.Fatalf("first word: %+v", first)
	}
	if first.Confidence != 0.965 {
		t.Fatalf("confidence should be scaled to [0,1]: %v", first.Confidence)
	}
	if words[1].Text != "Total" {
		t.Fatalf("second word: %+v", words[1])
	}
}

func TestParseTesseractTSVMalformedRows(t *testing.T) {
	tsv := strings.Join([]string{
		"header",
		"5\t1\t1",
		"notanumber\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tx",
		"",
	}, "\n")
	if words := parseTesseractTSV(tsv); len(words) != 0 {
		t.Fatalf("malformed rows should be skipped, got %+v", words)
	}
}

func TestTesseractLangArg(t *testing.T) {
	cases := []struct {
		in   []string
		want string
	}{
		{nil, "eng"},
		{[]string{"en"}, "eng"},
		{[]string{"EN", "de"}, "eng+deu"},
		{[]string{"eng"}, "eng"},
		{[]string{"chi_sim"}, "chi_sim"},
		{[]string{" ", ""}, "eng"},
	}
	for _, tc := range cases {
		if got := tesseractLangArg(tc.in); got != tc.want {
			t.Fatalf("tesseractLangArg(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
