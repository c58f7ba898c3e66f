package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// tesseractEngine shells out to the tesseract binary and parses its TSV
// output. Requires tesseract in PATH on the worker.
type tesseractEngine struct {
	log     *logger.Logger
	binPath string
	workDir string
}

func NewTesseractEngine(log *logger.Logger) Engine {
	return &tesseractEngine{
		log:     log.With("engine", "tesseract"),
		binPath: "tesseract",
		workDir: os.TempDir(),
	}
}

func (e *tesseractEngine) Name() string { return "tesseract" }

func (e *tesseractEngine) Extract(ctx context.Context, img []byte, langs []string) (*Result, error) {
	if len(img) == 0 {
		return &Result{Engine: e.Name()}, nil
	}
	if _, err := exec.LookPath(e.binPath); err != nil {
		return nil, apperr.Wrap(apperr.KindCapabilityDisabled, "tesseract not in PATH", err)
	}

	tmp, err := os.CreateTemp(e.workDir, "ocr-*.png")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "write temp image", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(img); err != nil {
		_ = tmp.Close()
		return nil, apperr.Wrap(apperr.KindInternal, "write temp image", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "write temp image", err)
	}

	lang := tesseractLangArg(langs)

	cmd := exec.CommandContext(ctx, e.binPath, tmpPath, "stdout", "-l", lang, "tsv")
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "tesseract", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.KindPermanentUpstream, fmt.Sprintf("tesseract failed on %s", filepath.Base(tmpPath)), err)
	}

	return &Result{Engine: e.Name(), Words: parseTesseractTSV(string(out))}, nil
}

// tesseract uses ISO 639-2/T codes; the pipeline configures languages
// with two-letter ISO 639-1 codes, so translate here. Unknown codes
// pass through for traineddata packs named after them.
var tesseractLangCodes = map[string]string{
	"en": "eng",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"nl": "nld",
	"ru": "rus",
}

func tesseractLangArg(langs []string) string {
	if len(langs) == 0 {
		return "eng"
	}
	mapped := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if code, ok := tesseractLangCodes[l]; ok {
			l = code
		}
		mapped = append(mapped, l)
	}
	if len(mapped) == 0 {
		return "eng"
	}
	return strings.Join(mapped, "+")
}

// parseTesseractTSV keeps level-5 (word) rows with a usable confidence.
// Columns: level page block par line word left top width height conf text.
func parseTesseractTSV(tsv string) []Word {
	var words []Word
	lines := strings.Split(tsv, "\n")
	for i, line := range lines {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		level, err := strconv.Atoi(cols[0])
		if err != nil || level != 5 {
			continue
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || conf < 0 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		left, err1 := strconv.ParseFloat(cols[6], 64)
		top, err2 := strconv.ParseFloat(cols[7], 64)
		width, err3 := strconv.ParseFloat(cols[8], 64)
		height, err4 := strconv.ParseFloat(cols[9], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		words = append(words, Word{
			Text:       text,
			X:          left,
			Y:          top,
			Width:      width,
			Height:     height,
			Confidence: conf / 100.0,
		})
	}
	return words
}
