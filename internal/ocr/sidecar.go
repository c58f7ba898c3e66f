package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/httpx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// sidecarEngine talks to a colocated HTTP OCR service (easyocr or
// paddleocr wrapped in a small server). The wire contract is a single
// POST /ocr taking base64 PNG bytes and returning word boxes in image
// coordinates.
type sidecarEngine struct {
	log        *logger.Logger
	name       string
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

type sidecarRequest struct {
	ImageB64  string   `json:"image_b64"`
	Languages []string `json:"languages,omitempty"`
}

type sidecarWord struct {
	Text       string  `json:"text"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
}

type sidecarResponse struct {
	Words []sidecarWord `json:"words"`
}

type sidecarHTTPError struct {
	status int
	body   string
}

func (e *sidecarHTTPError) Error() string {
	return fmt.Sprintf("sidecar http %d: %s", e.status, e.body)
}

func (e *sidecarHTTPError) HTTPStatusCode() int { return e.status }

// NewSidecarEngine builds an engine named after the backing service.
// baseURL must be reachable from the worker (e.g. http://localhost:8866).
func NewSidecarEngine(log *logger.Logger, name, baseURL string) (Engine, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("sidecar %s: base url required", name)
	}
	return &sidecarEngine{
		log:        log.With("engine", name),
		name:       name,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		maxRetries: 3,
	}, nil
}

func (e *sidecarEngine) Name() string { return e.name }

func (e *sidecarEngine) Extract(ctx context.Context, img []byte, langs []string) (*Result, error) {
	if len(img) == 0 {
		return &Result{Engine: e.name}, nil
	}

	payload, err := json.Marshal(sidecarRequest{
		ImageB64:  base64.StdEncoding.EncodeToString(img),
		Languages: langs,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "encode sidecar request", err)
	}

	var resp *sidecarResponse
	for attempt := 0; ; attempt++ {
		resp, err = e.doOnce(ctx, payload)
		if err == nil {
			break
		}
		if attempt >= e.maxRetries || !httpx.IsRetryableError(err) {
			break
		}
		e.log.Warn("sidecar request retrying", "engine", e.name, "attempt", attempt+1, "error", err)
		wait := httpx.JitterSleep(httpx.Backoff(attempt, 500*time.Millisecond, 2.0, 15*time.Second))
		if serr := httpx.SleepCtx(ctx, wait); serr != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "sidecar retry wait", serr)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "sidecar request", ctx.Err())
		}
		var he *sidecarHTTPError
		if errors.As(err, &he) && he.status >= 400 && he.status < 500 {
			return nil, apperr.Wrap(apperr.KindPermanentUpstream, fmt.Sprintf("sidecar %s rejected request", e.name), err)
		}
		return nil, apperr.Wrap(apperr.KindTransientUpstream, fmt.Sprintf("sidecar %s unavailable", e.name), err)
	}

	words := make([]Word, 0, len(resp.Words))
	for _, w := range resp.Words {
		if w.Text == "" {
			continue
		}
		words = append(words, Word{
			Text:       w.Text,
			X:          w.X,
			Y:          w.Y,
			Width:      w.Width,
			Height:     w.Height,
			Confidence: w.Confidence,
		})
	}
	return &Result{Engine: e.name, Words: words}, nil
}

func (e *sidecarEngine) doOnce(ctx context.Context, payload []byte) (*sidecarResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 32<<20))
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		return nil, &sidecarHTTPError{status: res.StatusCode, body: snippet}
	}

	var out sidecarResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode sidecar response: %w", err)
	}
	return &out, nil
}
