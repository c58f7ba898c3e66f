package crawler

import (
	"context"
	"net/http"
	"time"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/httpx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

const (
	retryBase    = 1 * time.Second
	retryFactor  = 2.0
	retryCap     = 30 * time.Second
	retryTries   = 5
	fetchTimeout = 30 * time.Second
)

type listingHTTPError struct {
	status int
	url    string
}

func (e *listingHTTPError) Error() string {
	return "listing fetch " + e.url + ": http " + http.StatusText(e.status)
}

func (e *listingHTTPError) HTTPStatusCode() int { return e.status }

// fetchWithRetry GETs a listing URL with the crawl backoff schedule.
// The caller owns the returned body bytes; non-2xx responses come back
// as errors so the schedule can classify them.
func fetchWithRetry(ctx context.Context, log *logger.Logger, client *http.Client, url, accept string, readBody func(*http.Response) error) error {
	var lastErr error
	for attempt := 0; attempt < retryTries; attempt++ {
		if attempt > 0 {
			wait := httpx.JitterSleep(httpx.Backoff(attempt-1, retryBase, retryFactor, retryCap))
			if err := httpx.SleepCtx(ctx, wait); err != nil {
				return apperr.Wrap(apperr.KindCancelled, "crawl retry wait", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return apperr.Wrap(apperr.KindInvalidArgument, "build listing request", err)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return apperr.Wrap(apperr.KindCancelled, "listing fetch", ctx.Err())
			}
			lastErr = err
			log.Debug("listing fetch failed", "url", url, "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			herr := &listingHTTPError{status: resp.StatusCode, url: url}
			if !httpx.IsRetryableHTTPStatus(resp.StatusCode) {
				return apperr.Wrap(apperr.KindPermanentUpstream, "listing fetch", herr)
			}
			lastErr = herr
			log.Debug("listing fetch retryable status", "url", url, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}

		err = readBody(resp)
		resp.Body.Close()
		return err
	}
	return apperr.Wrap(apperr.KindTransientUpstream, "listing fetch retries exhausted", lastErr)
}
