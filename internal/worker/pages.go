// Package worker runs the background loops: OCR page processing and the
// periodic site ingest.
package worker

import (
	"context"
	"fmt"
	"time"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/ocr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// PageProcessor is satisfied by ocr.Coordinator.
type PageProcessor interface {
	ProcessPage(ctx context.Context, page *types.ImagePage) error
}

var _ PageProcessor = (*ocr.Coordinator)(nil)

// PageWorkerConfig tunes the OCR claim loop.
type PageWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	ClaimTTL     time.Duration
}

func (c *PageWorkerConfig) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.ClaimTTL <= 0 {
		c.ClaimTTL = 15 * time.Minute
	}
}

// PageWorker claims pending pages and runs them through the processor.
// Stale claims left behind by crashed workers are reaped every poll.
type PageWorker struct {
	log       *logger.Logger
	pageRepo  repos.ImagePageRepo
	processor PageProcessor
	cfg       PageWorkerConfig
}

func NewPageWorker(log *logger.Logger, pageRepo repos.ImagePageRepo, processor PageProcessor, cfg PageWorkerConfig) *PageWorker {
	cfg.applyDefaults()
	return &PageWorker{
		log:       log.With("component", "PageWorker"),
		pageRepo:  pageRepo,
		processor: processor,
		cfg:       cfg,
	}
}

// Start runs the loop until ctx is cancelled.
func (w *PageWorker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.cfg.PollInterval)
		defer ticker.Stop()
		w.log.Info("page worker started",
			"poll", w.cfg.PollInterval.String(),
			"batch", w.cfg.BatchSize,
			"max_attempts", w.cfg.MaxAttempts)
		for {
			select {
			case <-ctx.Done():
				w.log.Info("page worker stopped")
				return
			case <-ticker.C:
				w.Tick(ctx)
			}
		}
	}()
}

// Tick performs one reap-claim-process cycle. Exposed so tests and
// one-shot invocations can drive the worker without the ticker.
func (w *PageWorker) Tick(ctx context.Context) {
	dbc := dbctx.Context{Ctx: ctx}

	if reaped, err := w.pageRepo.ReapStale(dbc, w.cfg.ClaimTTL); err != nil {
		w.log.Warn("reap stale claims failed", "error", err)
	} else if reaped > 0 {
		w.log.Info("reaped stale claims", "pages", reaped)
	}

	pages, err := w.pageRepo.ClaimPending(dbc, w.cfg.BatchSize, w.cfg.MaxAttempts)
	if err != nil {
		w.log.Warn("claim pending pages failed", "error", err)
		return
	}
	for _, page := range pages {
		if ctx.Err() != nil {
			return
		}
		w.processPage(ctx, page)
	}
}

// processPage isolates panics so one bad page cannot take the loop down.
func (w *PageWorker) processPage(ctx context.Context, page *types.ImagePage) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("page processing panic", "page_id", page.ID, "panic", r)
			settle := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
			if err := w.pageRepo.Release(settle, page.ID, fmt.Sprintf("panic: %v", r)); err != nil {
				w.log.Error("release after panic failed", "page_id", page.ID, "error", err)
			}
		}
	}()

	start := time.Now()
	if err := w.processor.ProcessPage(ctx, page); err != nil {
		w.log.Warn("page processing failed",
			"page_id", page.ID,
			"attempt", page.Attempts,
			"error", err)
		return
	}
	w.log.Info("page processed",
		"page_id", page.ID,
		"document_id", page.DocumentID,
		"elapsed", time.Since(start).String())
}
