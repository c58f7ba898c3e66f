package worker

import (
	"context"
	"time"

	"github.com/yungbote/docindex-backend/internal/ingest"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// Ingestor is satisfied by ingest.Service.
type Ingestor interface {
	IngestFromSource(ctx context.Context, skipExisting bool) (*ingest.Report, error)
}

// SiteIngestConfig tunes the periodic source crawl.
type SiteIngestConfig struct {
	RunInterval  time.Duration
	SkipExisting bool
	RunOnStart   bool
}

func (c *SiteIngestConfig) applyDefaults() {
	if c.RunInterval <= 0 {
		c.RunInterval = 10 * time.Minute
	}
}

// SiteIngestWorker re-crawls the source on a fixed interval so newly
// published files show up without manual triggering.
type SiteIngestWorker struct {
	log      *logger.Logger
	ingestor Ingestor
	cfg      SiteIngestConfig
}

func NewSiteIngestWorker(log *logger.Logger, ingestor Ingestor, cfg SiteIngestConfig) *SiteIngestWorker {
	cfg.applyDefaults()
	return &SiteIngestWorker{
		log:      log.With("component", "SiteIngestWorker"),
		ingestor: ingestor,
		cfg:      cfg,
	}
}

func (w *SiteIngestWorker) Start(ctx context.Context) {
	go func() {
		w.log.Info("site ingest worker started",
			"interval", w.cfg.RunInterval.String(),
			"skip_existing", w.cfg.SkipExisting)
		if w.cfg.RunOnStart {
			w.runOnce(ctx)
		}
		ticker := time.NewTicker(w.cfg.RunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				w.log.Info("site ingest worker stopped")
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

func (w *SiteIngestWorker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("site ingest panic", "panic", r)
		}
	}()

	start := time.Now()
	report, err := w.ingestor.IngestFromSource(ctx, w.cfg.SkipExisting)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.log.Warn("site ingest run failed", "error", err)
		return
	}
	w.log.Info("site ingest run complete",
		"discovered", report.Discovered,
		"downloaded", report.Downloaded,
		"skipped", report.Skipped,
		"excluded", report.Excluded,
		"pages", report.Pages,
		"errors", len(report.Errors),
		"elapsed", time.Since(start).String())
}
