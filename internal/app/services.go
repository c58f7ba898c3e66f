package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/docindex-backend/internal/crawler"
	"github.com/yungbote/docindex-backend/internal/ingest"
	"github.com/yungbote/docindex-backend/internal/ocr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/search"
	"github.com/yungbote/docindex-backend/internal/worker"
)

type Services struct {
	Crawler      crawler.Crawler
	Fetcher      *ingest.Fetcher
	Splitter     *ingest.Splitter
	Ingest       *ingest.Service
	OCREngine    ocr.Engine
	Coordinator  *ocr.Coordinator
	SearchEngine *search.Engine

	PageWorker       *worker.PageWorker
	SiteIngestWorker *worker.SiteIngestWorker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	rules, err := crawler.DefaultRules()
	if err != nil {
		return Services{}, fmt.Errorf("load crawl rules: %w", err)
	}
	if cfg.CrawlerSourceURL == "" {
		log.Warn("CRAWLER_SOURCE_URL not set; ingest runs will fail until configured")
	}
	var crawl crawler.Crawler
	switch cfg.CrawlerMode {
	case "generic":
		crawl = crawler.NewGenericCrawler(log, cfg.CrawlerSourceURL)
	default:
		crawl = crawler.NewSiteCrawler(log, cfg.CrawlerSourceURL, rules)
	}

	fetcher := ingest.NewFetcher(log, clients.Blobs, reposet.Document, cfg.CrawlerMaxConcurrent, cfg.CrawlerRateLimit)
	splitter := ingest.NewSplitter(log, clients.Blobs, clients.Media, reposet.Document, reposet.ImagePage, cfg.OCRRenderDPI)
	ingestSvc := ingest.NewService(log, crawl, fetcher, splitter, reposet.Document)

	engine, err := ocr.NewEngine(log, ocr.EngineSettingsFromEnv(log))
	if err != nil {
		return Services{}, fmt.Errorf("init ocr engine: %w", err)
	}

	coordinator := ocr.NewCoordinator(
		log, db, clients.Blobs, engine,
		reposet.ImagePage, reposet.OCRText, reposet.Entity, reposet.SearchIndex,
		clients.Vectors, clients.Embedder,
		ocr.CoordinatorConfig{
			Languages:      cfg.OCRLanguages,
			Preprocess:     cfg.OCRPreprocess,
			Deskew:         cfg.OCRDeskew,
			Scales:         cfg.OCRScales,
			DropConfidence: cfg.OCRDropConfidence,
			OCRTimeout:     cfg.OCRTimeout,
			MaxAttempts:    cfg.WorkerMaxAttempts,
		},
	)

	searchEngine := search.NewEngine(
		log,
		reposet.SearchIndex, reposet.Entity, reposet.OCRText, reposet.ImagePage,
		clients.Vectors, clients.Embedder,
	)

	pageWorker := worker.NewPageWorker(log, reposet.ImagePage, coordinator, worker.PageWorkerConfig{
		PollInterval: cfg.WorkerPollInterval,
		BatchSize:    cfg.WorkerBatchSize,
		MaxAttempts:  cfg.WorkerMaxAttempts,
		ClaimTTL:     cfg.WorkerClaimTTL,
	})
	siteWorker := worker.NewSiteIngestWorker(log, ingestSvc, worker.SiteIngestConfig{
		RunInterval:  cfg.SiteIngestInterval,
		SkipExisting: cfg.SiteIngestSkipExist,
		RunOnStart:   cfg.SiteIngestRunOnStart,
	})

	return Services{
		Crawler:          crawl,
		Fetcher:          fetcher,
		Splitter:         splitter,
		Ingest:           ingestSvc,
		OCREngine:        engine,
		Coordinator:      coordinator,
		SearchEngine:     searchEngine,
		PageWorker:       pageWorker,
		SiteIngestWorker: siteWorker,
	}, nil
}
