package app

import (
	"strings"
	"time"

	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/utils"
)

// Config carries the deployment knobs for the pipeline and the API.
type Config struct {
	OCRLanguages      []string
	OCRPreprocess     bool
	OCRDeskew         bool
	OCRScales         []float64
	OCRDropConfidence float64
	OCRTimeout        time.Duration
	OCRRenderDPI      int

	CrawlerMode           string
	CrawlerSourceURL      string
	CrawlerRateLimit      time.Duration
	CrawlerMaxConcurrent  int
	SiteIngestInterval    time.Duration
	SiteIngestSkipExist   bool
	SiteIngestRunOnStart  bool

	WorkerBatchSize    int
	WorkerPollInterval time.Duration
	WorkerClaimTTL     time.Duration
	WorkerMaxAttempts  int

	SearchDefaultLimit   int
	SearchFuzzyThreshold float64
}

func LoadConfig(log *logger.Logger) Config {
	languages := splitCSV(utils.GetEnv("OCR_LANGUAGES", "en", log))

	return Config{
		OCRLanguages:      languages,
		OCRPreprocess:     utils.GetEnvAsBool("OCR_PREPROCESS", true, log),
		OCRDeskew:         utils.GetEnvAsBool("OCR_DESKEW", true, log),
		OCRScales:         utils.GetEnvAsFloatList("OCR_SCALES", []float64{1.0}, log),
		OCRDropConfidence: utils.GetEnvAsFloat("OCR_DROP_CONFIDENCE", 0.3, log),
		OCRTimeout:        time.Duration(utils.GetEnvAsInt("OCR_TIMEOUT_SECONDS", 300, log)) * time.Second,
		OCRRenderDPI:      utils.GetEnvAsInt("OCR_RENDER_DPI", 200, log),

		CrawlerMode:          utils.GetEnv("CRAWLER_MODE", "site", log),
		CrawlerSourceURL:     utils.GetEnv("CRAWLER_SOURCE_URL", "", log),
		CrawlerRateLimit:     time.Duration(utils.GetEnvAsInt("CRAWLER_RATE_LIMIT_PER_HOST_MS", 250, log)) * time.Millisecond,
		CrawlerMaxConcurrent: utils.GetEnvAsInt("CRAWLER_MAX_CONCURRENT_DOWNLOADS", 4, log),
		SiteIngestInterval:   time.Duration(utils.GetEnvAsInt("SITE_INGEST_RUN_INTERVAL_SECONDS", 600, log)) * time.Second,
		SiteIngestSkipExist:  utils.GetEnvAsBool("SITE_INGEST_SKIP_EXISTING", true, log),
		SiteIngestRunOnStart: utils.GetEnvAsBool("SITE_INGEST_RUN_ON_START", false, log),

		WorkerBatchSize:    utils.GetEnvAsInt("WORKER_BATCH_SIZE", 1, log),
		WorkerPollInterval: time.Duration(utils.GetEnvAsInt("WORKER_POLL_SECONDS", 10, log)) * time.Second,
		WorkerClaimTTL:     time.Duration(utils.GetEnvAsInt("WORKER_CLAIM_TTL_SECONDS", 900, log)) * time.Second,
		WorkerMaxAttempts:  utils.GetEnvAsInt("WORKER_MAX_ATTEMPTS", 5, log),

		SearchDefaultLimit:   utils.GetEnvAsInt("SEARCH_DEFAULT_LIMIT", 50, log),
		SearchFuzzyThreshold: utils.GetEnvAsFloat("SEARCH_FUZZY_THRESHOLD", 0.6, log),
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
