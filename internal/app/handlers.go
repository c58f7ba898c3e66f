package app

import (
	"github.com/yungbote/docindex-backend/internal/http/handlers"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type Handlers struct {
	Search   *handlers.SearchHandler
	Document *handlers.DocumentHandler
	Media    *handlers.MediaHandler
	Entity   *handlers.EntityHandler
	Stats    *handlers.StatsHandler
	Ingest   *handlers.IngestHandler
}

func wireHandlers(log *logger.Logger, cfg Config, clients Clients, reposet Repos, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Search:   handlers.NewSearchHandler(log, services.SearchEngine, cfg.SearchDefaultLimit, cfg.SearchFuzzyThreshold),
		Document: handlers.NewDocumentHandler(log, reposet.Document, reposet.ImagePage, reposet.OCRText),
		Media:    handlers.NewMediaHandler(log, clients.Blobs, reposet.Document, reposet.ImagePage, clients.URLCache),
		Entity:   handlers.NewEntityHandler(log, reposet.Entity, reposet.SearchIndex),
		Stats:    handlers.NewStatsHandler(log, reposet.Document, reposet.ImagePage, reposet.OCRText, reposet.Entity, reposet.SearchIndex),
		Ingest:   handlers.NewIngestHandler(log, services.Ingest),
	}
}
