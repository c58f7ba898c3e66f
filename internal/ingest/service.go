package ingest

import (
	"context"

	"github.com/yungbote/docindex-backend/internal/crawler"
	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// Report summarizes one ingest run.
type Report struct {
	Discovered int           `json:"discovered"`
	Excluded   int           `json:"excluded"`
	Downloaded int           `json:"downloaded"`
	Skipped    int           `json:"skipped"`
	Pages      int           `json:"pages"`
	Errors     []FetchResult `json:"errors,omitempty"`
}

// Service ties crawl, fetch and split into the ingest operations the
// API and the periodic worker share.
type Service struct {
	log      *logger.Logger
	crawl    crawler.Crawler
	fetcher  *Fetcher
	splitter *Splitter
	docRepo  repos.DocumentRepo
}

func NewService(log *logger.Logger, crawl crawler.Crawler, fetcher *Fetcher, splitter *Splitter, docRepo repos.DocumentRepo) *Service {
	return &Service{
		log:      log.With("service", "IngestService"),
		crawl:    crawl,
		fetcher:  fetcher,
		splitter: splitter,
		docRepo:  docRepo,
	}
}

// Preview discovers without fetching; excluded descriptors are included
// with their reasons.
func (s *Service) Preview(ctx context.Context) ([]crawler.Descriptor, error) {
	return s.crawl.Discover(ctx)
}

// IngestFromSource runs discover, fetch and split end to end.
func (s *Service) IngestFromSource(ctx context.Context, skipExisting bool) (*Report, error) {
	descriptors, err := s.crawl.Discover(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Discovered: len(descriptors)}
	results := s.fetcher.FetchAll(ctx, descriptors, skipExisting)

	dbc := dbctx.Context{Ctx: ctx}
	for _, res := range results {
		switch {
		case res.Error != "":
			report.Errors = append(report.Errors, res)
		case res.Descriptor.ExcludeReason != "":
			report.Excluded++
		case res.Skipped:
			report.Skipped++
		default:
			report.Downloaded++
			doc, err := s.docRepo.GetByID(dbc, res.DocumentID)
			if err != nil || doc == nil {
				res.Error = "document row missing after fetch"
				report.Errors = append(report.Errors, res)
				continue
			}
			pages, err := s.splitter.Split(ctx, doc)
			if err != nil {
				res.Error = err.Error()
				report.Errors = append(report.Errors, res)
				continue
			}
			report.Pages += pages
		}
	}

	s.log.Info("ingest run finished",
		"discovered", report.Discovered,
		"downloaded", report.Downloaded,
		"skipped", report.Skipped,
		"excluded", report.Excluded,
		"pages", report.Pages,
		"errors", len(report.Errors))
	return report, nil
}

// EnqueueDocument ingests uploaded bytes and splits them immediately.
func (s *Service) EnqueueDocument(ctx context.Context, data []byte, filename, sourceURL string) (string, error) {
	docID, err := s.fetcher.EnqueueBytes(ctx, data, filename, sourceURL)
	if err != nil {
		return "", err
	}
	doc, err := s.docRepo.GetByID(dbctx.Context{Ctx: ctx}, docID)
	if err != nil {
		return "", err
	}
	if _, err := s.splitter.Split(ctx, doc); err != nil {
		return "", err
	}
	return docID, nil
}
