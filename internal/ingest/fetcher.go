// Package ingest moves remote files into the blob store and fans them
// out into OCR-ready page images.
package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/docindex-backend/internal/crawler"
	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/platform/storage"
)

const (
	defaultMaxConcurrent = 4
	defaultPerHostDelay  = 250 * time.Millisecond
	downloadTimeout      = 30 * time.Second
)

// FetchResult is the outcome of one descriptor.
type FetchResult struct {
	Descriptor crawler.Descriptor `json:"descriptor"`
	DocumentID string             `json:"document_id,omitempty"`
	Skipped    bool               `json:"skipped,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Fetcher downloads descriptors with bounded concurrency and a per-host
// politeness delay, persisting each file and its Document row.
type Fetcher struct {
	log           *logger.Logger
	client        *http.Client
	blobs         storage.BlobStore
	docRepo       repos.DocumentRepo
	maxConcurrent int
	perHostDelay  time.Duration

	mu       sync.Mutex
	lastHit  map[string]time.Time
}

func NewFetcher(log *logger.Logger, blobs storage.BlobStore, docRepo repos.DocumentRepo, maxConcurrent int, perHostDelay time.Duration) *Fetcher {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if perHostDelay < 0 {
		perHostDelay = defaultPerHostDelay
	}
	return &Fetcher{
		log:           log.With("component", "fetcher"),
		client:        &http.Client{Timeout: downloadTimeout},
		blobs:         blobs,
		docRepo:       docRepo,
		maxConcurrent: maxConcurrent,
		perHostDelay:  perHostDelay,
		lastHit:       map[string]time.Time{},
	}
}

// FetchAll downloads every non-excluded descriptor. Individual failures
// are reported per descriptor; the slice always covers the input.
func (f *Fetcher) FetchAll(ctx context.Context, descriptors []crawler.Descriptor, skipExisting bool) []FetchResult {
	results := make([]FetchResult, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.maxConcurrent)
	for i, d := range descriptors {
		i, d := i, d
		results[i].Descriptor = d
		if d.ExcludeReason != "" {
			results[i].Skipped = true
			continue
		}
		g.Go(func() error {
			docID, skipped, err := f.fetchOne(gctx, d, skipExisting)
			if err != nil {
				results[i].Error = err.Error()
				f.log.Warn("fetch failed", "url", d.URL, "error", err)
				return nil
			}
			results[i].DocumentID = docID
			results[i].Skipped = skipped
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, d crawler.Descriptor, skipExisting bool) (string, bool, error) {
	f.politeWait(ctx, d.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL, nil)
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindInvalidArgument, "build download request", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, apperr.Wrap(apperr.KindCancelled, "download", ctx.Err())
		}
		return "", false, apperr.Wrap(apperr.KindTransientUpstream, "download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		kind := apperr.KindPermanentUpstream
		if resp.StatusCode >= 500 || resp.StatusCode == 429 {
			kind = apperr.KindTransientUpstream
		}
		return "", false, apperr.Newf(kind, "download %s: http %d", d.URL, resp.StatusCode)
	}

	// Stream to a temp file while hashing, so the blob key is known
	// before the bytes move to durable storage.
	tmp, err := os.CreateTemp("", "docindex-fetch-*")
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindInternal, "create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", false, apperr.Wrap(apperr.KindCancelled, "stream download", ctx.Err())
		}
		return "", false, apperr.Wrap(apperr.KindTransientUpstream, "stream download", err)
	}

	docID := DocumentIDFromHash(hasher.Sum(nil))
	dbc := dbctx.Context{Ctx: ctx}

	exists, err := f.docRepo.ExistsByID(dbc, docID)
	if err != nil {
		return "", false, err
	}
	if exists && skipExisting {
		f.log.Debug("document already ingested", "document_id", docID, "url", d.URL)
		return docID, true, nil
	}

	ext := fileExt(d.Filename)
	blobKey := storage.PrefixFiles + docID + "." + ext
	src, err := os.Open(tmpPath)
	if err != nil {
		return "", false, apperr.Wrap(apperr.KindInternal, "reopen temp file", err)
	}
	defer src.Close()
	if err := f.blobs.Put(ctx, blobKey, src); err != nil {
		return "", false, err
	}

	doc := &types.Document{
		ID:        docID,
		SourceURL: d.URL,
		FileName:  d.Filename,
		FileType:  ext,
		FileSize:  size,
		BlobKey:   blobKey,
		Section:   d.SectionLabel,
	}
	if err := f.docRepo.Upsert(dbc, doc); err != nil {
		return "", false, err
	}
	f.log.Info("document ingested", "document_id", docID, "url", d.URL, "bytes", size)
	return docID, false, nil
}

// EnqueueBytes ingests an already-downloaded file (direct upload path).
func (f *Fetcher) EnqueueBytes(ctx context.Context, data []byte, filename, sourceURL string) (string, error) {
	if len(data) == 0 {
		return "", apperr.New(apperr.KindInvalidArgument, "empty file")
	}
	if !crawler.AllowedExtension(filename) {
		return "", apperr.Newf(apperr.KindInvalidArgument, "unsupported file extension: %q", filename)
	}
	sum := sha256.Sum256(data)
	docID := DocumentIDFromHash(sum[:])

	ext := fileExt(filename)
	blobKey := storage.PrefixFiles + docID + "." + ext
	if err := f.blobs.Put(ctx, blobKey, bytes.NewReader(data)); err != nil {
		return "", err
	}
	doc := &types.Document{
		ID:        docID,
		SourceURL: sourceURL,
		FileName:  filename,
		FileType:  ext,
		FileSize:  int64(len(data)),
		BlobKey:   blobKey,
	}
	if err := f.docRepo.Upsert(dbctx.Context{Ctx: ctx}, doc); err != nil {
		return "", err
	}
	return docID, nil
}

// politeWait enforces the per-host delay; the map records the moment a
// host was last contacted.
func (f *Fetcher) politeWait(ctx context.Context, rawURL string) {
	if f.perHostDelay <= 0 {
		return
	}
	host := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = u.Host
	}

	for {
		f.mu.Lock()
		last, ok := f.lastHit[host]
		now := time.Now()
		if !ok || now.Sub(last) >= f.perHostDelay {
			f.lastHit[host] = now
			f.mu.Unlock()
			return
		}
		wait := f.perHostDelay - now.Sub(last)
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// DocumentIDFromHash derives the document id from a SHA-256 digest:
// hex of the first 16 bytes.
func DocumentIDFromHash(sum []byte) string {
	if len(sum) > 16 {
		sum = sum[:16]
	}
	return hex.EncodeToString(sum)
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i+1 < len(name) {
		return strings.ToLower(name[i+1:])
	}
	return "bin"
}
