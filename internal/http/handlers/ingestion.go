package handlers

import (
	"context"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docindex-backend/internal/crawler"
	"github.com/yungbote/docindex-backend/internal/http/response"
	"github.com/yungbote/docindex-backend/internal/ingest"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

const maxUploadBytes = 256 << 20

// IngestService is satisfied by ingest.Service.
type IngestService interface {
	Preview(ctx context.Context) ([]crawler.Descriptor, error)
	IngestFromSource(ctx context.Context, skipExisting bool) (*ingest.Report, error)
	EnqueueDocument(ctx context.Context, data []byte, filename, sourceURL string) (string, error)
}

// IngestHandler triggers and inspects ingest runs. A run executes in the
// background; only one runs at a time.
type IngestHandler struct {
	log *logger.Logger
	svc IngestService

	mu         sync.Mutex
	running    bool
	lastReport *ingest.Report
	lastError  string
	lastRunAt  time.Time
}

func NewIngestHandler(log *logger.Logger, svc IngestService) *IngestHandler {
	return &IngestHandler{
		log: log.With("handler", "IngestHandler"),
		svc: svc,
	}
}

// Preview handles GET /ingest/doj/preview.
func (h *IngestHandler) Preview(c *gin.Context) {
	descriptors, err := h.svc.Preview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	excluded := 0
	for _, d := range descriptors {
		if d.ExcludeReason != "" {
			excluded++
		}
	}
	response.OK(c, gin.H{
		"discovered": len(descriptors),
		"excluded":   excluded,
		"files":      descriptors,
	})
}

// Run handles POST /ingest/doj?skip_existing=. The run detaches from the
// request context so a closed connection does not abort it.
func (h *IngestHandler) Run(c *gin.Context) {
	skipExisting := true
	if raw := c.Query("skip_existing"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, apperr.New(apperr.KindInvalidArgument, "skip_existing must be a boolean"))
			return
		}
		skipExisting = parsed
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		response.Error(c, apperr.New(apperr.KindConflict, "an ingest run is already in progress"))
		return
	}
	h.running = true
	h.lastRunAt = time.Now()
	h.mu.Unlock()

	go func() {
		report, err := h.svc.IngestFromSource(context.Background(), skipExisting)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.running = false
		if err != nil {
			h.lastError = err.Error()
			h.lastReport = nil
			h.log.Warn("ingest run failed", "error", err)
			return
		}
		h.lastError = ""
		h.lastReport = report
	}()

	response.Accepted(c, gin.H{"status": "started", "skip_existing": skipExisting})
}

// Status handles GET /ingest/doj/status.
func (h *IngestHandler) Status(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := gin.H{"running": h.running}
	if !h.lastRunAt.IsZero() {
		out["last_run_at"] = h.lastRunAt
	}
	if h.lastError != "" {
		out["last_error"] = h.lastError
	}
	if h.lastReport != nil {
		out["last_report"] = h.lastReport
	}
	response.OK(c, out)
}

// Upload handles POST /ingest/upload (multipart field "file").
func (h *IngestHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.Wrap(apperr.KindInvalidArgument, "multipart field 'file' is required", err))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		response.Error(c, apperr.New(apperr.KindInvalidArgument, "file too large"))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, apperr.Wrap(apperr.KindInternal, "open upload", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		response.Error(c, apperr.Wrap(apperr.KindInternal, "read upload", err))
		return
	}
	if len(data) > maxUploadBytes {
		response.Error(c, apperr.New(apperr.KindInvalidArgument, "file too large"))
		return
	}

	docID, err := h.svc.EnqueueDocument(c.Request.Context(), data, fileHeader.Filename, c.PostForm("source_url"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"document_id": docID})
}
