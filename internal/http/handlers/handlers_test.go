package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/docindex-backend/internal/crawler"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/ingest"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

type stubDocRepo struct {
	docs map[string]*types.Document
}

func (s *stubDocRepo) Upsert(dbc dbctx.Context, doc *types.Document) error { return nil }

func (s *stubDocRepo) GetByID(dbc dbctx.Context, id string) (*types.Document, error) {
	return s.docs[id], nil
}

func (s *stubDocRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Document, error) {
	return nil, nil
}

func (s *stubDocRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	_, ok := s.docs[id]
	return ok, nil
}

func (s *stubDocRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Document, error) {
	var out []*types.Document
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out, nil
}

func (s *stubDocRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (s *stubDocRepo) Count(dbc dbctx.Context) (int64, error) {
	return int64(len(s.docs)), nil
}

func (s *stubDocRepo) DeleteByID(dbc dbctx.Context, id string) error { return nil }

type stubPageRepo struct {
	pages map[string]*types.ImagePage
}

func (s *stubPageRepo) CreateBatch(dbc dbctx.Context, pages []*types.ImagePage) ([]*types.ImagePage, error) {
	return pages, nil
}

func (s *stubPageRepo) GetByID(dbc dbctx.Context, id string) (*types.ImagePage, error) {
	return s.pages[id], nil
}

func (s *stubPageRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.ImagePage, error) {
	return nil, nil
}

func (s *stubPageRepo) ListByDocumentID(dbc dbctx.Context, documentID string) ([]*types.ImagePage, error) {
	var out []*types.ImagePage
	for _, p := range s.pages {
		if p.DocumentID == documentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPageRepo) ClaimPending(dbc dbctx.Context, batch, maxAttempts int) ([]*types.ImagePage, error) {
	return nil, nil
}

func (s *stubPageRepo) MarkDone(dbc dbctx.Context, id string) error          { return nil }
func (s *stubPageRepo) Release(dbc dbctx.Context, id, reason string) error   { return nil }
func (s *stubPageRepo) Fail(dbc dbctx.Context, id, reason string) error      { return nil }

func (s *stubPageRepo) ReapStale(dbc dbctx.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubPageRepo) CountByState(dbc dbctx.Context) (map[string]int64, error) {
	return map[string]int64{types.OCRStateDone: int64(len(s.pages))}, nil
}

func (s *stubPageRepo) Count(dbc dbctx.Context) (int64, error) {
	return int64(len(s.pages)), nil
}

type stubOCRRepo struct {
	byPage map[string]*types.OCRText
}

func (s *stubOCRRepo) ReplaceForPage(dbc dbctx.Context, ocr *types.OCRText) (*types.OCRText, error) {
	return ocr, nil
}

func (s *stubOCRRepo) GetByPageID(dbc dbctx.Context, pageID string) (*types.OCRText, error) {
	return s.byPage[pageID], nil
}

func (s *stubOCRRepo) GetByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.OCRText, error) {
	var out []*types.OCRText
	for _, id := range pageIDs {
		if t, ok := s.byPage[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubOCRRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.OCRText, error) {
	return nil, nil
}

func (s *stubOCRRepo) Count(dbc dbctx.Context) (int64, error) {
	return int64(len(s.byPage)), nil
}

func doRequest(r *gin.Engine, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDocumentHandlerGet(t *testing.T) {
	docID := "ab12"
	docs := &stubDocRepo{docs: map[string]*types.Document{
		docID: {ID: docID, FileName: "report.pdf", FileType: "pdf"},
	}}
	pages := &stubPageRepo{pages: map[string]*types.ImagePage{}}
	ocr := &stubOCRRepo{byPage: map[string]*types.OCRText{}}
	h := NewDocumentHandler(testLog(t), docs, pages, ocr)

	r := gin.New()
	r.GET("/documents/:id", h.Get)

	w := doRequest(r, http.MethodGet, "/documents/"+docID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/documents/missing", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing document: %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["kind"] != "not_found" {
		t.Fatalf("kind: %v", body["kind"])
	}
}

func TestDocumentHandlerPagesWithOCR(t *testing.T) {
	docID := "cd34"
	pageID := types.PageID(docID, 1)
	docs := &stubDocRepo{docs: map[string]*types.Document{docID: {ID: docID}}}
	pages := &stubPageRepo{pages: map[string]*types.ImagePage{
		pageID: {ID: pageID, DocumentID: docID, PageNumber: 1},
	}}
	ocr := &stubOCRRepo{byPage: map[string]*types.OCRText{
		pageID: {PageID: pageID, DocumentID: docID, NormalizedText: "hello"},
	}}
	h := NewDocumentHandler(testLog(t), docs, pages, ocr)

	r := gin.New()
	r.GET("/documents/:id/pages", h.Pages)

	w := doRequest(r, http.MethodGet, "/documents/"+docID+"/pages", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var body struct {
		Pages []struct {
			OCR *types.OCRText `json:"ocr"`
		} `json:"pages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Pages) != 1 || body.Pages[0].OCR == nil || body.Pages[0].OCR.NormalizedText != "hello" {
		t.Fatalf("pages: %+v", body.Pages)
	}
}

type stubIngestService struct {
	preview []crawler.Descriptor
	report  *ingest.Report
	block   chan struct{}
}

func (s *stubIngestService) Preview(ctx context.Context) ([]crawler.Descriptor, error) {
	return s.preview, nil
}

func (s *stubIngestService) IngestFromSource(ctx context.Context, skipExisting bool) (*ingest.Report, error) {
	if s.block != nil {
		<-s.block
	}
	return s.report, nil
}

func (s *stubIngestService) EnqueueDocument(ctx context.Context, data []byte, filename, sourceURL string) (string, error) {
	return "deadbeef", nil
}

func TestIngestRunConflict(t *testing.T) {
	block := make(chan struct{})
	svc := &stubIngestService{report: &ingest.Report{}, block: block}
	h := NewIngestHandler(testLog(t), svc)

	r := gin.New()
	r.POST("/ingest/doj", h.Run)
	r.GET("/ingest/doj/status", h.Status)

	w := doRequest(r, http.MethodPost, "/ingest/doj", nil, "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("first run: %d body=%s", w.Code, w.Body.String())
	}
	w = doRequest(r, http.MethodPost, "/ingest/doj", nil, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("second run while busy: %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/ingest/doj/status", nil, "")
	var status map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &status)
	if status["running"] != true {
		t.Fatalf("status while running: %v", status)
	}

	close(block)
	deadline := time.Now().Add(time.Second)
	for {
		w = doRequest(r, http.MethodGet, "/ingest/doj/status", nil, "")
		_ = json.Unmarshal(w.Body.Bytes(), &status)
		if status["running"] == false {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run never finished: %v", status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestIngestRunRejectsBadSkipExisting(t *testing.T) {
	h := NewIngestHandler(testLog(t), &stubIngestService{})
	r := gin.New()
	r.POST("/ingest/doj", h.Run)

	w := doRequest(r, http.MethodPost, "/ingest/doj?skip_existing=maybe", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: %d", w.Code)
	}
}

func TestIngestUpload(t *testing.T) {
	h := NewIngestHandler(testLog(t), &stubIngestService{})
	r := gin.New()
	r.POST("/ingest/upload", h.Upload)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("png-bytes"))
	_ = mw.Close()

	w := doRequest(r, http.MethodPost, "/ingest/upload", &buf, mw.FormDataContentType())
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", w.Code, w.Body.String())
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["document_id"] != "deadbeef" {
		t.Fatalf("body: %v", body)
	}

	w = doRequest(r, http.MethodPost, "/ingest/upload", nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing file: %d", w.Code)
	}
}

func TestIngestPreviewCountsExclusions(t *testing.T) {
	svc := &stubIngestService{preview: []crawler.Descriptor{
		{URL: "https://x/a.pdf", Filename: "a.pdf"},
		{URL: "https://x/b.pdf", Filename: "b.pdf", ExcludeReason: "doj_disclosure_section"},
	}}
	h := NewIngestHandler(testLog(t), svc)
	r := gin.New()
	r.GET("/ingest/doj/preview", h.Preview)

	w := doRequest(r, http.MethodGet, "/ingest/doj/preview", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["discovered"] != float64(2) || body["excluded"] != float64(1) {
		t.Fatalf("body: %v", body)
	}
}
