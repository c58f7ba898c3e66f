package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/docindex-backend/internal/crawler"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type memBlobStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: map[string][]byte{}}
}

func (m *memBlobStore) Put(ctx context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	if !ok {
		return nil, io.EOF
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memBlobStore) URL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "memory://" + key, nil
}

type memDocRepo struct {
	mu   sync.Mutex
	rows map[string]*types.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{rows: map[string]*types.Document{}}
}

func (m *memDocRepo) Upsert(dbc dbctx.Context, doc *types.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[doc.ID] = doc
	return nil
}

func (m *memDocRepo) GetByID(dbc dbctx.Context, id string) (*types.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id], nil
}

func (m *memDocRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Document, error) {
	var out []*types.Document
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if d, ok := m.rows[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDocRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[id]
	return ok, nil
}

func (m *memDocRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Document, error) {
	return nil, nil
}

func (m *memDocRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (m *memDocRepo) Count(dbc dbctx.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *memDocRepo) DeleteByID(dbc dbctx.Context, id string) error { return nil }

func testLog(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestFetchAllStoresByContentHash(t *testing.T) {
	content := []byte("%PDF-1.4 fake body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	blobs := newMemBlobStore()
	docs := newMemDocRepo()
	f := NewFetcher(testLog(t), blobs, docs, 2, 0)

	results := f.FetchAll(context.Background(), []crawler.Descriptor{{
		URL:          srv.URL + "/report.pdf",
		Filename:     "report.pdf",
		SectionLabel: "Court Filings",
	}}, true)

	if len(results) != 1 || results[0].Error != "" {
		t.Fatalf("results: %+v", results)
	}
	sum := sha256.Sum256(content)
	wantID := DocumentIDFromHash(sum[:])
	if results[0].DocumentID != wantID {
		t.Fatalf("document id: got %q want %q", results[0].DocumentID, wantID)
	}

	blobKey := "files/" + wantID + ".pdf"
	if got := blobs.data[blobKey]; !bytes.Equal(got, content) {
		t.Fatalf("blob content mismatch for %s", blobKey)
	}
	doc := docs.rows[wantID]
	if doc == nil || doc.FileType != "pdf" || doc.Section != "Court Filings" || doc.FileSize != int64(len(content)) {
		t.Fatalf("document row: %+v", doc)
	}
}

func TestFetchAllSkipsExistingAndExcluded(t *testing.T) {
	content := []byte("image-bytes")
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	blobs := newMemBlobStore()
	docs := newMemDocRepo()
	sum := sha256.Sum256(content)
	existingID := DocumentIDFromHash(sum[:])
	_ = docs.Upsert(dbctx.Background(), &types.Document{ID: existingID, FileName: "a.jpg"})

	f := NewFetcher(testLog(t), blobs, docs, 2, 0)
	results := f.FetchAll(context.Background(), []crawler.Descriptor{
		{URL: srv.URL + "/a.jpg", Filename: "a.jpg"},
		{URL: srv.URL + "/b.pdf", Filename: "b.pdf", ExcludeReason: "doj_disclosure_section"},
	}, true)

	if !results[0].Skipped || results[0].DocumentID != existingID {
		t.Fatalf("existing document should be skipped: %+v", results[0])
	}
	if !results[1].Skipped || results[1].DocumentID != "" {
		t.Fatalf("excluded descriptor should not be fetched: %+v", results[1])
	}
	if hits != 1 {
		t.Fatalf("excluded descriptor hit the server: %d requests", hits)
	}
	if len(blobs.data) != 0 {
		t.Fatalf("skipped downloads must not write blobs: %v", blobs.data)
	}
}

func TestEnqueueBytes(t *testing.T) {
	blobs := newMemBlobStore()
	docs := newMemDocRepo()
	f := NewFetcher(testLog(t), blobs, docs, 1, 0)

	data := []byte("uploaded file")
	id, err := f.EnqueueBytes(context.Background(), data, "upload.png", "")
	if err != nil {
		t.Fatalf("EnqueueBytes: %v", err)
	}
	sum := sha256.Sum256(data)
	if id != DocumentIDFromHash(sum[:]) {
		t.Fatalf("id: %q", id)
	}
	if _, ok := blobs.data["files/"+id+".png"]; !ok {
		t.Fatalf("blob missing: %v", blobs.data)
	}

	if _, err := f.EnqueueBytes(context.Background(), nil, "x.png", ""); err == nil {
		t.Fatal("empty upload must error")
	}
}

func TestEnqueueBytesRejectsUnsupportedExtension(t *testing.T) {
	blobs := newMemBlobStore()
	docs := newMemDocRepo()
	f := NewFetcher(testLog(t), blobs, docs, 1, 0)

	for _, name := range []string{"notes.docx", "archive.zip", "noext"} {
		_, err := f.EnqueueBytes(context.Background(), []byte("payload"), name, "")
		if err == nil {
			t.Fatalf("%s: unsupported extension must be rejected", name)
		}
		if !apperr.IsKind(err, apperr.KindInvalidArgument) {
			t.Fatalf("%s: kind = %v", name, apperr.KindOf(err))
		}
	}
	if len(blobs.data) != 0 {
		t.Fatalf("rejected uploads must not write blobs: %v", blobs.data)
	}
	if n, _ := docs.Count(dbctx.Background()); n != 0 {
		t.Fatalf("rejected uploads must not create documents: %d", n)
	}
}

func TestFileExt(t *testing.T) {
	cases := map[string]string{
		"a.PDF":    "pdf",
		"photo.jpeg": "jpeg",
		"noext":    "bin",
	}
	for in, want := range cases {
		if got := fileExt(in); got != want {
			t.Fatalf("fileExt(%q) = %q, want %q", in, got, want)
		}
	}
}
