package ingest

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/platform/localmedia"
	"github.com/yungbote/docindex-backend/internal/platform/storage"
)

const defaultRenderDPI = 200

// Splitter turns a stored document into pending page images. PDFs are
// rasterized page by page; single images become one page.
type Splitter struct {
	log      *logger.Logger
	blobs    storage.BlobStore
	media    localmedia.Tools
	docRepo  repos.DocumentRepo
	pageRepo repos.ImagePageRepo
	dpi      int
}

func NewSplitter(log *logger.Logger, blobs storage.BlobStore, media localmedia.Tools, docRepo repos.DocumentRepo, pageRepo repos.ImagePageRepo, dpi int) *Splitter {
	if dpi <= 0 {
		dpi = defaultRenderDPI
	}
	return &Splitter{
		log:      log.With("component", "splitter"),
		blobs:    blobs,
		media:    media,
		docRepo:  docRepo,
		pageRepo: pageRepo,
		dpi:      dpi,
	}
}

// Split produces ImagePage rows and page rasters for a document.
// Returns the page count. Re-splitting is safe: existing page rows are
// left untouched, so OCR progress survives.
func (s *Splitter) Split(ctx context.Context, doc *types.Document) (int, error) {
	if doc == nil || doc.ID == "" {
		return 0, apperr.New(apperr.KindInvalidArgument, "document required")
	}

	data, err := s.readBlob(ctx, doc.BlobKey)
	if err != nil {
		return 0, err
	}

	var pages []*types.ImagePage
	if doc.FileType == "pdf" {
		pages, err = s.splitPDF(ctx, doc, data)
	} else {
		pages, err = s.singleImagePage(ctx, doc, data)
	}
	if err != nil {
		return 0, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.pageRepo.CreateBatch(dbc, pages); err != nil {
		return 0, err
	}
	if err := s.docRepo.UpdateFields(dbc, doc.ID, map[string]interface{}{
		"page_count": len(pages),
	}); err != nil {
		return 0, err
	}
	s.log.Info("document split", "document_id", doc.ID, "pages", len(pages))
	return len(pages), nil
}

func (s *Splitter) readBlob(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "read document blob", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.KindTransientUpstream, "read document blob", err)
	}
	return data, nil
}

func (s *Splitter) splitPDF(ctx context.Context, doc *types.Document, data []byte) ([]*types.ImagePage, error) {
	pdfPath, cleanup, err := s.media.WriteTempFile(ctx, data, ".pdf")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "write temp pdf", err)
	}
	defer cleanup()

	count, err := s.media.CountPDFPages(ctx, pdfPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPermanentUpstream, "count pdf pages", err)
	}

	outDir, err := os.MkdirTemp("", "docindex-split-*")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create render dir", err)
	}
	defer os.RemoveAll(outDir)

	rendered, err := s.media.RenderPDFToImages(ctx, pdfPath, outDir, localmedia.PDFRenderOptions{
		DPI:    s.dpi,
		Format: "png",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "render pdf", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.KindPermanentUpstream, "render pdf", err)
	}
	if len(rendered) != count {
		s.log.Warn("rendered page count mismatch", "document_id", doc.ID, "expected", count, "rendered", len(rendered))
	}

	pages := make([]*types.ImagePage, 0, len(rendered))
	for i, imgPath := range rendered {
		pageNumber := i + 1
		imgBytes, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "read rendered page "+filepath.Base(imgPath), err)
		}
		page, err := s.storePage(ctx, doc.ID, pageNumber, imgBytes)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// singleImagePage re-encodes non-PNG inputs so every stored page raster
// is a PNG.
func (s *Splitter) singleImagePage(ctx context.Context, doc *types.Document, data []byte) ([]*types.ImagePage, error) {
	if doc.FileType != "png" {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, apperr.Wrap(apperr.KindPermanentUpstream, "decode image", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "encode page png", err)
		}
		data = buf.Bytes()
	}
	page, err := s.storePage(ctx, doc.ID, 1, data)
	if err != nil {
		return nil, err
	}
	return []*types.ImagePage{page}, nil
}

func (s *Splitter) storePage(ctx context.Context, docID string, pageNumber int, pngBytes []byte) (*types.ImagePage, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "read page dimensions", err)
	}

	pageID := types.PageID(docID, pageNumber)
	key := storage.PrefixImages + pageID + ".png"
	if err := s.blobs.Put(ctx, key, bytes.NewReader(pngBytes)); err != nil {
		return nil, err
	}
	return &types.ImagePage{
		ID:         pageID,
		DocumentID: docID,
		PageNumber: pageNumber,
		ImagePath:  key,
		Width:      cfg.Width,
		Height:     cfg.Height,
		OCRState:   types.OCRStatePending,
	}, nil
}
