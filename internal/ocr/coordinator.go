package ocr

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"gorm.io/gorm"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/ocr/preprocess"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/platform/qdrant"
	"github.com/yungbote/docindex-backend/internal/platform/storage"
	"github.com/yungbote/docindex-backend/internal/processing"
	"github.com/yungbote/docindex-backend/internal/search"
)

const (
	// Overlap for folding the same word found at different scales.
	multiScaleMergeIOU = 0.6

	defaultOCRTimeout  = 300 * time.Second
	defaultMaxAttempts = 5
)

// CoordinatorConfig carries the per-deployment OCR pipeline knobs.
type CoordinatorConfig struct {
	Languages      []string
	Preprocess     bool
	Deskew         bool
	Scales         []float64
	DropConfidence float64
	OCRTimeout     time.Duration
	MaxAttempts    int
}

// Coordinator drives one page through OCR, normalization, entity
// extraction and indexing, then settles the page state. One instance is
// shared by all worker goroutines; the engine is assumed thread-safe.
type Coordinator struct {
	log      *logger.Logger
	db       *gorm.DB
	blobs    storage.BlobStore
	engine   Engine
	pageRepo repos.ImagePageRepo
	ocrRepo  repos.OCRTextRepo
	entRepo  repos.EntityRepo
	idxRepo  repos.SearchIndexRepo
	vectors  qdrant.VectorStore
	embedder search.Embedder
	cfg      CoordinatorConfig
}

func NewCoordinator(
	log *logger.Logger,
	db *gorm.DB,
	blobs storage.BlobStore,
	engine Engine,
	pageRepo repos.ImagePageRepo,
	ocrRepo repos.OCRTextRepo,
	entRepo repos.EntityRepo,
	idxRepo repos.SearchIndexRepo,
	vectors qdrant.VectorStore,
	embedder search.Embedder,
	cfg CoordinatorConfig,
) *Coordinator {
	if cfg.OCRTimeout <= 0 {
		cfg.OCRTimeout = defaultOCRTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if len(cfg.Scales) == 0 {
		cfg.Scales = []float64{1.0}
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	return &Coordinator{
		log:      log.With("component", "ocr_coordinator"),
		db:       db,
		blobs:    blobs,
		engine:   engine,
		pageRepo: pageRepo,
		ocrRepo:  ocrRepo,
		entRepo:  entRepo,
		idxRepo:  idxRepo,
		vectors:  vectors,
		embedder: embedder,
		cfg:      cfg,
	}
}

// ProcessPage runs the full pipeline for a claimed page and settles its
// state. A cancelled run releases the claim; a permanent failure or an
// exhausted retry budget marks the page failed; other errors release it
// for a later attempt.
func (c *Coordinator) ProcessPage(ctx context.Context, page *types.ImagePage) error {
	err := c.processOnce(ctx, page)
	if err == nil {
		return nil
	}

	dbc := dbctx.Context{Ctx: context.WithoutCancel(ctx)}
	kind := apperr.KindOf(err)
	reason := err.Error()
	if len(reason) > 500 {
		reason = reason[:500]
	}

	switch {
	case kind == apperr.KindCancelled:
		c.log.Info("page processing cancelled, releasing claim", "page_id", page.ID)
		if rerr := c.pageRepo.Release(dbc, page.ID, reason); rerr != nil {
			c.log.Error("release after cancel failed", "page_id", page.ID, "error", rerr)
		}
	case kind == apperr.KindPermanentUpstream,
		kind == apperr.KindInvalidArgument,
		kind == apperr.KindCapabilityDisabled,
		page.Attempts >= c.cfg.MaxAttempts:
		c.log.Warn("page processing failed permanently", "page_id", page.ID, "attempts", page.Attempts, "error", err)
		if ferr := c.pageRepo.Fail(dbc, page.ID, reason); ferr != nil {
			c.log.Error("fail transition failed", "page_id", page.ID, "error", ferr)
		}
	default:
		c.log.Warn("page processing failed, releasing for retry", "page_id", page.ID, "attempts", page.Attempts, "error", err)
		if rerr := c.pageRepo.Release(dbc, page.ID, reason); rerr != nil {
			c.log.Error("release failed", "page_id", page.ID, "error", rerr)
		}
	}
	return err
}

func (c *Coordinator) processOnce(ctx context.Context, page *types.ImagePage) error {
	imgBytes, err := c.readImage(ctx, page.ImagePath)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return apperr.Wrap(apperr.KindPermanentUpstream, "decode page image", err)
	}
	pageW := float64(src.Bounds().Dx())
	pageH := float64(src.Bounds().Dy())

	words, engineName, err := c.recognize(ctx, src, imgBytes, pageW, pageH)
	if err != nil {
		return err
	}

	result := &Result{Engine: engineName, Words: words}
	rawText := result.FullText()
	normalized := processing.Normalize(rawText)

	wordBoxes := make([]types.WordBox, 0, len(words))
	for _, w := range words {
		wordBoxes = append(wordBoxes, types.WordBox{
			Text:       w.Text,
			X:          w.X,
			Y:          w.Y,
			Width:      w.Width,
			Height:     w.Height,
			Confidence: w.Confidence,
		})
	}

	ocrRow, err := c.buildOCRRow(page, normalized, rawText, wordBoxes, result)
	if err != nil {
		return err
	}
	entities, err := c.buildEntities(page, ocrRow, normalized, wordBoxes)
	if err != nil {
		return err
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		saved, err := c.ocrRepo.ReplaceForPage(dbc, ocrRow)
		if err != nil {
			return err
		}
		for _, ent := range entities {
			ent.OCRTextID = saved.ID
		}
		if _, err := c.entRepo.ReplaceForOCRText(dbc, saved.ID, entities); err != nil {
			return err
		}
		idxRow, err := search.BuildIndexRow(saved)
		if err != nil {
			return err
		}
		if _, err := c.idxRepo.ReplaceForOCRText(dbc, idxRow); err != nil {
			return err
		}
		return c.pageRepo.MarkDone(dbc, page.ID)
	})
	if err != nil {
		if ctx.Err() != nil {
			return apperr.Wrap(apperr.KindCancelled, "persist page results", ctx.Err())
		}
		return err
	}

	c.upsertEmbedding(ctx, page.ID, normalized)

	c.log.Info("page processed",
		"page_id", page.ID,
		"engine", engineName,
		"words", len(words),
		"confidence", result.Confidence())
	return nil
}

func (c *Coordinator) readImage(ctx context.Context, key string) ([]byte, error) {
	rc, err := c.blobs.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperr.Wrap(apperr.KindCancelled, "read page image", ctx.Err())
		}
		return nil, apperr.Wrap(apperr.KindTransientUpstream, "read page image", err)
	}
	return b, nil
}

// recognize runs the engine over every preprocessed variant and folds
// the per-variant words back into original page coordinates.
func (c *Coordinator) recognize(ctx context.Context, src image.Image, imgBytes []byte, pageW, pageH float64) ([]Word, string, error) {
	octx, cancel := context.WithTimeout(ctx, c.cfg.OCRTimeout)
	defer cancel()

	if !c.cfg.Preprocess {
		res, err := c.engine.Extract(octx, imgBytes, c.cfg.Languages)
		if err != nil {
			return nil, "", err
		}
		words := clampWords(res.Words, pageW, pageH)
		return PruneLowConfidence(words, c.cfg.DropConfidence), res.Engine, nil
	}

	opts := preprocess.DefaultOptions()
	opts.Scales = c.cfg.Scales
	if !c.cfg.Deskew {
		opts.MaxSkew = 0
	}
	variants := preprocess.BuildVariants(preprocess.Grayscale(src), opts)

	var sets [][]Word
	engineName := c.engine.Name()
	for _, v := range variants {
		encoded, err := encodePNG(v.Image)
		if err != nil {
			return nil, "", err
		}
		res, err := c.engine.Extract(octx, encoded, c.cfg.Languages)
		if err != nil {
			return nil, "", err
		}
		engineName = res.Engine
		mapped := make([]Word, 0, len(res.Words))
		for _, w := range res.Words {
			x, y, bw, bh := preprocess.MapBoxToOriginal(w.X, w.Y, w.Width, w.Height, v.Scale, v.Rotation, int(pageW), int(pageH))
			mapped = append(mapped, Word{
				Text:       w.Text,
				X:          x,
				Y:          y,
				Width:      bw,
				Height:     bh,
				Confidence: w.Confidence,
			})
		}
		sets = append(sets, mapped)
	}

	merged := MergeWordSets(sets, multiScaleMergeIOU)
	return PruneLowConfidence(merged, c.cfg.DropConfidence), engineName, nil
}

func (c *Coordinator) buildOCRRow(page *types.ImagePage, normalized, rawText string, wordBoxes []types.WordBox, result *Result) (*types.OCRText, error) {
	rawBoxes, err := types.MarshalWordBoxes(wordBoxes)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "marshal word boxes", err)
	}
	var pageBBox *types.BBox
	if len(wordBoxes) > 0 {
		pageBBox = encloseAll(wordBoxes)
	}
	rawBBox, err := types.MarshalBBox(pageBBox)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "marshal page bbox", err)
	}
	return &types.OCRText{
		PageID:         page.ID,
		DocumentID:     page.DocumentID,
		RawText:        rawText,
		NormalizedText: normalized,
		WordBoxes:      rawBoxes,
		PageBBox:       rawBBox,
		PageConfidence: result.Confidence(),
		Engine:         result.Engine,
	}, nil
}

func (c *Coordinator) buildEntities(page *types.ImagePage, ocrRow *types.OCRText, normalized string, wordBoxes []types.WordBox) ([]*types.Entity, error) {
	mentions := processing.DedupMentions(processing.Extract(normalized))
	if len(mentions) == 0 {
		return nil, nil
	}
	boxer := processing.NewSpanBoxer(normalized, wordBoxes)

	out := make([]*types.Entity, 0, len(mentions))
	for _, m := range mentions {
		ent := &types.Entity{
			PageID:          page.ID,
			DocumentID:      page.DocumentID,
			EntityType:      m.Kind,
			EntityValue:     m.Value,
			NormalizedValue: m.Normalized,
			Confidence:      ocrRow.PageConfidence,
		}
		if bbox, conf, ok := boxer.Enclose(m.Start, m.End); ok {
			raw, err := types.MarshalBBox(&bbox)
			if err != nil {
				return nil, apperr.Wrap(apperr.KindInternal, "marshal entity bbox", err)
			}
			ent.BBox = raw
			ent.Confidence = conf
		}
		out = append(out, ent)
	}
	return out, nil
}

// upsertEmbedding mirrors the page text into the vector index when one
// is configured. Failures degrade semantic search only, so they are
// logged and swallowed.
func (c *Coordinator) upsertEmbedding(ctx context.Context, pageID, normalized string) {
	if c.vectors == nil || c.embedder == nil || normalized == "" {
		return
	}
	vecs, err := c.embedder.Embed(ctx, []string{normalized})
	if err != nil || len(vecs) == 0 {
		c.log.Warn("page embedding failed", "page_id", pageID, "error", err)
		return
	}
	err = c.vectors.Upsert(ctx, []qdrant.Vector{{ID: pageID, Values: vecs[0]}})
	if err != nil {
		c.log.Warn("vector upsert failed", "page_id", pageID, "error", err)
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "encode variant image", err)
	}
	return buf.Bytes(), nil
}

func clampWords(words []Word, pageW, pageH float64) []Word {
	out := make([]Word, 0, len(words))
	for _, w := range words {
		x, y, bw, bh := preprocess.MapBoxToOriginal(w.X, w.Y, w.Width, w.Height, 1.0, 0, int(pageW), int(pageH))
		w.X, w.Y, w.Width, w.Height = x, y, bw, bh
		out = append(out, w)
	}
	return out
}

func encloseAll(boxes []types.WordBox) *types.BBox {
	minX, minY := boxes[0].X, boxes[0].Y
	maxX, maxY := boxes[0].X+boxes[0].Width, boxes[0].Y+boxes[0].Height
	for _, b := range boxes[1:] {
		if b.X < minX {
			minX = b.X
		}
		if b.Y < minY {
			minY = b.Y
		}
		if b.X+b.Width > maxX {
			maxX = b.X + b.Width
		}
		if b.Y+b.Height > maxY {
			maxY = b.Y + b.Height
		}
	}
	return &types.BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
