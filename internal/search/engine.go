package search

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	repos "github.com/yungbote/docindex-backend/internal/data/repos/docs"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
	"github.com/yungbote/docindex-backend/internal/platform/qdrant"
)

type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModePhrase   Mode = "phrase"
	ModeFuzzy    Mode = "fuzzy"
	ModeEntity   Mode = "entity"
	ModeSemantic Mode = "semantic"
)

const (
	DefaultLimit          = 50
	MaxLimit              = 1000
	DefaultFuzzyThreshold = 0.6

	// Prefilter and scan chunk bounds; scoring happens in memory.
	candidateCap  = 5000
	fuzzyScanPage = 500
)

// Request is one search call. Limit 0 yields an empty result set;
// callers pass DefaultLimit when the client did not specify one.
type Request struct {
	Mode           Mode
	Query          string
	EntityType     string
	Limit          int
	FuzzyThreshold float64
}

// Hit is one scored page.
type Hit struct {
	OCRTextID      uuid.UUID        `json:"ocr_id"`
	DocumentID     string           `json:"document_id"`
	PageID         string           `json:"page_id"`
	PageNumber     int              `json:"page_number"`
	Snippet        string           `json:"snippet"`
	FullText       string           `json:"full_text"`
	PageConfidence float64          `json:"page_confidence"`
	ImagePath      string           `json:"image_path"`
	PageBBox       *types.BBox      `json:"page_bbox,omitempty"`
	EntityBBox     *types.BBox      `json:"entity_bbox,omitempty"`
	WordBoxes      []types.WordBox  `json:"word_boxes"`
	Score          float64          `json:"score"`
}

// Embedder turns query text into vectors for semantic search.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Engine struct {
	log      *logger.Logger
	idxRepo  repos.SearchIndexRepo
	entRepo  repos.EntityRepo
	ocrRepo  repos.OCRTextRepo
	pageRepo repos.ImagePageRepo
	vectors  qdrant.VectorStore
	embedder Embedder
}

// NewEngine wires the search modes. vectors and embedder may be nil;
// semantic search then reports capability_disabled.
func NewEngine(
	log *logger.Logger,
	idxRepo repos.SearchIndexRepo,
	entRepo repos.EntityRepo,
	ocrRepo repos.OCRTextRepo,
	pageRepo repos.ImagePageRepo,
	vectors qdrant.VectorStore,
	embedder Embedder,
) *Engine {
	return &Engine{
		log:      log.With("component", "search_engine"),
		idxRepo:  idxRepo,
		entRepo:  entRepo,
		ocrRepo:  ocrRepo,
		pageRepo: pageRepo,
		vectors:  vectors,
		embedder: embedder,
	}
}

func (e *Engine) Search(ctx context.Context, req Request) ([]Hit, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "query must not be empty")
	}
	if req.Limit == 0 {
		return []Hit{}, nil
	}
	if req.Limit < 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	switch req.Mode {
	case ModeKeyword, "":
		return e.keywordSearch(ctx, req)
	case ModePhrase:
		return e.phraseSearch(ctx, req)
	case ModeFuzzy:
		return e.fuzzySearch(ctx, req)
	case ModeEntity:
		return e.entitySearch(ctx, req)
	case ModeSemantic:
		return e.semanticSearch(ctx, req)
	default:
		return nil, apperr.Newf(apperr.KindInvalidArgument, "unknown search mode %q", req.Mode)
	}
}

type scoredRow struct {
	row   *types.SearchIndex
	score float64
}

func (e *Engine) keywordSearch(ctx context.Context, req Request) ([]Hit, error) {
	tokens := QueryTokens(req.Query)
	if len(tokens) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "query has no searchable tokens")
	}
	dbc := dbctx.Context{Ctx: ctx}

	cands, err := e.idxRepo.CandidatesByAllSubstrings(dbc, uniqueStrings(tokens), candidateCap)
	if err != nil {
		return nil, err
	}
	var scored []scoredRow
	for _, c := range cands {
		pageTokens, err := types.UnmarshalTokens(c.Tokens)
		if err != nil {
			continue
		}
		if s, ok := keywordScore(pageTokens, tokens); ok {
			scored = append(scored, scoredRow{row: c, score: s})
		}
	}
	return e.finish(ctx, req, scored, tokens)
}

func (e *Engine) phraseSearch(ctx context.Context, req Request) ([]Hit, error) {
	tokens := QueryTokens(req.Query)
	if len(tokens) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "query has no searchable tokens")
	}
	dbc := dbctx.Context{Ctx: ctx}

	// Searchable text is single-spaced, so the phrase appears verbatim.
	cands, err := e.idxRepo.CandidatesByAllSubstrings(dbc, []string{strings.Join(tokens, " ")}, candidateCap)
	if err != nil {
		return nil, err
	}
	var scored []scoredRow
	for _, c := range cands {
		pageTokens, err := types.UnmarshalTokens(c.Tokens)
		if err != nil {
			continue
		}
		if n := phraseCount(pageTokens, tokens); n > 0 {
			scored = append(scored, scoredRow{row: c, score: float64(n)})
		}
	}
	return e.finish(ctx, req, scored, tokens)
}

func (e *Engine) fuzzySearch(ctx context.Context, req Request) ([]Hit, error) {
	tokens := QueryTokens(req.Query)
	if len(tokens) == 0 {
		return nil, apperr.New(apperr.KindInvalidArgument, "query has no searchable tokens")
	}
	threshold := req.FuzzyThreshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	dbc := dbctx.Context{Ctx: ctx}

	var scored []scoredRow
	for offset := 0; ; offset += fuzzyScanPage {
		rows, err := e.idxRepo.ListPage(dbc, fuzzyScanPage, offset)
		if err != nil {
			return nil, err
		}
		for _, c := range rows {
			pageTokens, err := types.UnmarshalTokens(c.Tokens)
			if err != nil {
				continue
			}
			if s, ok := fuzzyScore(pageTokens, tokens, threshold); ok {
				scored = append(scored, scoredRow{row: c, score: s})
			}
		}
		if len(rows) < fuzzyScanPage {
			break
		}
	}
	return e.finish(ctx, req, scored, tokens)
}

func (e *Engine) entitySearch(ctx context.Context, req Request) ([]Hit, error) {
	dbc := dbctx.Context{Ctx: ctx}

	ents, err := e.entRepo.ListByValue(dbc, req.EntityType, req.Query, false, 0)
	if err != nil {
		return nil, err
	}
	if len(ents) == 0 {
		ents, err = e.entRepo.ListByValue(dbc, req.EntityType, req.Query, true, 0)
		if err != nil {
			return nil, err
		}
	}

	// One hit per OCRText; the first entity row carries the bbox.
	firstByOCR := make(map[uuid.UUID]*types.Entity, len(ents))
	var order []uuid.UUID
	for _, ent := range ents {
		if _, ok := firstByOCR[ent.OCRTextID]; !ok {
			firstByOCR[ent.OCRTextID] = ent
			order = append(order, ent.OCRTextID)
		}
	}
	if len(order) > req.Limit {
		order = order[:req.Limit]
	}

	rows, err := e.idxRepo.GetByOCRTextIDs(dbc, order)
	if err != nil {
		return nil, err
	}
	rowByOCR := make(map[uuid.UUID]*types.SearchIndex, len(rows))
	for _, r := range rows {
		rowByOCR[r.OCRTextID] = r
	}

	var scored []scoredRow
	for _, id := range order {
		row, ok := rowByOCR[id]
		if !ok {
			continue
		}
		scored = append(scored, scoredRow{row: row, score: firstByOCR[id].Confidence})
	}

	hits, err := e.finish(ctx, req, scored, nil)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		ent := firstByOCR[hits[i].OCRTextID]
		if ent == nil || len(ent.BBox) == 0 {
			continue
		}
		if bbox, err := types.UnmarshalBBox(ent.BBox); err == nil {
			hits[i].EntityBBox = bbox
		}
	}
	return hits, nil
}

func (e *Engine) semanticSearch(ctx context.Context, req Request) ([]Hit, error) {
	if e.vectors == nil || e.embedder == nil {
		return nil, apperr.New(apperr.KindCapabilityDisabled, "semantic search is not configured")
	}
	vecs, err := e.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, apperr.New(apperr.KindTransientUpstream, "embedder returned no vector")
	}

	matches, err := e.vectors.Query(ctx, vecs[0], req.Limit)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []Hit{}, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	pageIDs := make([]string, 0, len(matches))
	scoreByPage := make(map[string]float64, len(matches))
	for _, m := range matches {
		pageIDs = append(pageIDs, m.ID)
		scoreByPage[m.ID] = m.Score
	}
	ocrs, err := e.ocrRepo.GetByPageIDs(dbc, pageIDs)
	if err != nil {
		return nil, err
	}
	ocrIDs := make([]uuid.UUID, 0, len(ocrs))
	for _, o := range ocrs {
		ocrIDs = append(ocrIDs, o.ID)
	}
	rows, err := e.idxRepo.GetByOCRTextIDs(dbc, ocrIDs)
	if err != nil {
		return nil, err
	}
	var scored []scoredRow
	for _, r := range rows {
		scored = append(scored, scoredRow{row: r, score: scoreByPage[r.PageID]})
	}
	return e.finish(ctx, req, scored, nil)
}

// finish orders scored rows, truncates to the limit and hydrates hits.
// queryTokens steer snippet positioning and may be nil.
func (e *Engine) finish(ctx context.Context, req Request, scored []scoredRow, queryTokens []string) ([]Hit, error) {
	if len(scored) == 0 {
		return []Hit{}, nil
	}
	dbc := dbctx.Context{Ctx: ctx}

	ocrIDs := make([]uuid.UUID, 0, len(scored))
	pageIDs := make([]string, 0, len(scored))
	for _, s := range scored {
		ocrIDs = append(ocrIDs, s.row.OCRTextID)
		pageIDs = append(pageIDs, s.row.PageID)
	}
	ocrs, err := e.ocrRepo.GetByIDs(dbc, ocrIDs)
	if err != nil {
		return nil, err
	}
	ocrByID := make(map[uuid.UUID]*types.OCRText, len(ocrs))
	for _, o := range ocrs {
		ocrByID[o.ID] = o
	}
	pages, err := e.pageRepo.GetByIDs(dbc, pageIDs)
	if err != nil {
		return nil, err
	}
	pageByID := make(map[string]*types.ImagePage, len(pages))
	for _, p := range pages {
		pageByID[p.ID] = p
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		oa, ob := ocrByID[a.row.OCRTextID], ocrByID[b.row.OCRTextID]
		if oa != nil && ob != nil && oa.PageConfidence != ob.PageConfidence {
			return oa.PageConfidence > ob.PageConfidence
		}
		return a.row.CreatedAt.Before(b.row.CreatedAt)
	})
	if len(scored) > req.Limit {
		scored = scored[:req.Limit]
	}

	hits := make([]Hit, 0, len(scored))
	for _, s := range scored {
		ocr := ocrByID[s.row.OCRTextID]
		if ocr == nil {
			continue
		}
		page := pageByID[s.row.PageID]

		hit := Hit{
			OCRTextID:      ocr.ID,
			DocumentID:     s.row.DocumentID,
			PageID:         s.row.PageID,
			FullText:       ocr.NormalizedText,
			PageConfidence: ocr.PageConfidence,
			Score:          s.score,
			Snippet:        snippetFor(ocr.NormalizedText, queryTokens),
		}
		if page != nil {
			hit.PageNumber = page.PageNumber
			hit.ImagePath = page.ImagePath
		}
		if boxes, err := types.UnmarshalWordBoxes(ocr.WordBoxes); err == nil {
			hit.WordBoxes = boxes
		}
		if len(ocr.PageBBox) > 0 {
			if bbox, err := types.UnmarshalBBox(ocr.PageBBox); err == nil {
				hit.PageBBox = bbox
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// snippetFor locates the first query token (or the full phrase) in the
// page text, case-insensitively, and builds a snippet around it.
func snippetFor(text string, queryTokens []string) string {
	if len(queryTokens) == 0 {
		return Snippet(text, -1, -1)
	}
	lower := strings.ToLower(text)
	phrase := strings.Join(queryTokens, " ")
	if idx := strings.Index(lower, phrase); idx >= 0 {
		return Snippet(text, idx, idx+len(phrase))
	}
	if idx := strings.Index(lower, queryTokens[0]); idx >= 0 {
		return Snippet(text, idx, idx+len(queryTokens[0]))
	}
	return Snippet(text, -1, -1)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
