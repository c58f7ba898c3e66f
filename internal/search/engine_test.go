package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

// In-memory repo stubs. Only the methods the engine touches are real;
// the rest are inert.

type stubIndexRepo struct {
	rows []*types.SearchIndex
}

func (s *stubIndexRepo) ReplaceForOCRText(dbc dbctx.Context, row *types.SearchIndex) (*types.SearchIndex, error) {
	return row, nil
}

func (s *stubIndexRepo) CandidatesByAllSubstrings(dbc dbctx.Context, substrings []string, limit int) ([]*types.SearchIndex, error) {
	var out []*types.SearchIndex
	for _, r := range s.rows {
		all := true
		for _, sub := range substrings {
			if !strings.Contains(r.SearchableText, sub) {
				all = false
				break
			}
		}
		if all {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubIndexRepo) ListPage(dbc dbctx.Context, limit, offset int) ([]*types.SearchIndex, error) {
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *stubIndexRepo) GetByOCRTextIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SearchIndex, error) {
	var out []*types.SearchIndex
	for _, r := range s.rows {
		for _, id := range ids {
			if r.OCRTextID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *stubIndexRepo) SuggestTokens(dbc dbctx.Context, prefix string, limit int) ([]string, error) {
	return nil, nil
}

func (s *stubIndexRepo) Count(dbc dbctx.Context) (int64, error) { return int64(len(s.rows)), nil }

type stubEntityRepo struct {
	ents []*types.Entity
}

func (s *stubEntityRepo) ReplaceForOCRText(dbc dbctx.Context, ocrTextID uuid.UUID, entities []*types.Entity) ([]*types.Entity, error) {
	return entities, nil
}

func (s *stubEntityRepo) ListByValue(dbc dbctx.Context, entityType, value string, caseInsensitive bool, limit int) ([]*types.Entity, error) {
	var out []*types.Entity
	for _, e := range s.ents {
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		if caseInsensitive {
			if strings.EqualFold(e.EntityValue, value) || strings.EqualFold(e.NormalizedValue, value) {
				out = append(out, e)
			}
			continue
		}
		if e.NormalizedValue == value {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubEntityRepo) ListByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.Entity, error) {
	return nil, nil
}

func (s *stubEntityRepo) ListByType(dbc dbctx.Context, entityType string, limit, offset int) ([]*types.Entity, error) {
	return nil, nil
}

func (s *stubEntityRepo) SuggestValues(dbc dbctx.Context, prefix, entityType string, limit int) ([]string, error) {
	return nil, nil
}

func (s *stubEntityRepo) Count(dbc dbctx.Context) (int64, error) { return 0, nil }

func (s *stubEntityRepo) CountByType(dbc dbctx.Context) (map[string]int64, error) { return nil, nil }

type stubOCRRepo struct {
	rows []*types.OCRText
}

func (s *stubOCRRepo) ReplaceForPage(dbc dbctx.Context, ocr *types.OCRText) (*types.OCRText, error) {
	return ocr, nil
}

func (s *stubOCRRepo) GetByPageID(dbc dbctx.Context, pageID string) (*types.OCRText, error) {
	for _, r := range s.rows {
		if r.PageID == pageID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubOCRRepo) GetByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.OCRText, error) {
	var out []*types.OCRText
	for _, r := range s.rows {
		for _, id := range pageIDs {
			if r.PageID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *stubOCRRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.OCRText, error) {
	var out []*types.OCRText
	for _, r := range s.rows {
		for _, id := range ids {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *stubOCRRepo) Count(dbc dbctx.Context) (int64, error) { return int64(len(s.rows)), nil }

type stubPageRepo struct {
	rows []*types.ImagePage
}

func (s *stubPageRepo) CreateBatch(dbc dbctx.Context, pages []*types.ImagePage) ([]*types.ImagePage, error) {
	return pages, nil
}

func (s *stubPageRepo) GetByID(dbc dbctx.Context, id string) (*types.ImagePage, error) {
	for _, r := range s.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *stubPageRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.ImagePage, error) {
	var out []*types.ImagePage
	for _, r := range s.rows {
		for _, id := range ids {
			if r.ID == id {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *stubPageRepo) ListByDocumentID(dbc dbctx.Context, documentID string) ([]*types.ImagePage, error) {
	return nil, nil
}

func (s *stubPageRepo) ClaimPending(dbc dbctx.Context, batch, maxAttempts int) ([]*types.ImagePage, error) {
	return nil, nil
}

func (s *stubPageRepo) MarkDone(dbc dbctx.Context, id string) error { return nil }

func (s *stubPageRepo) Release(dbc dbctx.Context, id, reason string) error { return nil }

func (s *stubPageRepo) Fail(dbc dbctx.Context, id, reason string) error { return nil }

func (s *stubPageRepo) ReapStale(dbc dbctx.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubPageRepo) CountByState(dbc dbctx.Context) (map[string]int64, error) { return nil, nil }

func (s *stubPageRepo) Count(dbc dbctx.Context) (int64, error) { return int64(len(s.rows)), nil }

// buildFixture sets up a two-page corpus: one page about a grand jury,
// one about tax filings.
func buildFixture(t *testing.T) (*Engine, *stubEntityRepo, []uuid.UUID) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	docID := strings.Repeat("ab", 16)
	page1 := types.PageID(docID, 1)
	page2 := types.PageID(docID, 2)
	ocr1 := uuid.New()
	ocr2 := uuid.New()

	text1 := "The grand jury convened to review the warrant application."
	text2 := "Tax filings for the fiscal year were submitted by John Smith."

	mkIndex := func(id uuid.UUID, pageID, text string, created time.Time) *types.SearchIndex {
		searchable := SearchableText(text)
		raw, err := types.MarshalTokens(Tokenize(searchable))
		if err != nil {
			t.Fatalf("tokens: %v", err)
		}
		return &types.SearchIndex{
			OCRTextID:      id,
			PageID:         pageID,
			DocumentID:     docID,
			SearchableText: searchable,
			Tokens:         raw,
			CreatedAt:      created,
		}
	}

	boxes, _ := types.MarshalWordBoxes([]types.WordBox{
		{Text: "grand", X: 10, Y: 10, Width: 50, Height: 20, Confidence: 0.9},
	})

	now := time.Now()
	idxRepo := &stubIndexRepo{rows: []*types.SearchIndex{
		mkIndex(ocr1, page1, text1, now),
		mkIndex(ocr2, page2, text2, now.Add(time.Second)),
	}}
	ocrRepo := &stubOCRRepo{rows: []*types.OCRText{
		{ID: ocr1, PageID: page1, DocumentID: docID, NormalizedText: text1, WordBoxes: boxes, PageConfidence: 0.92},
		{ID: ocr2, PageID: page2, DocumentID: docID, NormalizedText: text2, WordBoxes: boxes, PageConfidence: 0.85},
	}}
	pageRepo := &stubPageRepo{rows: []*types.ImagePage{
		{ID: page1, DocumentID: docID, PageNumber: 1, ImagePath: "images/" + page1 + ".png"},
		{ID: page2, DocumentID: docID, PageNumber: 2, ImagePath: "images/" + page2 + ".png"},
	}}

	bbox, _ := types.MarshalBBox(&types.BBox{X: 40, Y: 80, Width: 120, Height: 22})
	entRepo := &stubEntityRepo{ents: []*types.Entity{{
		ID:              uuid.New(),
		OCRTextID:       ocr2,
		PageID:          page2,
		DocumentID:      docID,
		EntityType:      types.EntityName,
		EntityValue:     "John Smith",
		NormalizedValue: "John Smith",
		BBox:            bbox,
		Confidence:      0.9,
	}}}

	eng := NewEngine(log, idxRepo, entRepo, ocrRepo, pageRepo, nil, nil)
	return eng, entRepo, []uuid.UUID{ocr1, ocr2}
}

func TestSearchEmptyQuery(t *testing.T) {
	eng, _, _ := buildFixture(t)
	_, err := eng.Search(context.Background(), Request{Mode: ModeKeyword, Query: "   ", Limit: DefaultLimit})
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("want invalid_argument, got %v", err)
	}
}

func TestSearchZeroLimit(t *testing.T) {
	eng, _, _ := buildFixture(t)
	hits, err := eng.Search(context.Background(), Request{Mode: ModeKeyword, Query: "jury", Limit: 0})
	if err != nil || len(hits) != 0 {
		t.Fatalf("zero limit must return empty: %v %v", hits, err)
	}
}

func TestKeywordSearchHydratesHit(t *testing.T) {
	eng, _, ids := buildFixture(t)
	hits, err := eng.Search(context.Background(), Request{Mode: ModeKeyword, Query: "grand jury", Limit: DefaultLimit})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("want 1 hit, got %+v", hits)
	}
	h := hits[0]
	if h.OCRTextID != ids[0] || h.PageNumber != 1 {
		t.Fatalf("hit identity: %+v", h)
	}
	if h.ImagePath == "" || len(h.WordBoxes) != 1 {
		t.Fatalf("hydration incomplete: %+v", h)
	}
	if !strings.Contains(h.Snippet, "grand jury") {
		t.Fatalf("snippet: %q", h.Snippet)
	}
}

func TestPhraseSearchOrderMatters(t *testing.T) {
	eng, _, _ := buildFixture(t)
	hits, err := eng.Search(context.Background(), Request{Mode: ModePhrase, Query: "jury grand", Limit: DefaultLimit})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("reversed phrase must not match: %+v", hits)
	}
}

func TestFuzzySearchMatchesNearMiss(t *testing.T) {
	eng, _, ids := buildFixture(t)
	hits, err := eng.Search(context.Background(), Request{
		Mode:           ModeFuzzy,
		Query:          "warrants",
		Limit:          DefaultLimit,
		FuzzyThreshold: 0.5,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].OCRTextID != ids[0] {
		t.Fatalf("want the warrant page, got %+v", hits)
	}
	if hits[0].Score <= 0 || hits[0].Score > 1 {
		t.Fatalf("score out of range: %v", hits[0].Score)
	}
}

func TestEntitySearchExactAndFallback(t *testing.T) {
	eng, _, ids := buildFixture(t)

	hits, err := eng.Search(context.Background(), Request{
		Mode:       ModeEntity,
		Query:      "John Smith",
		EntityType: types.EntityName,
		Limit:      DefaultLimit,
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 1 || hits[0].OCRTextID != ids[1] {
		t.Fatalf("exact entity lookup: %+v", hits)
	}
	if hits[0].EntityBBox == nil || hits[0].EntityBBox.X != 40 {
		t.Fatalf("entity bbox missing: %+v", hits[0])
	}

	// Case-insensitive fallback on the as-found value.
	hits, err = eng.Search(context.Background(), Request{
		Mode:       ModeEntity,
		Query:      "JOHN SMITH",
		EntityType: types.EntityName,
		Limit:      DefaultLimit,
	})
	if err != nil {
		t.Fatalf("fallback search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("fallback should match: %+v", hits)
	}
}

func TestSemanticSearchDisabled(t *testing.T) {
	eng, _, _ := buildFixture(t)
	_, err := eng.Search(context.Background(), Request{Mode: ModeSemantic, Query: "fiscal filings", Limit: DefaultLimit})
	if !apperr.IsKind(err, apperr.KindCapabilityDisabled) {
		t.Fatalf("want capability_disabled, got %v", err)
	}
}

func TestSearchUnknownMode(t *testing.T) {
	eng, _, _ := buildFixture(t)
	_, err := eng.Search(context.Background(), Request{Mode: "regex", Query: "x", Limit: DefaultLimit})
	if !apperr.IsKind(err, apperr.KindInvalidArgument) {
		t.Fatalf("want invalid_argument, got %v", err)
	}
}
