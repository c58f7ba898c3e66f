package docs

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/docindex-backend/internal/data/repos/testutil"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
)

// Replacing a page's OCR text rebuilds its entities and search index row
// without leaving stale children behind.
func TestOCRTextReplaceRebuildsDownstream(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)

	ocrRepo := NewOCRTextRepo(db, log)
	entRepo := NewEntityRepo(db, log)
	idxRepo := NewSearchIndexRepo(db, log)

	doc := testutil.SeedDocument(t, tx, testutil.RandomDocID(t))
	page := testutil.SeedPage(t, tx, doc, 1)

	first := testutil.SeedOCRText(t, tx, page, "Contact john.doe@example.com today")

	ents := []*types.Entity{{
		OCRTextID:       first.ID,
		PageID:          page.ID,
		DocumentID:      doc.ID,
		EntityType:      types.EntityEmail,
		EntityValue:     "john.doe@example.com",
		NormalizedValue: "john.doe@example.com",
		Confidence:      0.95,
	}}
	if _, err := entRepo.ReplaceForOCRText(dbc, first.ID, ents); err != nil {
		t.Fatalf("ReplaceForOCRText entities: %v", err)
	}

	tokens, err := types.MarshalTokens([]string{"contact", "john", "doe", "example", "com", "today"})
	if err != nil {
		t.Fatalf("marshal tokens: %v", err)
	}
	if _, err := idxRepo.ReplaceForOCRText(dbc, &types.SearchIndex{
		OCRTextID:      first.ID,
		PageID:         page.ID,
		DocumentID:     doc.ID,
		SearchableText: "contact john doe example com today",
		Tokens:         tokens,
	}); err != nil {
		t.Fatalf("ReplaceForOCRText index: %v", err)
	}

	// Second OCR pass replaces the row; deleting the old OCRText must not
	// leave orphaned entities or index rows.
	boxes, _ := types.MarshalWordBoxes(nil)
	second := &types.OCRText{
		PageID:         page.ID,
		DocumentID:     doc.ID,
		RawText:        "Revised text",
		NormalizedText: "Revised text",
		WordBoxes:      boxes,
		PageConfidence: 0.8,
		Engine:         "vision",
	}
	if _, err := ocrRepo.ReplaceForPage(dbc, second); err != nil {
		t.Fatalf("ReplaceForPage: %v", err)
	}

	got, err := ocrRepo.GetByPageID(dbc, page.ID)
	if err != nil {
		t.Fatalf("GetByPageID: %v", err)
	}
	if got == nil || got.RawText != "Revised text" || got.Engine != "vision" {
		t.Fatalf("GetByPageID after replace: %+v", got)
	}

	orphans, err := entRepo.ListByPageIDs(dbc, []string{page.ID})
	if err != nil {
		t.Fatalf("ListByPageIDs: %v", err)
	}
	for _, e := range orphans {
		if e.OCRTextID == first.ID {
			t.Fatalf("stale entity survived replace: %+v", e)
		}
	}

	if rows, err := idxRepo.GetByOCRTextIDs(dbc, []uuid.UUID{first.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("stale index rows: err=%v len=%d", err, len(rows))
	}
}
