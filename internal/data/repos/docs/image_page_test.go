package docs

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/docindex-backend/internal/data/repos/testutil"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
)

func TestImagePageRepoClaimAndStates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewImagePageRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, tx, testutil.RandomDocID(t))
	p1 := testutil.SeedPage(t, tx, doc, 1)
	p2 := testutil.SeedPage(t, tx, doc, 2)

	claimed, err := repo.ClaimPending(dbc, 1, 5)
	if err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("ClaimPending: want 1 page, got %d", len(claimed))
	}
	if claimed[0].OCRState != types.OCRStateInProgress || claimed[0].Attempts != 1 {
		t.Fatalf("claimed page state: %+v", claimed[0])
	}

	// Claim the rest; a third claim finds nothing.
	if more, err := repo.ClaimPending(dbc, 5, 5); err != nil || len(more) != 1 {
		t.Fatalf("second ClaimPending: err=%v len=%d", err, len(more))
	}
	if none, err := repo.ClaimPending(dbc, 5, 5); err != nil || len(none) != 0 {
		t.Fatalf("third ClaimPending: err=%v len=%d", err, len(none))
	}

	if err := repo.MarkDone(dbc, p1.ID); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := repo.Release(dbc, p2.ID, "ocr timeout"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	got, err := repo.GetByID(dbc, p2.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.OCRState != types.OCRStatePending || got.OCRError != "ocr timeout" || got.ClaimedAt != nil {
		t.Fatalf("released page state: %+v", got)
	}
	// Attempts survive the release so retries count against the budget.
	if got.Attempts != 1 {
		t.Fatalf("released page attempts: %d", got.Attempts)
	}

	if err := repo.Fail(dbc, p2.ID, "ocr failed permanently"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	counts, err := repo.CountByState(dbc)
	if err != nil {
		t.Fatalf("CountByState: %v", err)
	}
	if counts[types.OCRStateDone] != 1 || counts[types.OCRStateFailed] != 1 {
		t.Fatalf("CountByState: %+v", counts)
	}

	pages, err := repo.ListByDocumentID(dbc, doc.ID)
	if err != nil || len(pages) != 2 {
		t.Fatalf("ListByDocumentID: err=%v len=%d", err, len(pages))
	}
	if pages[0].PageNumber != 1 || pages[1].PageNumber != 2 {
		t.Fatalf("ListByDocumentID order: %d, %d", pages[0].PageNumber, pages[1].PageNumber)
	}
}

func TestImagePageRepoMaxAttempts(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewImagePageRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, tx, testutil.RandomDocID(t))
	page := testutil.SeedPage(t, tx, doc, 1)

	for i := 0; i < 2; i++ {
		claimed, err := repo.ClaimPending(dbc, 1, 2)
		if err != nil || len(claimed) != 1 {
			t.Fatalf("claim %d: err=%v len=%d", i, err, len(claimed))
		}
		if err := repo.Release(dbc, page.ID, "transient"); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}

	// Budget exhausted: the page stays pending but is never claimable.
	if claimed, err := repo.ClaimPending(dbc, 1, 2); err != nil || len(claimed) != 0 {
		t.Fatalf("claim past budget: err=%v len=%d", err, len(claimed))
	}
}

func TestImagePageRepoReapStale(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewImagePageRepo(db, testutil.Logger(t))

	doc := testutil.SeedDocument(t, tx, testutil.RandomDocID(t))
	page := testutil.SeedPage(t, tx, doc, 1)

	if _, err := repo.ClaimPending(dbc, 1, 5); err != nil {
		t.Fatalf("ClaimPending: %v", err)
	}

	// Backdate the claim past the cutoff.
	old := time.Now().Add(-30 * time.Minute)
	if err := tx.Model(&types.ImagePage{}).
		Where("id = ?", page.ID).
		Update("claimed_at", old).Error; err != nil {
		t.Fatalf("backdate claim: %v", err)
	}

	n, err := repo.ReapStale(dbc, 15*time.Minute)
	if err != nil {
		t.Fatalf("ReapStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("ReapStale: want 1, got %d", n)
	}

	got, err := repo.GetByID(dbc, page.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.OCRState != types.OCRStatePending || got.ClaimedAt != nil || got.Attempts != 1 {
		t.Fatalf("reaped page state: %+v", got)
	}
}
