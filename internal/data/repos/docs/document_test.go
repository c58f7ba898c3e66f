package docs

import (
	"context"
	"testing"

	"github.com/yungbote/docindex-backend/internal/data/repos/testutil"
	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
)

func TestDocumentSourceURLIndexed(t *testing.T) {
	db := testutil.DB(t)

	var n int64
	err := db.Raw(
		`SELECT COUNT(*) FROM pg_indexes WHERE tablename = 'document' AND indexdef LIKE '%(source_url)%'`,
	).Scan(&n).Error
	if err != nil {
		t.Fatalf("pg_indexes: %v", err)
	}
	if n == 0 {
		t.Fatal("document.source_url has no index")
	}
}

func TestDocumentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewDocumentRepo(db, testutil.Logger(t))

	id := testutil.RandomDocID(t)
	doc := &types.Document{
		ID:        id,
		SourceURL: "https://example.org/a.pdf",
		FileName:  "a.pdf",
		FileType:  "pdf",
		FileSize:  2048,
		BlobKey:   "files/" + id + ".pdf",
	}
	if err := repo.Upsert(dbc, doc); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.FileName != "a.pdf" {
		t.Fatalf("GetByID: got %+v", got)
	}

	// Re-ingesting identical content updates in place instead of erroring.
	doc.SourceURL = "https://mirror.example.org/a.pdf"
	doc.PageCount = 3
	if err := repo.Upsert(dbc, doc); err != nil {
		t.Fatalf("Upsert (again): %v", err)
	}
	got, err = repo.GetByID(dbc, id)
	if err != nil {
		t.Fatalf("GetByID after upsert: %v", err)
	}
	if got.SourceURL != "https://mirror.example.org/a.pdf" || got.PageCount != 3 {
		t.Fatalf("upsert did not update: %+v", got)
	}

	if ok, err := repo.ExistsByID(dbc, id); err != nil || !ok {
		t.Fatalf("ExistsByID: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.ExistsByID(dbc, testutil.RandomDocID(t)); err != nil || ok {
		t.Fatalf("ExistsByID (absent): ok=%v err=%v", ok, err)
	}

	if missing, err := repo.GetByID(dbc, testutil.RandomDocID(t)); err != nil || missing != nil {
		t.Fatalf("GetByID (absent): got=%v err=%v", missing, err)
	}

	if err := repo.DeleteByID(dbc, id); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if got, err := repo.GetByID(dbc, id); err != nil || got != nil {
		t.Fatalf("after delete GetByID: got=%v err=%v", got, err)
	}
}
