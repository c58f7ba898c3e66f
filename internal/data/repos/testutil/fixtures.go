package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/docindex-backend/internal/domain/docs"
)

// RandomDocID returns a fresh 32-char hex id shaped like a real
// content-hash document id.
func RandomDocID(tb testing.TB) string {
	tb.Helper()
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		tb.Fatalf("rand: %v", err)
	}
	return hex.EncodeToString(b)
}

func SeedDocument(tb testing.TB, tx *gorm.DB, id string) *docs.Document {
	tb.Helper()
	doc := &docs.Document{
		ID:        id,
		SourceURL: "https://example.org/files/" + id + ".pdf",
		FileName:  id + ".pdf",
		FileType:  "pdf",
		FileSize:  1024,
		BlobKey:   "files/" + id + ".pdf",
	}
	if err := tx.Create(doc).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return doc
}

func SeedPage(tb testing.TB, tx *gorm.DB, doc *docs.Document, pageNumber int) *docs.ImagePage {
	tb.Helper()
	page := &docs.ImagePage{
		ID:         docs.PageID(doc.ID, pageNumber),
		DocumentID: doc.ID,
		PageNumber: pageNumber,
		ImagePath:  "images/" + docs.PageID(doc.ID, pageNumber) + ".png",
		Width:      1700,
		Height:     2200,
		OCRState:   docs.OCRStatePending,
	}
	if err := tx.Create(page).Error; err != nil {
		tb.Fatalf("seed page: %v", err)
	}
	return page
}

func SeedOCRText(tb testing.TB, tx *gorm.DB, page *docs.ImagePage, text string) *docs.OCRText {
	tb.Helper()
	boxes, err := docs.MarshalWordBoxes(nil)
	if err != nil {
		tb.Fatalf("marshal boxes: %v", err)
	}
	ocr := &docs.OCRText{
		PageID:         page.ID,
		DocumentID:     page.DocumentID,
		RawText:        text,
		NormalizedText: text,
		WordBoxes:      boxes,
		PageConfidence: 0.9,
		Engine:         "tesseract",
	}
	if err := tx.Create(ocr).Error; err != nil {
		tb.Fatalf("seed ocr text: %v", err)
	}
	return ocr
}
