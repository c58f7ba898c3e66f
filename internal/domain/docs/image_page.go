package docs

import (
	"fmt"
	"time"
)

// ImagePage is one rendered page of a Document. The ID is
// "{document_id}_page_%04d" so page identity survives re-splitting.
type ImagePage struct {
	ID         string    `gorm:"primaryKey;size:80" json:"id"`
	DocumentID string    `gorm:"column:document_id;not null;index" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE;foreignKey:DocumentID;references:ID" json:"-"`

	PageNumber int    `gorm:"column:page_number;not null" json:"page_number"`
	ImagePath  string `gorm:"column:image_path;not null" json:"image_path"`
	Width      int    `gorm:"column:width" json:"width"`
	Height     int    `gorm:"column:height" json:"height"`

	OCRState  string     `gorm:"column:ocr_state;not null;default:'pending'" json:"ocr_state"`
	OCRError  string     `gorm:"column:ocr_error" json:"ocr_error,omitempty"`
	Attempts  int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	ClaimedAt *time.Time `gorm:"column:claimed_at" json:"claimed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (ImagePage) TableName() string { return "image_page" }

// PageID builds the canonical page identifier for a document page
// (1-based page numbers).
func PageID(documentID string, pageNumber int) string {
	return fmt.Sprintf("%s_page_%04d", documentID, pageNumber)
}
