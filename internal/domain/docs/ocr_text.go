package docs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OCRText holds the recognized text for one page. One row per page;
// re-running OCR replaces the row and its downstream entities and index.
type OCRText struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PageID     string     `gorm:"column:page_id;not null;uniqueIndex" json:"page_id"`
	Page       *ImagePage `gorm:"constraint:OnDelete:CASCADE;foreignKey:PageID;references:ID" json:"-"`
	DocumentID string     `gorm:"column:document_id;not null;index" json:"document_id"`

	RawText        string `gorm:"column:raw_text;type:text" json:"raw_text"`
	NormalizedText string `gorm:"column:normalized_text;type:text" json:"normalized_text"`

	WordBoxes      datatypes.JSON `gorm:"column:word_boxes;type:jsonb" json:"word_boxes"`
	PageBBox       datatypes.JSON `gorm:"column:page_bbox;type:jsonb" json:"page_bbox,omitempty"`
	PageConfidence float64        `gorm:"column:page_confidence" json:"page_confidence"`
	Engine         string         `gorm:"column:engine;not null" json:"engine"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (OCRText) TableName() string { return "ocr_text" }
