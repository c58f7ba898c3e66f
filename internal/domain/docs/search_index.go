package docs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SearchIndex is the searchable projection of one OCRText row.
type SearchIndex struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OCRTextID uuid.UUID `gorm:"column:ocr_text_id;type:uuid;not null;uniqueIndex" json:"ocr_text_id"`
	OCRText   *OCRText  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OCRTextID;references:ID" json:"-"`

	PageID     string `gorm:"column:page_id;not null;index" json:"page_id"`
	DocumentID string `gorm:"column:document_id;not null;index" json:"document_id"`

	SearchableText string         `gorm:"column:searchable_text;type:text" json:"searchable_text"`
	Tokens         datatypes.JSON `gorm:"column:tokens;type:jsonb" json:"tokens"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (SearchIndex) TableName() string { return "search_index" }
