package docs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entity kinds produced by the extractor.
const (
	EntityEmail = "email"
	EntityPhone = "phone"
	EntityDate  = "date"
	EntityName  = "name"
)

// Entity is one extracted mention, tied to the OCRText it came from.
type Entity struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OCRTextID uuid.UUID `gorm:"column:ocr_text_id;type:uuid;not null;index" json:"ocr_text_id"`
	OCRText   *OCRText  `gorm:"constraint:OnDelete:CASCADE;foreignKey:OCRTextID;references:ID" json:"-"`

	PageID          string         `gorm:"column:page_id;not null;index" json:"page_id"`
	DocumentID      string         `gorm:"column:document_id;not null;index" json:"document_id"`
	EntityType      string         `gorm:"column:entity_type;not null" json:"entity_type"`
	EntityValue     string         `gorm:"column:entity_value;not null" json:"entity_value"`
	NormalizedValue string         `gorm:"column:normalized_value;not null" json:"normalized_value"`
	BBox            datatypes.JSON `gorm:"column:bbox;type:jsonb" json:"bbox,omitempty"`
	Confidence      float64        `gorm:"column:confidence" json:"confidence"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Entity) TableName() string { return "entity" }
