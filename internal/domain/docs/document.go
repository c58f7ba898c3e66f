package docs

import (
	"time"

	"gorm.io/datatypes"
)

// OCR states an ImagePage moves through.
const (
	OCRStatePending    = "pending"
	OCRStateInProgress = "in_progress"
	OCRStateDone       = "done"
	OCRStateFailed     = "failed"
)

// Document is one source file. The ID is the hex encoding of the first
// 16 bytes of the SHA-256 of the original file bytes, so re-ingesting
// identical content lands on the same row.
type Document struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	SourceURL string         `gorm:"column:source_url;not null;index" json:"source_url"`
	FileName  string         `gorm:"column:file_name;not null" json:"file_name"`
	FileType  string         `gorm:"column:file_type;not null" json:"file_type"`
	FileSize  int64          `gorm:"column:file_size" json:"file_size"`
	PageCount int            `gorm:"column:page_count" json:"page_count"`
	BlobKey   string         `gorm:"column:blob_key;not null" json:"blob_key"`
	Section   string         `gorm:"column:section" json:"section,omitempty"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }
