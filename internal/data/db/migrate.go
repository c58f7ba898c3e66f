package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/docindex-backend/internal/domain/docs"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&docs.Document{},
		&docs.ImagePage{},
		&docs.OCRText{},
		&docs.Entity{},
		&docs.SearchIndex{},
	)
}

func EnsureIndexes(db *gorm.DB) error {
	// Source-URL lookups back the crawler's re-ingest path.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_document_source_url
		ON document (source_url);
	`).Error; err != nil {
		return fmt.Errorf("create idx_document_source_url: %w", err)
	}

	// One page per (document, number).
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_image_page_doc_num
		ON image_page (document_id, page_number);
	`).Error; err != nil {
		return fmt.Errorf("create idx_image_page_doc_num: %w", err)
	}

	// The pending-pages worker only ever scans unfinished pages.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_image_page_ocr_state_active
		ON image_page (ocr_state, created_at)
		WHERE ocr_state IN ('pending', 'in_progress');
	`).Error; err != nil {
		return fmt.Errorf("create idx_image_page_ocr_state_active: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ocr_text_page
		ON ocr_text (page_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_ocr_text_page: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_entity_type_value
		ON entity (entity_type, normalized_value);
	`).Error; err != nil {
		return fmt.Errorf("create idx_entity_type_value: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_search_index_ocr_text
		ON search_index (ocr_text_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_search_index_ocr_text: %w", err)
	}

	// AutoMigrate runs with FK constraints disabled; declare the cascade
	// chain explicitly so deleting a document tears down its pages, text,
	// entities and index rows.
	stmts := []string{
		`ALTER TABLE image_page DROP CONSTRAINT IF EXISTS fk_image_page_document;`,
		`ALTER TABLE image_page ADD CONSTRAINT fk_image_page_document
			FOREIGN KEY (document_id) REFERENCES document(id) ON DELETE CASCADE;`,
		`ALTER TABLE ocr_text DROP CONSTRAINT IF EXISTS fk_ocr_text_page;`,
		`ALTER TABLE ocr_text ADD CONSTRAINT fk_ocr_text_page
			FOREIGN KEY (page_id) REFERENCES image_page(id) ON DELETE CASCADE;`,
		`ALTER TABLE entity DROP CONSTRAINT IF EXISTS fk_entity_ocr_text;`,
		`ALTER TABLE entity ADD CONSTRAINT fk_entity_ocr_text
			FOREIGN KEY (ocr_text_id) REFERENCES ocr_text(id) ON DELETE CASCADE;`,
		`ALTER TABLE search_index DROP CONSTRAINT IF EXISTS fk_search_index_ocr_text;`,
		`ALTER TABLE search_index ADD CONSTRAINT fk_search_index_ocr_text
			FOREIGN KEY (ocr_text_id) REFERENCES ocr_text(id) ON DELETE CASCADE;`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure cascade constraints: %w", err)
		}
	}
	return nil
}
