package docs

import (
	"gorm.io/gorm"

	"github.com/google/uuid"

	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type EntityRepo interface {
	ReplaceForOCRText(dbc dbctx.Context, ocrTextID uuid.UUID, entities []*types.Entity) ([]*types.Entity, error)
	ListByValue(dbc dbctx.Context, entityType, value string, caseInsensitive bool, limit int) ([]*types.Entity, error)
	ListByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.Entity, error)
	ListByType(dbc dbctx.Context, entityType string, limit, offset int) ([]*types.Entity, error)
	SuggestValues(dbc dbctx.Context, prefix, entityType string, limit int) ([]string, error)
	Count(dbc dbctx.Context) (int64, error)
	CountByType(dbc dbctx.Context) (map[string]int64, error)
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	return &entityRepo{db: db, log: baseLog.With("repo", "EntityRepo")}
}

func (r *entityRepo) ReplaceForOCRText(dbc dbctx.Context, ocrTextID uuid.UUID, entities []*types.Entity) ([]*types.Entity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if ocrTextID == uuid.Nil {
		return []*types.Entity{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("ocr_text_id = ?", ocrTextID).
		Delete(&types.Entity{}).Error; err != nil {
		return nil, translateErr("delete entities", err)
	}
	if len(entities) == 0 {
		return []*types.Entity{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&entities).Error; err != nil {
		return nil, translateErr("create entities", err)
	}
	return entities, nil
}

// ListByValue matches on the canonical form when caseInsensitive is
// false; the fallback pass also compares the as-found entity_value so
// kinds whose canonical form differs from the source text (phones,
// dates) are still reachable by what the page actually says.
func (r *entityRepo) ListByValue(dbc dbctx.Context, entityType, value string, caseInsensitive bool, limit int) ([]*types.Entity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Entity
	if value == "" {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.Entity{})
	if caseInsensitive {
		q = q.Where("LOWER(entity_value) = LOWER(?) OR LOWER(normalized_value) = LOWER(?)", value, value)
	} else {
		q = q.Where("normalized_value = ?", value)
	}
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("page_id ASC").Find(&out).Error; err != nil {
		return nil, translateErr("list entities by value", err)
	}
	return out, nil
}

func (r *entityRepo) ListByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.Entity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Entity
	if len(pageIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("page_id IN ?", pageIDs).
		Find(&out).Error; err != nil {
		return nil, translateErr("list entities by pages", err)
	}
	return out, nil
}

func (r *entityRepo) ListByType(dbc dbctx.Context, entityType string, limit, offset int) ([]*types.Entity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Entity
	q := transaction.WithContext(dbc.Ctx).Model(&types.Entity{})
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Order("normalized_value ASC").Find(&out).Error; err != nil {
		return nil, translateErr("list entities", err)
	}
	return out, nil
}

func (r *entityRepo) SuggestValues(dbc dbctx.Context, prefix, entityType string, limit int) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []string
	if prefix == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = 10
	}
	q := transaction.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Distinct("normalized_value").
		Where("normalized_value ILIKE ?", escapeLike(prefix)+"%")
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}
	if err := q.Order("normalized_value ASC").Limit(limit).Pluck("normalized_value", &out).Error; err != nil {
		return nil, translateErr("suggest entity values", err)
	}
	return out, nil
}

func (r *entityRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Count(&count).Error; err != nil {
		return 0, translateErr("count entities", err)
	}
	return count, nil
}

func (r *entityRepo) CountByType(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		EntityType string
		N          int64
	}
	var rows []row
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Entity{}).
		Select("entity_type, COUNT(*) AS n").
		Group("entity_type").
		Scan(&rows).Error; err != nil {
		return nil, translateErr("count entities by type", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.EntityType] = r.N
	}
	return out, nil
}
