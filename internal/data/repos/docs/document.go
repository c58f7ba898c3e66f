package docs

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type DocumentRepo interface {
	Upsert(dbc dbctx.Context, doc *types.Document) error
	GetByID(dbc dbctx.Context, id string) (*types.Document, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Document, error)
	ExistsByID(dbc dbctx.Context, id string) (bool, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Document, error)
	UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error
	Count(dbc dbctx.Context) (int64, error)
	DeleteByID(dbc dbctx.Context, id string) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Upsert(dbc dbctx.Context, doc *types.Document) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if doc == nil {
		return nil
	}
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"source_url", "file_name", "file_type", "file_size",
				"page_count", "blob_key", "section", "metadata", "updated_at",
			}),
		}).
		Create(doc).Error
	return translateErr("upsert document", err)
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id string) (*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil, nil
	}
	var doc types.Document
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&doc).Error
	if err != nil {
		return nil, translateErr("get document", err)
	}
	if doc.ID == "" {
		return nil, nil
	}
	return &doc, nil
}

func (r *documentRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Document
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, translateErr("get documents", err)
	}
	return out, nil
}

func (r *documentRepo) ExistsByID(dbc dbctx.Context, id string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return false, nil
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, translateErr("document exists", err)
	}
	return count > 0, nil
}

func (r *documentRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Document
	q := transaction.WithContext(dbc.Ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translateErr("list documents", err)
	}
	return out, nil
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
	return translateErr("update document", err)
}

func (r *documentRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Count(&count).Error; err != nil {
		return 0, translateErr("count documents", err)
	}
	return count, nil
}

func (r *documentRepo) DeleteByID(dbc dbctx.Context, id string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil
	}
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Delete(&types.Document{}).Error
	return translateErr("delete document", err)
}
