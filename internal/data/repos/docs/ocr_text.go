package docs

import (
	"gorm.io/gorm"

	"github.com/google/uuid"

	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type OCRTextRepo interface {
	ReplaceForPage(dbc dbctx.Context, ocr *types.OCRText) (*types.OCRText, error)
	GetByPageID(dbc dbctx.Context, pageID string) (*types.OCRText, error)
	GetByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.OCRText, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.OCRText, error)
	Count(dbc dbctx.Context) (int64, error)
}

type ocrTextRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOCRTextRepo(db *gorm.DB, baseLog *logger.Logger) OCRTextRepo {
	return &ocrTextRepo{db: db, log: baseLog.With("repo", "OCRTextRepo")}
}

// ReplaceForPage deletes any previous row for the page and inserts the
// new one. Cascades clear the old entities and index row; the caller
// rebuilds them in the same transaction.
func (r *ocrTextRepo) ReplaceForPage(dbc dbctx.Context, ocr *types.OCRText) (*types.OCRText, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if ocr == nil || ocr.PageID == "" {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("page_id = ?", ocr.PageID).
		Delete(&types.OCRText{}).Error; err != nil {
		return nil, translateErr("delete ocr text", err)
	}
	if err := transaction.WithContext(dbc.Ctx).Create(ocr).Error; err != nil {
		return nil, translateErr("create ocr text", err)
	}
	return ocr, nil
}

func (r *ocrTextRepo) GetByPageID(dbc dbctx.Context, pageID string) (*types.OCRText, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if pageID == "" {
		return nil, nil
	}
	var ocr types.OCRText
	err := transaction.WithContext(dbc.Ctx).
		Where("page_id = ?", pageID).
		Limit(1).
		Find(&ocr).Error
	if err != nil {
		return nil, translateErr("get ocr text", err)
	}
	if ocr.ID == uuid.Nil {
		return nil, nil
	}
	return &ocr, nil
}

func (r *ocrTextRepo) GetByPageIDs(dbc dbctx.Context, pageIDs []string) ([]*types.OCRText, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.OCRText
	if len(pageIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("page_id IN ?", pageIDs).
		Find(&out).Error; err != nil {
		return nil, translateErr("get ocr texts", err)
	}
	return out, nil
}

func (r *ocrTextRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.OCRText, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.OCRText
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, translateErr("get ocr texts", err)
	}
	return out, nil
}

func (r *ocrTextRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.OCRText{}).
		Count(&count).Error; err != nil {
		return 0, translateErr("count ocr texts", err)
	}
	return count, nil
}
