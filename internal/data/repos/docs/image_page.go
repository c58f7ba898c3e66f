package docs

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type ImagePageRepo interface {
	CreateBatch(dbc dbctx.Context, pages []*types.ImagePage) ([]*types.ImagePage, error)
	GetByID(dbc dbctx.Context, id string) (*types.ImagePage, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.ImagePage, error)
	ListByDocumentID(dbc dbctx.Context, documentID string) ([]*types.ImagePage, error)
	ClaimPending(dbc dbctx.Context, batch, maxAttempts int) ([]*types.ImagePage, error)
	MarkDone(dbc dbctx.Context, id string) error
	Release(dbc dbctx.Context, id, reason string) error
	Fail(dbc dbctx.Context, id, reason string) error
	ReapStale(dbc dbctx.Context, olderThan time.Duration) (int64, error)
	CountByState(dbc dbctx.Context) (map[string]int64, error)
	Count(dbc dbctx.Context) (int64, error)
}

type imagePageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImagePageRepo(db *gorm.DB, baseLog *logger.Logger) ImagePageRepo {
	return &imagePageRepo{db: db, log: baseLog.With("repo", "ImagePageRepo")}
}

func (r *imagePageRepo) CreateBatch(dbc dbctx.Context, pages []*types.ImagePage) ([]*types.ImagePage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(pages) == 0 {
		return []*types.ImagePage{}, nil
	}
	// Re-splitting an existing document must not reset OCR progress.
	err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&pages).Error
	if err != nil {
		return nil, translateErr("create pages", err)
	}
	return pages, nil
}

func (r *imagePageRepo) GetByID(dbc dbctx.Context, id string) (*types.ImagePage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil, nil
	}
	var page types.ImagePage
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&page).Error
	if err != nil {
		return nil, translateErr("get page", err)
	}
	if page.ID == "" {
		return nil, nil
	}
	return &page, nil
}

func (r *imagePageRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.ImagePage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ImagePage
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, translateErr("get pages", err)
	}
	return out, nil
}

func (r *imagePageRepo) ListByDocumentID(dbc dbctx.Context, documentID string) ([]*types.ImagePage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ImagePage
	if documentID == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("page_number ASC").
		Find(&out).Error; err != nil {
		return nil, translateErr("list pages", err)
	}
	return out, nil
}

// ClaimPending atomically moves up to batch pending pages to in_progress.
// SKIP LOCKED keeps concurrent workers off the same rows.
func (r *imagePageRepo) ClaimPending(dbc dbctx.Context, batch, maxAttempts int) ([]*types.ImagePage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if batch <= 0 {
		batch = 1
	}
	now := time.Now()
	var claimed []*types.ImagePage
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var pages []*types.ImagePage
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("ocr_state = ? AND attempts < ?", types.OCRStatePending, maxAttempts).
			Order("created_at ASC").
			Limit(batch)
		qErr := q.Find(&pages).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		for _, page := range pages {
			uErr := txx.Model(&types.ImagePage{}).
				Where("id = ?", page.ID).
				Updates(map[string]interface{}{
					"ocr_state":  types.OCRStateInProgress,
					"attempts":   gorm.Expr("attempts + 1"),
					"claimed_at": now,
					"updated_at": now,
				}).Error
			if uErr != nil {
				return uErr
			}
			page.OCRState = types.OCRStateInProgress
			page.Attempts++
			page.ClaimedAt = &now
		}
		claimed = pages
		return nil
	})
	if err != nil {
		return nil, translateErr("claim pending pages", err)
	}
	return claimed, nil
}

func (r *imagePageRepo) MarkDone(dbc dbctx.Context, id string) error {
	return r.setState(dbc, id, types.OCRStateDone, "")
}

// Release returns a claimed page to pending so another attempt can pick
// it up, recording the last failure reason.
func (r *imagePageRepo) Release(dbc dbctx.Context, id, reason string) error {
	return r.setState(dbc, id, types.OCRStatePending, reason)
}

func (r *imagePageRepo) Fail(dbc dbctx.Context, id, reason string) error {
	return r.setState(dbc, id, types.OCRStateFailed, reason)
}

func (r *imagePageRepo) setState(dbc dbctx.Context, id, state, reason string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == "" {
		return nil
	}
	now := time.Now()
	updates := map[string]interface{}{
		"ocr_state":  state,
		"ocr_error":  reason,
		"claimed_at": nil,
		"updated_at": now,
	}
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.ImagePage{}).
		Where("id = ?", id).
		Updates(updates).Error
	return translateErr("update page state", err)
}

// ReapStale returns in_progress pages whose claim is older than the
// cutoff to pending. Attempts stay incremented so crashing workers still
// count against the retry budget.
func (r *imagePageRepo) ReapStale(dbc dbctx.Context, olderThan time.Duration) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	cutoff := time.Now().Add(-olderThan)
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.ImagePage{}).
		Where("ocr_state = ? AND claimed_at IS NOT NULL AND claimed_at < ?", types.OCRStateInProgress, cutoff).
		Updates(map[string]interface{}{
			"ocr_state":  types.OCRStatePending,
			"claimed_at": nil,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, translateErr("reap stale pages", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *imagePageRepo) CountByState(dbc dbctx.Context) (map[string]int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	type row struct {
		OCRState string
		N        int64
	}
	var rows []row
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ImagePage{}).
		Select("ocr_state, COUNT(*) AS n").
		Group("ocr_state").
		Scan(&rows).Error; err != nil {
		return nil, translateErr("count pages by state", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.OCRState] = r.N
	}
	return out, nil
}

func (r *imagePageRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ImagePage{}).
		Count(&count).Error; err != nil {
		return 0, translateErr("count pages", err)
	}
	return count, nil
}
