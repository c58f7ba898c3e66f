package docs

import (
	"strings"

	"gorm.io/gorm"

	"github.com/google/uuid"

	types "github.com/yungbote/docindex-backend/internal/domain/docs"
	"github.com/yungbote/docindex-backend/internal/pkg/dbctx"
	"github.com/yungbote/docindex-backend/internal/pkg/logger"
)

type SearchIndexRepo interface {
	ReplaceForOCRText(dbc dbctx.Context, row *types.SearchIndex) (*types.SearchIndex, error)
	CandidatesByAllSubstrings(dbc dbctx.Context, substrings []string, limit int) ([]*types.SearchIndex, error)
	ListPage(dbc dbctx.Context, limit, offset int) ([]*types.SearchIndex, error)
	GetByOCRTextIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SearchIndex, error)
	SuggestTokens(dbc dbctx.Context, prefix string, limit int) ([]string, error)
	Count(dbc dbctx.Context) (int64, error)
}

type searchIndexRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchIndexRepo(db *gorm.DB, baseLog *logger.Logger) SearchIndexRepo {
	return &searchIndexRepo{db: db, log: baseLog.With("repo", "SearchIndexRepo")}
}

func (r *searchIndexRepo) ReplaceForOCRText(dbc dbctx.Context, row *types.SearchIndex) (*types.SearchIndex, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.OCRTextID == uuid.Nil {
		return nil, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("ocr_text_id = ?", row.OCRTextID).
		Delete(&types.SearchIndex{}).Error; err != nil {
		return nil, translateErr("delete search index", err)
	}
	if err := transaction.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, translateErr("create search index", err)
	}
	return row, nil
}

// CandidatesByAllSubstrings prefilters rows whose searchable text contains
// every substring. Scoring happens in the search engine; this only trims
// the scan.
func (r *searchIndexRepo) CandidatesByAllSubstrings(dbc dbctx.Context, substrings []string, limit int) ([]*types.SearchIndex, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SearchIndex
	if len(substrings) == 0 {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx).Model(&types.SearchIndex{})
	for _, s := range substrings {
		if s == "" {
			continue
		}
		q = q.Where("searchable_text ILIKE ?", "%"+escapeLike(s)+"%")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translateErr("search index candidates", err)
	}
	return out, nil
}

func (r *searchIndexRepo) ListPage(dbc dbctx.Context, limit, offset int) ([]*types.SearchIndex, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SearchIndex
	q := transaction.WithContext(dbc.Ctx).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translateErr("list search index", err)
	}
	return out, nil
}

func (r *searchIndexRepo) GetByOCRTextIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.SearchIndex, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.SearchIndex
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("ocr_text_id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, translateErr("get search index rows", err)
	}
	return out, nil
}

func (r *searchIndexRepo) SuggestTokens(dbc dbctx.Context, prefix string, limit int) ([]string, error) {
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
	err := transaction.WithContext(dbc.Ctx).Raw(`
		SELECT DISTINCT tok
		FROM search_index, jsonb_array_elements_text(tokens) AS tok
		WHERE tok LIKE ?
		ORDER BY tok ASC
		LIMIT ?
	`, escapeLike(strings.ToLower(prefix))+"%", limit).Scan(&out).Error
	if err != nil {
		return nil, translateErr("suggest tokens", err)
	}
	return out, nil
}

func (r *searchIndexRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.SearchIndex{}).
		Count(&count).Error; err != nil {
		return 0, translateErr("count search index", err)
	}
	return count, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
