package docs

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/docindex-backend/internal/pkg/apperr"
)

const pgUniqueViolation = "23505"

// translateErr maps driver errors onto the stable kinds callers branch on.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return apperr.Wrap(apperr.KindConflict, op, err)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.KindNotFound, op, err)
	}
	return err
}
