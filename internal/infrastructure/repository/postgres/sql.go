package postgres

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/domatch/internal/domain/entitystore"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation      pq.ErrorCode = "23505"
	codeForeignKeyViolation  pq.ErrorCode = "23503"
	codeCheckViolation       pq.ErrorCode = "23514"
	codeNotNullViolation     pq.ErrorCode = "23502"
	codeNumericOutOfRange    pq.ErrorCode = "22003"
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// classify converts a driver error into the entitystore vocabulary so callers
// never look at SQLSTATE codes.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	if entitystore.Classified(err) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		wrapped := errors.Wrapf(err, "%s (constraint %q)", op, pqErr.Constraint)
		switch pqErr.Code {
		case codeUniqueViolation:
			return errors.Mark(wrapped, entitystore.ErrDuplicate)
		case codeForeignKeyViolation, codeCheckViolation, codeNotNullViolation, codeNumericOutOfRange:
			return errors.Mark(wrapped, entitystore.ErrConstraint)
		case codeSerializationFailure, codeDeadlockDetected:
			return errors.Mark(wrapped, entitystore.ErrStale)
		}
	}
	return entitystore.Unavailable(err, op)
}

// inTx runs fn in a transaction and commits when it returns nil.
func inTx(ctx context.Context, db *sqlx.DB, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return entitystore.Unavailable(err, "begin tx "+op)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(err, "commit tx "+op)
	}
	return nil
}

func expectAffected(res sql.Result, err error, op string, notFound error) error {
	if err != nil {
		return classify(err, op)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return entitystore.Unavailable(err, op)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
