package implementation

import (
	stderrors "errors"

	"listing-billing-be/internal/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// classify turns driver constraint violations into domain conflicts and wraps
// everything else with the failing operation.
func classify(err error, resource, key, op string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.Conflict(resource, key, "code already exists")
		case pgForeignKeyViolation:
			return apperror.Conflict(resource, key, "still referenced by another record")
		case pgCheckViolation:
			return apperror.Conflict(resource, key, "violates "+pgErr.ConstraintName)
		}
	}
	return errors.Wrap(err, op)
}
