// Package repositories contains pgx-backed data access for taskhive-engine.
// Repositories map store-level failures onto the shared error taxonomy:
// pgx.ErrNoRows becomes apperrors.ErrNotFound and unique-constraint
// violations become apperrors.ErrConflict.
package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolationCode is the SQLSTATE for unique constraint violations.
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
