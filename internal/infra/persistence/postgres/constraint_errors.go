package postgres

import (
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
)

// Helper functions for constraint error checking. GORM translates errors only when the
// dialector supports it, so the pg error code and the driver message are checked too.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if pgErrorCode(err) == pgUniqueViolation {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint failed")
}

func isForeignKeyConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	if pgErrorCode(err) == pgForeignKeyViolation {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed")
}

func isNotNullConstraintViolation(err error) bool {
	if pgErrorCode(err) == pgNotNullViolation {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "null value") ||
		strings.Contains(errMsg, "not null constraint failed")
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}
