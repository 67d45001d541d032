package sqlerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsUniqueViolation reports whether err is a database uniqueness violation.
// Repos treat insert-if-not-exists as the primitive, so unique violations
// are expected under concurrent webhook delivery and map to retry/refetch
// paths rather than caller-visible failures.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite (test/dev driver) reports constraint failures as plain text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
