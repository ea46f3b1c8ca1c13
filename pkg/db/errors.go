package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/pos-inventory/pkg/errors"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation on
// either supported driver. A non-empty constraintName narrows the match.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.PostgresDiagnostics(err); ok {
		return pg.SQLState == sqlStateUniqueViolation &&
			(constraintName == "" || pg.Constraint == constraintName)
	}
	// sqlite reports the violated columns, not the constraint name.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
