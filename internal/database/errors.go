package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// mysqlErrDuplicateEntry is MySQL's error code for a UNIQUE/PRIMARY key
// violation ("Duplicate entry ... for key ...").
const mysqlErrDuplicateEntry = 1062

// IsDuplicateEntry reports whether err is a uniqueness-constraint violation.
// Callers (e.g. the enrollment writer) branch on this instead of inspecting
// driver error strings themselves, so the coupling to a specific storage
// engine lives in exactly one place.
func IsDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlErrDuplicateEntry
	}

	// Fallback for other engines (the test suite runs on SQLite, which
	// reports "UNIQUE constraint failed: ...").
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint")
}
