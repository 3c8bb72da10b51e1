package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNoRows is the driver-neutral "not found" repositories wrap.
var ErrNoRows = errors.New("no rows in result set")

// SQLSTATE unique_violation, shared by pgx and lib/pq.
const uniqueViolation = "23505"

// IsNoRows matches the not-found sentinel of either driver or ErrNoRows.
func IsNoRows(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNoRows), errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return true
	}
	return false
}

// IsUniqueViolation reports a duplicate key on a unique index or primary key.
// Slug, referral code and payout claims all rely on it.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	// Drivers that flatten errors to text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
