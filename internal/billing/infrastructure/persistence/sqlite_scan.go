package persistence

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// sqliteTimeLayout is fixed width so that text comparison orders instants.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func formatSQLiteNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatSQLiteTime(*t), Valid: true}
}

func nullUUID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// sqliteValues accumulates parse failures of one scanned row so that the
// caller checks a single error.
type sqliteValues struct {
	err error
}

func (v *sqliteValues) uuid(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil && v.err == nil {
		v.err = fmt.Errorf("parse uuid %q: %w", s, err)
	}
	return id
}

func (v *sqliteValues) nullUUID(s sql.NullString) *uuid.UUID {
	if !s.Valid || s.String == "" {
		return nil
	}
	id := v.uuid(s.String)
	return &id
}

func (v *sqliteValues) time(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		// Rows written by hand or by older tooling may carry plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	if err != nil && v.err == nil {
		v.err = fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC()
}

func (v *sqliteValues) nullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := v.time(s.String)
	return &t
}

func (v *sqliteValues) decimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil && v.err == nil {
		v.err = fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d
}

// placeholders returns "?, ?, ?" for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
