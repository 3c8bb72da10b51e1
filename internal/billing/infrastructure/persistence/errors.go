package persistence

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
)

// translateWriteError maps unique violations onto the domain conflict they
// represent. Both drivers name the offending column or constraint in the
// message, so matching on it works for SQLite and PostgreSQL alike.
func translateWriteError(err error, table string) error {
	if err == nil || !database.IsUniqueViolation(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "referral_code"):
		return domain.ErrDuplicateReferralCode
	case strings.Contains(msg, "slug"):
		return domain.ErrDuplicateSlug
	case strings.Contains(msg, "email"):
		return domain.ErrDuplicateEmail
	default:
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, table)
	}
}

// requireAffected turns an update that touched no row into notFound.
func requireAffected(result database.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
