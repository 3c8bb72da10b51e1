package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const partnerColumns = `id, name, email, role, is_active, commission_percentage, created_at, updated_at`

// SQLitePartnerRepository implements domain.PartnerRepository with SQLite.
type SQLitePartnerRepository struct {
	conn database.Connection
}

// NewSQLitePartnerRepository creates a new repository.
func NewSQLitePartnerRepository(conn database.Connection) *SQLitePartnerRepository {
	return &SQLitePartnerRepository{conn: conn}
}

// Create inserts a partner.
func (r *SQLitePartnerRepository) Create(ctx context.Context, partner *domain.Partner) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO partners (`+partnerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		partner.ID().String(),
		partner.Name(),
		partner.Email(),
		string(partner.Role()),
		boolToInt(partner.IsActive()),
		partner.CommissionPercentage().String(),
		formatSQLiteTime(partner.CreatedAt()),
		formatSQLiteTime(partner.UpdatedAt()),
	)
	return translateWriteError(err, "partner")
}

// Update persists a partner.
func (r *SQLitePartnerRepository) Update(ctx context.Context, partner *domain.Partner) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE partners
		SET name = ?, email = ?, role = ?, is_active = ?, commission_percentage = ?, updated_at = ?
		WHERE id = ?`,
		partner.Name(),
		partner.Email(),
		string(partner.Role()),
		boolToInt(partner.IsActive()),
		partner.CommissionPercentage().String(),
		formatSQLiteTime(partner.UpdatedAt()),
		partner.ID().String(),
	)
	if err != nil {
		return translateWriteError(err, "partner")
	}
	return requireAffected(result, domain.ErrPartnerNotFound)
}

// FindByID returns a partner by id.
func (r *SQLitePartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id = ?`, id.String())
	partner, err := scanSQLitePartner(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrPartnerNotFound
	}
	return partner, err
}

// List returns all partners, oldest first.
func (r *SQLitePartnerRepository) List(ctx context.Context) ([]*domain.Partner, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+partnerColumns+` FROM partners ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []*domain.Partner
	for rows.Next() {
		partner, err := scanSQLitePartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	return partners, rows.Err()
}

func scanSQLitePartner(row database.Row) (*domain.Partner, error) {
	var (
		id, name, email, role string
		active                int
		commission            string
		createdAt, updatedAt  string
	)
	if err := row.Scan(&id, &name, &email, &role, &active, &commission, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var v sqliteValues
	partner := domain.RehydratePartner(
		sharedDomain.RehydrateBaseEntity(v.uuid(id), v.time(createdAt), v.time(updatedAt)),
		name, email, domain.PartnerRole(role), active != 0, v.decimal(commission),
	)
	if v.err != nil {
		return nil, fmt.Errorf("scan partner %s: %w", id, v.err)
	}
	return partner, nil
}

var _ domain.PartnerRepository = (*SQLitePartnerRepository)(nil)
