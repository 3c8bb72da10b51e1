package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// PostgresPartnerRepository implements domain.PartnerRepository with PostgreSQL.
type PostgresPartnerRepository struct {
	conn database.Connection
}

// NewPostgresPartnerRepository creates a new repository.
func NewPostgresPartnerRepository(conn database.Connection) *PostgresPartnerRepository {
	return &PostgresPartnerRepository{conn: conn}
}

// Create inserts a partner.
func (r *PostgresPartnerRepository) Create(ctx context.Context, partner *domain.Partner) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO partners (`+partnerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		partner.ID(),
		partner.Name(),
		partner.Email(),
		string(partner.Role()),
		partner.IsActive(),
		toNumeric(partner.CommissionPercentage()),
		partner.CreatedAt(),
		partner.UpdatedAt(),
	)
	return translateWriteError(err, "partner")
}

// Update persists a partner.
func (r *PostgresPartnerRepository) Update(ctx context.Context, partner *domain.Partner) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE partners
		SET name = $1, email = $2, role = $3, is_active = $4, commission_percentage = $5, updated_at = $6
		WHERE id = $7`,
		partner.Name(),
		partner.Email(),
		string(partner.Role()),
		partner.IsActive(),
		toNumeric(partner.CommissionPercentage()),
		partner.UpdatedAt(),
		partner.ID(),
	)
	if err != nil {
		return translateWriteError(err, "partner")
	}
	return requireAffected(result, domain.ErrPartnerNotFound)
}

// FindByID returns a partner by id.
func (r *PostgresPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	partner, err := scanPostgresPartner(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrPartnerNotFound
	}
	return partner, err
}

// List returns all partners, oldest first.
func (r *PostgresPartnerRepository) List(ctx context.Context) ([]*domain.Partner, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+partnerColumns+` FROM partners ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []*domain.Partner
	for rows.Next() {
		partner, err := scanPostgresPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, partner)
	}
	return partners, rows.Err()
}

func scanPostgresPartner(row database.Row) (*domain.Partner, error) {
	var (
		id                   uuid.UUID
		name, email, role    string
		active               bool
		commission           pgtype.Numeric
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &email, &role, &active, &commission, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	percentage, err := fromNumeric(commission)
	if err != nil {
		return nil, fmt.Errorf("scan partner %s: %w", id, err)
	}
	return domain.RehydratePartner(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name, email, domain.PartnerRole(role), active, percentage,
	), nil
}

var _ domain.PartnerRepository = (*PostgresPartnerRepository)(nil)
