package persistence

import (
	"context"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// PostgresTenantRepository implements domain.TenantRepository with PostgreSQL.
type PostgresTenantRepository struct {
	conn database.Connection
}

// NewPostgresTenantRepository creates a new repository.
func NewPostgresTenantRepository(conn database.Connection) *PostgresTenantRepository {
	return &PostgresTenantRepository{conn: conn}
}

// Create inserts a tenant.
func (r *PostgresTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	var referralCode *string
	if code := tenant.ReferralCode(); code != "" {
		referralCode = &code
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tenants (
			id, name, slug, referral_code, referred_by_partner_id, referred_by_tenant_id,
			referral_reward_claimed, exclusive_plan, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		tenant.ID(),
		tenant.Name(),
		tenant.Slug(),
		referralCode,
		tenant.ReferredByPartnerID(),
		tenant.ReferredByTenantID(),
		tenant.ReferralRewardClaimed(),
		tenant.IsExclusivePlan(),
		tenant.CreatedAt(),
		tenant.UpdatedAt(),
	)
	return translateWriteError(err, "tenant")
}

// Update persists the mutable tenant fields. The reward flag is left to
// ClaimReward.
func (r *PostgresTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE tenants
		SET name = $1, exclusive_plan = $2, updated_at = $3
		WHERE id = $4`,
		tenant.Name(),
		tenant.IsExclusivePlan(),
		tenant.UpdatedAt(),
		tenant.ID(),
	)
	if err != nil {
		return translateWriteError(err, "tenant")
	}
	return requireAffected(result, domain.ErrTenantNotFound)
}

// FindByID returns a tenant by id.
func (r *PostgresTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.id = $1`, id)
}

// FindBySlug returns a tenant by its slug.
func (r *PostgresTenantRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.slug = $1`, slug)
}

// FindByReferralCode returns the tenant owning a referral code.
func (r *PostgresTenantRepository) FindByReferralCode(ctx context.Context, code string) (*domain.Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.referral_code = $1`,
		domain.NormalizeReferralCode(code))
}

// FindRewardCandidates lists unclaimed referrals with an ACTIVE subscription, oldest first.
func (r *PostgresTenantRepository) FindRewardCandidates(ctx context.Context, referrerID uuid.UUID) ([]*domain.Tenant, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		JOIN subscriptions s ON s.tenant_id = t.id
		WHERE t.referred_by_tenant_id = $1
		  AND NOT t.referral_reward_claimed
		  AND s.status = $2
		ORDER BY t.created_at, t.id`,
		referrerID, string(domain.StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant, err := scanPostgresTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// ClaimReward flips the reward flag only if it is still unset.
func (r *PostgresTenantRepository) ClaimReward(ctx context.Context, tenantID uuid.UUID, now time.Time) (bool, error) {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE tenants
		SET referral_reward_claimed = TRUE, updated_at = $1
		WHERE id = $2 AND NOT referral_reward_claimed`,
		now.UTC(), tenantID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresTenantRepository) findOne(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	tenant, err := scanPostgresTenant(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, arg))
	if database.IsNoRows(err) {
		return nil, domain.ErrTenantNotFound
	}
	return tenant, err
}

func scanPostgresTenant(row database.Row) (*domain.Tenant, error) {
	var (
		id                       uuid.UUID
		name, slug               string
		referralCode             *string
		partnerID, tenantID      *uuid.UUID
		rewardClaimed, exclusive bool
		createdAt, updatedAt     time.Time
	)
	if err := row.Scan(&id, &name, &slug, &referralCode, &partnerID, &tenantID,
		&rewardClaimed, &exclusive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	code := ""
	if referralCode != nil {
		code = *referralCode
	}
	return domain.RehydrateTenant(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name, slug, code, partnerID, tenantID, rewardClaimed, exclusive,
	), nil
}

// PostgresOwnerRepository implements domain.OwnerRepository with PostgreSQL.
type PostgresOwnerRepository struct {
	conn database.Connection
}

// NewPostgresOwnerRepository creates a new repository.
func NewPostgresOwnerRepository(conn database.Connection) *PostgresOwnerRepository {
	return &PostgresOwnerRepository{conn: conn}
}

// Create inserts an owner.
func (r *PostgresOwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO owners (
			id, tenant_id, name, email, phone, password_hash, must_change_password,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		owner.ID(),
		owner.TenantID(),
		owner.Name(),
		owner.Email(),
		owner.Phone(),
		owner.PasswordHash(),
		owner.MustChangePassword(),
		owner.CreatedAt(),
		owner.UpdatedAt(),
	)
	return translateWriteError(err, "owner")
}

// FindByTenantID returns the owner of a tenant.
func (r *PostgresOwnerRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Owner, error) {
	var (
		id, ownerTenantID    uuid.UUID
		name, email, phone   string
		passwordHash         string
		mustChange           bool
		createdAt, updatedAt time.Time
	)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT id, tenant_id, name, email, phone, password_hash, must_change_password,
		       created_at, updated_at
		FROM owners
		WHERE tenant_id = $1`, tenantID).Scan(
		&id, &ownerTenantID, &name, &email, &phone, &passwordHash, &mustChange, &createdAt, &updatedAt,
	)
	if database.IsNoRows(err) {
		return nil, domain.ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return domain.RehydrateOwner(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		ownerTenantID, name, email, phone, passwordHash, mustChange,
	), nil
}

var (
	_ domain.TenantRepository = (*PostgresTenantRepository)(nil)
	_ domain.OwnerRepository  = (*PostgresOwnerRepository)(nil)
)
