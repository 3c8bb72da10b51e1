package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const tenantColumns = `t.id, t.name, t.slug, t.referral_code, t.referred_by_partner_id,
	t.referred_by_tenant_id, t.referral_reward_claimed, t.exclusive_plan, t.created_at, t.updated_at`

// SQLiteTenantRepository implements domain.TenantRepository with SQLite.
type SQLiteTenantRepository struct {
	conn database.Connection
}

// NewSQLiteTenantRepository creates a new repository.
func NewSQLiteTenantRepository(conn database.Connection) *SQLiteTenantRepository {
	return &SQLiteTenantRepository{conn: conn}
}

// Create inserts a tenant.
func (r *SQLiteTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	var referralCode sql.NullString
	if tenant.ReferralCode() != "" {
		referralCode = sql.NullString{String: tenant.ReferralCode(), Valid: true}
	}
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tenants (
			id, name, slug, referral_code, referred_by_partner_id, referred_by_tenant_id,
			referral_reward_claimed, exclusive_plan, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID().String(),
		tenant.Name(),
		tenant.Slug(),
		referralCode,
		nullUUID(tenant.ReferredByPartnerID()),
		nullUUID(tenant.ReferredByTenantID()),
		boolToInt(tenant.ReferralRewardClaimed()),
		boolToInt(tenant.IsExclusivePlan()),
		formatSQLiteTime(tenant.CreatedAt()),
		formatSQLiteTime(tenant.UpdatedAt()),
	)
	return translateWriteError(err, "tenant")
}

// Update persists the mutable tenant fields. Referral linkage is never
// rewritten, and the reward flag only changes through ClaimReward.
func (r *SQLiteTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE tenants
		SET name = ?, exclusive_plan = ?, updated_at = ?
		WHERE id = ?`,
		tenant.Name(),
		boolToInt(tenant.IsExclusivePlan()),
		formatSQLiteTime(tenant.UpdatedAt()),
		tenant.ID().String(),
	)
	if err != nil {
		return translateWriteError(err, "tenant")
	}
	return requireAffected(result, domain.ErrTenantNotFound)
}

// FindByID returns a tenant by id.
func (r *SQLiteTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.id = ?`, id.String())
}

// FindBySlug returns a tenant by its slug.
func (r *SQLiteTenantRepository) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.slug = ?`, slug)
}

// FindByReferralCode returns the tenant owning a referral code.
func (r *SQLiteTenantRepository) FindByReferralCode(ctx context.Context, code string) (*domain.Tenant, error) {
	return r.findOne(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.referral_code = ?`,
		domain.NormalizeReferralCode(code))
}

// FindRewardCandidates lists unclaimed referrals with an ACTIVE subscription, oldest first.
func (r *SQLiteTenantRepository) FindRewardCandidates(ctx context.Context, referrerID uuid.UUID) ([]*domain.Tenant, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		JOIN subscriptions s ON s.tenant_id = t.id
		WHERE t.referred_by_tenant_id = ?
		  AND t.referral_reward_claimed = 0
		  AND s.status = ?
		ORDER BY t.created_at, t.id`,
		referrerID.String(), string(domain.StatusActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		tenant, err := scanSQLiteTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// ClaimReward flips the reward flag only if it is still unset.
func (r *SQLiteTenantRepository) ClaimReward(ctx context.Context, tenantID uuid.UUID, now time.Time) (bool, error) {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE tenants
		SET referral_reward_claimed = 1, updated_at = ?
		WHERE id = ? AND referral_reward_claimed = 0`,
		formatSQLiteTime(now), tenantID.String())
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteTenantRepository) findOne(ctx context.Context, query string, arg any) (*domain.Tenant, error) {
	tenant, err := scanSQLiteTenant(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, arg))
	if database.IsNoRows(err) {
		return nil, domain.ErrTenantNotFound
	}
	return tenant, err
}

func scanSQLiteTenant(row database.Row) (*domain.Tenant, error) {
	var (
		id, name, slug           string
		referralCode             sql.NullString
		partnerID, tenantID      sql.NullString
		rewardClaimed, exclusive int
		createdAt, updatedAt     string
	)
	if err := row.Scan(&id, &name, &slug, &referralCode, &partnerID, &tenantID,
		&rewardClaimed, &exclusive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var v sqliteValues
	tenant := domain.RehydrateTenant(
		sharedDomain.RehydrateBaseEntity(v.uuid(id), v.time(createdAt), v.time(updatedAt)),
		name, slug, referralCode.String,
		v.nullUUID(partnerID), v.nullUUID(tenantID),
		rewardClaimed != 0, exclusive != 0,
	)
	if v.err != nil {
		return nil, fmt.Errorf("scan tenant %s: %w", id, v.err)
	}
	return tenant, nil
}

// SQLiteOwnerRepository implements domain.OwnerRepository with SQLite.
type SQLiteOwnerRepository struct {
	conn database.Connection
}

// NewSQLiteOwnerRepository creates a new repository.
func NewSQLiteOwnerRepository(conn database.Connection) *SQLiteOwnerRepository {
	return &SQLiteOwnerRepository{conn: conn}
}

// Create inserts an owner.
func (r *SQLiteOwnerRepository) Create(ctx context.Context, owner *domain.Owner) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO owners (
			id, tenant_id, name, email, phone, password_hash, must_change_password,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		owner.ID().String(),
		owner.TenantID().String(),
		owner.Name(),
		owner.Email(),
		owner.Phone(),
		owner.PasswordHash(),
		boolToInt(owner.MustChangePassword()),
		formatSQLiteTime(owner.CreatedAt()),
		formatSQLiteTime(owner.UpdatedAt()),
	)
	return translateWriteError(err, "owner")
}

// FindByTenantID returns the owner of a tenant.
func (r *SQLiteOwnerRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Owner, error) {
	var (
		id, ownerTenantID, name, email string
		phone, passwordHash            string
		mustChange                     int
		createdAt, updatedAt           string
	)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		SELECT id, tenant_id, name, email, phone, password_hash, must_change_password,
		       created_at, updated_at
		FROM owners
		WHERE tenant_id = ?`, tenantID.String()).Scan(
		&id, &ownerTenantID, &name, &email, &phone, &passwordHash, &mustChange, &createdAt, &updatedAt,
	)
	if database.IsNoRows(err) {
		return nil, domain.ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}

	var v sqliteValues
	owner := domain.RehydrateOwner(
		sharedDomain.RehydrateBaseEntity(v.uuid(id), v.time(createdAt), v.time(updatedAt)),
		v.uuid(ownerTenantID), name, email, phone, passwordHash, mustChange != 0,
	)
	if v.err != nil {
		return nil, fmt.Errorf("scan owner %s: %w", id, v.err)
	}
	return owner, nil
}

var (
	_ domain.TenantRepository = (*SQLiteTenantRepository)(nil)
	_ domain.OwnerRepository  = (*SQLiteOwnerRepository)(nil)
)
