package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const subscriptionColumns = `id, tenant_id, plan_id, billing_cycle, billing_type, status, price,
	trial_days, end_date, created_at, updated_at`

// SQLiteSubscriptionRepository implements domain.SubscriptionRepository with SQLite.
type SQLiteSubscriptionRepository struct {
	conn database.Connection
}

// NewSQLiteSubscriptionRepository creates a new repository.
func NewSQLiteSubscriptionRepository(conn database.Connection) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{conn: conn}
}

// Create inserts a subscription.
func (r *SQLiteSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID().String(),
		sub.TenantID().String(),
		string(sub.Plan()),
		string(sub.BillingCycle()),
		string(sub.BillingType()),
		string(sub.Status()),
		sub.Price().StringFixed(2),
		sub.TrialDays(),
		formatSQLiteTime(sub.EndDate()),
		formatSQLiteTime(sub.CreatedAt()),
		formatSQLiteTime(sub.UpdatedAt()),
	)
	return translateWriteError(err, "subscription")
}

// Update persists plan, status and period of a subscription.
func (r *SQLiteSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE subscriptions
		SET plan_id = ?, billing_cycle = ?, billing_type = ?, status = ?, price = ?,
		    trial_days = ?, end_date = ?, updated_at = ?
		WHERE id = ?`,
		string(sub.Plan()),
		string(sub.BillingCycle()),
		string(sub.BillingType()),
		string(sub.Status()),
		sub.Price().StringFixed(2),
		sub.TrialDays(),
		formatSQLiteTime(sub.EndDate()),
		formatSQLiteTime(sub.UpdatedAt()),
		sub.ID().String(),
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrSubscriptionNotFound)
}

// FindByID returns a subscription by id.
func (r *SQLiteSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id.String())
}

// FindByTenantID returns the subscription of a tenant.
func (r *SQLiteSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = ?`, tenantID.String())
}

// FindOverdue lists TRIAL and ACTIVE subscriptions that ended before asOf,
// earliest end date first.
func (r *SQLiteSubscriptionRepository) FindOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Subscription, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status IN (?, ?) AND end_date < ?
		ORDER BY end_date, id
		LIMIT ?`,
		string(domain.StatusTrial), string(domain.StatusActive), formatSQLiteTime(asOf), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanSQLiteSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SQLiteSubscriptionRepository) findOne(ctx context.Context, query string, arg any) (*domain.Subscription, error) {
	sub, err := scanSQLiteSubscription(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, arg))
	if database.IsNoRows(err) {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, err
}

func scanSQLiteSubscription(row database.Row) (*domain.Subscription, error) {
	var (
		id, tenantID, plan, cycle, billingType, status string
		price, endDate, createdAt, updatedAt           string
		trialDays                                      int
	)
	if err := row.Scan(&id, &tenantID, &plan, &cycle, &billingType, &status, &price,
		&trialDays, &endDate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var v sqliteValues
	sub := domain.RehydrateSubscription(
		sharedDomain.RehydrateBaseEntity(v.uuid(id), v.time(createdAt), v.time(updatedAt)),
		v.uuid(tenantID),
		domain.PlanID(plan),
		domain.BillingCycle(cycle),
		domain.BillingType(billingType),
		domain.SubscriptionStatus(status),
		v.decimal(price),
		trialDays,
		v.time(endDate),
	)
	if v.err != nil {
		return nil, fmt.Errorf("scan subscription %s: %w", id, v.err)
	}
	return sub, nil
}

var _ domain.SubscriptionRepository = (*SQLiteSubscriptionRepository)(nil)
