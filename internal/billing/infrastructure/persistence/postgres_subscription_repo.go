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

// PostgresSubscriptionRepository implements domain.SubscriptionRepository with PostgreSQL.
type PostgresSubscriptionRepository struct {
	conn database.Connection
}

// NewPostgresSubscriptionRepository creates a new repository.
func NewPostgresSubscriptionRepository(conn database.Connection) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{conn: conn}
}

// Create inserts a subscription.
func (r *PostgresSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sub.ID(),
		sub.TenantID(),
		string(sub.Plan()),
		string(sub.BillingCycle()),
		string(sub.BillingType()),
		string(sub.Status()),
		toNumeric(sub.Price()),
		sub.TrialDays(),
		sub.EndDate(),
		sub.CreatedAt(),
		sub.UpdatedAt(),
	)
	return translateWriteError(err, "subscription")
}

// Update persists plan, status and period of a subscription.
func (r *PostgresSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	result, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE subscriptions
		SET plan_id = $1, billing_cycle = $2, billing_type = $3, status = $4, price = $5,
		    trial_days = $6, end_date = $7, updated_at = $8
		WHERE id = $9`,
		string(sub.Plan()),
		string(sub.BillingCycle()),
		string(sub.BillingType()),
		string(sub.Status()),
		toNumeric(sub.Price()),
		sub.TrialDays(),
		sub.EndDate(),
		sub.UpdatedAt(),
		sub.ID(),
	)
	if err != nil {
		return err
	}
	return requireAffected(result, domain.ErrSubscriptionNotFound)
}

// FindByID returns a subscription by id.
func (r *PostgresSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
}

// FindByTenantID returns the subscription of a tenant.
func (r *PostgresSubscriptionRepository) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	return r.findOne(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE tenant_id = $1`, tenantID)
}

// FindOverdue lists TRIAL and ACTIVE subscriptions that ended before asOf,
// earliest end date first.
func (r *PostgresSubscriptionRepository) FindOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Subscription, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status IN ($1, $2) AND end_date < $3
		ORDER BY end_date, id
		LIMIT $4`,
		string(domain.StatusTrial), string(domain.StatusActive), asOf.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*domain.Subscription
	for rows.Next() {
		sub, err := scanPostgresSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *PostgresSubscriptionRepository) findOne(ctx context.Context, query string, arg any) (*domain.Subscription, error) {
	sub, err := scanPostgresSubscription(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, arg))
	if database.IsNoRows(err) {
		return nil, domain.ErrSubscriptionNotFound
	}
	return sub, err
}

func scanPostgresSubscription(row database.Row) (*domain.Subscription, error) {
	var (
		id, tenantID                     uuid.UUID
		plan, cycle, billingType, status string
		price                            pgtype.Numeric
		trialDays                        int
		endDate, createdAt, updatedAt    time.Time
	)
	if err := row.Scan(&id, &tenantID, &plan, &cycle, &billingType, &status, &price,
		&trialDays, &endDate, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	amount, err := fromNumeric(price)
	if err != nil {
		return nil, fmt.Errorf("scan subscription %s: %w", id, err)
	}
	return domain.RehydrateSubscription(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		tenantID,
		domain.PlanID(plan),
		domain.BillingCycle(cycle),
		domain.BillingType(billingType),
		domain.SubscriptionStatus(status),
		amount,
		trialDays,
		endDate,
	), nil
}

var _ domain.SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
