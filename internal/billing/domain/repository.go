package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repositories join the transaction carried by ctx when there is one.
// Finders return an error wrapping ErrNotFound for missing rows, and writers
// translate unique-constraint violations into ErrConflict errors.

// TenantRepository defines access for tenant persistence.
type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error

	// Update writes name, plan exclusivity and updated_at. It never touches
	// referral_reward_claimed.
	Update(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	FindByReferralCode(ctx context.Context, code string) (*Tenant, error)

	// FindRewardCandidates lists tenants referred by referrerID whose reward is
	// unclaimed and whose own subscription is ACTIVE, oldest first.
	FindRewardCandidates(ctx context.Context, referrerID uuid.UUID) ([]*Tenant, error)

	// ClaimReward flips referral_reward_claimed from false to true. It reports
	// false when another transaction claimed the reward first.
	ClaimReward(ctx context.Context, tenantID uuid.UUID, now time.Time) (bool, error)
}

// OwnerRepository defines access for owner persistence.
type OwnerRepository interface {
	Create(ctx context.Context, owner *Owner) error
	FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*Owner, error)
}

// PartnerRepository defines access for partner persistence.
type PartnerRepository interface {
	Create(ctx context.Context, partner *Partner) error
	Update(ctx context.Context, partner *Partner) error
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	List(ctx context.Context) ([]*Partner, error)
}

// SubscriptionRepository defines access for subscription persistence.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	Update(ctx context.Context, subscription *Subscription) error
	FindByID(ctx context.Context, id uuid.UUID) (*Subscription, error)
	FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// FindOverdue lists TRIAL and ACTIVE subscriptions whose end date is
	// before asOf.
	FindOverdue(ctx context.Context, asOf time.Time, limit int) ([]*Subscription, error)
}

// InvoiceRepository defines access for invoice persistence.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*Invoice, error)
}

// PayoutRepository defines access for commission payout persistence.
type PayoutRepository interface {
	CreateBatch(ctx context.Context, payouts []*CommissionPayout) error

	// CancelPendingDueAfter cancels PENDING payouts of the given invoices whose
	// due date is strictly after now, and returns them in their new state.
	CancelPendingDueAfter(ctx context.Context, invoiceIDs []uuid.UUID, now time.Time) ([]*CommissionPayout, error)

	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*CommissionPayout, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*CommissionPayout, error)
}
