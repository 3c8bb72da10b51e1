package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) Update(ctx context.Context, tenant *domain.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindByReferralCode(ctx context.Context, code string) (*domain.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindRewardCandidates(ctx context.Context, referrerID uuid.UUID) ([]*domain.Tenant, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tenant), args.Error(1)
}

func (m *mockTenantRepo) ClaimReward(ctx context.Context, tenantID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, now)
	return args.Bool(0), args.Error(1)
}

type mockOwnerRepo struct {
	mock.Mock
}

func (m *mockOwnerRepo) Create(ctx context.Context, owner *domain.Owner) error {
	return m.Called(ctx, owner).Error(0)
}

func (m *mockOwnerRepo) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Owner, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Owner), args.Error(1)
}

type mockPartnerRepo struct {
	mock.Mock
}

func (m *mockPartnerRepo) Create(ctx context.Context, partner *domain.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

func (m *mockPartnerRepo) Update(ctx context.Context, partner *domain.Partner) error {
	return m.Called(ctx, partner).Error(0)
}

func (m *mockPartnerRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Partner, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Partner), args.Error(1)
}

func (m *mockPartnerRepo) List(ctx context.Context) ([]*domain.Partner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Partner), args.Error(1)
}

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, sub *domain.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindByTenantID(ctx context.Context, tenantID uuid.UUID) (*domain.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepo) FindOverdue(ctx context.Context, asOf time.Time, limit int) ([]*domain.Subscription, error) {
	args := m.Called(ctx, asOf, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Subscription), args.Error(1)
}

type mockInvoiceRepo struct {
	mock.Mock
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *mockInvoiceRepo) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Invoice, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Invoice), args.Error(1)
}

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64, now time.Time) error {
	return m.Called(ctx, id, now).Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return m.Called(ctx, id, errMsg, nextRetryAt).Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string, now time.Time) error {
	return m.Called(ctx, id, reason, now).Error(0)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// savedRoutingKeys returns the routing keys of every batch passed to SaveBatch.
func (m *mockOutboxRepo) savedRoutingKeys() []string {
	var keys []string
	for _, call := range m.Calls {
		if call.Method != "SaveBatch" {
			continue
		}
		for _, msg := range call.Arguments.Get(1).([]*outbox.Message) {
			keys = append(keys, msg.RoutingKey)
		}
	}
	return keys
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Dispatch(ctx context.Context, n notifications.Notification) {
	m.Called(ctx, n)
}

type mockRewardRedeemer struct {
	mock.Mock
}

func (m *mockRewardRedeemer) Redeem(ctx context.Context, sub *domain.Subscription, amount decimal.Decimal) (*domain.RewardRedemption, error) {
	args := m.Called(ctx, sub, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RewardRedemption), args.Error(1)
}

type mockCommissionScheduler struct {
	mock.Mock
}

func (m *mockCommissionScheduler) Schedule(ctx context.Context, req domain.CommissionRequest) ([]*domain.CommissionPayout, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CommissionPayout), args.Error(1)
}

type mockCommissionCanceler struct {
	mock.Mock
}

func (m *mockCommissionCanceler) CancelFutureCommissions(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.CommissionPayout, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CommissionPayout), args.Error(1)
}

type mockReferralResolver struct {
	mock.Mock
}

func (m *mockReferralResolver) Resolve(ctx context.Context, code string, partnerID *uuid.UUID) (domain.ReferralSource, error) {
	args := m.Called(ctx, code, partnerID)
	return args.Get(0).(domain.ReferralSource), args.Error(1)
}

type stubCodeGenerator struct {
	code string
	err  error
}

func (s stubCodeGenerator) Generate(context.Context) (string, error) { return s.code, s.err }

type stubCredentialIssuer struct{}

func (stubCredentialIssuer) Issue() (string, string, error) {
	return "temporary-pass-1", "$2a$04$hash", nil
}
