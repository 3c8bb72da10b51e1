package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockSubscriptionRepo struct {
	mock.Mock
}

func (m *mockSubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubscriptionRepo) Update(ctx context.Context, s *domain.Subscription) error {
	return m.Called(ctx, s).Error(0)
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

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	return m.Called(ctx, inv).Error(0)
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

type mockPartnerRepo struct {
	mock.Mock
}

func (m *mockPartnerRepo) Create(ctx context.Context, p *domain.Partner) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockPartnerRepo) Update(ctx context.Context, p *domain.Partner) error {
	return m.Called(ctx, p).Error(0)
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

type mockPayoutRepo struct {
	mock.Mock
}

func (m *mockPayoutRepo) CreateBatch(ctx context.Context, payouts []*domain.CommissionPayout) error {
	return m.Called(ctx, payouts).Error(0)
}

func (m *mockPayoutRepo) CancelPendingDueAfter(ctx context.Context, invoiceIDs []uuid.UUID, now time.Time) ([]*domain.CommissionPayout, error) {
	args := m.Called(ctx, invoiceIDs, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CommissionPayout), args.Error(1)
}

func (m *mockPayoutRepo) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*domain.CommissionPayout, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CommissionPayout), args.Error(1)
}

func (m *mockPayoutRepo) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]*domain.CommissionPayout, error) {
	args := m.Called(ctx, partnerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CommissionPayout), args.Error(1)
}

type mockRewardCounter struct {
	mock.Mock
}

func (m *mockRewardCounter) Available(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}
