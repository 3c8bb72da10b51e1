package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/google/uuid"
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
