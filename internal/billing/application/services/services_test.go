package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTenant(t *testing.T, slug string, source domain.ReferralSource) *domain.Tenant {
	t.Helper()
	tenant, err := domain.NewTenant("Shop "+slug, slug, "", source, now)
	require.NoError(t, err)
	return tenant
}

func newPartner(t *testing.T, pct int64) *domain.Partner {
	t.Helper()
	p, err := domain.NewPartner("Ana", "ana@partners.io", domain.RolePartner, decimal.NewFromInt(pct), now)
	require.NoError(t, err)
	return p
}

func newSubscription(t *testing.T, tenantID uuid.UUID, plan domain.PlanID, cycle domain.BillingCycle, price string) *domain.Subscription {
	t.Helper()
	sub, err := domain.NewSubscription(tenantID, plan, cycle, domain.BillingPrepaid, decimal.RequireFromString(price), 14, now)
	require.NoError(t, err)
	return sub
}

func TestReferralSourceResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	partnerID := uuid.New()

	t.Run("referral code wins over partner id", func(t *testing.T) {
		tenants, partners := new(mockTenantRepo), new(mockPartnerRepo)
		referrer := newTenant(t, "referrer", domain.NoReferral())
		tenants.On("FindByReferralCode", ctx, "ABC123").Return(referrer, nil)

		source, err := NewReferralSourceResolver(tenants, partners).Resolve(ctx, " abc123", &partnerID)

		require.NoError(t, err)
		id, ok := source.TenantID()
		assert.True(t, ok)
		assert.Equal(t, referrer.ID(), id)
		_, ok = source.PartnerID()
		assert.False(t, ok)
		partners.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown referral code is rejected", func(t *testing.T) {
		tenants, partners := new(mockTenantRepo), new(mockPartnerRepo)
		tenants.On("FindByReferralCode", ctx, "NOPE").Return(nil, domain.ErrTenantNotFound)

		_, err := NewReferralSourceResolver(tenants, partners).Resolve(ctx, "nope", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidReferralCode)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("active partner", func(t *testing.T) {
		tenants, partners := new(mockTenantRepo), new(mockPartnerRepo)
		partners.On("FindByID", ctx, partnerID).Return(newPartner(t, 10), nil)

		source, err := NewReferralSourceResolver(tenants, partners).Resolve(ctx, "", &partnerID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReferralPartner, source.Kind())
	})

	t.Run("inactive partner conflicts", func(t *testing.T) {
		tenants, partners := new(mockTenantRepo), new(mockPartnerRepo)
		inactive := newPartner(t, 10)
		inactive.SetActive(false, now)
		partners.On("FindByID", ctx, partnerID).Return(inactive, nil)

		_, err := NewReferralSourceResolver(tenants, partners).Resolve(ctx, "", &partnerID)
		assert.ErrorIs(t, err, domain.ErrPartnerInactive)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("missing partner", func(t *testing.T) {
		tenants, partners := new(mockTenantRepo), new(mockPartnerRepo)
		partners.On("FindByID", ctx, partnerID).Return(nil, domain.ErrPartnerNotFound)

		_, err := NewReferralSourceResolver(tenants, partners).Resolve(ctx, "", &partnerID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no referral", func(t *testing.T) {
		source, err := NewReferralSourceResolver(new(mockTenantRepo), new(mockPartnerRepo)).Resolve(ctx, "  ", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.ReferralNone, source.Kind())
	})
}

func TestRewardResolver_Redeem(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixedClock(now)
	referrer := newTenant(t, "referrer", domain.NoReferral())
	sub := newSubscription(t, referrer.ID(), domain.PlanPremium, domain.CycleMonthly, "129.90")

	t.Run("claims the first candidate that is still free", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		first := newTenant(t, "first", domain.ReferredByTenant(referrer.ID()))
		second := newTenant(t, "second", domain.ReferredByTenant(referrer.ID()))
		tenants.On("FindRewardCandidates", ctx, referrer.ID()).Return([]*domain.Tenant{first, second}, nil)
		tenants.On("ClaimReward", ctx, first.ID(), now).Return(false, nil)
		tenants.On("ClaimReward", ctx, second.ID(), now).Return(true, nil)

		redemption, err := NewRewardResolver(tenants, clk).Redeem(ctx, sub, decimal.RequireFromString("64.95"))

		require.NoError(t, err)
		assert.Equal(t, second.ID(), redemption.SourceTenantID)
		assert.Equal(t, "64.95", redemption.Discount.StringFixed(2))
		tenants.AssertExpectations(t)
	})

	t.Run("discount is clamped at zero", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		source := newTenant(t, "source", domain.ReferredByTenant(referrer.ID()))
		tenants.On("FindRewardCandidates", ctx, referrer.ID()).Return([]*domain.Tenant{source}, nil)
		tenants.On("ClaimReward", ctx, source.ID(), now).Return(true, nil)

		redemption, err := NewRewardResolver(tenants, clk).Redeem(ctx, sub, decimal.NewFromInt(500))
		require.NoError(t, err)
		assert.True(t, redemption.Discount.IsZero())
	})

	t.Run("no candidates", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		tenants.On("FindRewardCandidates", ctx, referrer.ID()).Return([]*domain.Tenant{}, nil)

		_, err := NewRewardResolver(tenants, clk).Redeem(ctx, sub, decimal.NewFromInt(50))
		assert.ErrorIs(t, err, domain.ErrNoRewardAvailable)
		assert.False(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("claim failure propagates", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		source := newTenant(t, "source", domain.ReferredByTenant(referrer.ID()))
		tenants.On("FindRewardCandidates", ctx, referrer.ID()).Return([]*domain.Tenant{source}, nil)
		tenants.On("ClaimReward", ctx, source.ID(), now).Return(false, errors.New("database is locked"))

		_, err := NewRewardResolver(tenants, clk).Redeem(ctx, sub, decimal.NewFromInt(50))
		assert.ErrorContains(t, err, "database is locked")
	})

	t.Run("available skips claimed and self", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		claimed := newTenant(t, "claimed", domain.ReferredByTenant(referrer.ID()))
		claimed.MarkRewardClaimed(now)
		free := newTenant(t, "free", domain.ReferredByTenant(referrer.ID()))
		tenants.On("FindRewardCandidates", ctx, referrer.ID()).Return([]*domain.Tenant{claimed, referrer, free}, nil)

		n, err := NewRewardResolver(tenants, clk).Available(ctx, referrer.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestUpfrontCommissionScheduler_Schedule(t *testing.T) {
	ctx := observability.WithCorrelationID(context.Background(), "corr-commission")

	setup := func(t *testing.T, cycle domain.BillingCycle, price string) (*domain.Tenant, *domain.Subscription, *domain.Invoice, *domain.Partner) {
		partner := newPartner(t, 10)
		tenant := newTenant(t, "referred", domain.ReferredByPartner(partner.ID()))
		sub := newSubscription(t, tenant.ID(), domain.PlanPremium, cycle, price)
		inv, err := domain.NewPaidInvoice(domain.PaidInvoiceParams{
			SubscriptionID: sub.ID(),
			Amount:         decimal.RequireFromString("10"),
			Discount:       decimal.RequireFromString("119.90"),
			NominalPrice:   decimal.RequireFromString(price),
			Method:         domain.PaymentPix,
		}, now)
		require.NoError(t, err)
		return tenant, sub, inv, partner
	}

	t.Run("annual payment schedules twelve payouts on the full list price", func(t *testing.T) {
		tenant, sub, inv, partner := setup(t, domain.CycleAnnually, "1247.04")
		partners, payouts := new(mockPartnerRepo), new(mockPayoutRepo)
		partners.On("FindByID", ctx, partner.ID()).Return(partner, nil)
		payouts.On("CreateBatch", ctx, mock.AnythingOfType("[]*domain.CommissionPayout")).Return(nil)

		scheduled, err := NewUpfrontCommissionScheduler(partners, payouts, domain.DefaultCatalog(), nil).
			Schedule(ctx, domain.CommissionRequest{Tenant: tenant, Subscription: sub, Invoice: inv, Now: now})

		require.NoError(t, err)
		require.Len(t, scheduled, 12)
		for i, p := range scheduled {
			assert.Equal(t, "12.99", p.Amount().StringFixed(2))
			assert.Equal(t, now.AddDate(0, i, 0), p.DueDate())
			assert.Equal(t, inv.ID(), p.InvoiceID())
		}
		payouts.AssertExpectations(t)
	})

	t.Run("no partner means no payouts", func(t *testing.T) {
		tenant := newTenant(t, "organic", domain.NoReferral())
		sub := newSubscription(t, tenant.ID(), domain.PlanBasic, domain.CycleMonthly, "69.90")
		scheduled, err := NewUpfrontCommissionScheduler(new(mockPartnerRepo), new(mockPayoutRepo), domain.DefaultCatalog(), nil).
			Schedule(ctx, domain.CommissionRequest{Tenant: tenant, Subscription: sub, Now: now})
		require.NoError(t, err)
		assert.Nil(t, scheduled)
	})

	t.Run("inactive partner earns nothing", func(t *testing.T) {
		tenant, sub, inv, partner := setup(t, domain.CycleMonthly, "129.90")
		partner.SetActive(false, now)
		partners, payouts := new(mockPartnerRepo), new(mockPayoutRepo)
		partners.On("FindByID", ctx, partner.ID()).Return(partner, nil)

		scheduled, err := NewUpfrontCommissionScheduler(partners, payouts, domain.DefaultCatalog(), nil).
			Schedule(ctx, domain.CommissionRequest{Tenant: tenant, Subscription: sub, Invoice: inv, Now: now})
		require.NoError(t, err)
		assert.Nil(t, scheduled)
		payouts.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("missing partner is skipped", func(t *testing.T) {
		tenant, sub, inv, partner := setup(t, domain.CycleMonthly, "129.90")
		partners := new(mockPartnerRepo)
		partners.On("FindByID", ctx, partner.ID()).Return(nil, domain.ErrPartnerNotFound)

		var buf bytes.Buffer
		logger := observability.NewLogger(observability.LogConfig{Format: observability.LogFormatJSON, Output: &buf})
		scheduled, err := NewUpfrontCommissionScheduler(partners, new(mockPayoutRepo), domain.DefaultCatalog(), logger).
			Schedule(ctx, domain.CommissionRequest{Tenant: tenant, Subscription: sub, Invoice: inv, Now: now})
		require.NoError(t, err)
		assert.Nil(t, scheduled)
		assert.Contains(t, buf.String(), "referring partner missing")
		assert.Contains(t, buf.String(), `"correlation_id":"corr-commission"`)
	})

	t.Run("batch failure propagates", func(t *testing.T) {
		tenant, sub, inv, partner := setup(t, domain.CycleSemiannually, "701.46")
		partners, payouts := new(mockPartnerRepo), new(mockPayoutRepo)
		partners.On("FindByID", ctx, partner.ID()).Return(partner, nil)
		payouts.On("CreateBatch", ctx, mock.Anything).Return(errors.New("disk full"))

		_, err := NewUpfrontCommissionScheduler(partners, payouts, domain.DefaultCatalog(), nil).
			Schedule(ctx, domain.CommissionRequest{Tenant: tenant, Subscription: sub, Invoice: inv, Now: now})
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestCommissionCanceler_CancelFutureCommissions(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFixedClock(now)
	subID := uuid.New()

	inv1, err := domain.NewManualInvoice(subID, decimal.NewFromInt(10), now, "a", now)
	require.NoError(t, err)
	inv2, err := domain.NewManualInvoice(subID, decimal.NewFromInt(10), now, "b", now)
	require.NoError(t, err)

	invoices, payouts := new(mockInvoiceRepo), new(mockPayoutRepo)
	invoices.On("ListBySubscription", ctx, subID).Return([]*domain.Invoice{inv1, inv2}, nil)
	canceled := domain.BuildPayoutSchedule(uuid.New(), inv1.ID(), decimal.NewFromInt(3), domain.CycleSemiannually, now)
	payouts.On("CancelPendingDueAfter", ctx, []uuid.UUID{inv1.ID(), inv2.ID()}, now).Return(canceled, nil)

	got, err := NewCommissionCanceler(invoices, payouts, clk).CancelFutureCommissions(ctx, subID)
	require.NoError(t, err)
	assert.Len(t, got, 6)
	payouts.AssertExpectations(t)

	t.Run("no invoices", func(t *testing.T) {
		invoices, payouts := new(mockInvoiceRepo), new(mockPayoutRepo)
		invoices.On("ListBySubscription", ctx, subID).Return([]*domain.Invoice{}, nil)

		got, err := NewCommissionCanceler(invoices, payouts, clk).CancelFutureCommissions(ctx, subID)
		require.NoError(t, err)
		assert.Empty(t, got)
		payouts.AssertNotCalled(t, "CancelPendingDueAfter", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReferralCodeGenerator(t *testing.T) {
	ctx := context.Background()

	t.Run("returns an unused code", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		tenants.On("FindByReferralCode", ctx, mock.AnythingOfType("string")).Return(nil, domain.ErrTenantNotFound)

		code, err := NewReferralCodeGenerator(tenants).Generate(ctx)
		require.NoError(t, err)
		assert.Len(t, code, 8)
		assert.NotContains(t, code, "O")
		assert.NotContains(t, code, "0")
	})

	t.Run("gives up after repeated collisions", func(t *testing.T) {
		tenants := new(mockTenantRepo)
		taken := newTenant(t, "taken", domain.NoReferral())
		tenants.On("FindByReferralCode", ctx, mock.AnythingOfType("string")).Return(taken, nil)

		_, err := NewReferralCodeGenerator(tenants).Generate(ctx)
		assert.ErrorIs(t, err, domain.ErrConflict)
		tenants.AssertNumberOfCalls(t, "FindByReferralCode", referralCodeAttempts)
	})
}

func TestCredentialIssuer(t *testing.T) {
	plain, hash, err := NewCredentialIssuer(bcrypt.MinCost).Issue()
	require.NoError(t, err)

	assert.Len(t, plain, 16)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)))
}
