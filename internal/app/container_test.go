package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/felixgeelhaar/trimly/internal/billing/application/queries"
	"github.com/felixgeelhaar/trimly/internal/billing/application/services"
	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/felixgeelhaar/trimly/pkg/config"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// recordingSink keeps every notification it receives.
type recordingSink struct {
	mu   sync.Mutex
	sent []notifications.Notification
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, n notifications.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *recordingSink) all() []notifications.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notifications.Notification(nil), s.sent...)
}

type harness struct {
	container *Container
	clock     *clock.FixedClock
	sink      *recordingSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		AppEnv:              "test",
		DatabaseDriver:      "sqlite",
		SQLitePath:          filepath.Join(t.TempDir(), "trimly.db"),
		NotificationTimeout: time.Second,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxRetries:    3,
		DefaultTrialDays:    14,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewFixedClock(baseTime)
	sink := &recordingSink{}

	container, err := NewContainer(context.Background(), cfg, logger, WithClock(clk), WithNotificationSink(sink))
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return &harness{container: container, clock: clk, sink: sink}
}

func (h *harness) onboard(t *testing.T, slug, ownCode, referralCode string, partnerID *uuid.UUID, plan, cycle string) *commands.OnboardTenantResult {
	t.Helper()
	result, err := h.container.OnboardTenantHandler.Handle(context.Background(), commands.OnboardTenantCommand{
		Name:                "Barbearia " + slug,
		Slug:                slug,
		OwnerName:           "Owner " + slug,
		OwnerEmail:          slug + "@example.com",
		Plan:                plan,
		BillingCycle:        cycle,
		BillingType:         "PREPAID",
		ReferralCode:        referralCode,
		ReferredByPartnerID: partnerID,
		OwnReferralCode:     ownCode,
	})
	require.NoError(t, err)
	return result
}

func (h *harness) partner(t *testing.T, email string, pct int64) *domain.Partner {
	t.Helper()
	partner, err := h.container.CreatePartnerHandler.Handle(context.Background(), commands.CreatePartnerCommand{
		Name:                 "Partner " + email,
		Email:                email,
		CommissionPercentage: decimal.NewFromInt(pct),
	})
	require.NoError(t, err)
	return partner
}

func TestNewContainer_SQLite(t *testing.T) {
	h := newHarness(t)
	c := h.container

	assert.Equal(t, "sqlite", c.DBDriver.String())
	assert.NotNil(t, c.Repositories)
	assert.NotNil(t, c.OutboxRepo)
	assert.NotNil(t, c.InProcessEventBus)
	assert.Nil(t, c.RedisClient)
	assert.Equal(t, "recording", c.NotificationSink.Name())

	health := c.Health.Check(context.Background())
	assert.Equal(t, "healthy", string(health.Status))

	plans := c.ListPlansHandler.Handle(context.Background())
	assert.Len(t, plans, 3)
}

func TestNewContainer_RejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{AppEnv: "test", DatabaseDriver: "mysql"}
	_, err := NewContainer(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestReferralCodeTakesPrecedenceOverPartner(t *testing.T) {
	h := newHarness(t)
	partner := h.partner(t, "partner@example.com", 10)
	referrer := h.onboard(t, "referrer", "ABC123", "", nil, "BASIC", "MONTHLY")

	partnerID := partner.ID()
	referred := h.onboard(t, "referred", "", "ABC123", &partnerID, "BASIC", "MONTHLY")

	require.NotNil(t, referred.Tenant.ReferredByTenantID())
	assert.Equal(t, referrer.Tenant.ID(), *referred.Tenant.ReferredByTenantID())
	assert.Nil(t, referred.Tenant.ReferredByPartnerID())

	stored, err := h.container.Repositories.Tenants.FindByID(context.Background(), referred.Tenant.ID())
	require.NoError(t, err)
	require.NotNil(t, stored.ReferredByTenantID())
	assert.Equal(t, referrer.Tenant.ID(), *stored.ReferredByTenantID())
	assert.Nil(t, stored.ReferredByPartnerID())

	assert.Equal(t, domain.StatusTrial, referred.Subscription.Status())
	assert.True(t, referred.Subscription.EndDate().Equal(baseTime.AddDate(0, 0, 14)))
	assert.NotEmpty(t, referred.TemporaryPassword)
	assert.Len(t, referred.Tenant.ReferralCode(), 8)
}

func TestOnboard_DuplicateSlugIsConflict(t *testing.T) {
	h := newHarness(t)
	h.onboard(t, "dup", "", "", nil, "BASIC", "MONTHLY")

	_, err := h.container.OnboardTenantHandler.Handle(context.Background(), commands.OnboardTenantCommand{
		Name:         "Other",
		Slug:         "dup",
		OwnerName:    "Other Owner",
		OwnerEmail:   "other@example.com",
		Plan:         "BASIC",
		BillingCycle: "MONTHLY",
		BillingType:  "PREPAID",
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSwitchPlan_ImmediatePaymentAndAnnouncement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenant := h.onboard(t, "switcher", "", "", nil, "BASIC", "MONTHLY")
	subID := tenant.Subscription.ID()

	paid := decimal.RequireFromString("129.90")
	sub, err := h.container.SwitchPlanHandler.Handle(ctx, commands.SwitchPlanCommand{
		SubscriptionID: subID,
		Plan:           "PREMIUM",
		BillingCycle:   "MONTHLY",
		BillingType:    "PREPAID",
		PaymentMethod:  "PIX",
		PaidAmount:     &paid,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, sub.Status())
	assert.True(t, sub.EndDate().Equal(baseTime.AddDate(0, 0, 30)))

	invoices, err := h.container.ListInvoicesHandler.Handle(ctx, queries.ListInvoicesQuery{SubscriptionID: subID})
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "129.90", invoices[0].Amount)
	assert.Equal(t, "PAID", invoices[0].Status)
	assert.Equal(t, "PIX", invoices[0].PaymentMethod)

	h.container.Notifier.Wait()
	sent := h.sink.all()
	require.Len(t, sent, 1)
	assert.Equal(t, tenant.Owner.ID(), sent[0].RecipientID)
	assert.Equal(t, "Plan updated", sent[0].Title)

	// Announcement only: status and end date stay as they are.
	h.clock.Advance(5 * 24 * time.Hour)
	sub, err = h.container.SwitchPlanHandler.Handle(ctx, commands.SwitchPlanCommand{
		SubscriptionID: subID,
		Plan:           "PREMIUM",
		BillingCycle:   "MONTHLY",
		BillingType:    "POSTPAID",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, sub.Status())
	assert.True(t, sub.EndDate().Equal(baseTime.AddDate(0, 0, 30)))
	assert.Equal(t, domain.BillingPostpaid, sub.BillingType())

	invoices, err = h.container.ListInvoicesHandler.Handle(ctx, queries.ListInvoicesQuery{SubscriptionID: subID})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)

	stored, err := h.container.Repositories.Tenants.FindByID(ctx, tenant.Tenant.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsExclusivePlan())
}

func TestConfirmPayment_CommissionUsesFullMonthlyPrice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner := h.partner(t, "affiliate@example.com", 10)
	partnerID := partner.ID()
	tenant := h.onboard(t, "discounted", "", "", &partnerID, "PREMIUM", "MONTHLY")

	result, err := h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: tenant.Subscription.ID(),
		Amount:         decimal.RequireFromString("99.90"),
		Method:         "PIX",
	})
	require.NoError(t, err)
	require.Len(t, result.Payouts, 1)
	assert.Equal(t, "12.99", result.Payouts[0].Amount().StringFixed(2))
	assert.Equal(t, "99.90", result.Invoice.Amount().StringFixed(2))
}

func TestConfirmPayment_AnnualScheduleAndFutureOnlyCancellation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	partner := h.partner(t, "annual@example.com", 10)
	partnerID := partner.ID()
	tenant := h.onboard(t, "annual", "", "", &partnerID, "PREMIUM", "ANNUALLY")

	result, err := h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: tenant.Subscription.ID(),
		Amount:         decimal.RequireFromString("1247.04"),
		Method:         "CREDIT_CARD",
	})
	require.NoError(t, err)
	require.Len(t, result.Payouts, 12)
	for i, p := range result.Payouts {
		assert.True(t, p.DueDate().Equal(baseTime.AddDate(0, i, 0)), "payout %d due date", i)
		assert.Equal(t, "12.99", p.Amount().StringFixed(2))
	}

	list, err := h.container.ListPayoutsHandler.Handle(ctx, queries.ListPayoutsQuery{PartnerID: partnerID})
	require.NoError(t, err)
	assert.Len(t, list.Payouts, 12)
	assert.Equal(t, "155.88", list.PendingTotal)

	// Suspend just after the third payout came due.
	h.clock.Set(baseTime.AddDate(0, 2, 1))
	suspended, err := h.container.SuspendAccessHandler.Handle(ctx, commands.SuspendAccessCommand{
		SubscriptionID: tenant.Subscription.ID(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuspended, suspended.Subscription.Status())
	assert.Len(t, suspended.CanceledPayouts, 9)

	stored, err := h.container.Repositories.Payouts.ListByInvoice(ctx, result.Invoice.ID())
	require.NoError(t, err)
	cutoff := baseTime.AddDate(0, 2, 1)
	pending, canceled := 0, 0
	for _, p := range stored {
		if p.DueDate().After(cutoff) {
			assert.Equal(t, domain.PayoutCanceled, p.Status())
			canceled++
		} else {
			assert.Equal(t, domain.PayoutPending, p.Status())
			pending++
		}
	}
	assert.Equal(t, 3, pending)
	assert.Equal(t, 9, canceled)

	view, err := h.container.GetSubscriptionHandler.Handle(ctx, queries.GetSubscriptionQuery{SubscriptionID: tenant.Subscription.ID()})
	require.NoError(t, err)
	assert.False(t, view.HasAccess)
}

func TestConfirmPayment_MonthEndSchedules(t *testing.T) {
	tests := []struct {
		name      string
		cycle     string
		paidAt    time.Time
		payouts   int
		secondDue time.Time
		endDate   time.Time
	}{
		{
			name:      "annual on Jan 31",
			cycle:     "ANNUALLY",
			paidAt:    time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC),
			payouts:   12,
			secondDue: time.Date(2025, 2, 28, 10, 0, 0, 0, time.UTC),
			endDate:   time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC),
		},
		{
			name:      "semiannual on Aug 31",
			cycle:     "SEMIANNUALLY",
			paidAt:    time.Date(2025, 8, 31, 10, 0, 0, 0, time.UTC),
			payouts:   6,
			secondDue: time.Date(2025, 9, 30, 10, 0, 0, 0, time.UTC),
			endDate:   time.Date(2026, 2, 28, 10, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.clock.Set(tt.paidAt)
			partner := h.partner(t, "month-end@example.com", 10)
			partnerID := partner.ID()
			tenant := h.onboard(t, "month-end", "", "", &partnerID, "PREMIUM", tt.cycle)

			result, err := h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
				SubscriptionID: tenant.Subscription.ID(),
				Amount:         decimal.RequireFromString("1247.04"),
				Method:         "PIX",
			})
			require.NoError(t, err)
			assert.True(t, result.Subscription.EndDate().Equal(tt.endDate), "end date %s", result.Subscription.EndDate())

			stored, err := h.container.Repositories.Payouts.ListByInvoice(ctx, result.Invoice.ID())
			require.NoError(t, err)
			require.Len(t, stored, tt.payouts)

			months := make(map[string]bool)
			for _, p := range stored {
				assert.Equal(t, p.DueDate().Format(domain.ReferenceMonthLayout), p.ReferenceMonth())
				months[p.ReferenceMonth()] = true
			}
			assert.Len(t, months, tt.payouts, "one payout per month")

			var second bool
			for _, p := range stored {
				if p.DueDate().Equal(tt.secondDue) {
					second = true
				}
			}
			assert.True(t, second, "payout due %s", tt.secondDue.Format(time.DateOnly))
		})
	}
}

func TestConfirmPayment_RewardRedemption(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	referrer := h.onboard(t, "rewarder", "RWD001", "", nil, "PREMIUM", "MONTHLY")
	referred := h.onboard(t, "rewardee", "", "RWD001", nil, "BASIC", "MONTHLY")

	// A trial referral does not fund a reward yet.
	_, err := h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: referrer.Subscription.ID(),
		Amount:         decimal.RequireFromString("64.95"),
		Method:         "PIX",
		RedeemReward:   true,
	})
	require.ErrorIs(t, err, domain.ErrNoRewardAvailable)
	assert.False(t, errors.Is(err, domain.ErrNotFound))

	sub, err := h.container.Repositories.Subscriptions.FindByID(ctx, referrer.Subscription.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTrial, sub.Status())

	_, err = h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: referred.Subscription.ID(),
		Amount:         decimal.RequireFromString("69.90"),
		Method:         "PIX",
	})
	require.NoError(t, err)

	available, err := h.container.CountAvailableRewardsHandler.Handle(ctx, queries.CountAvailableRewardsQuery{TenantID: referrer.Tenant.ID()})
	require.NoError(t, err)
	assert.Equal(t, 1, available)

	result, err := h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: referrer.Subscription.ID(),
		Amount:         decimal.RequireFromString("64.95"),
		Method:         "PIX",
		RedeemReward:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Redemption)
	assert.Equal(t, "64.95", result.Invoice.Discount().StringFixed(2))
	require.NotNil(t, result.Invoice.ReferralRewardSourceID())
	assert.Equal(t, referred.Tenant.ID(), *result.Invoice.ReferralRewardSourceID())

	available, err = h.container.CountAvailableRewardsHandler.Handle(ctx, queries.CountAvailableRewardsQuery{TenantID: referrer.Tenant.ID()})
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestConfirmPayment_ConcurrentRedemptionsClaimOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	referrer := h.onboard(t, "racer", "RACE01", "", nil, "PREMIUM", "MONTHLY")
	referred := h.onboard(t, "racee", "", "RACE01", nil, "BASIC", "MONTHLY")
	_, err := h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: referred.Subscription.ID(),
		Amount:         decimal.RequireFromString("69.90"),
		Method:         "PIX",
	})
	require.NoError(t, err)

	const attempts = 4
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.container.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
				SubscriptionID: referrer.Subscription.ID(),
				Amount:         decimal.RequireFromString("64.95"),
				Method:         "PIX",
				RedeemReward:   true,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrNoRewardAvailable)
	}
	assert.Equal(t, 1, succeeded)

	invoices, err := h.container.ListInvoicesHandler.Handle(ctx, queries.ListInvoicesQuery{SubscriptionID: referrer.Subscription.ID()})
	require.NoError(t, err)
	assert.Len(t, invoices, 1)
}

type failingInvoiceRepo struct {
	domain.InvoiceRepository
}

func (failingInvoiceRepo) Create(context.Context, *domain.Invoice) error {
	return errors.New("simulated store fault")
}

type failingPayoutRepo struct {
	domain.PayoutRepository
}

func (failingPayoutRepo) CreateBatch(context.Context, []*domain.CommissionPayout) error {
	return errors.New("simulated store fault")
}

func TestConfirmPayment_RollsBackOnStoreFault(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.container
	partner := h.partner(t, "fault@example.com", 10)
	partnerID := partner.ID()
	tenant := h.onboard(t, "faulty", "", "", &partnerID, "PREMIUM", "ANNUALLY")
	before := tenant.Subscription

	build := func(invoices domain.InvoiceRepository, payouts domain.PayoutRepository) *commands.ConfirmPaymentHandler {
		return commands.NewConfirmPaymentHandler(
			c.Repositories.Subscriptions,
			c.Repositories.Tenants,
			invoices,
			c.Repositories.Owners,
			c.OutboxRepo,
			c.UnitOfWork,
			c.RewardResolver,
			services.NewUpfrontCommissionScheduler(c.Repositories.Partners, payouts, c.Catalog, c.Logger),
			c.Clock,
			c.Notifier,
			c.Logger,
			c.Metrics,
		)
	}

	tests := []struct {
		name    string
		handler *commands.ConfirmPaymentHandler
	}{
		{"invoice insert fails", build(failingInvoiceRepo{c.Repositories.Invoices}, c.Repositories.Payouts)},
		{"payout batch fails", build(c.Repositories.Invoices, failingPayoutRepo{c.Repositories.Payouts})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.clock.Advance(time.Hour)
			_, err := tt.handler.Handle(ctx, commands.ConfirmPaymentCommand{
				SubscriptionID: before.ID(),
				Amount:         decimal.RequireFromString("1247.04"),
				Method:         "PIX",
			})
			require.Error(t, err)

			sub, err := c.Repositories.Subscriptions.FindByID(ctx, before.ID())
			require.NoError(t, err)
			assert.Equal(t, domain.StatusTrial, sub.Status())
			assert.True(t, sub.EndDate().Equal(before.EndDate()))

			invoices, err := c.Repositories.Invoices.ListBySubscription(ctx, before.ID())
			require.NoError(t, err)
			assert.Empty(t, invoices)

			payouts, err := c.Repositories.Payouts.ListByPartner(ctx, partnerID)
			require.NoError(t, err)
			assert.Empty(t, payouts)
		})
	}
}

func TestManualInvoiceRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tenant := h.onboard(t, "manual", "", "", nil, "BASIC", "MONTHLY")
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	created, err := h.container.CreateManualInvoiceHandler.Handle(ctx, commands.CreateManualInvoiceCommand{
		SubscriptionID: tenant.Subscription.ID(),
		Amount:         decimal.NewFromInt(150),
		DueDate:        due,
		Reference:      "Test",
	})
	require.NoError(t, err)

	stored, err := h.container.Repositories.Invoices.FindByID(ctx, created.ID())
	require.NoError(t, err)
	assert.True(t, stored.Amount().Equal(decimal.NewFromInt(150)))
	assert.True(t, stored.DueDate().Equal(due))
	assert.Equal(t, "Test", stored.Reference())
	assert.Equal(t, domain.InvoicePending, stored.Status())
	assert.Nil(t, stored.PaidAt())
}

func TestSweepOverdueAndOutboxRelay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.container
	tenant := h.onboard(t, "sweeper", "", "", nil, "BASIC", "MONTHLY")
	_, err := c.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: tenant.Subscription.ID(),
		Amount:         decimal.RequireFromString("59.90"),
		Method:         "PIX",
	})
	require.NoError(t, err)

	h.clock.Advance(31 * 24 * time.Hour)
	result, err := c.SweepOverdueHandler.Handle(ctx, commands.SweepOverdueCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)

	sub, err := c.Repositories.Subscriptions.FindByID(ctx, tenant.Subscription.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPastDue, sub.Status())
	assert.True(t, sub.HasAccess())

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))
	assert.InDelta(t, 59.90, testutil.ToFloat64(c.Metrics.RevenueConfirmedTotal), 0.001)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Metrics.OverdueMarkedTotal))
	assert.Zero(t, c.OutboxProcessor.GetStats().FailedCount)
}
