package commands

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/notifications"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type confirmFixture struct {
	subs      *mockSubscriptionRepo
	tenants   *mockTenantRepo
	invoices  *mockInvoiceRepo
	owners    *mockOwnerRepo
	rewards   *mockRewardRedeemer
	scheduler *mockCommissionScheduler
	notifier  *mockNotifier
	outbox    *mockOutboxRepo
	handler   *ConfirmPaymentHandler
}

func newConfirmFixture(uow *mockUnitOfWork, outboxRepo *mockOutboxRepo) *confirmFixture {
	f := &confirmFixture{
		subs:      new(mockSubscriptionRepo),
		tenants:   new(mockTenantRepo),
		invoices:  new(mockInvoiceRepo),
		owners:    new(mockOwnerRepo),
		rewards:   new(mockRewardRedeemer),
		scheduler: new(mockCommissionScheduler),
		notifier:  new(mockNotifier),
		outbox:    outboxRepo,
	}
	if f.outbox == nil {
		f.outbox = new(mockOutboxRepo)
	}
	f.handler = NewConfirmPaymentHandler(
		f.subs, f.tenants, f.invoices, f.owners, f.outbox, uow,
		f.rewards, f.scheduler, fixedClock(), f.notifier, quietLogger(), nil,
	)
	return f
}

func TestConfirmPaymentHandler_Handle(t *testing.T) {
	t.Run("activates, invoices and schedules commissions", func(t *testing.T) {
		ctx := context.Background()
		uow, txCtx := committingUoW(ctx)
		f := newConfirmFixture(uow, acceptingOutbox(txCtx))

		partnerID := uuid.New()
		tenant := newTenant(t, "central", domain.ReferredByPartner(partnerID))
		owner := newOwner(t, tenant.ID())
		sub := newSubscription(t, tenant.ID(), domain.PlanPremium, domain.CycleAnnually, "701.46")
		payouts := domain.BuildPayoutSchedule(partnerID, uuid.New(), money("12.99"), domain.CycleAnnually, testNow)

		f.subs.On("FindByID", txCtx, sub.ID()).Return(sub, nil)
		f.tenants.On("FindByID", txCtx, tenant.ID()).Return(tenant, nil)
		f.subs.On("Update", txCtx, sub).Return(nil)
		f.invoices.On("Create", txCtx, mock.AnythingOfType("*domain.Invoice")).Return(nil)
		f.scheduler.On("Schedule", txCtx, mock.MatchedBy(func(req domain.CommissionRequest) bool {
			return req.Tenant == tenant && req.Subscription == sub && req.Invoice != nil && req.Now.Equal(testNow)
		})).Return(payouts, nil)
		f.owners.On("FindByTenantID", ctx, tenant.ID()).Return(owner, nil)
		f.notifier.On("Dispatch", ctx, mock.MatchedBy(func(n notifications.Notification) bool {
			return n.RecipientID == owner.ID() && n.Type == notifications.TypeSuccess
		})).Return()

		result, err := f.handler.Handle(ctx, ConfirmPaymentCommand{
			SubscriptionID: sub.ID(),
			Amount:         money("701.46"),
			Method:         "credit_card",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusActive, result.Subscription.Status())
		assert.Equal(t, testNow.AddDate(0, 12, 0), result.Subscription.EndDate())
		assert.Equal(t, domain.InvoicePaid, result.Invoice.Status())
		assert.True(t, money("701.46").Equal(result.Invoice.Amount()))
		assert.True(t, result.Invoice.Discount().IsZero())
		assert.Nil(t, result.Invoice.ReferralRewardSourceID())
		assert.Len(t, result.Payouts, 12)
		assert.Nil(t, result.Redemption)
		f.rewards.AssertNotCalled(t, "Redeem", mock.Anything, mock.Anything, mock.Anything)

		assert.Equal(t, []string{
			domain.RoutingKeyInvoiceCreated,
			domain.RoutingKeyPaymentConfirmed,
			domain.RoutingKeyCommissionsScheduled,
		}, f.outbox.savedRoutingKeys())
		uow.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("redeemed reward is stamped on the invoice", func(t *testing.T) {
		ctx := context.Background()
		uow, txCtx := committingUoW(ctx)
		f := newConfirmFixture(uow, acceptingOutbox(txCtx))

		tenant := newTenant(t, "central", domain.NoReferral())
		sub := newSubscription(t, tenant.ID(), domain.PlanBasic, domain.CycleMonthly, "69.90")
		source := uuid.New()

		f.subs.On("FindByID", txCtx, sub.ID()).Return(sub, nil)
		f.tenants.On("FindByID", txCtx, tenant.ID()).Return(tenant, nil)
		f.rewards.On("Redeem", txCtx, sub, money("34.95")).
			Return(&domain.RewardRedemption{SourceTenantID: source, Discount: money("34.95")}, nil)
		f.subs.On("Update", txCtx, sub).Return(nil)
		f.invoices.On("Create", txCtx, mock.AnythingOfType("*domain.Invoice")).Return(nil)
		f.scheduler.On("Schedule", txCtx, mock.Anything).Return(nil, nil)
		f.owners.On("FindByTenantID", ctx, tenant.ID()).Return(nil, domain.ErrOwnerNotFound)

		result, err := f.handler.Handle(ctx, ConfirmPaymentCommand{
			SubscriptionID: sub.ID(),
			Amount:         money("34.95"),
			Method:         "PIX",
			RedeemReward:   true,
		})

		require.NoError(t, err)
		assert.True(t, money("34.95").Equal(result.Invoice.Amount()))
		assert.True(t, money("34.95").Equal(result.Invoice.Discount()))
		require.NotNil(t, result.Invoice.ReferralRewardSourceID())
		assert.Equal(t, source, *result.Invoice.ReferralRewardSourceID())
		assert.Equal(t, source, result.Redemption.SourceTenantID)
		assert.Empty(t, result.Payouts)

		assert.Equal(t, []string{
			domain.RoutingKeyInvoiceCreated,
			domain.RoutingKeyPaymentConfirmed,
			domain.RoutingKeyRewardRedeemed,
		}, f.outbox.savedRoutingKeys())
	})

	t.Run("no reward available aborts before any write", func(t *testing.T) {
		ctx := context.Background()
		uow, txCtx := rollingBackUoW(ctx)
		f := newConfirmFixture(uow, nil)

		tenant := newTenant(t, "central", domain.NoReferral())
		sub := newSubscription(t, tenant.ID(), domain.PlanBasic, domain.CycleMonthly, "69.90")
		endDate := sub.EndDate()

		f.subs.On("FindByID", txCtx, sub.ID()).Return(sub, nil)
		f.tenants.On("FindByID", txCtx, tenant.ID()).Return(tenant, nil)
		f.rewards.On("Redeem", txCtx, sub, money("34.95")).Return(nil, domain.ErrNoRewardAvailable)

		_, err := f.handler.Handle(ctx, ConfirmPaymentCommand{
			SubscriptionID: sub.ID(),
			Amount:         money("34.95"),
			Method:         "PIX",
			RedeemReward:   true,
		})

		assert.ErrorIs(t, err, domain.ErrNoRewardAvailable)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, domain.StatusTrial, sub.Status())
		assert.Equal(t, endDate, sub.EndDate())
		f.subs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("commission failure rolls back", func(t *testing.T) {
		ctx := context.Background()
		uow, txCtx := rollingBackUoW(ctx)
		f := newConfirmFixture(uow, nil)

		tenant := newTenant(t, "central", domain.NoReferral())
		sub := newSubscription(t, tenant.ID(), domain.PlanBasic, domain.CycleMonthly, "69.90")

		f.subs.On("FindByID", txCtx, sub.ID()).Return(sub, nil)
		f.tenants.On("FindByID", txCtx, tenant.ID()).Return(tenant, nil)
		f.subs.On("Update", txCtx, sub).Return(nil)
		f.invoices.On("Create", txCtx, mock.Anything).Return(nil)
		f.scheduler.On("Schedule", txCtx, mock.Anything).Return(nil, assert.AnError)

		_, err := f.handler.Handle(ctx, ConfirmPaymentCommand{
			SubscriptionID: sub.ID(),
			Amount:         money("69.90"),
			Method:         "PIX",
		})

		assert.ErrorIs(t, err, assert.AnError)
		uow.AssertExpectations(t)
		f.outbox.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		ctx := context.Background()
		uow, txCtx := rollingBackUoW(ctx)
		f := newConfirmFixture(uow, nil)

		id := uuid.New()
		f.subs.On("FindByID", txCtx, id).Return(nil, domain.ErrSubscriptionNotFound)

		_, err := f.handler.Handle(ctx, ConfirmPaymentCommand{SubscriptionID: id, Amount: money("10"), Method: "CASH"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("rejects bad input before the transaction", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		f := newConfirmFixture(uow, nil)
		ctx := context.Background()

		_, err := f.handler.Handle(ctx, ConfirmPaymentCommand{SubscriptionID: uuid.New(), Amount: money("-5"), Method: "PIX"})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = f.handler.Handle(ctx, ConfirmPaymentCommand{SubscriptionID: uuid.New(), Amount: money("5"), Method: "CHEQUE"})
		assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)

		_, err = f.handler.Handle(ctx, ConfirmPaymentCommand{Amount: money("5"), Method: "PIX"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})
}
