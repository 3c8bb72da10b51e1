package commands

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() *clock.FixedClock {
	return clock.NewFixedClock(testNow)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// committingUoW expects one transaction that commits.
func committingUoW(ctx context.Context) (*mockUnitOfWork, context.Context) {
	uow := new(mockUnitOfWork)
	txCtx := context.WithValue(ctx, "tx", "transaction")
	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Commit", txCtx).Return(nil)
	return uow, txCtx
}

// rollingBackUoW expects one transaction that rolls back.
func rollingBackUoW(ctx context.Context) (*mockUnitOfWork, context.Context) {
	uow := new(mockUnitOfWork)
	txCtx := context.WithValue(ctx, "tx", "transaction")
	uow.On("Begin", ctx).Return(txCtx, nil)
	uow.On("Rollback", txCtx).Return(nil)
	return uow, txCtx
}

func acceptingOutbox(txCtx context.Context) *mockOutboxRepo {
	repo := new(mockOutboxRepo)
	repo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)
	return repo
}

func newTenant(t *testing.T, slug string, source domain.ReferralSource) *domain.Tenant {
	t.Helper()
	tenant, err := domain.NewTenant("Shop "+slug, slug, "", source, testNow)
	require.NoError(t, err)
	return tenant
}

func newOwner(t *testing.T, tenantID uuid.UUID) *domain.Owner {
	t.Helper()
	owner, err := domain.NewOwner(tenantID, "Carlos", "carlos@barber.io", "", "hash", testNow)
	require.NoError(t, err)
	return owner
}

func newSubscription(t *testing.T, tenantID uuid.UUID, plan domain.PlanID, cycle domain.BillingCycle, price string) *domain.Subscription {
	t.Helper()
	sub, err := domain.NewSubscription(tenantID, plan, cycle, domain.BillingPrepaid, decimal.RequireFromString(price), 14, testNow.AddDate(0, -1, 0))
	require.NoError(t, err)
	return sub
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
