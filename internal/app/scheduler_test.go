package app

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/trimly/internal/billing/application/commands"
	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RegistersConfiguredJobs(t *testing.T) {
	h := newHarness(t)
	cfg := h.container.Config

	cfg.OverdueSweepEnabled = true
	cfg.OverdueSweepSchedule = "@every 1h"
	cfg.OutboxCleanupSchedule = "@daily"
	s, err := NewScheduler(h.container)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())

	cfg.OverdueSweepEnabled = false
	cfg.OutboxCleanupSchedule = ""
	s, err = NewScheduler(h.container)
	require.NoError(t, err)
	assert.Zero(t, s.Jobs())
}

func TestScheduler_RejectsInvalidSchedule(t *testing.T) {
	h := newHarness(t)
	h.container.Config.OverdueSweepEnabled = true
	h.container.Config.OverdueSweepSchedule = "every hour"

	_, err := NewScheduler(h.container)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid overdue sweep schedule")
}

func TestScheduler_StartStop(t *testing.T) {
	h := newHarness(t)
	h.container.Config.OverdueSweepEnabled = true
	h.container.Config.OverdueSweepSchedule = "@every 1h"

	s, err := NewScheduler(h.container)
	require.NoError(t, err)

	s.Start(context.Background())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
	assert.NoError(t, ctx.Err())
}

func TestScheduler_SweepAndCleanup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.container
	c.Config.OutboxRetentionDays = 7

	s, err := NewScheduler(c)
	require.NoError(t, err)

	tenant := h.onboard(t, "nightly", "", "", nil, "BASIC", "MONTHLY")
	_, err = c.ConfirmPaymentHandler.Handle(ctx, commands.ConfirmPaymentCommand{
		SubscriptionID: tenant.Subscription.ID(),
		Amount:         decimal.RequireFromString("59.90"),
		Method:         "PIX",
	})
	require.NoError(t, err)

	h.clock.Advance(31 * 24 * time.Hour)
	result, err := s.SweepOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Marked)

	sub, err := c.Repositories.Subscriptions.FindByID(ctx, tenant.Subscription.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPastDue, sub.Status())

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))

	deleted, err := s.CleanupOutbox(ctx)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	h.clock.Advance(8 * 24 * time.Hour)
	deleted, err = s.CleanupOutbox(ctx)
	require.NoError(t, err)
	assert.Positive(t, deleted)
}
