package services

import (
	"context"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/clock"
	"github.com/google/uuid"
)

// CommissionCanceler voids payouts that would fall due after a subscription
// stops. Payouts already due are left as earned.
type CommissionCanceler struct {
	invoices domain.InvoiceRepository
	payouts  domain.PayoutRepository
	clock    clock.Clock
}

// NewCommissionCanceler creates a new CommissionCanceler.
func NewCommissionCanceler(invoices domain.InvoiceRepository, payouts domain.PayoutRepository, clk clock.Clock) *CommissionCanceler {
	return &CommissionCanceler{invoices: invoices, payouts: payouts, clock: clk}
}

// CancelFutureCommissions cancels every pending payout of the subscription's
// invoices that is due strictly after now.
func (c *CommissionCanceler) CancelFutureCommissions(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.CommissionPayout, error) {
	invoices, err := c.invoices.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID())
	}
	return c.payouts.CancelPendingDueAfter(ctx, ids, c.clock.Now())
}
