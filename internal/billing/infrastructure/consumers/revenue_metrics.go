// Package consumers reacts to billing events relayed from the outbox.
package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
	"github.com/felixgeelhaar/trimly/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/trimly/pkg/observability"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueMetricsConsumer projects billing events into the revenue counters.
type RevenueMetricsConsumer struct {
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewRevenueMetricsConsumer creates a new RevenueMetricsConsumer.
func NewRevenueMetricsConsumer(metrics *observability.Metrics, logger *slog.Logger) *RevenueMetricsConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RevenueMetricsConsumer{metrics: metrics, logger: logger}
}

// EventTypes returns the routing keys this consumer handles.
func (c *RevenueMetricsConsumer) EventTypes() []string {
	return []string{
		domain.RoutingKeyPaymentConfirmed,
		domain.RoutingKeyRewardRedeemed,
		domain.RoutingKeyCommissionsScheduled,
		domain.RoutingKeyCommissionsCanceled,
	}
}

type paymentConfirmedPayload struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	Discount       decimal.Decimal `json:"discount"`
}

type commissionsScheduledPayload struct {
	PartnerID uuid.UUID       `json:"partner_id"`
	Months    int             `json:"months"`
	Total     decimal.Decimal `json:"total"`
}

type commissionsCanceledPayload struct {
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	PayoutIDs      []uuid.UUID     `json:"payout_ids"`
	Total          decimal.Decimal `json:"total"`
}

// Handle processes the event.
func (c *RevenueMetricsConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	switch event.RoutingKey {
	case domain.RoutingKeyPaymentConfirmed:
		var p paymentConfirmedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		c.metrics.ObserveRevenue(p.Amount.InexactFloat64(), p.Discount.InexactFloat64())
		c.logger.DebugContext(ctx, "revenue recorded",
			"subscription_id", p.SubscriptionID,
			"amount", p.Amount.StringFixed(2),
			"discount", p.Discount.StringFixed(2),
		)

	case domain.RoutingKeyRewardRedeemed:
		c.metrics.IncRewardsRedeemed()

	case domain.RoutingKeyCommissionsScheduled:
		var p commissionsScheduledPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		c.metrics.ObserveCommissionsScheduled(p.Total.InexactFloat64(), p.Months)

	case domain.RoutingKeyCommissionsCanceled:
		var p commissionsCanceledPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		c.metrics.AddPayoutsCanceled(len(p.PayoutIDs))
		c.logger.InfoContext(ctx, "commissions canceled",
			"subscription_id", p.SubscriptionID,
			"payouts", len(p.PayoutIDs),
			"total", p.Total.StringFixed(2),
		)

	default:
		return fmt.Errorf("revenue metrics: unexpected routing key %q", event.RoutingKey)
	}
	return nil
}

var _ eventbus.EventConsumer = (*RevenueMetricsConsumer)(nil)
