package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for billing, notifications, the
// outbox relay and the overdue sweep. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Revenue metrics, in currency units
	RevenueConfirmedTotal     prometheus.Counter
	DiscountsGrantedTotal     prometheus.Counter
	RewardsRedeemedTotal      prometheus.Counter
	CommissionsScheduledTotal prometheus.Counter
	PayoutsScheduledTotal     prometheus.Counter
	PayoutsCanceledTotal      prometheus.Counter

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec

	// Outbox metrics
	OutboxMessagesTotal *prometheus.CounterVec
	OutboxLagSeconds    prometheus.Gauge

	// Sweep metrics
	OverdueMarkedTotal prometheus.Counter
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimly_billing_operations_total",
				Help: "Total number of billing operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trimly_billing_operation_duration_seconds",
				Help:    "Billing operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RevenueConfirmedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_revenue_confirmed_total",
			Help: "Sum of confirmed invoice amounts",
		}),
		DiscountsGrantedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_discounts_granted_total",
			Help: "Sum of referral reward discounts",
		}),
		RewardsRedeemedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_referral_rewards_redeemed_total",
			Help: "Number of referral rewards redeemed",
		}),
		CommissionsScheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_commissions_scheduled_total",
			Help: "Sum of scheduled partner commission amounts",
		}),
		PayoutsScheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_commission_payouts_scheduled_total",
			Help: "Number of commission payout rows scheduled",
		}),
		PayoutsCanceledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_commission_payouts_canceled_total",
			Help: "Number of commission payout rows canceled",
		}),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimly_notifications_total",
				Help: "Notification dispatches by sink and outcome",
			},
			[]string{"sink", "outcome"},
		),
		OutboxMessagesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trimly_outbox_messages_total",
				Help: "Outbox messages by relay outcome",
			},
			[]string{"outcome"},
		),
		OutboxLagSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trimly_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox message in the last batch",
		}),
		OverdueMarkedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trimly_overdue_subscriptions_marked_total",
			Help: "Subscriptions moved to PAST_DUE by the overdue sweep",
		}),
	}

	registry.MustRegister(
		m.OperationsTotal,
		m.OperationDuration,
		m.RevenueConfirmedTotal,
		m.DiscountsGrantedTotal,
		m.RewardsRedeemedTotal,
		m.CommissionsScheduledTotal,
		m.PayoutsScheduledTotal,
		m.PayoutsCanceledTotal,
		m.NotificationsTotal,
		m.OutboxMessagesTotal,
		m.OutboxLagSeconds,
		m.OverdueMarkedTotal,
	)

	return m
}

// ObserveOperation records the outcome and duration of a billing operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveNotification records a notification dispatch.
func (m *Metrics) ObserveNotification(sink string, err error) {
	if m == nil {
		return
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.NotificationsTotal.WithLabelValues(sink, outcome).Inc()
}

// ObserveOutbox records an outbox relay outcome: published, failed or dead.
func (m *Metrics) ObserveOutbox(outcome string) {
	if m == nil {
		return
	}
	m.OutboxMessagesTotal.WithLabelValues(outcome).Inc()
}

// SetOutboxLag sets the outbox lag gauge.
func (m *Metrics) SetOutboxLag(seconds float64) {
	if m == nil {
		return
	}
	m.OutboxLagSeconds.Set(seconds)
}

// AddOverdueMarked counts subscriptions moved to PAST_DUE by a sweep.
func (m *Metrics) AddOverdueMarked(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.OverdueMarkedTotal.Add(float64(n))
}

// ObserveRevenue adds a confirmed payment to the revenue counters.
func (m *Metrics) ObserveRevenue(amount, discount float64) {
	if m == nil {
		return
	}
	if amount > 0 {
		m.RevenueConfirmedTotal.Add(amount)
	}
	if discount > 0 {
		m.DiscountsGrantedTotal.Add(discount)
	}
}

// IncRewardsRedeemed counts one redeemed referral reward.
func (m *Metrics) IncRewardsRedeemed() {
	if m == nil {
		return
	}
	m.RewardsRedeemedTotal.Inc()
}

// ObserveCommissionsScheduled records a scheduled payout batch.
func (m *Metrics) ObserveCommissionsScheduled(total float64, payouts int) {
	if m == nil {
		return
	}
	if total > 0 {
		m.CommissionsScheduledTotal.Add(total)
	}
	if payouts > 0 {
		m.PayoutsScheduledTotal.Add(float64(payouts))
	}
}

// AddPayoutsCanceled counts canceled payout rows.
func (m *Metrics) AddPayoutsCanceled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PayoutsCanceledTotal.Add(float64(n))
}

// RegisterMetricsEndpoint registers the /metrics endpoint.
func RegisterMetricsEndpoint(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
