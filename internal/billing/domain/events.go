package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AggregateTenant       = "Tenant"
	AggregateSubscription = "Subscription"
	AggregatePartner      = "Partner"
	AggregateInvoice      = "Invoice"
)

// Routing keys published through the outbox.
const (
	RoutingKeyTenantOnboarded      = "billing.tenant.onboarded"
	RoutingKeyPlanSwitched         = "billing.subscription.plan_switched"
	RoutingKeyPaymentConfirmed     = "billing.payment.confirmed"
	RoutingKeyInvoiceCreated       = "billing.invoice.created"
	RoutingKeyCommissionsScheduled = "billing.commissions.scheduled"
	RoutingKeyPastDue              = "billing.subscription.past_due"
	RoutingKeySuspended            = "billing.subscription.suspended"
	RoutingKeyCommissionsCanceled  = "billing.commissions.canceled"
	RoutingKeyRewardRedeemed       = "billing.reward.redeemed"
	RoutingKeyPartnerCreated       = "billing.partner.created"
	RoutingKeyPartnerStatusChanged = "billing.partner.status_changed"
)

// TenantOnboarded is emitted when a tenant and its trial subscription are created.
type TenantOnboarded struct {
	sharedDomain.BaseEvent
	TenantID            uuid.UUID       `json:"tenant_id"`
	SubscriptionID      uuid.UUID       `json:"subscription_id"`
	OwnerID             uuid.UUID       `json:"owner_id"`
	Slug                string          `json:"slug"`
	Plan                PlanID          `json:"plan"`
	BillingCycle        BillingCycle    `json:"billing_cycle"`
	Price               decimal.Decimal `json:"price"`
	TrialEndsAt         time.Time       `json:"trial_ends_at"`
	ReferredByTenantID  *uuid.UUID      `json:"referred_by_tenant_id,omitempty"`
	ReferredByPartnerID *uuid.UUID      `json:"referred_by_partner_id,omitempty"`
}

// NewTenantOnboarded creates a TenantOnboarded event.
func NewTenantOnboarded(t *Tenant, s *Subscription, ownerID uuid.UUID, now time.Time) *TenantOnboarded {
	return &TenantOnboarded{
		BaseEvent:           sharedDomain.NewBaseEvent(t.ID(), AggregateTenant, RoutingKeyTenantOnboarded, now),
		TenantID:            t.ID(),
		SubscriptionID:      s.ID(),
		OwnerID:             ownerID,
		Slug:                t.Slug(),
		Plan:                s.Plan(),
		BillingCycle:        s.BillingCycle(),
		Price:               s.Price(),
		TrialEndsAt:         s.EndDate(),
		ReferredByTenantID:  t.ReferredByTenantID(),
		ReferredByPartnerID: t.ReferredByPartnerID(),
	}
}

// PlanSwitched is emitted when a subscription changes plan, cycle or price.
type PlanSwitched struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	PreviousPlan   PlanID          `json:"previous_plan"`
	Plan           PlanID          `json:"plan"`
	BillingCycle   BillingCycle    `json:"billing_cycle"`
	BillingType    BillingType     `json:"billing_type"`
	Price          decimal.Decimal `json:"price"`
}

// NewPlanSwitched creates a PlanSwitched event.
func NewPlanSwitched(s *Subscription, previous PlanID, now time.Time) *PlanSwitched {
	return &PlanSwitched{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), AggregateSubscription, RoutingKeyPlanSwitched, now),
		SubscriptionID: s.ID(),
		TenantID:       s.TenantID(),
		PreviousPlan:   previous,
		Plan:           s.Plan(),
		BillingCycle:   s.BillingCycle(),
		BillingType:    s.BillingType(),
		Price:          s.Price(),
	}
}

// PaymentConfirmed is emitted when a payment activates a subscription.
type PaymentConfirmed struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	Plan           PlanID          `json:"plan"`
	Amount         decimal.Decimal `json:"amount"`
	Discount       decimal.Decimal `json:"discount"`
	Method         PaymentMethod   `json:"method"`
	EndDate        time.Time       `json:"end_date"`
}

// NewPaymentConfirmed creates a PaymentConfirmed event.
func NewPaymentConfirmed(s *Subscription, inv *Invoice, now time.Time) *PaymentConfirmed {
	return &PaymentConfirmed{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), AggregateSubscription, RoutingKeyPaymentConfirmed, now),
		SubscriptionID: s.ID(),
		TenantID:       s.TenantID(),
		InvoiceID:      inv.ID(),
		Plan:           s.Plan(),
		Amount:         inv.Amount(),
		Discount:       inv.Discount(),
		Method:         inv.PaymentMethod(),
		EndDate:        s.EndDate(),
	}
}

// InvoiceCreated is emitted for every new invoice.
type InvoiceCreated struct {
	sharedDomain.BaseEvent
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	Amount         decimal.Decimal `json:"amount"`
	Discount       decimal.Decimal `json:"discount"`
	Status         InvoiceStatus   `json:"status"`
	Reference      string          `json:"reference"`
	DueDate        time.Time       `json:"due_date"`
}

// NewInvoiceCreated creates an InvoiceCreated event.
func NewInvoiceCreated(inv *Invoice, now time.Time) *InvoiceCreated {
	return &InvoiceCreated{
		BaseEvent:      sharedDomain.NewBaseEvent(inv.ID(), AggregateInvoice, RoutingKeyInvoiceCreated, now),
		InvoiceID:      inv.ID(),
		SubscriptionID: inv.SubscriptionID(),
		Amount:         inv.Amount(),
		Discount:       inv.Discount(),
		Status:         inv.Status(),
		Reference:      inv.Reference(),
		DueDate:        inv.DueDate(),
	}
}

// CommissionsScheduled is emitted when a payment materializes partner payouts.
type CommissionsScheduled struct {
	sharedDomain.BaseEvent
	PartnerID     uuid.UUID       `json:"partner_id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	MonthlyAmount decimal.Decimal `json:"monthly_amount"`
	Months        int             `json:"months"`
	Total         decimal.Decimal `json:"total"`
}

// NewCommissionsScheduled creates a CommissionsScheduled event. payouts must
// not be empty.
func NewCommissionsScheduled(payouts []*CommissionPayout, now time.Time) *CommissionsScheduled {
	first := payouts[0]
	return &CommissionsScheduled{
		BaseEvent:     sharedDomain.NewBaseEvent(first.PartnerID(), AggregatePartner, RoutingKeyCommissionsScheduled, now),
		PartnerID:     first.PartnerID(),
		InvoiceID:     first.InvoiceID(),
		MonthlyAmount: first.Amount(),
		Months:        len(payouts),
		Total:         TotalAmount(payouts),
	}
}

// SubscriptionStatusChanged is emitted on past-due and suspension transitions.
type SubscriptionStatusChanged struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID          `json:"subscription_id"`
	TenantID       uuid.UUID          `json:"tenant_id"`
	PreviousStatus SubscriptionStatus `json:"previous_status"`
	Status         SubscriptionStatus `json:"status"`
}

// NewSubscriptionStatusChanged creates a SubscriptionStatusChanged event.
func NewSubscriptionStatusChanged(s *Subscription, previous SubscriptionStatus, routingKey string, now time.Time) *SubscriptionStatusChanged {
	return &SubscriptionStatusChanged{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), AggregateSubscription, routingKey, now),
		SubscriptionID: s.ID(),
		TenantID:       s.TenantID(),
		PreviousStatus: previous,
		Status:         s.Status(),
	}
}

// CommissionsCanceled is emitted when a suspension voids future payouts.
type CommissionsCanceled struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	PayoutIDs      []uuid.UUID     `json:"payout_ids"`
	Total          decimal.Decimal `json:"total"`
}

// NewCommissionsCanceled creates a CommissionsCanceled event.
func NewCommissionsCanceled(subscriptionID uuid.UUID, payouts []*CommissionPayout, now time.Time) *CommissionsCanceled {
	ids := make([]uuid.UUID, 0, len(payouts))
	for _, p := range payouts {
		ids = append(ids, p.ID())
	}
	return &CommissionsCanceled{
		BaseEvent:      sharedDomain.NewBaseEvent(subscriptionID, AggregateSubscription, RoutingKeyCommissionsCanceled, now),
		SubscriptionID: subscriptionID,
		PayoutIDs:      ids,
		Total:          TotalAmount(payouts),
	}
}

// RewardRedeemed is emitted when a referred tenant funds a discount.
type RewardRedeemed struct {
	sharedDomain.BaseEvent
	SubscriptionID uuid.UUID       `json:"subscription_id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	SourceTenantID uuid.UUID       `json:"source_tenant_id"`
	Discount       decimal.Decimal `json:"discount"`
}

// NewRewardRedeemed creates a RewardRedeemed event.
func NewRewardRedeemed(s *Subscription, r *RewardRedemption, now time.Time) *RewardRedeemed {
	return &RewardRedeemed{
		BaseEvent:      sharedDomain.NewBaseEvent(s.ID(), AggregateSubscription, RoutingKeyRewardRedeemed, now),
		SubscriptionID: s.ID(),
		TenantID:       s.TenantID(),
		SourceTenantID: r.SourceTenantID,
		Discount:       r.Discount,
	}
}

// PartnerCreated is emitted when an operator registers a partner.
type PartnerCreated struct {
	sharedDomain.BaseEvent
	PartnerID            uuid.UUID       `json:"partner_id"`
	Role                 PartnerRole     `json:"role"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

// NewPartnerCreated creates a PartnerCreated event.
func NewPartnerCreated(p *Partner, now time.Time) *PartnerCreated {
	return &PartnerCreated{
		BaseEvent:            sharedDomain.NewBaseEvent(p.ID(), AggregatePartner, RoutingKeyPartnerCreated, now),
		PartnerID:            p.ID(),
		Role:                 p.Role(),
		CommissionPercentage: p.CommissionPercentage(),
	}
}

// PartnerStatusChanged is emitted when a partner is activated or deactivated.
type PartnerStatusChanged struct {
	sharedDomain.BaseEvent
	PartnerID uuid.UUID `json:"partner_id"`
	Active    bool      `json:"active"`
}

// NewPartnerStatusChanged creates a PartnerStatusChanged event.
func NewPartnerStatusChanged(p *Partner, now time.Time) *PartnerStatusChanged {
	return &PartnerStatusChanged{
		BaseEvent: sharedDomain.NewBaseEvent(p.ID(), AggregatePartner, RoutingKeyPartnerStatusChanged, now),
		PartnerID: p.ID(),
		Active:    p.IsActive(),
	}
}
