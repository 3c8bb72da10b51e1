package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxTrialDays bounds the trial length accepted at onboarding.
const MaxTrialDays = 365

// Subscription is a tenant's paid plan over time. Status and end date only
// change through the methods below.
type Subscription struct {
	sharedDomain.BaseAggregateRoot
	tenantID    uuid.UUID
	plan        PlanID
	cycle       BillingCycle
	billingType BillingType
	status      SubscriptionStatus
	price       decimal.Decimal
	trialDays   int
	endDate     time.Time
}

// NewSubscription starts a subscription in TRIAL that expires trialDays after now.
func NewSubscription(
	tenantID uuid.UUID,
	plan PlanID,
	cycle BillingCycle,
	billingType BillingType,
	price decimal.Decimal,
	trialDays int,
	now time.Time,
) (*Subscription, error) {
	if !cycle.IsValid() {
		return nil, ErrInvalidBillingCycle
	}
	if !billingType.IsValid() {
		return nil, ErrInvalidBillingType
	}
	if price.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if trialDays < 0 || trialDays > MaxTrialDays {
		return nil, ErrInvalidTrialDays
	}

	now = now.UTC()
	return &Subscription{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		tenantID:          tenantID,
		plan:              plan,
		cycle:             cycle,
		billingType:       billingType,
		status:            StatusTrial,
		price:             price,
		trialDays:         trialDays,
		endDate:           now.AddDate(0, 0, trialDays),
	}, nil
}

// RehydrateSubscription recreates a subscription from persisted state.
func RehydrateSubscription(
	entity sharedDomain.BaseEntity,
	tenantID uuid.UUID,
	plan PlanID,
	cycle BillingCycle,
	billingType BillingType,
	status SubscriptionStatus,
	price decimal.Decimal,
	trialDays int,
	endDate time.Time,
) *Subscription {
	return &Subscription{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity),
		tenantID:          tenantID,
		plan:              plan,
		cycle:             cycle,
		billingType:       billingType,
		status:            status,
		price:             price,
		trialDays:         trialDays,
		endDate:           endDate.UTC(),
	}
}

func (s *Subscription) TenantID() uuid.UUID        { return s.tenantID }
func (s *Subscription) Plan() PlanID               { return s.plan }
func (s *Subscription) BillingCycle() BillingCycle { return s.cycle }
func (s *Subscription) BillingType() BillingType   { return s.billingType }
func (s *Subscription) Status() SubscriptionStatus { return s.status }
func (s *Subscription) Price() decimal.Decimal     { return s.price }
func (s *Subscription) TrialDays() int             { return s.trialDays }
func (s *Subscription) EndDate() time.Time         { return s.endDate }

// HasAccess reports whether the tenant may use the product.
func (s *Subscription) HasAccess() bool {
	return s.status != StatusSuspended
}

// IsOverdue reports whether a trial or active period ended before asOf.
func (s *Subscription) IsOverdue(asOf time.Time) bool {
	switch s.status {
	case StatusTrial, StatusActive:
		return s.endDate.Before(asOf)
	case StatusPastDue, StatusSuspended:
		return false
	default:
		return false
	}
}

// ChangePlan swaps plan, cycle, billing type and price. Status and end date
// stay on the existing cadence.
func (s *Subscription) ChangePlan(plan PlanID, cycle BillingCycle, billingType BillingType, price decimal.Decimal, now time.Time) error {
	if !cycle.IsValid() {
		return ErrInvalidBillingCycle
	}
	if !billingType.IsValid() {
		return ErrInvalidBillingType
	}
	if price.IsNegative() {
		return ErrInvalidAmount
	}

	previous := s.plan
	s.plan = plan
	s.cycle = cycle
	s.billingType = billingType
	s.price = price
	s.Touch(now)
	s.AddDomainEvent(NewPlanSwitched(s, previous, now))
	return nil
}

// Renew activates the subscription for one billing cycle starting at now.
// Any status can be renewed.
func (s *Subscription) Renew(now time.Time) {
	now = now.UTC()
	s.status = StatusActive
	s.endDate = s.cycle.Advance(now)
	s.Touch(now)
}

// MarkPastDue flags a late payment without revoking access.
func (s *Subscription) MarkPastDue(now time.Time) {
	previous := s.status
	s.status = StatusPastDue
	s.Touch(now)
	s.AddDomainEvent(NewSubscriptionStatusChanged(s, previous, RoutingKeyPastDue, now))
}

// Suspend revokes access.
func (s *Subscription) Suspend(now time.Time) {
	previous := s.status
	s.status = StatusSuspended
	s.Touch(now)
	s.AddDomainEvent(NewSubscriptionStatusChanged(s, previous, RoutingKeySuspended, now))
}
