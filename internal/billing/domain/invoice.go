package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is an immutable billing record tied to a subscription.
type Invoice struct {
	sharedDomain.BaseEntity
	subscriptionID         uuid.UUID
	amount                 decimal.Decimal
	discount               decimal.Decimal
	paymentMethod          PaymentMethod
	status                 InvoiceStatus
	reference              string
	referralRewardSourceID *uuid.UUID
	paidAt                 *time.Time
	dueDate                time.Time
}

// PaidInvoiceParams describes a payment that settles immediately.
type PaidInvoiceParams struct {
	SubscriptionID         uuid.UUID
	Amount                 decimal.Decimal
	Discount               decimal.Decimal
	NominalPrice           decimal.Decimal
	Method                 PaymentMethod
	Reference              string
	ReferralRewardSourceID *uuid.UUID
}

// NewPaidInvoice records a payment received at now. The discount may not
// exceed the nominal price of the period being paid for.
func NewPaidInvoice(p PaidInvoiceParams, now time.Time) (*Invoice, error) {
	if p.Amount.IsNegative() || p.Discount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	if p.Discount.GreaterThan(p.NominalPrice) {
		return nil, ErrDiscountExceedsPrice
	}
	if !p.Method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	now = now.UTC()
	return &Invoice{
		BaseEntity:             sharedDomain.NewBaseEntity(now),
		subscriptionID:         p.SubscriptionID,
		amount:                 p.Amount.Round(2),
		discount:               p.Discount.Round(2),
		paymentMethod:          p.Method,
		status:                 InvoicePaid,
		reference:              strings.TrimSpace(p.Reference),
		referralRewardSourceID: p.ReferralRewardSourceID,
		paidAt:                 &now,
		dueDate:                now,
	}, nil
}

// NewManualInvoice issues a pending charge due at dueDate.
func NewManualInvoice(subscriptionID uuid.UUID, amount decimal.Decimal, dueDate time.Time, reference string, now time.Time) (*Invoice, error) {
	if amount.IsNegative() {
		return nil, ErrInvalidAmount
	}
	return &Invoice{
		BaseEntity:     sharedDomain.NewBaseEntity(now),
		subscriptionID: subscriptionID,
		amount:         amount.Round(2),
		discount:       decimal.Zero,
		status:         InvoicePending,
		reference:      strings.TrimSpace(reference),
		dueDate:        dueDate.UTC(),
	}, nil
}

// RehydrateInvoice recreates an invoice from persisted state.
func RehydrateInvoice(
	entity sharedDomain.BaseEntity,
	subscriptionID uuid.UUID,
	amount, discount decimal.Decimal,
	method PaymentMethod,
	status InvoiceStatus,
	reference string,
	rewardSourceID *uuid.UUID,
	paidAt *time.Time,
	dueDate time.Time,
) *Invoice {
	return &Invoice{
		BaseEntity:             entity,
		subscriptionID:         subscriptionID,
		amount:                 amount,
		discount:               discount,
		paymentMethod:          method,
		status:                 status,
		reference:              reference,
		referralRewardSourceID: rewardSourceID,
		paidAt:                 paidAt,
		dueDate:                dueDate.UTC(),
	}
}

func (i *Invoice) SubscriptionID() uuid.UUID          { return i.subscriptionID }
func (i *Invoice) Amount() decimal.Decimal            { return i.amount }
func (i *Invoice) Discount() decimal.Decimal          { return i.discount }
func (i *Invoice) PaymentMethod() PaymentMethod       { return i.paymentMethod }
func (i *Invoice) Status() InvoiceStatus              { return i.status }
func (i *Invoice) Reference() string                  { return i.reference }
func (i *Invoice) ReferralRewardSourceID() *uuid.UUID { return i.referralRewardSourceID }
func (i *Invoice) PaidAt() *time.Time                 { return i.paidAt }
func (i *Invoice) DueDate() time.Time                 { return i.dueDate }
