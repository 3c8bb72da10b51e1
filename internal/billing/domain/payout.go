package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferenceMonthLayout formats the month a payout belongs to.
const ReferenceMonthLayout = "2006-01"

// CommissionPayout is one month of commission owed to a partner for an invoice.
type CommissionPayout struct {
	sharedDomain.BaseEntity
	partnerID      uuid.UUID
	invoiceID      uuid.UUID
	amount         decimal.Decimal
	dueDate        time.Time
	status         PayoutStatus
	referenceMonth string
	canceledAt     *time.Time
}

// RehydrateCommissionPayout recreates a payout from persisted state.
func RehydrateCommissionPayout(
	entity sharedDomain.BaseEntity,
	partnerID, invoiceID uuid.UUID,
	amount decimal.Decimal,
	dueDate time.Time,
	status PayoutStatus,
	referenceMonth string,
	canceledAt *time.Time,
) *CommissionPayout {
	return &CommissionPayout{
		BaseEntity:     entity,
		partnerID:      partnerID,
		invoiceID:      invoiceID,
		amount:         amount,
		dueDate:        dueDate.UTC(),
		status:         status,
		referenceMonth: referenceMonth,
		canceledAt:     canceledAt,
	}
}

func (p *CommissionPayout) PartnerID() uuid.UUID    { return p.partnerID }
func (p *CommissionPayout) InvoiceID() uuid.UUID    { return p.invoiceID }
func (p *CommissionPayout) Amount() decimal.Decimal { return p.amount }
func (p *CommissionPayout) DueDate() time.Time      { return p.dueDate }
func (p *CommissionPayout) Status() PayoutStatus    { return p.status }
func (p *CommissionPayout) ReferenceMonth() string  { return p.referenceMonth }
func (p *CommissionPayout) CanceledAt() *time.Time  { return p.canceledAt }

// Cancel voids a pending payout.
func (p *CommissionPayout) Cancel(now time.Time) error {
	if p.status != PayoutPending {
		return ErrPayoutNotPending
	}
	now = now.UTC()
	p.status = PayoutCanceled
	p.canceledAt = &now
	p.Touch(now)
	return nil
}

// CommissionAmount is the monthly commission for a plan's full list price,
// rounded to cents. Discounts on the actual charge never enter this figure.
func CommissionAmount(fullMonthlyPrice, percentage decimal.Decimal) decimal.Decimal {
	return fullMonthlyPrice.Mul(percentage).Div(hundred).Round(2)
}

// BuildPayoutSchedule materializes one pending payout per month covered by
// cycle, the first due at now and each following one a calendar month later.
// Month-end dates clamp to the last day of shorter months.
func BuildPayoutSchedule(partnerID, invoiceID uuid.UUID, amount decimal.Decimal, cycle BillingCycle, now time.Time) []*CommissionPayout {
	now = now.UTC()
	months := cycle.MonthsCovered()
	payouts := make([]*CommissionPayout, 0, months)
	for i := 0; i < months; i++ {
		due := addCalendarMonths(now, i)
		payouts = append(payouts, &CommissionPayout{
			BaseEntity:     sharedDomain.NewBaseEntity(now),
			partnerID:      partnerID,
			invoiceID:      invoiceID,
			amount:         amount,
			dueDate:        due,
			status:         PayoutPending,
			referenceMonth: due.Format(ReferenceMonthLayout),
		})
	}
	return payouts
}

// TotalAmount sums payout amounts.
func TotalAmount(payouts []*CommissionPayout) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payouts {
		total = total.Add(p.amount)
	}
	return total
}
