package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardRedemption is a consumed referral reward applied to one payment.
type RewardRedemption struct {
	SourceTenantID uuid.UUID
	Discount       decimal.Decimal
}

// RewardDiscount infers the discount a caller granted by charging amount
// instead of the subscription price. It is never negative.
func RewardDiscount(price, amount decimal.Decimal) decimal.Decimal {
	discount := price.Sub(amount)
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// CommissionRequest carries what a scheduler needs to pay a partner for a
// confirmed payment.
type CommissionRequest struct {
	Tenant       *Tenant
	Subscription *Subscription
	Invoice      *Invoice
	Now          time.Time
}

// CommissionScheduler creates the payouts owed for a confirmed payment. It
// runs inside the payment transaction and returns nil when no partner is owed.
type CommissionScheduler interface {
	Schedule(ctx context.Context, req CommissionRequest) ([]*CommissionPayout, error)
}
