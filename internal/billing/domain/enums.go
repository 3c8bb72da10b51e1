package domain

import (
	"fmt"
	"strings"
	"time"
)

// BillingCycle is how often a subscription renews.
type BillingCycle string

const (
	CycleMonthly      BillingCycle = "MONTHLY"
	CycleSemiannually BillingCycle = "SEMIANNUALLY"
	CycleAnnually     BillingCycle = "ANNUALLY"
)

// ParseBillingCycle parses a case-insensitive cycle name.
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBillingCycle, s)
	}
	return c, nil
}

// IsValid checks if the cycle is known.
func (c BillingCycle) IsValid() bool {
	switch c {
	case CycleMonthly, CycleSemiannually, CycleAnnually:
		return true
	default:
		return false
	}
}

// MonthsCovered is the number of months one payment on this cycle pays for.
func (c BillingCycle) MonthsCovered() int {
	switch c {
	case CycleAnnually:
		return 12
	case CycleSemiannually:
		return 6
	default:
		return 1
	}
}

// Advance returns the next renewal date for a payment made at from.
// Monthly renewals are a flat 30 days; longer cycles move by calendar months.
func (c BillingCycle) Advance(from time.Time) time.Time {
	switch c {
	case CycleAnnually:
		return addCalendarMonths(from, 12)
	case CycleSemiannually:
		return addCalendarMonths(from, 6)
	default:
		return from.AddDate(0, 0, 30)
	}
}

// addCalendarMonths moves t by n calendar months, clamping the day to the
// last day of the target month so Jan 31 + 1 is Feb 28 (or 29).
func addCalendarMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// BillingType tells whether a tenant pays before or after the period.
type BillingType string

const (
	BillingPrepaid  BillingType = "PREPAID"
	BillingPostpaid BillingType = "POSTPAID"
)

// ParseBillingType parses a case-insensitive billing type.
func ParseBillingType(s string) (BillingType, error) {
	t := BillingType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBillingType, s)
	}
	return t, nil
}

// IsValid checks if the billing type is known.
func (t BillingType) IsValid() bool {
	return t == BillingPrepaid || t == BillingPostpaid
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "TRIAL"
	StatusActive    SubscriptionStatus = "ACTIVE"
	StatusPastDue   SubscriptionStatus = "PAST_DUE"
	StatusSuspended SubscriptionStatus = "SUSPENDED"
)

// IsValid checks if the status is known.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPastDue, StatusSuspended:
		return true
	default:
		return false
	}
}

// InvoiceStatus is the payment state of an invoice.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "PENDING"
	InvoicePaid    InvoiceStatus = "PAID"
)

// PayoutStatus is the state of a commission payout.
type PayoutStatus string

const (
	PayoutPending  PayoutStatus = "PENDING"
	PayoutCanceled PayoutStatus = "CANCELED"
)

// PaymentMethod is how an invoice was settled.
type PaymentMethod string

const (
	PaymentPix          PaymentMethod = "PIX"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentBoleto       PaymentMethod = "BOLETO"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentCash         PaymentMethod = "CASH"
)

// ParsePaymentMethod parses a case-insensitive payment method.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)
	}
	return m, nil
}

// IsValid checks if the payment method is known.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentPix, PaymentCreditCard, PaymentDebitCard, PaymentBoleto, PaymentBankTransfer, PaymentCash:
		return true
	default:
		return false
	}
}

// PartnerRole distinguishes commission-earning affiliates from other accounts
// kept in the partners table.
type PartnerRole string

const (
	RolePartner PartnerRole = "PARTNER"
	RoleSupport PartnerRole = "SUPPORT"
)

// IsValid checks if the role is known.
func (r PartnerRole) IsValid() bool {
	return r == RolePartner || r == RoleSupport
}
