package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every billing error wraps exactly one of these so callers can
// branch with errors.Is without knowing the specific failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrNotFound          = errors.New("not found")
	ErrNoRewardAvailable = errors.New("no referral reward available")
)

var (
	ErrUnknownPlan           = fmt.Errorf("%w: unknown plan", ErrValidation)
	ErrInvalidBillingCycle   = fmt.Errorf("%w: invalid billing cycle", ErrValidation)
	ErrInvalidBillingType    = fmt.Errorf("%w: invalid billing type", ErrValidation)
	ErrInvalidPaymentMethod  = fmt.Errorf("%w: invalid payment method", ErrValidation)
	ErrInvalidAmount         = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	ErrInvalidTrialDays      = fmt.Errorf("%w: trial days must be between 0 and 365", ErrValidation)
	ErrInvalidCommission     = fmt.Errorf("%w: commission percentage must be between 0 and 100", ErrValidation)
	ErrInvalidReferralCode   = fmt.Errorf("%w: invalid referral code", ErrValidation)
	ErrDiscountExceedsPrice  = fmt.Errorf("%w: discount exceeds nominal price", ErrValidation)
	ErrIncompletePayment     = fmt.Errorf("%w: payment method and paid amount must be supplied together", ErrValidation)
	ErrEmptyName             = fmt.Errorf("%w: name is required", ErrValidation)
	ErrInvalidSlug           = fmt.Errorf("%w: slug must contain only lowercase letters, digits and hyphens", ErrValidation)
	ErrInvalidEmail          = fmt.Errorf("%w: invalid email", ErrValidation)
	ErrInvalidPartnerRole    = fmt.Errorf("%w: unknown partner role", ErrValidation)
	ErrPayoutNotPending      = fmt.Errorf("%w: payout is not pending", ErrValidation)
	ErrDuplicateSlug         = fmt.Errorf("%w: slug already in use", ErrConflict)
	ErrDuplicateReferralCode = fmt.Errorf("%w: referral code already in use", ErrConflict)
	ErrDuplicateEmail        = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrPartnerInactive       = fmt.Errorf("%w: referring partner is inactive", ErrConflict)
	ErrTenantNotFound        = fmt.Errorf("%w: tenant", ErrNotFound)
	ErrSubscriptionNotFound  = fmt.Errorf("%w: subscription", ErrNotFound)
	ErrPartnerNotFound       = fmt.Errorf("%w: partner", ErrNotFound)
	ErrInvoiceNotFound       = fmt.Errorf("%w: invoice", ErrNotFound)
	ErrOwnerNotFound         = fmt.Errorf("%w: owner", ErrNotFound)
)
