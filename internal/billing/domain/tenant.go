package domain

import (
	"regexp"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/trimly/internal/shared/domain"
	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant is a barbershop paying for the service.
type Tenant struct {
	sharedDomain.BaseAggregateRoot
	name                  string
	slug                  string
	referralCode          string
	referredByPartnerID   *uuid.UUID
	referredByTenantID    *uuid.UUID
	referralRewardClaimed bool
	exclusivePlan         bool
}

// NewTenant creates a tenant acquired through source. The referral linkage is
// fixed here and never changes afterwards.
func NewTenant(name, slug, referralCode string, source ReferralSource, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	t := &Tenant{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		name:              name,
		slug:              slug,
		referralCode:      NormalizeReferralCode(referralCode),
	}
	if id, ok := source.TenantID(); ok {
		t.referredByTenantID = &id
	}
	if id, ok := source.PartnerID(); ok {
		t.referredByPartnerID = &id
	}
	return t, nil
}

// RehydrateTenant recreates a tenant from persisted state.
func RehydrateTenant(
	entity sharedDomain.BaseEntity,
	name, slug, referralCode string,
	referredByPartnerID, referredByTenantID *uuid.UUID,
	rewardClaimed, exclusivePlan bool,
) *Tenant {
	return &Tenant{
		BaseAggregateRoot:     sharedDomain.RehydrateBaseAggregateRoot(entity),
		name:                  name,
		slug:                  slug,
		referralCode:          referralCode,
		referredByPartnerID:   referredByPartnerID,
		referredByTenantID:    referredByTenantID,
		referralRewardClaimed: rewardClaimed,
		exclusivePlan:         exclusivePlan,
	}
}

func (t *Tenant) Name() string                    { return t.name }
func (t *Tenant) Slug() string                    { return t.slug }
func (t *Tenant) ReferralCode() string            { return t.referralCode }
func (t *Tenant) ReferredByPartnerID() *uuid.UUID { return t.referredByPartnerID }
func (t *Tenant) ReferredByTenantID() *uuid.UUID  { return t.referredByTenantID }
func (t *Tenant) ReferralRewardClaimed() bool     { return t.referralRewardClaimed }
func (t *Tenant) IsExclusivePlan() bool           { return t.exclusivePlan }

// ReferralSource returns how the tenant was acquired.
func (t *Tenant) ReferralSource() ReferralSource {
	return ChooseReferralSource(t.referredByTenantID, t.referredByPartnerID)
}

// ApplyPlan recomputes the exclusive-plan flag after a plan change.
func (t *Tenant) ApplyPlan(plan PlanID, now time.Time) {
	exclusive := plan == PlanExclusive
	if exclusive == t.exclusivePlan {
		return
	}
	t.exclusivePlan = exclusive
	t.Touch(now)
}

// MarkRewardClaimed records that this tenant has funded a referral discount.
// It reports false when the reward was already claimed.
func (t *Tenant) MarkRewardClaimed(now time.Time) bool {
	if t.referralRewardClaimed {
		return false
	}
	t.referralRewardClaimed = true
	t.Touch(now)
	return true
}
