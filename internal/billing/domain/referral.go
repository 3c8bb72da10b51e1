package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ReferralKind says who acquired a tenant.
type ReferralKind int

const (
	ReferralNone ReferralKind = iota
	ReferralTenant
	ReferralPartner
)

func (k ReferralKind) String() string {
	switch k {
	case ReferralTenant:
		return "tenant"
	case ReferralPartner:
		return "partner"
	default:
		return "none"
	}
}

// ReferralSource is the resolved acquisition channel of a new tenant.
// At most one of the referrer ids is set.
type ReferralSource struct {
	kind      ReferralKind
	tenantID  uuid.UUID
	partnerID uuid.UUID
}

// NoReferral is the source of a tenant that nobody referred.
func NoReferral() ReferralSource {
	return ReferralSource{kind: ReferralNone}
}

// ReferredByTenant builds a source pointing at the tenant that owns the referral code.
func ReferredByTenant(tenantID uuid.UUID) ReferralSource {
	return ReferralSource{kind: ReferralTenant, tenantID: tenantID}
}

// ReferredByPartner builds a source pointing at an affiliate partner.
func ReferredByPartner(partnerID uuid.UUID) ReferralSource {
	return ReferralSource{kind: ReferralPartner, partnerID: partnerID}
}

func (s ReferralSource) Kind() ReferralKind { return s.kind }

// TenantID returns the referring tenant, if any.
func (s ReferralSource) TenantID() (uuid.UUID, bool) {
	return s.tenantID, s.kind == ReferralTenant
}

// PartnerID returns the referring partner, if any.
func (s ReferralSource) PartnerID() (uuid.UUID, bool) {
	return s.partnerID, s.kind == ReferralPartner
}

// ChooseReferralSource applies the acquisition precedence: a tenant found by
// referral code always wins over a partner id supplied in the same request,
// and the partner id is then discarded.
func ChooseReferralSource(codeOwner, partnerID *uuid.UUID) ReferralSource {
	switch {
	case codeOwner != nil:
		return ReferredByTenant(*codeOwner)
	case partnerID != nil:
		return ReferredByPartner(*partnerID)
	default:
		return NoReferral()
	}
}

// NormalizeReferralCode upper-cases and trims a code as typed by a user.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
