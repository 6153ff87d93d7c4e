// Package plan maps subscription tiers to the limits and entitlements they
// grant. Every function here is pure so policy decisions stay testable.
package plan

// Tier identifies a billing plan.
type Tier string

const (
	TierFree    Tier = "free"
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
)

const (
	freeClientLimit    = 50
	starterClientLimit = 500
)

// ParseTier maps arbitrary input to a known tier, defaulting to free.
func ParseTier(raw string) Tier {
	switch Tier(raw) {
	case TierStarter:
		return TierStarter
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}

// ClientLimit returns the maximum number of client records a tenant on the
// given tier may hold. A nil result means unlimited.
func ClientLimit(tier Tier) *int {
	switch tier {
	case TierStarter:
		limit := starterClientLimit
		return &limit
	case TierPro:
		return nil
	default:
		limit := freeClientLimit
		return &limit
	}
}

// ManagedSMSEligible reports whether the tier includes platform-provided
// carrier credentials.
func ManagedSMSEligible(tier Tier) bool {
	return tier == TierStarter || tier == TierPro
}

// CanAddClient reports whether a tenant with currentCount records may create
// one more under the given tier.
func CanAddClient(currentCount int, tier Tier) bool {
	limit := ClientLimit(tier)
	if limit == nil {
		return true
	}
	return currentCount < *limit
}
