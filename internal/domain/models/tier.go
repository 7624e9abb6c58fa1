// internal/domain/models/tier.go
package models

import "strings"

// Tier is the access level granted to a user or allowlist entry.
type Tier string

const (
	TierFree    Tier = "free"
	TierAmateur Tier = "amateur"
	TierPro     Tier = "pro"
)

// ParseTier normalizes a raw tier string. Unknown or empty values come back
// as TierFree with ok=false so callers can distinguish "explicit free" from
// "defaulted".
func ParseTier(s string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, true
	case TierAmateur:
		return TierAmateur, true
	case TierPro:
		return TierPro, true
	default:
		return TierFree, false
	}
}

// IsValid reports whether t is one of the three known tiers.
func (t Tier) IsValid() bool {
	return t == TierFree || t == TierAmateur || t == TierPro
}

// DecodeTier translates the stored tier field into the in-memory tier.
// A missing or empty field means free; that translation lives here and in
// EncodeTier only, so the rest of the code never reasons about absence.
func DecodeTier(stored string) Tier {
	if t, ok := ParseTier(stored); ok {
		return t
	}
	return TierFree
}

// EncodeTier translates an in-memory tier into its stored form. Free is
// stored as field absence (present=false), never as the literal "free".
func EncodeTier(t Tier) (value string, present bool) {
	if t == TierFree || !t.IsValid() {
		return "", false
	}
	return string(t), true
}

// OverrideRank orders tier overrides for sorting: pro > amateur > none.
func OverrideRank(t Tier) int {
	switch t {
	case TierPro:
		return 2
	case TierAmateur:
		return 1
	default:
		return 0
	}
}
