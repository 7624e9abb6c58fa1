// internal/domain/models/user.go
package models

import "time"

// SourceStripe marks user records owned by the billing webhook. Tier
// overrides are inert for these accounts; the webhook is the only writer.
const SourceStripe = "stripe"

// User is the in-memory view of a users/{uid} document. The id is the
// opaque account id assigned by the identity backend.
//
// Tier is the effective tier: a missing stored field decodes to TierFree
// (see DecodeTier), and writing TierFree removes the field again.
type User struct {
	ID          string // doc id = uid
	Email       string
	DisplayName string

	Tier         Tier
	TierOverride Tier   // TierPro or TierAmateur when set, "" otherwise
	SquadID      string // squad name, "" = none
	Source       string // provenance tag, e.g. "stripe"

	TrialProvided bool
	TrialStatus   string // free text, e.g. "active", "ended"
	TrialEndsAt   time.Time

	CreatedAt            time.Time
	UpdatedAt            time.Time
	LeaderboardUpdatedAt time.Time
}

// OverrideLocked reports whether tier-override editing is disabled for this
// user because an external system controls their tier.
func (u User) OverrideLocked() bool {
	return u.Source == SourceStripe
}

// LastActiveAt is the later of UpdatedAt and LeaderboardUpdatedAt.
func (u User) LastActiveAt() time.Time {
	if u.LeaderboardUpdatedAt.After(u.UpdatedAt) {
		return u.LeaderboardUpdatedAt
	}
	return u.UpdatedAt
}
