// internal/domain/models/allowlist.go
package models

// AllowlistEntry is a pre-registration record granting a not-yet-registered
// email a starting tier and squad. The document id is the lower-cased email,
// so there is exactly one entry per normalized email.
//
// Unlike user records, allowlist entries always store their tier explicitly
// (including "free"); the allowlist has no natural absence semantics.
type AllowlistEntry struct {
	ID      string // doc id = emailLower
	Email   string
	Tier    Tier
	SquadID string // squad name, "" = none
}
