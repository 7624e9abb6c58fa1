// internal/domain/models/squad.go
package models

// SquadOption is a named grouping used for leaderboard association. Both
// allowlist entries and user records reference squads by name, not by id.
type SquadOption struct {
	ID   string // backend-assigned doc id
	Name string
}

// DefaultSquadNames are created the first time the squads collection is
// observed empty, so squad selectors are never blank.
var DefaultSquadNames = []string{"Morning Oaks", "Matinee Monsters", "Wednesday Warriors"}
