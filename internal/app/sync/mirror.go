// internal/app/sync/mirror.go
package sync

import (
	"sort"
	"strings"
	"time"

	"github.com/tenmm/squadadmin/internal/app/store/docstore"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// The reducers below rebuild an entire mirror from one snapshot. They are
// pure: same snapshot in, same mirror out, already sorted. Every snapshot
// fully supersedes the previous mirror; nothing is patched incrementally.

// reduceAllowlist maps an allowlist snapshot onto the mirror. The document
// id doubles as the email when the email field is missing (legacy docs),
// and a missing tier reads as free.
func reduceAllowlist(docs []docstore.Doc) []models.AllowlistEntry {
	list := make([]models.AllowlistEntry, 0, len(docs))
	for _, d := range docs {
		email := fieldString(d.Fields, "email")
		if email == "" {
			email = d.ID
		}
		list = append(list, models.AllowlistEntry{
			ID:      d.ID,
			Email:   email,
			Tier:    models.DecodeTier(fieldString(d.Fields, "tier")),
			SquadID: fieldString(d.Fields, "squadID"),
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return foldLess(list[i].Email, list[j].Email)
	})
	return list
}

// reduceUsers maps a users snapshot onto the mirror. Email prefers the
// normalized emailLower field, then the legacy email field, then the doc id.
func reduceUsers(docs []docstore.Doc) []models.User {
	list := make([]models.User, 0, len(docs))
	for _, d := range docs {
		email := fieldString(d.Fields, "emailLower")
		if email == "" {
			email = fieldString(d.Fields, "email")
		}
		if email == "" {
			email = d.ID
		}

		var override models.Tier
		if t, ok := models.ParseTier(fieldString(d.Fields, "tierOverride")); ok && t != models.TierFree {
			override = t
		}

		list = append(list, models.User{
			ID:                   d.ID,
			Email:                email,
			DisplayName:          fieldString(d.Fields, "displayName"),
			Tier:                 models.DecodeTier(fieldString(d.Fields, "tier")),
			TierOverride:         override,
			SquadID:              fieldString(d.Fields, "squadID"),
			Source:               fieldString(d.Fields, "source"),
			TrialProvided:        fieldBool(d.Fields, "trialProvided"),
			TrialStatus:          fieldString(d.Fields, "trialStatus"),
			TrialEndsAt:          fieldTime(d.Fields, "trialEndsAt"),
			CreatedAt:            fieldTime(d.Fields, "createdAt"),
			UpdatedAt:            fieldTime(d.Fields, "updatedAt"),
			LeaderboardUpdatedAt: fieldTime(d.Fields, "leaderboardUpdatedAt"),
		})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return foldLess(list[i].Email, list[j].Email)
	})
	return list
}

// reduceSquads maps a squads snapshot onto the mirror. Documents whose name
// trims to nothing are dropped.
func reduceSquads(docs []docstore.Doc) []models.SquadOption {
	list := make([]models.SquadOption, 0, len(docs))
	for _, d := range docs {
		name := fieldString(d.Fields, "name")
		if name == "" {
			name = d.ID
		}
		if strings.TrimSpace(name) == "" {
			continue
		}
		list = append(list, models.SquadOption{ID: d.ID, Name: name})
	}
	sortSquads(list)
	return list
}

func sortSquads(list []models.SquadOption) {
	sort.SliceStable(list, func(i, j int) bool {
		return foldLess(list[i].Name, list[j].Name)
	})
}

func fieldString(f docstore.Fields, key string) string {
	s, _ := f[key].(string)
	return s
}

func fieldBool(f docstore.Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

func fieldTime(f docstore.Fields, key string) time.Time {
	t, _ := f[key].(time.Time)
	return t
}
