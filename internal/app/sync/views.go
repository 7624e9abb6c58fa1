// internal/app/sync/views.go
package sync

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Derived views are pure functions over the mirrors: they allocate a fresh
// result on every call and never cache, so they always reflect the latest
// snapshot.

// TierCounts holds per-tier totals for one collection.
type TierCounts struct {
	Free    int
	Amateur int
	Pro     int
}

// Total is the sum across all tiers.
func (t TierCounts) Total() int { return t.Free + t.Amateur + t.Pro }

func (t *TierCounts) add(tier models.Tier) {
	switch tier {
	case models.TierPro:
		t.Pro++
	case models.TierAmateur:
		t.Amateur++
	default:
		t.Free++
	}
}

// AllowlistTierCounts tallies allowlist entries per tier.
func AllowlistTierCounts(entries []models.AllowlistEntry) TierCounts {
	var c TierCounts
	for _, e := range entries {
		c.add(e.Tier)
	}
	return c
}

// UserTierCounts tallies users per effective tier. The mirror already
// rehydrates a missing tier field as free, so the stored value is used
// directly.
func UserTierCounts(users []models.User) TierCounts {
	var c TierCounts
	for _, u := range users {
		c.add(u.Tier)
	}
	return c
}

// UserSortKey selects the column the user table is ordered by.
type UserSortKey string

const (
	SortByDisplayName  UserSortKey = "displayName"
	SortByEmail        UserSortKey = "email"
	SortBySource       UserSortKey = "source"
	SortByCreatedAt    UserSortKey = "createdAt"
	SortByLastActive   UserSortKey = "lastActive"
	SortByTrialEndsAt  UserSortKey = "trialEndsAt"
	SortByTrialGiven   UserSortKey = "trialProvided"
	SortByTrialStatus  UserSortKey = "trialStatus"
	SortByTierOverride UserSortKey = "tierOverride"
)

// SortState is the current table ordering: one key plus a direction.
type SortState struct {
	Key  UserSortKey
	Desc bool
}

// DefaultSort orders the user table by email ascending.
var DefaultSort = SortState{Key: SortByEmail}

// ToggleSort returns the next sort state after the operator clicks a column
// header. Re-selecting the active key flips the direction; selecting a new
// key resets to ascending.
func ToggleSort(cur SortState, key UserSortKey) SortState {
	if cur.Key == key {
		return SortState{Key: key, Desc: !cur.Desc}
	}
	return SortState{Key: key}
}

// UserFilter narrows the user table before sorting. Search matches a
// case-insensitive substring of email or display name. Tier is an exact
// effective-tier match, or "all" (or blank) for no tier filter.
type UserFilter struct {
	Search string
	Tier   string
}

func (f UserFilter) matches(u models.User) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.DisplayName), q) {
			return false
		}
	}
	switch f.Tier {
	case "", "all":
		return true
	default:
		return string(u.Tier) == f.Tier
	}
}

// FilterUsers returns a fresh, filtered, stably sorted copy of the user
// mirror. The input slice is never reordered.
func FilterUsers(users []models.User, filter UserFilter, order SortState) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if filter.matches(u) {
			out = append(out, u)
		}
	}
	less := userLess(order.Key)
	sort.SliceStable(out, func(i, j int) bool {
		if order.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// userLess builds the ascending comparison for a sort key. Missing
// timestamps compare lowest (the zero time), booleans as 0/1, and the
// trial-status and override columns by their ordinal rank.
func userLess(key UserSortKey) func(a, b models.User) bool {
	switch key {
	case SortByDisplayName:
		return func(a, b models.User) bool { return foldLess(a.DisplayName, b.DisplayName) }
	case SortBySource:
		return func(a, b models.User) bool { return foldLess(a.Source, b.Source) }
	case SortByCreatedAt:
		return func(a, b models.User) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortByLastActive:
		return func(a, b models.User) bool { return a.LastActiveAt().Before(b.LastActiveAt()) }
	case SortByTrialEndsAt:
		return func(a, b models.User) bool { return a.TrialEndsAt.Before(b.TrialEndsAt) }
	case SortByTrialGiven:
		return func(a, b models.User) bool { return !a.TrialProvided && b.TrialProvided }
	case SortByTrialStatus:
		return func(a, b models.User) bool { return trialStatusRank(a.TrialStatus) < trialStatusRank(b.TrialStatus) }
	case SortByTierOverride:
		return func(a, b models.User) bool {
			return models.OverrideRank(a.TierOverride) < models.OverrideRank(b.TierOverride)
		}
	default:
		return func(a, b models.User) bool { return foldLess(a.Email, b.Email) }
	}
}

// trialStatusRank orders trial states: active above ended above anything
// else (including missing).
func trialStatusRank(status string) int {
	switch status {
	case "active":
		return 2
	case "ended":
		return 1
	default:
		return 0
	}
}

// foldLess orders strings ascending, case-insensitively first with the
// original spelling as tiebreak. Emails and names in this system are
// normalized ASCII, so this matches a locale-aware ordering.
func foldLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// DaysSince renders whole days elapsed from t to now, as "3d". A zero time
// renders as a dash; a timestamp slightly in the future (server/client
// clock skew) clamps to "0d" rather than going negative.
func DaysSince(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return fmt.Sprintf("%dd", days)
}
