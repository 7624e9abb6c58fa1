// internal/app/features/console/handler.go
package console

import (
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	synccore "github.com/tenmm/squadadmin/internal/app/sync"
	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Handler serves the admin console: the allowlist and users tabs over the
// live mirrors, plus the mutation endpoints behind them.
type Handler struct {
	Core   *synccore.Core
	Admins *authz.AdminSet
	Log    *zap.Logger
}

func NewHandler(core *synccore.Core, admins *authz.AdminSet, logger *zap.Logger) *Handler {
	return &Handler{
		Core:   core,
		Admins: admins,
		Log:    logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| View models                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

type userRow struct {
	models.User
	DaysSince string
	Locked    bool
}

type columnHeader struct {
	Key    string
	Label  string
	URL    string // toggled-sort link for this column
	Active bool
	Desc   bool
}

type consolePage struct {
	Title      string
	IsLoggedIn bool
	IsAdmin    bool
	UserName   string

	Tab string // "allowlist" | "users"
	Err string

	Loading bool // loading indicator for the active tab

	Allowlist       []models.AllowlistEntry
	AllowlistCounts synccore.TierCounts

	Users      []userRow
	UserCounts synccore.TierCounts
	Search     string
	TierFilter string
	Sort       synccore.SortState
	Columns    []columnHeader

	Squads []models.SquadOption
	Tiers  []models.Tier
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /console                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConsole(w http.ResponseWriter, r *http.Request) {
	// Process-restart recovery: an admin whose session cookie outlived
	// the server arrives here without having gone through the OAuth
	// callback, so the mirrors may not be running yet. AcquireFor is
	// idempotent per identity, so repeat visits hold a single session.
	if u, ok := auth.CurrentUser(r); ok {
		h.Core.AcquireFor(u.Email)
	}

	tab := query.Get(r, "tab")
	if tab != "users" {
		tab = "allowlist"
	}

	filter := synccore.UserFilter{
		Search: query.Get(r, "q"),
		Tier:   query.Get(r, "tier"),
	}
	order := sortFromQuery(r)

	st := h.Core.State()
	u, _ := auth.CurrentUser(r)

	page := consolePage{
		Title:      "Admin console",
		IsLoggedIn: true,
		IsAdmin:    true,
		Tab:        tab,
		Err:        st.Err,
		Search:     filter.Search,
		TierFilter: filter.Tier,
		Sort:       order,
		Squads:     st.Squads,
		Tiers:      []models.Tier{models.TierFree, models.TierAmateur, models.TierPro},
	}
	if u != nil {
		page.UserName = u.Name
	}

	switch tab {
	case "users":
		page.Loading = st.LoadingUsers
	default:
		page.Loading = st.LoadingAllowlist
	}

	page.Allowlist = st.Allowlist
	page.AllowlistCounts = synccore.AllowlistTierCounts(st.Allowlist)
	page.UserCounts = synccore.UserTierCounts(st.Users)

	now := time.Now().UTC()
	for _, usr := range synccore.FilterUsers(st.Users, filter, order) {
		page.Users = append(page.Users, userRow{
			User:      usr,
			DaysSince: synccore.DaysSince(usr.LastActiveAt(), now),
			Locked:    usr.OverrideLocked(),
		})
	}

	page.Columns = userColumns(filter, order)

	templates.Render(w, r, "console", page)
}

// sortFromQuery reads the sort key and direction from the query string,
// falling back to the default email-ascending order.
func sortFromQuery(r *http.Request) synccore.SortState {
	key := synccore.UserSortKey(query.Get(r, "sort"))
	switch key {
	case synccore.SortByDisplayName, synccore.SortByEmail, synccore.SortBySource,
		synccore.SortByCreatedAt, synccore.SortByLastActive, synccore.SortByTrialEndsAt,
		synccore.SortByTrialGiven, synccore.SortByTrialStatus, synccore.SortByTierOverride:
	default:
		return synccore.DefaultSort
	}
	return synccore.SortState{Key: key, Desc: query.Get(r, "dir") == "desc"}
}

// userColumns builds the sortable header links for the users tab. Each link
// carries the current filter plus the toggled sort for its column.
func userColumns(filter synccore.UserFilter, cur synccore.SortState) []columnHeader {
	cols := []struct {
		key   synccore.UserSortKey
		label string
	}{
		{synccore.SortByEmail, "Email"},
		{synccore.SortByDisplayName, "Name"},
		{synccore.SortBySource, "Source"},
		{synccore.SortByCreatedAt, "Created"},
		{synccore.SortByLastActive, "Last active"},
		{synccore.SortByTrialEndsAt, "Trial ends"},
		{synccore.SortByTrialGiven, "Trial given"},
		{synccore.SortByTrialStatus, "Trial status"},
		{synccore.SortByTierOverride, "Override"},
	}

	out := make([]columnHeader, 0, len(cols))
	for _, c := range cols {
		next := synccore.ToggleSort(cur, c.key)

		v := url.Values{}
		v.Set("tab", "users")
		if filter.Search != "" {
			v.Set("q", filter.Search)
		}
		if filter.Tier != "" {
			v.Set("tier", filter.Tier)
		}
		v.Set("sort", string(next.Key))
		if next.Desc {
			v.Set("dir", "desc")
		}

		out = append(out, columnHeader{
			Key:    string(c.key),
			Label:  c.label,
			URL:    "/console?" + v.Encode(),
			Active: cur.Key == c.key,
			Desc:   cur.Desc,
		})
	}
	return out
}
