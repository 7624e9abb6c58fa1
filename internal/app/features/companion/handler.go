// internal/app/features/companion/handler.go
package companion

import (
	"context"
	"html/template"
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	userstore "github.com/tenmm/squadadmin/internal/app/store/users"
	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/htmlsanitize"
	"github.com/tenmm/squadadmin/internal/app/system/timeouts"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Handler serves the companion app screens. The screens are local-form
// only: nothing submitted here is persisted, submitted text is sanitized
// and echoed back into the form.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Users: users,
		Log:   logger,
	}
}

type screenData struct {
	Title      string
	IsLoggedIn bool
	IsAdmin    bool
	UserName   string
	Tier       models.Tier
	Squad      string

	// Journal / check-in echo
	Entry     template.HTML
	Gratitude template.HTML
	Saved     bool
}

// load builds the common screen data for the signed-in user. A failed
// lookup degrades to session-only data; the screens stay usable.
func (h *Handler) load(r *http.Request, title string) screenData {
	u, _ := auth.CurrentUser(r)
	data := screenData{
		Title:      title,
		IsLoggedIn: true,
	}
	if u == nil {
		return data
	}
	data.UserName = u.Name

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rec, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		h.Log.Warn("companion: load user record", zap.String("uid", u.ID), zap.Error(err))
		return data
	}
	data.Tier = rec.Tier
	data.Squad = rec.SquadID
	return data
}

/*─────────────────────────────────────────────────────────────────────────────*
| Screens                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeDaily handles GET /app/daily: the four-pillar checklist, focus
// fields, and todos.
func (h *Handler) ServeDaily(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "companion_daily", h.load(r, "Daily checklist"))
}

// ServeWeekly handles GET /app/weekly.
func (h *Handler) ServeWeekly(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "companion_weekly", h.load(r, "Weekly check-in"))
}

// ServeGoals handles GET /app/goals.
func (h *Handler) ServeGoals(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "companion_goals", h.load(r, "Goals"))
}

// ServeJournal handles GET /app/journal.
func (h *Handler) ServeJournal(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "companion_journal", h.load(r, "Journal"))
}

// HandleJournal handles POST /app/journal: sanitize and echo. Entries are
// not persisted.
func (h *Handler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	data := h.load(r, "Journal")
	data.Entry = template.HTML(htmlsanitize.Sanitize(r.FormValue("entry")))
	data.Gratitude = template.HTML(htmlsanitize.Sanitize(r.FormValue("gratitude")))
	data.Saved = true
	templates.Render(w, r, "companion_journal", data)
}
