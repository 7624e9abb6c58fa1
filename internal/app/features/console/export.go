// internal/app/features/console/export.go
package console

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/system/csvutil"
)

// CSV downloads export the current mirror contents, not a fresh store read;
// the mirrors are the console's source of truth.

// ServeAllowlistCSV handles GET /console/allowlist.csv.
func (h *Handler) ServeAllowlistCSV(w http.ResponseWriter, r *http.Request) {
	st := h.Core.State()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="allowlist.csv"`)

	if err := csvutil.WriteAllowlist(w, st.Allowlist); err != nil {
		h.Log.Error("write allowlist CSV", zap.Error(err))
	}
}

// ServeUsersCSV handles GET /console/users.csv.
func (h *Handler) ServeUsersCSV(w http.ResponseWriter, r *http.Request) {
	st := h.Core.State()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)

	if err := csvutil.WriteUsers(w, st.Users); err != nil {
		h.Log.Error("write users CSV", zap.Error(err))
	}
}
