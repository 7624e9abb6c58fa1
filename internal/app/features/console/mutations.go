// internal/app/features/console/mutations.go
package console

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/system/timeouts"
	"github.com/tenmm/squadadmin/internal/domain/models"
)

// Mutation endpoints redirect back to the console after issuing the write.
// Failures are not rendered here: the sync core surfaces them on the banner
// and the optimistic mirror state stays as-is until the next snapshot.

/*─────────────────────────────────────────────────────────────────────────────*
| Allowlist mutations                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAddAllowlist handles POST /console/allowlist.
func (h *Handler) HandleAddAllowlist(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	email := r.FormValue("email")
	tier, _ := models.ParseTier(r.FormValue("tier"))
	squad := r.FormValue("squad")

	if err := h.Core.AddAllowlistEntry(ctx, email, tier, squad); err != nil {
		h.Log.Warn("add allowlist entry", zap.String("email", email), zap.Error(err))
	}
	h.redirectBack(w, r, "allowlist")
}

// HandleAllowlistTier handles POST /console/allowlist/{id}/tier.
func (h *Handler) HandleAllowlistTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	tier, _ := models.ParseTier(r.FormValue("tier"))

	if err := h.Core.SetAllowlistTier(ctx, id, tier); err != nil {
		h.Log.Warn("set allowlist tier", zap.String("id", id), zap.Error(err))
	}
	h.redirectBack(w, r, "allowlist")
}

// HandleAllowlistSquad handles POST /console/allowlist/{id}/squad.
func (h *Handler) HandleAllowlistSquad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")

	if err := h.Core.SetAllowlistSquad(ctx, id, r.FormValue("squad")); err != nil {
		h.Log.Warn("set allowlist squad", zap.String("id", id), zap.Error(err))
	}
	h.redirectBack(w, r, "allowlist")
}

// HandleAllowlistDelete handles POST /console/allowlist/{id}/delete.
// Destructive; requires the confirm token from the form.
func (h *Handler) HandleAllowlistDelete(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		h.redirectBack(w, r, "allowlist")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Core.DeleteAllowlistEntry(ctx, id); err != nil {
		h.Log.Warn("delete allowlist entry", zap.String("id", id), zap.Error(err))
	}
	h.redirectBack(w, r, "allowlist")
}

/*─────────────────────────────────────────────────────────────────────────────*
| User mutations                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUserTier handles POST /console/users/{id}/tier.
func (h *Handler) HandleUserTier(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	tier, _ := models.ParseTier(r.FormValue("tier"))

	if err := h.Core.SetUserTier(ctx, id, tier); err != nil {
		h.Log.Warn("set user tier", zap.String("id", id), zap.Error(err))
	}
	h.redirectBack(w, r, "users")
}

// HandleUserSquad handles POST /console/users/{id}/squad.
func (h *Handler) HandleUserSquad(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Core.SetUserSquad(ctx, id, r.FormValue("squad")); err != nil {
		h.Log.Warn("set user squad", zap.String("id", id), zap.Error(err))
	}
	h.redirectBack(w, r, "users")
}

// HandleUserOverride handles POST /console/users/{id}/override.
// value is "pro" or "amateur" to set, "clear" to remove.
func (h *Handler) HandleUserOverride(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id := chi.URLParam(r, "id")
	value := strings.TrimSpace(r.FormValue("value"))

	var err error
	if value == "clear" {
		err = h.Core.ClearUserTierOverride(ctx, id)
	} else {
		override, _ := models.ParseTier(value)
		err = h.Core.SetUserTierOverride(ctx, id, override)
	}
	if err != nil {
		h.Log.Warn("set user tier override",
			zap.String("id", id), zap.String("value", value), zap.Error(err))
	}
	h.redirectBack(w, r, "users")
}

// HandleUserDelete handles POST /console/users/{id}/delete.
// Destructive; deletes the user record and cascades to any allowlist entry
// for the same email.
func (h *Handler) HandleUserDelete(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		h.redirectBack(w, r, "users")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Core.DeleteUser(ctx, id); err != nil {
		h.Log.Warn("delete user", zap.String("id", id), zap.Error(err))
	}
	h.redirectBack(w, r, "users")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bulk cleanup                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleCleanup handles POST /console/cleanup: delete every allowlist entry
// whose email already has a registered user, regardless of the per-session
// auto-clean memory.
func (h *Handler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	if !confirmed(r) {
		h.redirectBack(w, r, "allowlist")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	n, err := h.Core.CleanupAllowlist(ctx)
	if err != nil {
		h.Log.Warn("bulk allowlist cleanup", zap.Error(err))
	}
	h.Log.Info("bulk allowlist cleanup finished", zap.Int("deleted", n))
	h.redirectBack(w, r, "allowlist")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// confirmed reports whether the form carried the explicit confirmation
// token destructive actions require.
func confirmed(r *http.Request) bool {
	return r.FormValue("confirm") == "1"
}

func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request, tab string) {
	http.Redirect(w, r, "/console?tab="+tab, http.StatusSeeOther)
}
