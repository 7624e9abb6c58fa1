// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"go.uber.org/zap"

	synccore "github.com/tenmm/squadadmin/internal/app/sync"
	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
)

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

// ServeLogout handles GET /logout.
//
// An admin signing out releases their console session so the live
// subscriptions shut down once the last admin leaves.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		if h.Admins.Contains(u.Email) {
			h.Core.ReleaseFor(u.Email)
		}
		h.Log.Info("user signed out", zap.String("email", u.Email))
	}

	if err := auth.SignOut(w, r); err != nil {
		h.Log.Error("logout: clear session", zap.Error(err))
	}

	// HTMX handling: use HX-Redirect to force a client-side navigation to "/".
	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/")
		w.WriteHeader(http.StatusOK)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
