package home

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"

	"github.com/tenmm/squadadmin/internal/app/system/auth"
	"github.com/tenmm/squadadmin/internal/app/system/authz"
)

// Handler holds dependencies needed to serve the landing page.
type Handler struct {
	Admins *authz.AdminSet
	Log    *zap.Logger
}

func NewHandler(admins *authz.AdminSet, logger *zap.Logger) *Handler {
	return &Handler{
		Admins: admins,
		Log:    logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	u, signedIn := auth.CurrentUser(r)
	name, isAdmin := "", false
	if signedIn {
		name = u.Name
		isAdmin = h.Admins.Contains(u.Email)
	}

	data := struct {
		Title      string
		IsLoggedIn bool
		IsAdmin    bool
		UserName   string
	}{
		Title:      "Welcome",
		IsLoggedIn: signedIn,
		IsAdmin:    isAdmin,
		UserName:   name,
	}

	templates.Render(w, r, "home", data)
}
