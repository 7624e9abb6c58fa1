package console

import (
	"github.com/go-chi/chi/v5"

	"github.com/tenmm/squadadmin/internal/app/system/authz"
)

func Routes(h *Handler, admins *authz.AdminSet) chi.Router {
	r := chi.NewRouter()
	r.Use(admins.RequireAdmin)

	r.Get("/", h.ServeConsole)
	r.Get("/allowlist.csv", h.ServeAllowlistCSV)
	r.Get("/users.csv", h.ServeUsersCSV)

	r.Post("/allowlist", h.HandleAddAllowlist)
	r.Post("/allowlist/{id}/tier", h.HandleAllowlistTier)
	r.Post("/allowlist/{id}/squad", h.HandleAllowlistSquad)
	r.Post("/allowlist/{id}/delete", h.HandleAllowlistDelete)

	r.Post("/users/{id}/tier", h.HandleUserTier)
	r.Post("/users/{id}/squad", h.HandleUserSquad)
	r.Post("/users/{id}/override", h.HandleUserOverride)
	r.Post("/users/{id}/delete", h.HandleUserDelete)

	r.Post("/cleanup", h.HandleCleanup)

	return r
}
