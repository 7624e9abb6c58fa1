package companion

import (
	"github.com/go-chi/chi/v5"

	"github.com/tenmm/squadadmin/internal/app/system/auth"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/daily", h.ServeDaily)
	r.Get("/weekly", h.ServeWeekly)
	r.Get("/goals", h.ServeGoals)
	r.Get("/journal", h.ServeJournal)
	r.Post("/journal", h.HandleJournal)

	return r
}
