// internal/app/features/health/routes.go
package health

import "github.com/go-chi/chi/v5"

// Routes builds the subrouter mounted under /health.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
