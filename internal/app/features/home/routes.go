// internal/app/features/home/routes.go
package home

import (
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts at the site root.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeRoot)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.With(sm.RequireRole("root")).Get("/tenants", h.ServeTenants)
		pr.With(sm.RequireRole("teacher")).Get("/sections", h.ServeSections)
	})
	return r
}
