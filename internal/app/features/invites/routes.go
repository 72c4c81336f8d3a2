// internal/app/features/invites/routes.go
package invites

import (
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /invites.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.With(sm.RequireRole("pupil", "parent")).Get("/pupil", h.ServePupil)
		pr.With(sm.RequireRole("teacher")).Get("/teacher", h.ServeTeacher)

		pr.Route("/p/{page}", func(p chi.Router) {
			p.Get("/", h.ServeBody)
			p.Post("/accept", h.HandleAccept)
			p.Post("/decline", h.HandleDecline)
			p.Post("/dismiss", h.HandleDismiss)
		})
	})

	return r
}
