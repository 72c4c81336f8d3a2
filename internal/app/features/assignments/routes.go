// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /assign.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		// Page entry points, one per policy kind.
		pr.With(sm.RequireRole(h.Registry.Roles(assignpolicy.KindCurricula)...)).
			Get("/curricula/{tenant}", h.ServeCurricula)
		pr.With(sm.RequireRole(h.Registry.Roles(assignpolicy.KindTeachers)...)).
			Get("/teachers/{tenant}", h.ServeTeachers)
		pr.With(sm.RequireRole(h.Registry.Roles(assignpolicy.KindPupils)...)).
			Get("/pupils/{tenant}/{section}", h.ServePupils)

		// Page instance actions. Ownership is checked against the page.
		pr.Route("/p/{page}", func(p chi.Router) {
			p.Get("/", h.ServeBody)
			p.Get("/select", h.HandleOpenAssign)
			p.Get("/select/search", h.ServeSelectSearch)
			p.Post("/select/close", h.HandleCloseAssign)
			p.Post("/save", h.HandleSave)
			p.Post("/sections", h.HandleSections)
			p.Post("/sections/save", h.HandleSaveSections)
			p.Post("/unassign", h.HandleClickUnassign)
			p.Post("/unassign/confirm", h.HandleConfirmUnassign)
			p.Post("/delete_invite", h.HandleClickDeleteInvite)
			p.Post("/delete_invite/confirm", h.HandleConfirmDeleteInvite)
			p.Post("/cancel", h.HandleCancel)
			p.Post("/tab/{tab}", h.HandleTab)
			p.Post("/dismiss", h.HandleDismiss)
		})
	})

	return r
}
