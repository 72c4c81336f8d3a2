// internal/app/features/invites/inbox.go
package invites

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gradebook/internal/app/features/errors"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServePupil renders the pupil's section invites.
// GET /invites/pupil
func (h *Handler) ServePupil(w http.ResponseWriter, r *http.Request) {
	h.serveInbox(w, r, workflow.PupilInbox)
}

// ServeTeacher renders the teacher's section invites.
// GET /invites/teacher
func (h *Handler) ServeTeacher(w http.ResponseWriter, r *http.Request) {
	h.serveInbox(w, r, workflow.TeacherInbox)
}

func (h *Handler) serveInbox(w http.ResponseWriter, r *http.Request, cfg workflow.InboxConfig) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	page, err := h.open(r.Context(), u, cfg)
	if err != nil {
		// The inbox still renders, empty, with the load error shown.
		h.Log.Warn("invite inbox load failed",
			zap.String("inbox", cfg.Name),
			zap.String("user_id", u.ID),
			zap.Error(err))
		templates.Render(w, r, "invites_page", h.loadFailedVM(r))
		return
	}

	templates.Render(w, r, "invites_page", h.pageVM(r, page))
}

// open loads the inbox for u and stores it.
func (h *Handler) open(ctx context.Context, u *auth.SessionUser, cfg workflow.InboxConfig) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	inbox, err := workflow.LoadInbox(ctx, cfg, h.API.WithToken(u.Token), u.ID,
		h.Log.With(zap.String("inbox", cfg.Name)))
	if err != nil {
		return nil, err
	}
	page := &Page{
		Inbox: inbox,
		Actor: auditlog.Actor{UserID: u.ID, Email: u.Email},
	}
	page.ID = h.Pages.Put(u.ID, page)
	return page, nil
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*Page, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.HTMXError(w, r, http.StatusUnauthorized, "Prijavite se ponovo.", func() {
			uierrors.RenderUnauthorized(w, r, "/login")
		})
		return nil, false
	}
	page, err := h.Pages.Get(chi.URLParam(r, "page"), u.ID)
	if err != nil {
		uierrors.HTMXError(w, r, http.StatusGone, labels.PageExpired, func() {
			uierrors.RenderNotFound(w, r, labels.PageExpired, "/")
		})
		return nil, false
	}
	return page, true
}

// ServeBody renders the current inbox body (paging).
// GET /invites/p/{page}/
func (h *Handler) ServeBody(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	templates.RenderSnippet(w, "invites_body", h.bodyVM(r, p))
}

// HandleAccept accepts the invite posted as key.
// POST /invites/p/{page}/accept
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.DecisionAccept)
}

// HandleDecline declines the invite posted as key.
// POST /invites/p/{page}/decline
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, models.DecisionDecline)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, d models.InviteDecision) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	key := r.FormValue("key")
	_, tenantID, _ := models.SplitInviteKey(key)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "invite decision")
	defer cancel()

	err := p.Inbox.Decide(ctx, key, d)
	switch {
	case errors.Is(err, workflow.ErrUnknownItem):
		uierrors.HTMXError(w, r, http.StatusNotFound, "Poziv nije pronađen. Osvježite stranicu.", nil)
		return
	case errors.Is(err, workflow.ErrInvalidTransition):
		uierrors.HTMXBadRequest(w, r, "Na ovaj poziv je već odgovoreno.", "/")
		return
	}

	h.Audit.InviteDecision(r.Context(), r, p.Actor, p.Inbox.Config().Name, key, tenantID, d == models.DecisionAccept, err)
	templates.RenderSnippet(w, "invites_body", h.bodyVM(r, p))
}

// HandleDismiss clears the error banner.
// POST /invites/p/{page}/dismiss
func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	p.Inbox.DismissError()
	templates.RenderSnippet(w, "invites_body", h.bodyVM(r, p))
}
