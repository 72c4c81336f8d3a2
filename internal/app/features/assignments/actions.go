// internal/app/features/assignments/actions.go
package assignments

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/gradebook/internal/app/features/errors"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/listview"
	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	msgBusy          = "Akcija je u toku. Pokušajte ponovo za trenutak."
	msgInvalid       = "Akcija trenutno nije moguća. Osvježite stranicu."
	msgUnknownItem   = "Stavka nije pronađena. Osvježite stranicu."
	msgEmptySelected = "Odaberite barem jednu stavku."
)

// renderBody re-renders #assign-body.
func (h *Handler) renderBody(w http.ResponseWriter, r *http.Request, p *Page, vp viewParams) {
	templates.RenderSnippet(w, "assign_body", h.bodyVM(r, p, vp))
}

// fail answers a rejected controller action. Collections are untouched in
// every case.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, p *Page, err error, vp viewParams) {
	back := "/assign/p/" + p.ID
	switch {
	case errors.Is(err, workflow.ErrBusy):
		uierrors.HTMXError(w, r, http.StatusConflict, msgBusy, nil)
	case errors.Is(err, workflow.ErrArchived):
		uierrors.HTMXForbidden(w, r, labels.Archived, back)
	case errors.Is(err, workflow.ErrUnknownItem):
		uierrors.HTMXError(w, r, http.StatusNotFound, msgUnknownItem, nil)
	case errors.Is(err, workflow.ErrInvalidTransition):
		uierrors.HTMXBadRequest(w, r, msgInvalid, back)
	case errors.Is(err, workflow.ErrEmptySelection):
		vp.Err = msgEmptySelected
		h.renderBody(w, r, p, vp)
	default:
		// Remote failure: the controller holds the message.
		h.renderBody(w, r, p, vp)
	}
}

// act runs a synchronous controller transition and re-renders.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(p *Page) error) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := fn(p); err != nil {
		h.fail(w, r, p, err, viewParams{})
		return
	}
	h.renderBody(w, r, p, viewParams{})
}

// mutate runs a remote mutation under the long timeout, audits it and
// re-renders.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, vp viewParams, fn func(ctx context.Context, p *Page) error) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "assignment mutation")
	defer cancel()

	err := fn(ctx, p)
	h.audit(r, p)
	if err != nil {
		if !isControllerErr(err) {
			h.Log.Info("assignment mutation failed",
				zap.String("page", p.ID),
				zap.String("policy", p.Ctrl.Policy().Name()),
				zap.Error(err))
		}
		h.fail(w, r, p, err, vp)
		return
	}
	h.renderBody(w, r, p, viewParams{})
}

func isControllerErr(err error) bool {
	return errors.Is(err, workflow.ErrBusy) ||
		errors.Is(err, workflow.ErrArchived) ||
		errors.Is(err, workflow.ErrUnknownItem) ||
		errors.Is(err, workflow.ErrInvalidTransition) ||
		errors.Is(err, workflow.ErrEmptySelection)
}

// ServeBody renders the current page body.
// GET /assign/p/{page}/
func (h *Handler) ServeBody(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.renderBody(w, r, p, viewParams{})
}

// HandleOpenAssign opens the selection modal.
// GET /assign/p/{page}/select
func (h *Handler) HandleOpenAssign(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *Page) error { return p.Ctrl.OpenAssign() })
}

// ServeSelectSearch re-filters the selection modal's choices. The checked
// keys travel with the request; nothing is stored server-side.
// GET /assign/p/{page}/select/search?q=&key=
func (h *Handler) ServeSelectSearch(w http.ResponseWriter, r *http.Request) {
	p, ok := h.lookup(w, r)
	if !ok {
		return
	}
	_ = r.ParseForm()
	snap := p.Ctrl.Snapshot()
	if snap.Phase != workflow.SelectingForAssign {
		h.fail(w, r, p, workflow.ErrInvalidTransition, viewParams{})
		return
	}
	f := p.Ctrl.Policy().Fields()
	vp := selectParams(r)
	templates.RenderSnippet(w, "assign_select_choices", selectVM{
		ActionURL: "/assign/p/" + p.ID,
		Palette:   p.Tenant.Color.Palette(),
		Selection: listview.Select(snap.State.Available, f.KeyField, f.LabelField, vp.Query, vp.Selected, f.SearchOnly),
	})
}

// HandleCloseAssign closes the selection modal.
// POST /assign/p/{page}/select/close
func (h *Handler) HandleCloseAssign(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *Page) error { return p.Ctrl.CloseAssign() })
}

// HandleSave assigns (or invites) the checked keys.
// POST /assign/p/{page}/save
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		uierrors.HTMXBadRequest(w, r, "Neispravan zahtjev.", "/")
		return
	}
	vp := selectParams(r)
	h.mutate(w, r, vp, func(ctx context.Context, p *Page) error {
		return p.Ctrl.Save(ctx, vp.Selected)
	})
}

// HandleSections opens the section assignment modal for the posted
// teacher, or switches the open modal to that teacher.
// POST /assign/p/{page}/sections
func (h *Handler) HandleSections(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("key")
	h.act(w, r, func(p *Page) error { return p.Ctrl.OpenSectionAssign(key) })
}

// HandleSaveSections saves the teacher's subjects and homeroom duty in the
// checked sections.
// POST /assign/p/{page}/sections/save
func (h *Handler) HandleSaveSections(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		uierrors.HTMXBadRequest(w, r, "Neispravan zahtjev.", "/")
		return
	}
	teacher := r.FormValue("teacher")
	choices := sectionChoices(r)
	h.mutate(w, r, viewParams{}, func(ctx context.Context, p *Page) error {
		return p.Ctrl.SaveSections(ctx, teacher, choices)
	})
}

// HandleClickUnassign opens the unassign confirmation.
// POST /assign/p/{page}/unassign
func (h *Handler) HandleClickUnassign(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("key")
	h.act(w, r, func(p *Page) error { return p.Ctrl.ClickUnassign(key) })
}

// HandleConfirmUnassign removes the confirmed item.
// POST /assign/p/{page}/unassign/confirm
func (h *Handler) HandleConfirmUnassign(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, viewParams{}, func(ctx context.Context, p *Page) error {
		return p.Ctrl.ConfirmUnassign(ctx)
	})
}

// HandleClickDeleteInvite opens the withdraw confirmation.
// POST /assign/p/{page}/delete_invite
func (h *Handler) HandleClickDeleteInvite(w http.ResponseWriter, r *http.Request) {
	key := r.FormValue("key")
	h.act(w, r, func(p *Page) error { return p.Ctrl.ClickDeleteInvite(key) })
}

// HandleConfirmDeleteInvite withdraws the confirmed invite.
// POST /assign/p/{page}/delete_invite/confirm
func (h *Handler) HandleConfirmDeleteInvite(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, viewParams{}, func(ctx context.Context, p *Page) error {
		return p.Ctrl.ConfirmDeleteInvite(ctx)
	})
}

// HandleCancel closes any open modal.
// POST /assign/p/{page}/cancel
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *Page) error { return p.Ctrl.Cancel() })
}

// HandleTab switches between the assigned and pending lists.
// POST /assign/p/{page}/tab/{tab}
func (h *Handler) HandleTab(w http.ResponseWriter, r *http.Request) {
	tab := chi.URLParam(r, "tab")
	h.act(w, r, func(p *Page) error {
		switch tab {
		case "pending":
			return p.Ctrl.ViewPending()
		case "assigned":
			return p.Ctrl.ViewAssigned()
		}
		return workflow.ErrInvalidTransition
	})
}

// HandleDismiss clears the error and notice banners.
// POST /assign/p/{page}/dismiss
func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(p *Page) error {
		p.Ctrl.DismissError()
		return nil
	})
}
