// internal/app/features/assignments/page.go
package assignments

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/gradebook/internal/app/features/errors"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// eventBuffer bounds the audit events queued between two requests.
const eventBuffer = 16

// Page is one opened assignment page.
type Page struct {
	ID     string
	Ctrl   *workflow.Controller
	Tenant models.Tenant
	Actor  auditlog.Actor

	events chan workflow.Event
}

// observe queues e for the request that caused it. It runs under the
// controller lock, so it never blocks.
func (p *Page) observe(e workflow.Event) {
	select {
	case p.events <- e:
	default:
	}
}

// drain returns the queued events.
func (p *Page) drain() []workflow.Event {
	var out []workflow.Event
	for {
		select {
		case e := <-p.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

// ServeCurricula opens the tenant curricula page.
// GET /assign/curricula/{tenant}
func (h *Handler) ServeCurricula(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, assignpolicy.KindCurricula, assignpolicy.Params{
		TenantID: chi.URLParam(r, "tenant"),
	})
}

// ServeTeachers opens the tenant teachers page.
// GET /assign/teachers/{tenant}
func (h *Handler) ServeTeachers(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, assignpolicy.KindTeachers, assignpolicy.Params{
		TenantID: chi.URLParam(r, "tenant"),
	})
}

// ServePupils opens the section pupils page.
// GET /assign/pupils/{tenant}/{section}?name=&archived=1
func (h *Handler) ServePupils(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, assignpolicy.KindPupils, assignpolicy.Params{
		TenantID:    chi.URLParam(r, "tenant"),
		SectionID:   chi.URLParam(r, "section"),
		SectionName: query.Get(r, "name"),
		Archived:    query.Get(r, "archived") == "1",
	})
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, kind string, params assignpolicy.Params) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}
	if !u.HasTenant(params.TenantID) {
		uierrors.RenderForbidden(w, r, "Nemate pristup ovoj instituciji.", "/")
		return
	}

	page, err := h.open(r.Context(), u, kind, params)
	switch {
	case errors.Is(err, assignpolicy.ErrUnknownKind), errors.Is(err, assignpolicy.ErrMissingParam):
		uierrors.RenderNotFound(w, r, "Stranica nije pronađena.", "/")
		return
	case err != nil:
		h.Log.Warn("assignment page load failed",
			zap.String("policy", kind),
			zap.String("tenant_id", params.TenantID),
			zap.Error(err))
		uierrors.RenderServerError(w, r, apiclient.UserMessage(err, labels.LoadError), "/")
		return
	}

	templates.Render(w, r, "assign_page", h.pageVM(r, page, viewParams{}))
}

// open builds the policy, loads its collections and stores the new page
// for u.
func (h *Handler) open(ctx context.Context, u *auth.SessionUser, kind string, params assignpolicy.Params) (*Page, error) {
	policy, err := h.Registry.Build(kind, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	api := h.API.WithToken(u.Token)
	data, err := h.load(ctx, api, policy)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Tenant: data.tenant,
		Actor:  auditlog.Actor{UserID: u.ID, Email: u.Email},
		events: make(chan workflow.Event, eventBuffer),
	}
	page.Ctrl = workflow.New(policy, api, data.state,
		workflow.WithLogger(h.Log.With(zap.String("policy", kind), zap.String("tenant_id", params.TenantID))),
		workflow.WithObserver(page.observe),
		workflow.WithSectionAssignments(data.sections),
	)
	page.ID = h.Pages.Put(u.ID, page)
	return page, nil
}

// pageData is what a page loads before it opens.
type pageData struct {
	tenant   models.Tenant
	state    reconcile.State
	sections []models.SectionAssignment
}

// load fetches the tenant record, the page collections and, for pages that
// assign sections, the section data concurrently. The tenant only drives
// colors and display modes, so failing to read it falls back to defaults.
func (h *Handler) load(ctx context.Context, api *apiclient.Session, p assignpolicy.Policy) (pageData, error) {
	var (
		tenantItem models.Item
		data       pageData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		path := "/api/tenant_admin/tenant/" + url.PathEscape(p.TenantID())
		if err := api.Get(gctx, path, &tenantItem); err != nil {
			h.Log.Debug("tenant record unavailable; using defaults",
				zap.String("tenant_id", p.TenantID()), zap.Error(err))
			tenantItem = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		data.state, err = p.Load(gctx, api)
		return err
	})
	if sa, ok := assignpolicy.AssignsSections(p); ok {
		g.Go(func() error {
			var err error
			data.sections, err = sa.LoadSectionAssignments(gctx, api)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return pageData{}, err
	}
	data.tenant = models.TenantFromItem(tenantItem)
	if data.tenant.ID == "" {
		data.tenant.ID = p.TenantID()
	}
	return data, nil
}

// lookup finds the caller's page or writes the page-expired response.
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

// audit records the mutations the last controller call produced.
func (h *Handler) audit(r *http.Request, p *Page) {
	invite := p.Ctrl.Policy().InviteMode()
	for _, e := range p.drain() {
		h.Audit.Mutation(r.Context(), r, p.Actor, e, invite)
	}
}
