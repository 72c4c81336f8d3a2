// internal/app/features/home/lists.go
package home

import (
	"context"
	"net/http"
	"net/url"

	uierrors "github.com/dalemusser/gradebook/internal/app/features/errors"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/listview"
	"github.com/dalemusser/gradebook/internal/app/system/paging"
	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"github.com/dalemusser/gradebook/internal/app/system/viewdata"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Link is a navigation button on a card.
type Link struct {
	Href  string
	Label string
}

// card is a listview row with its links.
type card struct {
	listview.Row
	Palette models.Palette
	Links   []Link
}

type listVM struct {
	viewdata.BaseVM
	Empty        bool
	EmptyMessage string
	Cards        []card
	Paging       paging.Window
	PageURL      string // query string is appended
}

var tenantsIgnore = []string{
	"color_config", "teacher_display", "teacher_invite_display", "pupil_display",
	"pupil_invite_display", "section_display", "curriculum_display", "semester_display",
	"canton_code", "tenant_type",
}

var sectionsIgnore = []string{
	"section_code", "class_code", "semester_code", "tenant_id", "homeroom_teacher_id",
	"curriculum_code", "color_config", "pupil_display", "pupil_invite_display",
	"lesson_display", "absence_display",
}

// ServeTenants lists all tenants for root accounts.
// GET /tenants
func (h *Handler) ServeTenants(w http.ResponseWriter, r *http.Request) {
	var items []models.Item
	if !h.fetch(w, r, "/api/superadmin/tenants", &items) {
		return
	}
	vm := h.build(r, "Institucije", items, listview.Options{
		TitleFields:  []string{"tenant_name"},
		KeysToIgnore: tenantsIgnore,
		EmptyMessage: "Nema institucija.",
	}, func(it models.Item) []Link {
		t := url.PathEscape(it.Key("id"))
		return []Link{
			{Href: "/assign/curricula/" + t, Label: "Kurikulumi"},
			{Href: "/assign/teachers/" + t, Label: "Nastavnici"},
		}
	})
	vm.PageURL = "/tenants?"
	templates.Render(w, r, "home_list", vm)
}

// ServeSections lists the teacher's sections; ?archived=1 lists archived ones.
// GET /sections
func (h *Handler) ServeSections(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	archived := query.Get(r, "archived") == "1"
	flag, title := "0", "Moja odjeljenja"
	if archived {
		flag, title = "1", "Arhivirana odjeljenja"
	}

	var items []models.Item
	if !h.fetch(w, r, "/api/teacher/sections/"+url.PathEscape(u.ID)+"/"+flag, &items) {
		return
	}
	vm := h.build(r, title, items, listview.Options{
		TitleFields:  []string{"name"},
		KeysToIgnore: sectionsIgnore,
		EmptyMessage: "Nemate odjeljenja.",
	}, func(it models.Item) []Link {
		return []Link{{Href: pupilsHref(it, archived), Label: "Učenici"}}
	})
	vm.PageURL = "/sections?archived=" + flag + "&"
	templates.Render(w, r, "home_list", vm)
}

// pupilsHref links a section card to its pupils page.
func pupilsHref(it models.Item, archived bool) string {
	q := url.Values{}
	q.Set("name", it.String("name"))
	if archived {
		q.Set("archived", "1")
	}
	return "/assign/pupils/" + url.PathEscape(it.Key("tenant_id")) + "/" + url.PathEscape(it.Key("id")) + "?" + q.Encode()
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, path string, out any) bool {
	u, ok := auth.CurrentUser(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return false
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.API.WithToken(u.Token).Get(ctx, path, out); err != nil {
		h.Log.Warn("home list load failed", zap.String("path", path), zap.Error(err))
		uierrors.RenderServerError(w, r, apiclient.UserMessage(err, labels.LoadError), "/")
		return false
	}
	return true
}

func (h *Handler) build(r *http.Request, title string, items []models.Item, o listview.Options, links func(models.Item) []Link) listVM {
	o.Page = paging.ParsePage(r)
	o.PageSize = h.PageSize
	v := listview.Build(items, o)

	vm := listVM{
		BaseVM:       viewdata.NewBaseVM(r, title, "/"),
		Empty:        v.Empty,
		EmptyMessage: v.EmptyMessage,
		Paging:       v.Paging,
	}
	visible := paging.Slice(items, v.Paging)
	for i, row := range v.Rows {
		it := visible[i]
		vm.Cards = append(vm.Cards, card{
			Row:     row,
			Palette: models.ParseColorConfig(it.String("color_config")).Palette(),
			Links:   links(it),
		})
	}
	return vm
}
