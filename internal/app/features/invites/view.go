// internal/app/features/invites/view.go
package invites

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/listview"
	"github.com/dalemusser/gradebook/internal/app/system/viewdata"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

const pageTitle = "Pozivi u odjeljenja"

type bodyVM struct {
	ActionURL string
	Err       string
	Page      int
	List      listview.View
}

type pageVM struct {
	viewdata.BaseVM
	Body bodyVM
}

func (h *Handler) pageVM(r *http.Request, p *Page) pageVM {
	return pageVM{
		BaseVM: viewdata.NewBaseVM(r, pageTitle, "/"),
		Body:   h.bodyVM(r, p),
	}
}

func (h *Handler) loadFailedVM(r *http.Request) pageVM {
	return pageVM{
		BaseVM: viewdata.NewBaseVM(r, pageTitle, "/"),
		Body: bodyVM{
			Err:  labels.InviteLoadError,
			Page: 1,
			List: listview.Build(nil, listview.Options{Mode: models.DisplayCard}),
		},
	}
}

func pending(it models.Item) bool {
	return models.InviteFromItem(it).IsPending()
}

func (h *Handler) bodyVM(r *http.Request, p *Page) bodyVM {
	snap := p.Inbox.Snapshot()
	cfg := p.Inbox.Config()
	page := formPage(r)
	return bodyVM{
		ActionURL: "/invites/p/" + p.ID,
		Err:       snap.Err,
		Page:      page,
		List: listview.Build(listview.InviteItems(snap.Invites), listview.Options{
			Mode:         models.DisplayCard,
			TitleFields:  []string{cfg.TitleField},
			KeysToIgnore: cfg.KeysToIgnore,
			Columns:      []string{"tenant_name", "status", "invite_date"},
			Page:         page,
			PageSize:     h.PageSize,
			RowKey:       listview.InviteRowKey,
			ValueLabel:   labels.DateValue,
			EmptyMessage: "Nemate poziva.",
			Actions: []listview.Action{
				{Name: "decline", Label: "Odbij", Color: "secondary", Show: pending},
				{Name: "accept", Label: "Prihvati", Color: "primary", Show: pending},
			},
		}),
	}
}

func formPage(r *http.Request) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("page")))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
