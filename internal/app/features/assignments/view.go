// internal/app/features/assignments/view.go
package assignments

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/listview"
	"github.com/dalemusser/gradebook/internal/app/system/viewdata"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

// listVM is one collection plus what its buttons and pager post to.
type listVM struct {
	listview.View
	ActionURL string
	PageParam string
	Palette   models.Palette
}

// selectVM is the selection modal.
type selectVM struct {
	Title       string
	Placeholder string
	Note        string
	Err         string
	Busy        bool
	ActionURL   string
	Palette     models.Palette
	listview.Selection
}

// confirmVM is a confirmation modal.
type confirmVM struct {
	Title     string
	Message   string
	ActionURL string // posted on confirm
	CancelURL string
	Err       string
	Busy      bool
	Palette   models.Palette
}

// sectionsVM is the teacher section assignment modal.
type sectionsVM struct {
	Title     string
	Note      string
	Err       string
	Busy      bool
	ActionURL string
	Palette   models.Palette

	TeacherID string
	Teachers  []teacherOption
	Sections  []sectionVM
	// NoSections is shown when the tenant has no active sections.
	NoSections string
}

type teacherOption struct {
	ID       string
	Name     string
	Selected bool
}

// sectionVM is one section of the chosen teacher. Pending and assigned
// subjects start checked; unchecking them withdraws or removes them.
type sectionVM struct {
	ID              string
	Name            string
	Available       []models.Subject
	Pending         []models.Subject
	Assigned        []models.Subject
	Homeroom        bool
	PendingHomeroom bool
}

// bodyVM is everything under #assign-body; every action re-renders it.
type bodyVM struct {
	ActionURL string
	Title     string
	Note      string
	AddButton string
	Palette   models.Palette

	CanAssign   bool
	InviteMode  bool
	Archived    bool
	ArchivedMsg string

	ShowPending   bool
	AssignedTitle string
	PendingTitle  string
	Assigned      listVM
	Pending       listVM

	Page        int
	PendingPage int

	Err    string
	Notice string
	Busy   bool

	Select   *selectVM
	Sections *sectionsVM
	Confirm  *confirmVM
}

type pageVM struct {
	viewdata.BaseVM
	Body bodyVM
}

// viewParams carries request-scoped view input that is not controller
// state: the open modal's query and checked keys.
type viewParams struct {
	Query    string
	Selected []string
	Err      string // modal-local message not held by the controller
}

func (h *Handler) pageVM(r *http.Request, p *Page, vp viewParams) pageVM {
	return pageVM{
		BaseVM: viewdata.NewBaseVM(r, p.Ctrl.Policy().Labels().Title, "/"),
		Body:   h.bodyVM(r, p, vp),
	}
}

func (h *Handler) bodyVM(r *http.Request, p *Page, vp viewParams) bodyVM {
	pol := p.Ctrl.Policy()
	snap := p.Ctrl.Snapshot()
	f, l := pol.Fields(), pol.Labels()
	palette := p.Tenant.Color.Palette()
	assignedMode, pendingMode := pol.Display(p.Tenant)
	action := "/assign/p/" + p.ID

	vm := bodyVM{
		ActionURL:     action,
		Title:         l.Title,
		Note:          l.Note,
		AddButton:     l.AddButton,
		Palette:       palette,
		CanAssign:     assignpolicy.CanAssign(pol),
		InviteMode:    pol.InviteMode(),
		Archived:      pol.Archived(),
		ShowPending:   snap.Tab() == workflow.ViewingPending,
		AssignedTitle: l.AssignedTitle,
		PendingTitle:  l.PendingTitle,
		Page:          formPage(r, "page"),
		PendingPage:   formPage(r, "ppage"),
		Notice:        snap.Notice,
		Busy:          snap.Busy,
	}
	if vm.Archived {
		vm.ArchivedMsg = labels.Archived
	}

	var unassign []listview.Action
	if !vm.Archived {
		unassign = []listview.Action{{Name: "unassign", Label: "Izbriši", Color: "secondary"}}
		if _, ok := assignpolicy.AssignsSections(pol); ok && vm.CanAssign {
			unassign = append([]listview.Action{{Name: "sections", Label: l.AddButton, Color: "primary"}}, unassign...)
		}
	}
	vm.Assigned = listVM{
		View: listview.Build(snap.State.Assigned, listview.Options{
			Mode:         assignedMode,
			KeyField:     f.KeyField,
			TitleFields:  f.TitleFields,
			KeysToIgnore: f.KeysToIgnore,
			Columns:      f.Columns,
			Page:         vm.Page,
			PageSize:     h.PageSize,
			Actions:      unassign,
			EmptyMessage: l.EmptyAssigned,
		}),
		ActionURL: action,
		PageParam: "page",
		Palette:   palette,
	}

	if vm.InviteMode {
		var withdraw []listview.Action
		if !vm.Archived {
			withdraw = []listview.Action{{
				Name:  "delete_invite",
				Label: "Izbriši poziv",
				Color: "secondary",
				Show:  func(it models.Item) bool { return models.InviteFromItem(it).IsPending() },
			}}
		}
		vm.Pending = listVM{
			View: listview.Build(listview.InviteItems(snap.State.Pending), listview.Options{
				Mode:         pendingMode,
				TitleFields:  f.PendingTitleFields,
				KeysToIgnore: f.PendingKeysToIgnore,
				Page:         vm.PendingPage,
				PageSize:     h.PageSize,
				Actions:      withdraw,
				EmptyMessage: l.EmptyPending,
				RowKey:       listview.InviteRowKey,
				ValueLabel:   labels.DateValue,
			}),
			ActionURL: action,
			PageParam: "ppage",
			Palette:   palette,
		}
	}

	switch snap.Phase {
	case workflow.SelectingForAssign:
		vm.Select = &selectVM{
			Title:       l.ModalTitle,
			Placeholder: l.SearchPlaceholder,
			Note:        l.Note,
			Err:         firstNonEmpty(snap.Err, vp.Err),
			Busy:        snap.Busy,
			ActionURL:   action,
			Palette:     palette,
			Selection:   listview.Select(snap.State.Available, f.KeyField, f.LabelField, vp.Query, vp.Selected, f.SearchOnly),
		}
	case workflow.AssigningSections:
		vm.Sections = sectionsModal(snap, l.ModalTitle, l.Note, firstNonEmpty(snap.Err, vp.Err), action, palette)
	case workflow.ConfirmingUnassign:
		vm.Confirm = &confirmVM{
			Title:     labels.ConfirmDeleteTitle,
			Message:   unassignMessage(l.Noun, assignpolicy.Title(snap.Confirming, f.TitleFields)),
			ActionURL: action + "/unassign/confirm",
			CancelURL: action + "/cancel",
			Err:       snap.Err,
			Busy:      snap.Busy,
			Palette:   palette,
		}
	case workflow.ConfirmingInviteDelete:
		msg := ""
		if snap.ConfirmingInvite != nil {
			msg = pol.DeleteInviteMessage(*snap.ConfirmingInvite)
		}
		vm.Confirm = &confirmVM{
			Title:     labels.ConfirmInviteTitle,
			Message:   msg,
			ActionURL: action + "/delete_invite/confirm",
			CancelURL: action + "/cancel",
			Err:       snap.Err,
			Busy:      snap.Busy,
			Palette:   palette,
		}
	default:
		vm.Err = snap.Err
	}
	return vm
}

func sectionsModal(snap workflow.Snapshot, title, note, errMsg, action string, palette models.Palette) *sectionsVM {
	vm := &sectionsVM{
		Title:     title,
		Note:      note,
		Err:       errMsg,
		Busy:      snap.Busy,
		ActionURL: action,
		Palette:   palette,
		TeacherID: snap.SectionTeacher,
	}
	if len(snap.SectionTeachers) == 0 {
		vm.NoSections = "Za zaduživanje nastavnika potrebno je da škola ima barem jedno aktivno odjeljenje."
	}
	for _, t := range snap.SectionTeachers {
		id := t.Key("id")
		vm.Teachers = append(vm.Teachers, teacherOption{
			ID:       id,
			Name:     t.Join([]string{"name", "last_name"}),
			Selected: id == snap.SectionTeacher,
		})
	}
	for _, a := range snap.Sections {
		vm.Sections = append(vm.Sections, sectionVM{
			ID:              a.SectionID(),
			Name:            a.Section.String("name"),
			Available:       a.AvailableSubjects,
			Pending:         a.PendingSubjects,
			Assigned:        a.AssignedSubjects,
			Homeroom:        a.IsHomeroom || a.PendingHomeroom,
			PendingHomeroom: a.PendingHomeroom,
		})
	}
	return vm
}

// sectionChoices reads the section modal form: "section" lists the checked
// sections, and add_<id>, pending_<id>, assigned_<id> and homeroom_<id>
// carry each section's checkboxes.
func sectionChoices(r *http.Request) map[string]models.SectionChoice {
	out := make(map[string]models.SectionChoice)
	for _, id := range r.Form["section"] {
		if id == "" {
			continue
		}
		out[id] = models.SectionChoice{
			Add:          r.Form["add_"+id],
			KeepPending:  r.Form["pending_"+id],
			KeepAssigned: r.Form["assigned_"+id],
			Homeroom:     r.FormValue("homeroom_"+id) == "1",
		}
	}
	return out
}

func unassignMessage(noun, title string) string {
	return strings.TrimSpace("Da li ste sigurni da želite izbrisati "+noun+" "+title) + "?"
}

// formPage reads a 1-based page number from the query string or form.
func formPage(r *http.Request, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// selectParams reads the modal form: the search box and the checked keys.
func selectParams(r *http.Request) viewParams {
	return viewParams{
		Query:    strings.TrimSpace(r.FormValue("q")),
		Selected: r.Form["key"],
	}
}
