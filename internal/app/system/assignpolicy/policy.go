// Package assignpolicy describes each assignment page: which endpoints it
// calls, which fields identify and label its items, and its copy.
//
// The workflow controller is generic; a Policy is what makes it the
// curricula page, the section pupils page or the tenant teachers page.
package assignpolicy

import (
	"context"

	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

// Getter is the read side of the API used to load a page.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Endpoints are the API paths a page mutates through. Unassign is a prefix;
// the item key is appended as the last path segment. An empty Assign means
// the page has no assign action.
type Endpoints struct {
	Assign       string
	Unassign     string
	DeleteInvite string
}

// FieldMapping names the item fields a page cares about.
type FieldMapping struct {
	KeyField     string
	LabelField   string   // shown in the selection modal and searched
	TitleFields  []string // card/row title; joined with a space
	OrderFields  []string // order of available items after unassign
	KeysToIgnore []string
	Columns      []string // preferred column order; other fields follow sorted

	PendingTitleFields  []string
	PendingKeysToIgnore []string
	// PendingMatchField, when set, withdraws every pending invite of the
	// same invitee on delete (e.g. "pupil_id").
	PendingMatchField string
	// RestoreOnInviteDelete means the delete-invite response is the
	// invitee, which goes back into the available collection.
	RestoreOnInviteDelete bool

	// SearchOnly hides the selection list until the user types a query.
	SearchOnly bool
}

// Labels is the page copy.
type Labels struct {
	Title             string
	AssignedTitle     string
	PendingTitle      string
	AddButton         string
	ModalTitle        string
	SearchPlaceholder string
	Note              string
	Noun              string // used in "izbrisati <noun> ..." confirmations
	PendingNoun       string
	AssignError       string
	UnassignError     string
	DeleteInviteError string
	InviteSuccess     string
	EmptyAssigned     string
	EmptyPending      string
}

// Policy is one assignment page.
type Policy interface {
	// Name is the route kind ("curricula", "pupils", "teachers").
	Name() string
	// TenantID is the tenant whose collections the page manages.
	TenantID() string
	Endpoints() Endpoints
	Fields() FieldMapping
	Labels() Labels
	// InviteMode pages create pending invites instead of assigning directly.
	InviteMode() bool
	// Archived pages are read-only.
	Archived() bool
	// Display picks the assigned and pending display modes for the tenant.
	Display(t models.Tenant) (assigned, pending models.DisplayMode)
	// Load fetches the initial collections.
	Load(ctx context.Context, api Getter) (reconcile.State, error)
	// DeleteInviteBody is the JSON body of the delete-invite call.
	DeleteInviteBody(inv models.PendingInvite) any
	// DeleteInviteMessage is the confirmation text for withdrawing inv.
	DeleteInviteMessage(inv models.PendingInvite) string
}

// SectionAssigner is implemented by pages whose assign action gives one
// teacher subjects in sections instead of moving items between lists.
type SectionAssigner interface {
	// LoadSectionAssignments fetches every teacher's standing per section.
	LoadSectionAssignments(ctx context.Context, api Getter) ([]models.SectionAssignment, error)
	// SectionAssignPath is the POST path saving teacherID's sections.
	SectionAssignPath(teacherID string) string
}

// AssignsSections returns p as a SectionAssigner when it is one.
func AssignsSections(p Policy) (SectionAssigner, bool) {
	sa, ok := p.(SectionAssigner)
	return sa, ok
}

// UnassignPath returns the DELETE path for removing key.
func UnassignPath(p Policy, key string) string {
	return p.Endpoints().Unassign + "/" + pathEscape(key)
}

// CanAssign reports whether the page offers the assign action.
func CanAssign(p Policy) bool {
	return p.Endpoints().Assign != "" && !p.Archived()
}

// Title joins the title fields of it.
func Title(it models.Item, fields []string) string {
	return it.Join(fields)
}
