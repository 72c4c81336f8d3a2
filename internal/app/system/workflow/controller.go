// Package workflow drives one assignment page: which modal is open, which
// item a confirmation is about, and which reconciler action a successful
// server call turns into.
//
// A Controller is generic over the page; everything page-specific comes
// from its assignpolicy.Policy.
package workflow

import (
	"context"
	"errors"
	"sync"

	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"go.uber.org/zap"
)

// Phase is the controller state.
type Phase string

const (
	Idle                   Phase = "idle"
	SelectingForAssign     Phase = "selecting"
	ConfirmingUnassign     Phase = "confirm_unassign"
	ViewingPending         Phase = "pending"
	ConfirmingInviteDelete Phase = "confirm_invite_delete"
	AssigningSections      Phase = "assign_sections"
)

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current phase. State is left untouched.
	ErrInvalidTransition = errors.New("workflow: action not allowed in current state")
	// ErrArchived is returned for mutations on a read-only page.
	ErrArchived = errors.New("workflow: page is archived")
	// ErrUnknownItem is returned when a key is not in the collection the
	// action targets.
	ErrUnknownItem = errors.New("workflow: unknown item")
	// ErrEmptySelection is returned by Save when none of the selected keys
	// are available.
	ErrEmptySelection = errors.New("workflow: nothing selected")
	// ErrBusy is returned while a mutation is in flight.
	ErrBusy = errors.New("workflow: mutation in progress")
)

// API is the write side of the remote API. *apiclient.Session satisfies it.
type API interface {
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, body, out any) error
}

// Snapshot is a copy of the controller state for rendering.
type Snapshot struct {
	Phase  Phase
	State  reconcile.State
	Busy   bool
	Err    string
	Notice string

	// Confirming holds the item of a pending unassign confirmation.
	Confirming models.Item
	// ConfirmingInvite holds the invite of a pending delete confirmation.
	ConfirmingInvite *models.PendingInvite

	// While AssigningSections: the teachers that can be given sections, the
	// chosen one (may be empty) and that teacher's sections.
	SectionTeachers []models.Item
	SectionTeacher  string
	Sections        []models.SectionAssignment

	// Version increases with every state change.
	Version uint64
}

// Tab returns the list the page shows under any modal.
func (s Snapshot) Tab() Phase {
	switch s.Phase {
	case ViewingPending, ConfirmingInviteDelete:
		return ViewingPending
	}
	return Idle
}

// Controller is one page instance. Methods are safe for concurrent use.
//
// Mutations are serialized: opMu is held across the network call, and the
// result is reduced into the state current at completion, never into a
// copy taken before the call.
type Controller struct {
	policy assignpolicy.Policy
	api    API
	log    *zap.Logger
	notify func(Event)

	opMu sync.Mutex

	mu    sync.Mutex
	phase Phase
	tab   Phase
	state reconcile.State
	// sections is the per-teacher section data of a SectionAssigner page.
	sections []models.SectionAssignment
	busy     bool
	errMsg   string
	notice   string
	target   string
	version  uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithObserver registers fn to receive an Event after every mutation. fn
// runs under the controller lock and must not call back into it.
func WithObserver(fn func(Event)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithSectionAssignments sets the section data a SectionAssigner page
// starts with.
func WithSectionAssignments(data []models.SectionAssignment) Option {
	return func(c *Controller) {
		c.sections = append([]models.SectionAssignment(nil), data...)
	}
}

// New returns a controller in Idle holding initial.
func New(p assignpolicy.Policy, api API, initial reconcile.State, opts ...Option) *Controller {
	c := &Controller{
		policy: p,
		api:    api,
		log:    zap.NewNop(),
		phase:  Idle,
		tab:    Idle,
		state:  initial.Clone(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Policy returns the page policy.
func (c *Controller) Policy() assignpolicy.Policy { return c.policy }

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		Phase:   c.phase,
		State:   c.state.Clone(),
		Busy:    c.busy,
		Err:     c.errMsg,
		Notice:  c.notice,
		Version: c.version,
	}
	switch c.phase {
	case ConfirmingUnassign:
		if it, ok := c.findAssigned(c.target); ok {
			s.Confirming = it
		}
	case ConfirmingInviteDelete:
		if inv, ok := c.findPending(c.target); ok {
			s.ConfirmingInvite = &inv
		}
	case AssigningSections:
		s.SectionTeachers = c.sectionTeachers()
		s.SectionTeacher = c.target
		s.Sections = c.teacherSections(c.target)
	}
	return s
}

// OpenAssign opens the selection modal.
func (c *Controller) OpenAssign() error {
	return c.transition(func() error {
		if !assignpolicy.CanAssign(c.policy) {
			if c.policy.Archived() {
				return ErrArchived
			}
			return ErrInvalidTransition
		}
		if c.phase != c.tab {
			return ErrInvalidTransition
		}
		if _, ok := assignpolicy.AssignsSections(c.policy); ok {
			c.phase, c.target = AssigningSections, ""
		} else {
			c.phase = SelectingForAssign
		}
		c.notice = ""
		return nil
	})
}

// OpenSectionAssign opens the section assignment modal on a SectionAssigner
// page, or switches the open modal to another teacher. An empty teacherID
// opens it with no teacher chosen.
func (c *Controller) OpenSectionAssign(teacherID string) error {
	return c.transition(func() error {
		if _, ok := assignpolicy.AssignsSections(c.policy); !ok || !assignpolicy.CanAssign(c.policy) {
			if c.policy.Archived() {
				return ErrArchived
			}
			return ErrInvalidTransition
		}
		if c.phase != c.tab && c.phase != AssigningSections {
			return ErrInvalidTransition
		}
		if teacherID != "" && len(c.teacherSections(teacherID)) == 0 {
			return ErrUnknownItem
		}
		if c.phase != AssigningSections {
			c.notice = ""
		}
		c.phase = AssigningSections
		c.target = teacherID
		c.errMsg = ""
		return nil
	})
}

// CloseAssign closes the selection modal without saving.
func (c *Controller) CloseAssign() error {
	return c.transition(func() error {
		if c.phase != SelectingForAssign && c.phase != AssigningSections {
			return ErrInvalidTransition
		}
		c.phase = c.tab
		c.target = ""
		c.errMsg = ""
		return nil
	})
}

// ClickUnassign asks for confirmation before removing the assigned item key.
func (c *Controller) ClickUnassign(key string) error {
	return c.transition(func() error {
		if c.policy.Archived() {
			return ErrArchived
		}
		if c.phase != Idle {
			return ErrInvalidTransition
		}
		if _, ok := c.findAssigned(key); !ok {
			return ErrUnknownItem
		}
		c.phase = ConfirmingUnassign
		c.target = key
		return nil
	})
}

// ClickDeleteInvite asks for confirmation before withdrawing the invite
// with the given composite key (see models.InviteKey).
func (c *Controller) ClickDeleteInvite(key string) error {
	return c.transition(func() error {
		if c.policy.Archived() {
			return ErrArchived
		}
		if c.phase != ViewingPending {
			return ErrInvalidTransition
		}
		if _, ok := c.findPending(key); !ok {
			return ErrUnknownItem
		}
		c.phase = ConfirmingInviteDelete
		c.target = key
		return nil
	})
}

// Cancel closes any open modal without changing collections.
func (c *Controller) Cancel() error {
	return c.transition(func() error {
		switch c.phase {
		case SelectingForAssign, ConfirmingUnassign, ConfirmingInviteDelete, AssigningSections:
			c.phase = c.tab
			c.target = ""
			return nil
		}
		return ErrInvalidTransition
	})
}

// ViewPending switches to the pending invites list.
func (c *Controller) ViewPending() error {
	return c.transition(func() error {
		if !c.policy.InviteMode() {
			return ErrInvalidTransition
		}
		switch c.phase {
		case ViewingPending:
			return nil
		case Idle:
			c.phase, c.tab = ViewingPending, ViewingPending
			return nil
		}
		return ErrInvalidTransition
	})
}

// ViewAssigned switches back to the assigned list.
func (c *Controller) ViewAssigned() error {
	return c.transition(func() error {
		switch c.phase {
		case Idle:
			return nil
		case ViewingPending:
			c.phase, c.tab = Idle, Idle
			return nil
		}
		return ErrInvalidTransition
	})
}

// DismissError clears the error and the success notice.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.errMsg != "" || c.notice != "" {
		c.errMsg, c.notice = "", ""
		c.version++
	}
}

// Save assigns (or, in invite mode, invites) the selected keys.
//
// Keys that are not currently available are dropped. On failure the modal
// stays open with the error set and collections unchanged.
func (c *Controller) Save(ctx context.Context, keys []string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.phase != SelectingForAssign {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	fields := c.policy.Fields()
	ids, body := c.selection(keys, fields.KeyField)
	if len(ids) == 0 {
		c.mu.Unlock()
		return ErrEmptySelection
	}
	c.busy = true
	c.version++
	c.mu.Unlock()

	path := c.policy.Endpoints().Assign
	var (
		returned []models.PendingInvite
		err      error
	)
	if c.policy.InviteMode() {
		err = c.api.Post(ctx, path, body, &returned)
	} else {
		err = c.api.Post(ctx, path, body, nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.version++

	var decErr *apiclient.DecodeError
	switch {
	case err == nil:
	case c.policy.InviteMode() && errors.As(err, &decErr):
		// The invites exist server-side; only their records are unreadable.
		c.log.Warn("assign response not decodable",
			zap.String("policy", c.policy.Name()),
			zap.Strings("ids", ids),
			zap.Error(err))
		returned = nil
	default:
		c.log.Warn("assign failed",
			zap.String("policy", c.policy.Name()),
			zap.String("tenant_id", c.policy.TenantID()),
			zap.Strings("ids", ids),
			zap.Error(err))
		c.errMsg = apiclient.UserMessage(err, fallback(c.policy.Labels().AssignError, labels.AssignError))
		c.emit(Event{Kind: EventAssign, Keys: ids, Err: err})
		return err
	}

	if c.policy.InviteMode() {
		c.state = reconcile.Reduce(c.state, reconcile.AssignedInvite{IDs: ids, KeyField: fields.KeyField, Returned: returned})
		c.notice = fallback(c.policy.Labels().InviteSuccess, labels.PupilsInvited)
	} else {
		c.state = reconcile.Reduce(c.state, reconcile.Assigned{IDs: ids, KeyField: fields.KeyField})
	}
	c.phase = c.tab
	c.errMsg = ""
	if err != nil {
		c.notice = ""
		c.errMsg = fallback(c.policy.Labels().AssignError, labels.AssignError)
	}
	c.emit(Event{Kind: EventAssign, Keys: ids, Err: err})
	return err
}

// SaveSections saves teacherID's subjects and homeroom duty in the sections
// of choices, keyed by section id. Only the listed sections change.
//
// On success the teacher's open invites in those sections are replaced by
// the ones the server reports and the modal closes. On failure it stays open
// with the error set and collections unchanged.
func (c *Controller) SaveSections(ctx context.Context, teacherID string, choices map[string]models.SectionChoice) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	sa, ok := assignpolicy.AssignsSections(c.policy)
	if !ok || c.phase != AssigningSections {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	current := c.teacherSections(teacherID)
	if len(current) == 0 {
		c.mu.Unlock()
		return ErrUnknownItem
	}
	if len(choices) == 0 {
		c.mu.Unlock()
		return ErrEmptySelection
	}
	body := make(map[string]models.SectionAssignmentRecord, len(choices))
	sectionIDs := make([]string, 0, len(choices))
	for _, a := range current {
		choice, ok := choices[a.SectionID()]
		if !ok {
			continue
		}
		body[a.SectionID()] = a.Record(choice)
		sectionIDs = append(sectionIDs, a.SectionID())
	}
	if len(body) != len(choices) {
		c.mu.Unlock()
		return ErrUnknownItem
	}
	c.target = teacherID
	c.busy = true
	c.version++
	c.mu.Unlock()

	var res models.SectionAssignmentResult
	err := c.api.Post(ctx, sa.SectionAssignPath(teacherID), body, &res)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.version++

	keys := make([]string, 0, len(sectionIDs))
	for _, id := range sectionIDs {
		keys = append(keys, teacherID+"/"+id)
	}

	var decErr *apiclient.DecodeError
	switch {
	case err == nil:
	case errors.As(err, &decErr):
		// Saved server-side; the refreshed data is unreadable.
		c.log.Warn("section assignment response not decodable",
			zap.String("teacher_id", teacherID),
			zap.Strings("sections", sectionIDs),
			zap.Error(err))
		c.phase, c.target = c.tab, ""
		c.notice = ""
		c.errMsg = fallback(c.policy.Labels().AssignError, labels.AssignError)
		c.emit(Event{Kind: EventAssign, Keys: keys, Err: err})
		return err
	default:
		c.log.Warn("section assignment failed",
			zap.String("tenant_id", c.policy.TenantID()),
			zap.String("teacher_id", teacherID),
			zap.Strings("sections", sectionIDs),
			zap.Error(err))
		c.errMsg = apiclient.UserMessage(err, fallback(c.policy.Labels().AssignError, labels.AssignError))
		c.emit(Event{Kind: EventAssign, Keys: keys, Err: err})
		return err
	}

	var invites []models.PendingInvite
	for _, a := range res.InviteData {
		if a.TeacherID() != teacherID {
			continue
		}
		if inv, ok := a.Invite(c.policy.TenantID()); ok {
			invites = append(invites, inv)
		}
	}
	c.sections = reconcile.MergeSectionAssignments(c.sections, res.InviteData)
	c.state = reconcile.Reduce(c.state, reconcile.SectionsAssigned{
		TeacherID: teacherID,
		Sections:  sectionIDs,
		Invites:   invites,
		Teachers:  res.Teachers,
	})
	c.phase, c.target = c.tab, ""
	c.errMsg = ""
	c.notice = fallback(c.policy.Labels().InviteSuccess, labels.SectionsAssigned)
	c.emit(Event{Kind: EventAssign, Keys: keys})
	return nil
}

// ConfirmUnassign removes the item awaiting confirmation.
func (c *Controller) ConfirmUnassign(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.phase != ConfirmingUnassign {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	key := c.target
	c.busy = true
	c.version++
	c.mu.Unlock()

	err := c.api.Delete(ctx, assignpolicy.UnassignPath(c.policy, key), nil, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.version++
	c.phase = c.tab
	c.target = ""
	c.notice = ""

	if err != nil {
		c.log.Warn("unassign failed",
			zap.String("policy", c.policy.Name()),
			zap.String("tenant_id", c.policy.TenantID()),
			zap.String("key", key),
			zap.Error(err))
		c.errMsg = apiclient.UserMessage(err, fallback(c.policy.Labels().UnassignError, labels.UnassignError))
		c.emit(Event{Kind: EventUnassign, Keys: []string{key}, Err: err})
		return err
	}

	f := c.policy.Fields()
	c.state = reconcile.Reduce(c.state, reconcile.Unassigned{ID: key, KeyField: f.KeyField, OrderFields: f.OrderFields})
	c.errMsg = ""
	c.emit(Event{Kind: EventUnassign, Keys: []string{key}})
	return nil
}

// ConfirmDeleteInvite withdraws the invite awaiting confirmation.
func (c *Controller) ConfirmDeleteInvite(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.phase != ConfirmingInviteDelete {
		c.mu.Unlock()
		return ErrInvalidTransition
	}
	inv, ok := c.findPending(c.target)
	if !ok {
		c.phase, c.target = c.tab, ""
		c.version++
		c.mu.Unlock()
		return ErrUnknownItem
	}
	c.busy = true
	c.version++
	c.mu.Unlock()

	fields := c.policy.Fields()
	var (
		restored models.Item
		err      error
	)
	if fields.RestoreOnInviteDelete {
		err = c.api.Delete(ctx, c.policy.Endpoints().DeleteInvite, c.policy.DeleteInviteBody(inv), &restored)
	} else {
		err = c.api.Delete(ctx, c.policy.Endpoints().DeleteInvite, c.policy.DeleteInviteBody(inv), nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = false
	c.version++
	c.phase = c.tab
	c.target = ""
	c.notice = ""

	var decErr *apiclient.DecodeError
	switch {
	case err == nil:
	case errors.As(err, &decErr):
		// Deleted server-side; the invitee can't be restored locally.
		c.log.Warn("delete invite response not decodable",
			zap.String("policy", c.policy.Name()),
			zap.String("invite", inv.Key()),
			zap.Error(err))
		restored = nil
	default:
		c.log.Warn("delete invite failed",
			zap.String("policy", c.policy.Name()),
			zap.String("invite", inv.Key()),
			zap.Error(err))
		c.errMsg = apiclient.UserMessage(err, fallback(c.policy.Labels().DeleteInviteError, labels.DeleteInviteError))
		c.emit(Event{Kind: EventDeleteInvite, Keys: []string{inv.Key()}, Err: err})
		return err
	}

	c.state = reconcile.Reduce(c.state, reconcile.InviteDeleted{
		Invite:     inv,
		Restored:   restored,
		MatchField: fields.PendingMatchField,
	})
	c.errMsg = ""
	if err != nil {
		c.errMsg = fallback(c.policy.Labels().DeleteInviteError, labels.DeleteInviteError)
	}
	c.emit(Event{Kind: EventDeleteInvite, Keys: []string{inv.Key()}, Err: err})
	return err
}

// transition runs fn under the state lock and bumps the version when fn
// succeeds.
func (c *Controller) transition(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	if err := fn(); err != nil {
		return err
	}
	c.version++
	return nil
}

// selection keeps the keys present in available, in available order, and
// returns them with the request body: the raw key values, so numeric ids
// stay numbers on the wire.
func (c *Controller) selection(keys []string, keyField string) ([]string, []any) {
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	var (
		ids  []string
		body []any
	)
	for _, it := range c.state.Available {
		k := it.Key(keyField)
		if _, ok := want[k]; !ok {
			continue
		}
		delete(want, k)
		ids = append(ids, k)
		body = append(body, it[keyField])
	}
	return ids, body
}

func (c *Controller) findAssigned(key string) (models.Item, bool) {
	kf := c.policy.Fields().KeyField
	for _, it := range c.state.Assigned {
		if it.Key(kf) == key {
			return it, true
		}
	}
	return nil, false
}

func (c *Controller) findPending(key string) (models.PendingInvite, bool) {
	for _, inv := range c.state.Pending {
		if inv.Key() == key {
			return inv, true
		}
	}
	return models.PendingInvite{}, false
}

// sectionTeachers lists the teachers of the section data, first-seen order.
func (c *Controller) sectionTeachers() []models.Item {
	seen := make(map[string]struct{})
	var out []models.Item
	for _, a := range c.sections {
		id := a.TeacherID()
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, a.Teacher)
	}
	return out
}

// teacherSections returns teacherID's entries of the section data.
func (c *Controller) teacherSections(teacherID string) []models.SectionAssignment {
	if teacherID == "" {
		return nil
	}
	var out []models.SectionAssignment
	for _, a := range c.sections {
		if a.TeacherID() == teacherID {
			out = append(out, a)
		}
	}
	return out
}

func (c *Controller) emit(e Event) {
	if c.notify == nil {
		return
	}
	e.Policy = c.policy.Name()
	e.TenantID = c.policy.TenantID()
	c.notify(e)
}

func fallback(s, def string) string {
	if s != "" {
		return s
	}
	return def
}
