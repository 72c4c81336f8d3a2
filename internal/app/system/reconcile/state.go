package reconcile

import "github.com/dalemusser/gradebook/internal/domain/models"

// State is the three collections of an assignment page.
//
// Invariant: an item key never appears in both Available and Assigned.
type State struct {
	Available []models.Item
	Assigned  []models.Item
	Pending   []models.PendingInvite
}

// Clone returns a copy whose slices do not share backing arrays with s.
func (s State) Clone() State {
	return State{
		Available: append([]models.Item(nil), s.Available...),
		Assigned:  append([]models.Item(nil), s.Assigned...),
		Pending:   append([]models.PendingInvite(nil), s.Pending...),
	}
}

// Action is a confirmed server mutation.
type Action interface {
	apply(State) State
}

// Assigned records a direct assignment: the items move to Assigned.
type Assigned struct {
	IDs      []string
	KeyField string
}

func (a Assigned) apply(s State) State {
	moved, remaining := ApplyAssign(a.IDs, s.Available, a.KeyField)
	assigned := make([]models.Item, 0, len(s.Assigned)+len(moved))
	assigned = append(assigned, s.Assigned...)
	assigned = append(assigned, moved...)
	return State{
		Available: remaining,
		Assigned:  assigned,
		Pending:   append([]models.PendingInvite(nil), s.Pending...),
	}
}

// AssignedInvite records invitations sent for IDs. The items leave
// Available; the invites the server created (Returned) join Pending.
type AssignedInvite struct {
	IDs      []string
	KeyField string
	Returned []models.PendingInvite
}

func (a AssignedInvite) apply(s State) State {
	_, remaining := ApplyAssign(a.IDs, s.Available, a.KeyField)
	return State{
		Available: remaining,
		Assigned:  append([]models.Item(nil), s.Assigned...),
		Pending:   ApplyAssignInviteMode(a.Returned, s.Pending),
	}
}

// Unassigned records removal of one assigned item.
type Unassigned struct {
	ID          string
	KeyField    string
	OrderFields []string
}

func (a Unassigned) apply(s State) State {
	assigned, available := ApplyUnassign(a.ID, s.Assigned, s.Available, a.KeyField, a.OrderFields)
	return State{
		Available: available,
		Assigned:  assigned,
		Pending:   append([]models.PendingInvite(nil), s.Pending...),
	}
}

// InviteDeleted records a withdrawn invitation. Restored is the invitee
// returned by the server, or nil when the page does not restore invitees.
type InviteDeleted struct {
	Invite     models.PendingInvite
	Restored   models.Item
	MatchField string
}

func (a InviteDeleted) apply(s State) State {
	pending, available := ApplyDeleteInvite(a.Invite, a.Restored, s.Pending, s.Available, a.MatchField)
	return State{
		Available: available,
		Assigned:  append([]models.Item(nil), s.Assigned...),
		Pending:   pending,
	}
}

// InviteDecided records an accepted or declined invitation.
type InviteDecided struct {
	Invite   models.PendingInvite
	Decision models.InviteDecision
}

func (a InviteDecided) apply(s State) State {
	out := s.Clone()
	out.Pending = ApplyInviteDecision(a.Invite, a.Decision, s.Pending)
	return out
}

// SectionsAssigned records a saved teacher section assignment. The
// teacher's open invites in Sections are replaced by Invites. Teachers, when
// the server returned the list, replaces Assigned.
type SectionsAssigned struct {
	TeacherID string
	Sections  []string
	Invites   []models.PendingInvite
	Teachers  []models.Item
}

func (a SectionsAssigned) apply(s State) State {
	out := s.Clone()
	out.Pending = ApplySectionInvites(a.TeacherID, a.Sections, a.Invites, s.Pending)
	if a.Teachers != nil {
		out.Assigned = append([]models.Item(nil), a.Teachers...)
	}
	return out
}

// Reduce returns the state after action. s is not modified.
func Reduce(s State, action Action) State {
	if action == nil {
		return s.Clone()
	}
	return action.apply(s)
}
