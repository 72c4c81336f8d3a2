package workflow

// EventKind names a mutation.
type EventKind string

const (
	EventAssign       EventKind = "assign"
	EventUnassign     EventKind = "unassign"
	EventDeleteInvite EventKind = "delete_invite"
	EventDecide       EventKind = "invite_decision"
)

// Event describes one completed mutation attempt. Err is nil on success.
type Event struct {
	Kind     EventKind
	Policy   string
	TenantID string
	Keys     []string
	Err      error
}
