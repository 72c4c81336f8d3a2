// Package reconcile applies the outcome of a successful server mutation to
// the locally held collections of an assignment page.
//
// Every function here is pure: inputs are never modified and outputs never
// share backing arrays with inputs, so callers may keep old snapshots.
package reconcile

import (
	"slices"

	"github.com/dalemusser/gradebook/internal/domain/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ApplyAssign splits available into the items whose key is in ids (moved,
// in available order) and the rest. Ids not present in available are
// ignored.
func ApplyAssign(ids []string, available []models.Item, keyField string) (moved, remaining []models.Item) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	moved = make([]models.Item, 0, len(ids))
	remaining = make([]models.Item, 0, len(available))
	for _, it := range available {
		if _, ok := want[it.Key(keyField)]; ok {
			moved = append(moved, it)
		} else {
			remaining = append(remaining, it)
		}
	}
	return moved, remaining
}

// ApplyAssignInviteMode appends the invites the server created to pending.
func ApplyAssignInviteMode(returned, pending []models.PendingInvite) []models.PendingInvite {
	out := make([]models.PendingInvite, 0, len(pending)+len(returned))
	out = append(out, pending...)
	return append(out, returned...)
}

// ApplyUnassign removes every assigned item whose key equals id and returns
// the first of them to available, ordered by orderFields.
//
// Ordering is a stable sort of available plus the returned item, so items
// that compare equal keep their relative order and the returned item lands
// after its equals. With no orderFields the item is appended. When id is not
// assigned both collections are returned unchanged (as copies).
func ApplyUnassign(id string, assigned, available []models.Item, keyField string, orderFields []string) (nextAssigned, nextAvailable []models.Item) {
	var (
		found  models.Item
		hasHit bool
	)
	nextAssigned = make([]models.Item, 0, len(assigned))
	for _, it := range assigned {
		if it.Key(keyField) == id {
			if !hasHit {
				found, hasHit = it, true
			}
			continue
		}
		nextAssigned = append(nextAssigned, it)
	}

	nextAvailable = make([]models.Item, 0, len(available)+1)
	nextAvailable = append(nextAvailable, available...)
	if !hasHit {
		return nextAssigned, nextAvailable
	}
	nextAvailable = append(nextAvailable, found)
	if len(orderFields) > 0 {
		cmp := newComparator(orderFields)
		slices.SortStableFunc(nextAvailable, cmp.compare)
	}
	return nextAssigned, nextAvailable
}

// ApplyInviteDecision sets the status of the invite matching both id and
// tenant. Other entries are untouched. An unknown decision returns a copy of
// invites as is.
func ApplyInviteDecision(invite models.PendingInvite, decision models.InviteDecision, invites []models.PendingInvite) []models.PendingInvite {
	status, ok := decision.Status()
	out := make([]models.PendingInvite, len(invites))
	for i, inv := range invites {
		if ok && inv.Same(invite) {
			out[i] = inv.WithStatus(status)
			continue
		}
		out[i] = inv
	}
	return out
}

// ApplyDeleteInvite drops the withdrawn invite from pending and, when the
// server returned the invitee, puts it back into available.
//
// With a matchField (e.g. "pupil_id") every pending entry carrying the same
// value is removed, since the server withdraws all of that invitee's
// invites. Without one, only the invite itself is removed.
func ApplyDeleteInvite(invite models.PendingInvite, restored models.Item, pending []models.PendingInvite, available []models.Item, matchField string) ([]models.PendingInvite, []models.Item) {
	var match string
	if matchField != "" {
		match = invite.Fields.Key(matchField)
	}

	nextPending := make([]models.PendingInvite, 0, len(pending))
	for _, p := range pending {
		if p.Same(invite) {
			continue
		}
		if match != "" && p.Fields.Key(matchField) == match {
			continue
		}
		nextPending = append(nextPending, p)
	}

	nextAvailable := make([]models.Item, 0, len(available)+1)
	nextAvailable = append(nextAvailable, available...)
	if restored != nil {
		nextAvailable = append(nextAvailable, restored)
	}
	return nextPending, nextAvailable
}

// ApplySectionInvites replaces the pending invites of teacherID in sections
// with invites. Answered invites are kept; the server only reports open ones.
func ApplySectionInvites(teacherID string, sections []string, invites, pending []models.PendingInvite) []models.PendingInvite {
	touched := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		touched[s] = struct{}{}
	}
	out := make([]models.PendingInvite, 0, len(pending)+len(invites))
	for _, p := range pending {
		if p.IsPending() && p.Fields.Key("teacher_id") == teacherID {
			if _, ok := touched[p.Fields.Key("section_id")]; ok {
				continue
			}
		}
		out = append(out, p)
	}
	return append(out, invites...)
}

// MergeSectionAssignments replaces the entries of current that updated
// describes (same teacher and section) and appends the rest of updated.
func MergeSectionAssignments(current, updated []models.SectionAssignment) []models.SectionAssignment {
	out := make([]models.SectionAssignment, 0, len(current)+len(updated))
	used := make([]bool, len(updated))
	for _, c := range current {
		replaced := false
		for i, u := range updated {
			if !used[i] && c.Same(u) {
				out = append(out, u)
				used[i], replaced = true, true
				break
			}
		}
		if !replaced {
			out = append(out, c)
		}
	}
	for i, u := range updated {
		if !used[i] {
			out = append(out, u)
		}
	}
	return out
}

// Bosnian Latin shares the Croatian alphabet order (c < č < ć < d).
var collationTag = language.Croatian

// comparator orders items field by field. The first field whose values
// differ decides; missing values compare as "".
type comparator struct {
	fields []string
	col    *collate.Collator
}

// Collators keep internal buffers, so each comparator gets its own.
func newComparator(fields []string) *comparator {
	return &comparator{
		fields: fields,
		col:    collate.New(collationTag),
	}
}

func (c *comparator) compare(a, b models.Item) int {
	for _, f := range c.fields {
		av, bv := a.String(f), b.String(f)
		if av == bv {
			continue
		}
		if r := c.col.CompareString(av, bv); r != 0 {
			return r
		}
	}
	return 0
}
