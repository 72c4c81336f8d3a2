// internal/domain/models/section_assignment.go
package models

// Subject is a subject taught in a section.
type Subject struct {
	Code string `json:"subject_code"`
	Name string `json:"subject_name"`
}

// SectionAssignment is one teacher's standing in one section of a tenant:
// the subjects they teach, the subjects they are invited to and the
// subjects still free to give them.
//
// InviteID is the teacher's open section invite (0 when there is none).
type SectionAssignment struct {
	Section           Item      `json:"section"`
	Teacher           Item      `json:"teacher"`
	AllSubjects       []Subject `json:"all_subjects"`
	AssignedSubjects  []Subject `json:"assigned_subjects"`
	PendingSubjects   []Subject `json:"pending_subjects"`
	AvailableSubjects []Subject `json:"available_subjects"`
	IsHomeroom        bool      `json:"is_homeroom_teacher"`
	PendingHomeroom   bool      `json:"is_pending_homeroom_teacher"`
	InviteID          int       `json:"invite_index_id"`
}

// SectionID returns the section id in canonical form.
func (a SectionAssignment) SectionID() string { return a.Section.Key("id") }

// TeacherID returns the teacher id in canonical form.
func (a SectionAssignment) TeacherID() string { return a.Teacher.Key("id") }

// TeacherName is "name last_name".
func (a SectionAssignment) TeacherName() string {
	return a.Teacher.Join([]string{"name", "last_name"})
}

// Same reports whether a and o describe the same teacher and section.
func (a SectionAssignment) Same(o SectionAssignment) bool {
	return a.TeacherID() == o.TeacherID() && a.SectionID() == o.SectionID()
}

// Invite returns the open invite this entry describes, shaped like the
// records of the tenant's teacher invite list. ok is false when the teacher
// has nothing pending in the section.
func (a SectionAssignment) Invite(tenantID string) (inv PendingInvite, ok bool) {
	if a.InviteID == 0 || (len(a.PendingSubjects) == 0 && !a.PendingHomeroom) {
		return PendingInvite{}, false
	}
	subjects := make([]any, 0, len(a.PendingSubjects))
	for _, s := range a.PendingSubjects {
		subjects = append(subjects, map[string]any{"subject_code": s.Code, "subject_name": s.Name})
	}
	return InviteFromItem(Item{
		"id":                a.InviteID,
		"tenant_id":         tenantID,
		"teacher_id":        a.Teacher["id"],
		"teacher_full_name": a.TeacherName(),
		"teacher_email":     a.Teacher.String("email"),
		"section_id":        a.Section["id"],
		"section_name":      a.Section.String("name"),
		"subjects":          subjects,
		"homeroom_teacher":  a.PendingHomeroom,
		"status":            string(InvitePending),
	}), true
}

// SectionChoice is an administrator's edit of one section: the free
// subjects to invite the teacher to, the pending and assigned subjects to
// keep, and whether the teacher should be homeroom teacher.
type SectionChoice struct {
	Add          []string
	KeepPending  []string
	KeepAssigned []string
	Homeroom     bool
}

// CheckedSubject is a subject with the administrator's checkbox state.
type CheckedSubject struct {
	Code    string `json:"subject_code"`
	Name    string `json:"subject_name"`
	Checked bool   `json:"checked"`
}

// SectionAssignmentRecord is the request body entry for one section. Unchecked
// pending subjects are withdrawn; unchecked assigned subjects are taken away.
type SectionAssignmentRecord struct {
	AvailableSubjects []CheckedSubject `json:"availableSubjects"`
	PendingSubjects   []CheckedSubject `json:"pendingSubjects"`
	AssignedSubjects  []CheckedSubject `json:"assignedSubjects"`
	IsHomeroom        bool             `json:"isHomeroom"`
	PendingHomeroom   bool             `json:"pendingHomeroom"`
	InviteIndexID     int              `json:"inviteIndexID"`
	HomeroomRequest   bool             `json:"homeroomRequest"`
}

// Record applies c to a. Codes in c that a does not list are ignored.
func (a SectionAssignment) Record(c SectionChoice) SectionAssignmentRecord {
	return SectionAssignmentRecord{
		AvailableSubjects: checkSubjects(a.AvailableSubjects, c.Add),
		PendingSubjects:   checkSubjects(a.PendingSubjects, c.KeepPending),
		AssignedSubjects:  checkSubjects(a.AssignedSubjects, c.KeepAssigned),
		IsHomeroom:        a.IsHomeroom,
		PendingHomeroom:   a.PendingHomeroom,
		InviteIndexID:     a.InviteID,
		HomeroomRequest:   c.Homeroom,
	}
}

func checkSubjects(subjects []Subject, codes []string) []CheckedSubject {
	on := make(map[string]bool, len(codes))
	for _, c := range codes {
		on[c] = true
	}
	out := make([]CheckedSubject, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, CheckedSubject{Code: s.Code, Name: s.Name, Checked: on[s.Code]})
	}
	return out
}

// SectionAssignmentResult is the response to a saved assignment: the
// refreshed entries of the saved sections and the tenant's teachers.
type SectionAssignmentResult struct {
	InviteData []SectionAssignment `json:"invite_data"`
	Teachers   []Item              `json:"teacher_data"`
}
