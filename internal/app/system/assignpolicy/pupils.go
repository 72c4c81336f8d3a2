package assignpolicy

import (
	"context"
	"fmt"

	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
)

// SectionPupils invites pupils into a section. Accepted invites make the
// pupil a section member; pending ones can be withdrawn.
type SectionPupils struct {
	tenantID    string
	sectionID   string
	sectionName string
	archived    bool
}

// NewSectionPupils returns the pupils page of one section.
func NewSectionPupils(tenantID, sectionID, sectionName string, archived bool) *SectionPupils {
	return &SectionPupils{tenantID: tenantID, sectionID: sectionID, sectionName: sectionName, archived: archived}
}

func (p *SectionPupils) Name() string     { return KindPupils }
func (p *SectionPupils) TenantID() string { return p.tenantID }
func (p *SectionPupils) InviteMode() bool { return true }
func (p *SectionPupils) Archived() bool   { return p.archived }

func (p *SectionPupils) Endpoints() Endpoints {
	t, s := pathEscape(p.tenantID), pathEscape(p.sectionID)
	return Endpoints{
		Assign:       "/api/teacher/send_section_invite/" + t + "/" + s,
		Unassign:     "/api/teacher/unassign_pupil_from_section/" + t + "/" + s,
		DeleteInvite: "/api/teacher/delete_pupil_invite",
	}
}

func (p *SectionPupils) Fields() FieldMapping {
	return FieldMapping{
		KeyField:              "id",
		LabelField:            "email",
		TitleFields:           []string{"email"},
		OrderFields:           []string{"email"},
		KeysToIgnore:          []string{"unenrolled"},
		Columns:               []string{"name", "last_name"},
		PendingTitleFields:    []string{"pupil_full_name"},
		PendingKeysToIgnore:   []string{"pupil_id", "section_id", "tenant_id"},
		PendingMatchField:     "pupil_id",
		RestoreOnInviteDelete: true,
		SearchOnly:            true,
	}
}

func (p *SectionPupils) Labels() Labels {
	title := "Učenici"
	if p.sectionName != "" {
		title = p.sectionName + " - Učenici"
	}
	return Labels{
		Title:             title,
		AssignedTitle:     "Učenici u odjeljenju",
		PendingTitle:      "Pozvani učenici",
		AddButton:         "Pozovi učenike",
		ModalTitle:        "Pozovi učenike u odjeljenje",
		SearchPlaceholder: "Pretraži email učenika",
		Note:              "Možete odabrati više učenika za odjeljenje.",
		Noun:              "učenika",
		PendingNoun:       "učenika",
		AssignError:       "Došlo je do greške prilikom pozivanja učenika odjeljenju.",
		UnassignError:     "Došlo je do greške prilikom uklanjanja učenika iz odjeljenja.",
		DeleteInviteError: "Došlo je do greške prilikom brisanja poziva.",
		InviteSuccess:     "Učenici su uspješno pozvani u odjeljenje.",
		EmptyAssigned:     "U odjeljenju još nema učenika.",
		EmptyPending:      "Nema poslanih poziva.",
	}
}

func (p *SectionPupils) Display(t models.Tenant) (models.DisplayMode, models.DisplayMode) {
	return t.PupilDisplay, t.PupilInviteDisplay
}

type sectionPupilsResponse struct {
	Pupils              []models.Item          `json:"pupils"`
	PendingPupils       []models.PendingInvite `json:"pending_pupils" validate:"dive"`
	PupilsForAssignment []models.Item          `json:"pupils_for_assignment"`
}

// Load fetches members, pending invites and invitable pupils in one call.
func (p *SectionPupils) Load(ctx context.Context, api Getter) (reconcile.State, error) {
	var resp sectionPupilsResponse
	path := "/api/teacher/pupils/" + pathEscape(p.tenantID) + "/" + pathEscape(p.sectionID)
	if err := api.Get(ctx, path, &resp); err != nil {
		return reconcile.State{}, fmt.Errorf("load section pupils: %w", err)
	}
	return reconcile.State{
		Assigned:  resp.Pupils,
		Pending:   resp.PendingPupils,
		Available: resp.PupilsForAssignment,
	}, nil
}

func (p *SectionPupils) DeleteInviteBody(inv models.PendingInvite) any {
	return map[string]any{
		"invite_id": inv.Fields["id"],
		"pupil_id":  inv.Fields["pupil_id"],
		"tenant_id": inv.Fields["tenant_id"],
	}
}

func (p *SectionPupils) DeleteInviteMessage(inv models.PendingInvite) string {
	return fmt.Sprintf("Da li ste sigurni da želite izbrisati poziv u odjeljenje %s (%s) za učenika %s?",
		inv.Fields.String("section_name"), inv.Fields.String("tenant_name"), inv.Fields.String("pupil_full_name"))
}
