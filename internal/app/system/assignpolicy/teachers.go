package assignpolicy

import (
	"context"
	"fmt"

	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// TenantTeachers lists a tenant's teachers and their section invites.
// Assigning gives a teacher subjects (and homeroom duty) in sections, which
// the server turns into section invites the teacher has to accept.
type TenantTeachers struct {
	tenantID string
}

// NewTenantTeachers returns the teachers page for tenantID.
func NewTenantTeachers(tenantID string) *TenantTeachers {
	return &TenantTeachers{tenantID: tenantID}
}

func (p *TenantTeachers) Name() string     { return KindTeachers }
func (p *TenantTeachers) TenantID() string { return p.tenantID }
func (p *TenantTeachers) InviteMode() bool { return true }
func (p *TenantTeachers) Archived() bool   { return false }

func (p *TenantTeachers) Endpoints() Endpoints {
	return Endpoints{
		Assign:       "/api/tenant_admin/teacher_section_assignments/" + pathEscape(p.tenantID),
		Unassign:     "/api/tenant_admin/delete_teacher_from_tenant/" + pathEscape(p.tenantID),
		DeleteInvite: "/api/tenant_admin/delete_teacher_invite",
	}
}

func (p *TenantTeachers) Fields() FieldMapping {
	return FieldMapping{
		KeyField:           "id",
		LabelField:         "email",
		TitleFields:        []string{"name", "last_name"},
		OrderFields:        []string{"last_name", "name"},
		KeysToIgnore:       []string{"password", "account_type", "tenant_ids"},
		Columns:            []string{"email", "phone"},
		PendingTitleFields: []string{"teacher_full_name"},
		PendingKeysToIgnore: []string{
			"teacher_id", "section_id", "tenant_id", "subjects",
		},
	}
}

func (p *TenantTeachers) Labels() Labels {
	return Labels{
		Title:             "Profesori",
		AssignedTitle:     "Profesori",
		PendingTitle:      "Pozivi nastavnicima za predmete u odjeljenjima",
		Noun:              "profesora",
		PendingNoun:       "poziv",
		AddButton:         "Zaduženja",
		ModalTitle:        "Dodijeli predmete i razredništvo",
		Note:              "Označite odjeljenja u kojima mijenjate zaduženja nastavnika.",
		AssignError:       "Greška prilikom uređivanja predmeta i razredništva.",
		InviteSuccess:     "Predmeti i razredništvo su uspješno dodijeljeni.",
		UnassignError:     "Greška prilikom uklanjanja profesora iz škole.",
		DeleteInviteError: "Greška prilikom brisanja poziva.",
		EmptyAssigned:     "Škola još nema profesora.",
		EmptyPending:      "Nema poslanih poziva.",
	}
}

func (p *TenantTeachers) Display(t models.Tenant) (models.DisplayMode, models.DisplayMode) {
	return t.TeacherDisplay, t.TeacherInviteDisplay
}

// Load fetches teachers and their invites in parallel.
func (p *TenantTeachers) Load(ctx context.Context, api Getter) (reconcile.State, error) {
	t := pathEscape(p.tenantID)
	var st reconcile.State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := api.Get(gctx, "/api/tenant_admin/teachers_per_tenant/"+t, &st.Assigned); err != nil {
			return fmt.Errorf("load teachers: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := api.Get(gctx, "/api/tenant_admin/teacher_invites/"+t, &st.Pending); err != nil {
			return fmt.Errorf("load teacher invites: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return reconcile.State{}, err
	}
	return st, nil
}

// LoadSectionAssignments fetches what each teacher teaches, is invited to
// and could still get, per section.
func (p *TenantTeachers) LoadSectionAssignments(ctx context.Context, api Getter) ([]models.SectionAssignment, error) {
	var out []models.SectionAssignment
	if err := api.Get(ctx, "/api/tenant_admin/teacher_invite_data/"+pathEscape(p.tenantID), &out); err != nil {
		return nil, fmt.Errorf("load teacher section data: %w", err)
	}
	return out, nil
}

func (p *TenantTeachers) SectionAssignPath(teacherID string) string {
	return p.Endpoints().Assign + "/" + pathEscape(teacherID)
}

func (p *TenantTeachers) DeleteInviteBody(inv models.PendingInvite) any {
	return map[string]any{
		"invite_id":  inv.Fields["id"],
		"teacher_id": inv.Fields["teacher_id"],
		"tenant_id":  inv.Fields["tenant_id"],
	}
}

func (p *TenantTeachers) DeleteInviteMessage(inv models.PendingInvite) string {
	return fmt.Sprintf("Da li ste sigurni da želite izbrisati poziv za nastavnika %s u odjeljenje %s?",
		inv.Fields.String("teacher_full_name"), inv.Fields.String("section_name"))
}
