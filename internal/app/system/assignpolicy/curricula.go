package assignpolicy

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

func pathEscape(s string) string { return url.PathEscape(s) }

// Curricula assigns curricula to a tenant directly.
type Curricula struct {
	tenantID string
}

// NewCurricula returns the curricula page for tenantID.
func NewCurricula(tenantID string) *Curricula {
	return &Curricula{tenantID: tenantID}
}

func (p *Curricula) Name() string     { return KindCurricula }
func (p *Curricula) TenantID() string { return p.tenantID }
func (p *Curricula) InviteMode() bool { return false }
func (p *Curricula) Archived() bool   { return false }

func (p *Curricula) Endpoints() Endpoints {
	t := pathEscape(p.tenantID)
	return Endpoints{
		Assign:   "/api/superadmin/assign_curriculums_to_tenant/" + t,
		Unassign: "/api/superadmin/unassign_curriculum_from_tenant/" + t,
	}
}

func (p *Curricula) Fields() FieldMapping {
	return FieldMapping{
		KeyField:     "curriculum_code",
		LabelField:   "curriculum_name",
		TitleFields:  []string{"curriculum_name"},
		OrderFields:  []string{"npp_name", "class_code"},
		KeysToIgnore: []string{"curriculum_code", "npp_code"},
		Columns:      []string{"npp_name", "class_code"},
	}
}

func (p *Curricula) Labels() Labels {
	return Labels{
		Title:             "Kurikulumi",
		AssignedTitle:     "Kurikulumi",
		AddButton:         "Dodaj kurikulum",
		ModalTitle:        "Odaberi kurikulume",
		SearchPlaceholder: "Pretraži naziv kurikuluma",
		Note:              "Možete odabrati više kurikuluma za školu.",
		Noun:              "kurikulum",
		AssignError:       "Došlo je do greške prilikom dodijeljivanja kurikuluma školi.",
		UnassignError:     "Došlo je do greške prilikom uklanjanja kurikuluma.",
		EmptyAssigned:     "Školi još nije dodijeljen nijedan kurikulum.",
	}
}

func (p *Curricula) Display(t models.Tenant) (models.DisplayMode, models.DisplayMode) {
	return t.CurriculumDisplay, models.DisplayTable
}

// Load fetches the assigned and assignable curricula in parallel.
func (p *Curricula) Load(ctx context.Context, api Getter) (reconcile.State, error) {
	t := pathEscape(p.tenantID)
	var st reconcile.State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := api.Get(gctx, "/api/tenant_admin/get_curriculums_for_tenant/"+t, &st.Assigned); err != nil {
			return fmt.Errorf("load assigned curricula: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := api.Get(gctx, "/api/tenant_admin/get_curriculums_for_assignment/"+t, &st.Available); err != nil {
			return fmt.Errorf("load available curricula: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return reconcile.State{}, err
	}
	return st, nil
}

func (p *Curricula) DeleteInviteBody(models.PendingInvite) any       { return nil }
func (p *Curricula) DeleteInviteMessage(models.PendingInvite) string { return "" }
