package assignpolicy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/gradebook/internal/domain/models"
)

// fakeGetter serves canned JSON per path.
type fakeGetter struct {
	mu    sync.Mutex
	paths []string
	body  map[string]string
	err   map[string]error
}

func (f *fakeGetter) Get(_ context.Context, path string, out any) error {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	if err := f.err[path]; err != nil {
		return err
	}
	b, ok := f.body[path]
	if !ok {
		return fmt.Errorf("unexpected path %s", path)
	}
	return json.Unmarshal([]byte(b), out)
}

func TestRegistry_Build(t *testing.T) {
	reg := NewRegistry()

	if got := strings.Join(reg.Kinds(), ","); got != "curricula,pupils,teachers" {
		t.Errorf("Kinds = %s", got)
	}

	p, err := reg.Build(KindPupils, Params{TenantID: "4", SectionID: "12", SectionName: "VII-2", Archived: true})
	if err != nil {
		t.Fatalf("Build pupils: %v", err)
	}
	if !p.InviteMode() || !p.Archived() {
		t.Errorf("pupils policy: invite=%v archived=%v", p.InviteMode(), p.Archived())
	}
	if p.Labels().Title != "VII-2 - Učenici" {
		t.Errorf("Title = %q", p.Labels().Title)
	}
	if CanAssign(p) {
		t.Error("archived page must not offer assign")
	}

	if _, err := reg.Build("grades", Params{TenantID: "4"}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind err = %v", err)
	}
	if _, err := reg.Build(KindPupils, Params{TenantID: "4"}); !errors.Is(err, ErrMissingParam) {
		t.Errorf("missing section err = %v", err)
	}
	if _, err := reg.Build(KindCurricula, Params{}); !errors.Is(err, ErrMissingParam) {
		t.Errorf("missing tenant err = %v", err)
	}
}

func TestEndpoints_EscapeIDs(t *testing.T) {
	p := NewCurricula("a/b")
	if got := p.Endpoints().Assign; got != "/api/superadmin/assign_curriculums_to_tenant/a%2Fb" {
		t.Errorf("Assign = %q", got)
	}
	if got := UnassignPath(p, "MAT 1"); got != "/api/superadmin/unassign_curriculum_from_tenant/a%2Fb/MAT%201" {
		t.Errorf("UnassignPath = %q", got)
	}
}

func TestTeachers_SectionAssign(t *testing.T) {
	p := NewTenantTeachers("4")
	if !CanAssign(p) {
		t.Error("teachers page offers assign")
	}
	if got := UnassignPath(p, "17"); got != "/api/tenant_admin/delete_teacher_from_tenant/4/17" {
		t.Errorf("UnassignPath = %q", got)
	}

	sa, ok := AssignsSections(p)
	if !ok {
		t.Fatal("teachers page assigns sections")
	}
	if got := sa.SectionAssignPath("17"); got != "/api/tenant_admin/teacher_section_assignments/4/17" {
		t.Errorf("SectionAssignPath = %q", got)
	}
	if _, ok := AssignsSections(NewCurricula("4")); ok {
		t.Error("curricula page does not assign sections")
	}

	g := &fakeGetter{body: map[string]string{
		"/api/tenant_admin/teacher_invite_data/4": `[{
			"section": {"id": 7, "name": "Odjeljenje VII-2"},
			"teacher": {"id": 17, "name": "Amra", "last_name": "Begić"},
			"assigned_subjects": [{"subject_code": "MAT", "subject_name": "Matematika"}],
			"pending_subjects": [{"subject_code": "FIZ", "subject_name": "Fizika"}],
			"available_subjects": [{"subject_code": "HEM", "subject_name": "Hemija"}],
			"is_pending_homeroom_teacher": true,
			"invite_index_id": 33
		}]`,
	}}
	data, err := sa.LoadSectionAssignments(context.Background(), g)
	if err != nil {
		t.Fatalf("LoadSectionAssignments: %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("entries = %d", len(data))
	}
	a := data[0]
	if a.TeacherID() != "17" || a.SectionID() != "7" || a.InviteID != 33 || a.TeacherName() != "Amra Begić" {
		t.Errorf("entry = %+v", a)
	}
	inv, ok := a.Invite("4")
	if !ok || inv.Key() != "33:4" || !inv.IsPending() || inv.Fields.Key("teacher_id") != "17" {
		t.Errorf("invite = %+v, %v", inv, ok)
	}
}

func TestCurricula_Load(t *testing.T) {
	g := &fakeGetter{body: map[string]string{
		"/api/tenant_admin/get_curriculums_for_tenant/4":     `[{"curriculum_code":"A","curriculum_name":"Matematika"}]`,
		"/api/tenant_admin/get_curriculums_for_assignment/4": `[{"curriculum_code":"B"},{"curriculum_code":"C"}]`,
	}}

	st, err := NewCurricula("4").Load(context.Background(), g)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Assigned) != 1 || len(st.Available) != 2 {
		t.Errorf("state = %+v", st)
	}
	if len(g.paths) != 2 {
		t.Errorf("expected two calls, got %v", g.paths)
	}
}

func TestCurricula_LoadError(t *testing.T) {
	boom := errors.New("boom")
	g := &fakeGetter{
		body: map[string]string{"/api/tenant_admin/get_curriculums_for_tenant/4": `[]`},
		err:  map[string]error{"/api/tenant_admin/get_curriculums_for_assignment/4": boom},
	}
	if _, err := NewCurricula("4").Load(context.Background(), g); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestSectionPupils_Load(t *testing.T) {
	g := &fakeGetter{body: map[string]string{
		"/api/teacher/pupils/4/12": `{
			"pupils":[{"id":1,"email":"a@x.com"}],
			"pending_pupils":[{"id":9,"tenant_id":4,"pupil_id":5,"status":"pending","pupil_full_name":"Emir K."}],
			"pupils_for_assignment":[{"id":5,"email":"e@x.com"},{"id":6,"email":"f@x.com"}]
		}`,
	}}

	st, err := NewSectionPupils("4", "12", "", false).Load(context.Background(), g)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(st.Assigned) != 1 || len(st.Pending) != 1 || len(st.Available) != 2 {
		t.Fatalf("state = %+v", st)
	}
	if st.Pending[0].Key() != "9:4" {
		t.Errorf("pending key = %q", st.Pending[0].Key())
	}
}

func TestSectionPupils_DeleteInvite(t *testing.T) {
	p := NewSectionPupils("4", "12", "", false)
	inv := models.InviteFromItem(models.Item{
		"id": json.Number("9"), "tenant_id": json.Number("4"), "pupil_id": json.Number("5"),
		"section_name": "VII-2", "tenant_name": "OŠ Mula Mustafa Bašeskija", "pupil_full_name": "Emir K.",
	})

	body, err := json.Marshal(p.DeleteInviteBody(inv))
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"invite_id":9,"pupil_id":5,"tenant_id":4}` {
		t.Errorf("body = %s", body)
	}

	msg := p.DeleteInviteMessage(inv)
	for _, want := range []string{"VII-2", "OŠ Mula Mustafa Bašeskija", "Emir K."} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestDisplayModes(t *testing.T) {
	tn := models.Tenant{
		CurriculumDisplay:  models.DisplayTable,
		PupilDisplay:       models.DisplayCard,
		PupilInviteDisplay: models.DisplayTable,
	}
	if a, _ := NewCurricula("1").Display(tn); a != models.DisplayTable {
		t.Errorf("curricula display = %q", a)
	}
	if a, pend := NewSectionPupils("1", "2", "", false).Display(tn); a != models.DisplayCard || pend != models.DisplayTable {
		t.Errorf("pupils display = %q/%q", a, pend)
	}
}

func TestTitle(t *testing.T) {
	it := models.Item{"name": "Lejla", "last_name": "Mehić"}
	if got := Title(it, []string{"name", "last_name"}); got != "Lejla Mehić" {
		t.Errorf("Title = %q", got)
	}
	if got := Title(models.Item{"last_name": "Mehić"}, []string{"name", "last_name"}); got != "Mehić" {
		t.Errorf("Title with missing field = %q", got)
	}
}
