package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/app/system/reconcile"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// testPolicy is a direct-assign page keyed by id and ordered by email.
type testPolicy struct {
	archived bool
}

func (p testPolicy) Name() string     { return "test" }
func (p testPolicy) TenantID() string { return "4" }
func (p testPolicy) InviteMode() bool { return false }
func (p testPolicy) Archived() bool   { return p.archived }
func (p testPolicy) Endpoints() assignpolicy.Endpoints {
	return assignpolicy.Endpoints{Assign: "/assign/4", Unassign: "/unassign/4"}
}
func (p testPolicy) Fields() assignpolicy.FieldMapping {
	return assignpolicy.FieldMapping{KeyField: "id", LabelField: "email", OrderFields: []string{"email"}}
}
func (p testPolicy) Labels() assignpolicy.Labels { return assignpolicy.Labels{} }
func (p testPolicy) Display(models.Tenant) (models.DisplayMode, models.DisplayMode) {
	return models.DisplayCard, models.DisplayTable
}
func (p testPolicy) Load(context.Context, assignpolicy.Getter) (reconcile.State, error) {
	return reconcile.State{}, nil
}
func (p testPolicy) DeleteInviteBody(models.PendingInvite) any       { return nil }
func (p testPolicy) DeleteInviteMessage(models.PendingInvite) string { return "" }

type call struct {
	method string
	path   string
	body   any
}

// fakeAPI records calls and answers through the reply funcs.
type fakeAPI struct {
	mu    sync.Mutex
	calls []call

	reply func(method, path string, out any) error
}

func (f *fakeAPI) Post(_ context.Context, path string, body, out any) error {
	return f.do(http.MethodPost, path, body, out)
}

func (f *fakeAPI) Delete(_ context.Context, path string, body, out any) error {
	return f.do(http.MethodDelete, path, body, out)
}

func (f *fakeAPI) do(method, path string, body, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{method, path, body})
	f.mu.Unlock()
	if f.reply == nil {
		return nil
	}
	return f.reply(method, path, out)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fill decodes raw into out the way apiclient does.
func fill(t *testing.T, out any, raw string) {
	t.Helper()
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatalf("fill: %v", err)
	}
}

func item(id int, email string) models.Item {
	return models.Item{"id": json.Number(itoa(id)), "email": email}
}

func itoa(i int) string {
	b, _ := json.Marshal(i)
	return string(b)
}

func keys(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Key("id"))
	}
	return out
}

func equalKeys(a []string, b ...string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssignThenUnassign(t *testing.T) {
	api := &fakeAPI{}
	c := New(testPolicy{}, api, reconcile.State{Available: []models.Item{item(1, "a@x.com")}})

	if err := c.OpenAssign(); err != nil {
		t.Fatalf("OpenAssign: %v", err)
	}
	if got := c.Snapshot().Phase; got != SelectingForAssign {
		t.Fatalf("phase = %s", got)
	}
	if err := c.Save(context.Background(), []string{"1"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != Idle || len(s.State.Available) != 0 || !equalKeys(keys(s.State.Assigned), "1") {
		t.Fatalf("after save: %+v", s)
	}
	body, _ := json.Marshal(api.calls[0].body)
	if api.calls[0].path != "/assign/4" || string(body) != "[1]" {
		t.Errorf("assign call = %s %s", api.calls[0].path, body)
	}

	if err := c.ClickUnassign("1"); err != nil {
		t.Fatalf("ClickUnassign: %v", err)
	}
	if got := c.Snapshot().Confirming.String("email"); got != "a@x.com" {
		t.Errorf("confirming = %q", got)
	}
	if err := c.ConfirmUnassign(context.Background()); err != nil {
		t.Fatalf("ConfirmUnassign: %v", err)
	}

	s = c.Snapshot()
	if s.Phase != Idle || len(s.State.Assigned) != 0 || !equalKeys(keys(s.State.Available), "1") {
		t.Fatalf("after unassign: %+v", s)
	}
	if got := api.calls[1]; got.method != http.MethodDelete || got.path != "/unassign/4/1" {
		t.Errorf("unassign call = %+v", got)
	}
}

func TestSave_InviteMode(t *testing.T) {
	p := assignpolicy.NewSectionPupils("4", "12", "", false)
	api := &fakeAPI{reply: func(method, path string, out any) error {
		fill(t, out, `[{"id":9,"tenant_id":4,"pupil_id":5,"status":"pending"}]`)
		return nil
	}}
	assigned := []models.Item{item(1, "a@x.com")}
	c := New(p, api, reconcile.State{
		Available: []models.Item{item(5, "e@x.com"), item(6, "f@x.com")},
		Assigned:  assigned,
	})

	_ = c.OpenAssign()
	if err := c.Save(context.Background(), []string{"5"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s := c.Snapshot()
	if !equalKeys(keys(s.State.Available), "6") {
		t.Errorf("available = %v", keys(s.State.Available))
	}
	if !equalKeys(keys(s.State.Assigned), "1") {
		t.Errorf("assigned changed: %v", keys(s.State.Assigned))
	}
	if len(s.State.Pending) != 1 || s.State.Pending[0].ID != "9" || s.State.Pending[0].Fields.Key("pupil_id") != "5" {
		t.Errorf("pending = %+v", s.State.Pending)
	}
	if s.Notice != labels.PupilsInvited {
		t.Errorf("notice = %q", s.Notice)
	}
	if api.calls[0].path != "/api/teacher/send_section_invite/4/12" {
		t.Errorf("path = %s", api.calls[0].path)
	}
}

func TestSave_FailureKeepsState(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/assign/4", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"limit reached"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	client, err := apiclient.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	initial := reconcile.State{
		Available: []models.Item{item(1, "a@x.com")},
		Assigned:  []models.Item{item(2, "b@x.com")},
	}
	c := New(testPolicy{}, client.WithToken("tok"), initial)

	_ = c.OpenAssign()
	err = c.Save(context.Background(), []string{"1"})
	if !apiclient.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("Save err = %v", err)
	}

	s := c.Snapshot()
	if s.Err != "limit reached" {
		t.Errorf("Err = %q", s.Err)
	}
	if s.Phase != SelectingForAssign {
		t.Errorf("phase = %s, want modal to stay open", s.Phase)
	}
	if !equalKeys(keys(s.State.Available), "1") || !equalKeys(keys(s.State.Assigned), "2") || len(s.State.Pending) != 0 {
		t.Errorf("state changed: %+v", s.State)
	}

	c.DismissError()
	if c.Snapshot().Err != "" {
		t.Error("DismissError did not clear the error")
	}
}

func TestSave_FallbackMessage(t *testing.T) {
	api := &fakeAPI{reply: func(string, string, any) error {
		return &apiclient.TransportError{Method: "POST", Path: "/assign/4", Err: errors.New("refused")}
	}}
	c := New(testPolicy{}, api, reconcile.State{Available: []models.Item{item(1, "a@x.com")}})
	_ = c.OpenAssign()
	_ = c.Save(context.Background(), []string{"1"})
	if got := c.Snapshot().Err; got != labels.AssignError {
		t.Errorf("Err = %q", got)
	}
}

func TestSave_Selection(t *testing.T) {
	api := &fakeAPI{}
	c := New(testPolicy{}, api, reconcile.State{Available: []models.Item{item(1, "a@x.com"), item(2, "b@x.com")}})
	_ = c.OpenAssign()

	if err := c.Save(context.Background(), []string{"7", "8"}); !errors.Is(err, ErrEmptySelection) {
		t.Fatalf("err = %v", err)
	}
	if api.callCount() != 0 {
		t.Fatal("no call expected for an empty selection")
	}

	if err := c.Save(context.Background(), []string{"2", "7", "2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	body, _ := json.Marshal(api.calls[0].body)
	if string(body) != "[2]" {
		t.Errorf("body = %s", body)
	}
}

func TestInvalidTransitions(t *testing.T) {
	ctx := context.Background()
	c := New(testPolicy{}, &fakeAPI{}, reconcile.State{Assigned: []models.Item{item(1, "a@x.com")}})

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"save from idle", func() error { return c.Save(ctx, []string{"1"}) }, ErrInvalidTransition},
		{"confirm unassign from idle", func() error { return c.ConfirmUnassign(ctx) }, ErrInvalidTransition},
		{"confirm delete invite from idle", func() error { return c.ConfirmDeleteInvite(ctx) }, ErrInvalidTransition},
		{"delete invite from idle", func() error { return c.ClickDeleteInvite("9:4") }, ErrInvalidTransition},
		{"pending tab on direct page", c.ViewPending, ErrInvalidTransition},
		{"cancel from idle", c.Cancel, ErrInvalidTransition},
		{"close assign from idle", c.CloseAssign, ErrInvalidTransition},
		{"unknown item", func() error { return c.ClickUnassign("99") }, ErrUnknownItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := c.Snapshot()
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			after := c.Snapshot()
			if after.Phase != before.Phase || after.Version != before.Version {
				t.Errorf("state moved: %s/%d -> %s/%d", before.Phase, before.Version, after.Phase, after.Version)
			}
		})
	}
}

func TestArchived(t *testing.T) {
	c := New(testPolicy{archived: true}, &fakeAPI{}, reconcile.State{Assigned: []models.Item{item(1, "a@x.com")}})
	if err := c.OpenAssign(); !errors.Is(err, ErrArchived) {
		t.Errorf("OpenAssign err = %v", err)
	}
	if err := c.ClickUnassign("1"); !errors.Is(err, ErrArchived) {
		t.Errorf("ClickUnassign err = %v", err)
	}
}

func TestCancelUnassign(t *testing.T) {
	api := &fakeAPI{}
	c := New(testPolicy{}, api, reconcile.State{Assigned: []models.Item{item(1, "a@x.com")}})
	_ = c.ClickUnassign("1")
	if err := c.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	s := c.Snapshot()
	if s.Phase != Idle || s.Confirming != nil || !equalKeys(keys(s.State.Assigned), "1") {
		t.Errorf("after cancel: %+v", s)
	}
	if api.callCount() != 0 {
		t.Error("cancel must not call the API")
	}
}

func TestUnassign_Failure(t *testing.T) {
	api := &fakeAPI{reply: func(string, string, any) error {
		return &apiclient.HTTPError{Method: "DELETE", Path: "/unassign/4/1", Status: 409, Message: "Učenik ima ocjene."}
	}}
	c := New(testPolicy{}, api, reconcile.State{Assigned: []models.Item{item(1, "a@x.com")}})
	_ = c.ClickUnassign("1")
	if err := c.ConfirmUnassign(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	s := c.Snapshot()
	if s.Phase != Idle || s.Err != "Učenik ima ocjene." || !equalKeys(keys(s.State.Assigned), "1") {
		t.Errorf("after failure: %+v", s)
	}
}

func pendingInvite(id, tenant, pupil int) models.PendingInvite {
	return models.InviteFromItem(models.Item{
		"id":        json.Number(itoa(id)),
		"tenant_id": json.Number(itoa(tenant)),
		"pupil_id":  json.Number(itoa(pupil)),
		"status":    "pending",
	})
}

func TestDeleteInvite_Restores(t *testing.T) {
	p := assignpolicy.NewSectionPupils("4", "12", "", false)
	api := &fakeAPI{reply: func(method, path string, out any) error {
		fill(t, out, `{"id":5,"email":"e@x.com"}`)
		return nil
	}}
	c := New(p, api, reconcile.State{
		Available: []models.Item{item(6, "f@x.com")},
		Pending:   []models.PendingInvite{pendingInvite(9, 4, 5), pendingInvite(10, 4, 5), pendingInvite(11, 4, 7)},
	})

	if err := c.ViewPending(); err != nil {
		t.Fatalf("ViewPending: %v", err)
	}
	if err := c.ClickDeleteInvite("9:4"); err != nil {
		t.Fatalf("ClickDeleteInvite: %v", err)
	}
	if inv := c.Snapshot().ConfirmingInvite; inv == nil || inv.ID != "9" {
		t.Fatalf("confirming invite = %+v", inv)
	}
	if err := c.ConfirmDeleteInvite(context.Background()); err != nil {
		t.Fatalf("ConfirmDeleteInvite: %v", err)
	}

	s := c.Snapshot()
	if s.Phase != ViewingPending {
		t.Errorf("phase = %s", s.Phase)
	}
	if len(s.State.Pending) != 1 || s.State.Pending[0].ID != "11" {
		t.Errorf("pending = %+v", s.State.Pending)
	}
	if !equalKeys(keys(s.State.Available), "6", "5") {
		t.Errorf("available = %v", keys(s.State.Available))
	}
	body, _ := json.Marshal(api.calls[0].body)
	if string(body) != `{"invite_id":9,"pupil_id":5,"tenant_id":4}` {
		t.Errorf("body = %s", body)
	}
}

func TestDeleteInvite_UndecodableResponse(t *testing.T) {
	p := assignpolicy.NewSectionPupils("4", "12", "", false)
	api := &fakeAPI{reply: func(string, string, any) error {
		return &apiclient.DecodeError{Method: "DELETE", Path: "/api/teacher/delete_pupil_invite", Err: errors.New("empty body")}
	}}
	c := New(p, api, reconcile.State{
		Available: []models.Item{item(6, "f@x.com")},
		Pending:   []models.PendingInvite{pendingInvite(9, 4, 5)},
	})
	_ = c.ViewPending()
	_ = c.ClickDeleteInvite("9:4")

	if err := c.ConfirmDeleteInvite(context.Background()); err == nil {
		t.Fatal("expected decode error to surface")
	}
	s := c.Snapshot()
	if len(s.State.Pending) != 0 {
		t.Errorf("invite not removed: %+v", s.State.Pending)
	}
	if !equalKeys(keys(s.State.Available), "6") {
		t.Errorf("available = %v", keys(s.State.Available))
	}
	if s.Err == "" {
		t.Error("expected an error message")
	}
}

func TestTabs(t *testing.T) {
	c := New(assignpolicy.NewSectionPupils("4", "12", "", false), &fakeAPI{}, reconcile.State{})
	if err := c.ViewPending(); err != nil {
		t.Fatal(err)
	}
	if err := c.OpenAssign(); err != nil {
		t.Fatalf("OpenAssign from pending tab: %v", err)
	}
	if got := c.Snapshot().Tab(); got != Idle {
		t.Errorf("Tab while selecting = %s", got)
	}
	_ = c.CloseAssign()
	if got := c.Snapshot().Phase; got != ViewingPending {
		t.Errorf("phase after close = %s", got)
	}
	if err := c.ViewAssigned(); err != nil {
		t.Fatal(err)
	}
	if got := c.Snapshot().Phase; got != Idle {
		t.Errorf("phase = %s", got)
	}
}

func TestConcurrentSaves(t *testing.T) {
	api := &fakeAPI{}
	c := New(testPolicy{}, api, reconcile.State{Available: []models.Item{item(1, "a@x.com"), item(2, "b@x.com")}})
	_ = c.OpenAssign()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Save(context.Background(), []string{"1", "2"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidTransition):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || api.callCount() != 1 {
		t.Fatalf("successful saves = %d, calls = %d; want 1 and 1", ok, api.callCount())
	}
	s := c.Snapshot()
	if len(s.State.Available) != 0 || !equalKeys(keys(s.State.Assigned), "1", "2") {
		t.Errorf("state = %+v", s.State)
	}
}

func TestBusyWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{reply: func(string, string, any) error {
		close(started)
		<-release
		return nil
	}}
	c := New(testPolicy{}, api, reconcile.State{
		Available: []models.Item{item(1, "a@x.com")},
		Assigned:  []models.Item{item(2, "b@x.com")},
	})
	_ = c.OpenAssign()

	done := make(chan error, 1)
	go func() { done <- c.Save(context.Background(), []string{"1"}) }()
	<-started

	if !c.Snapshot().Busy {
		t.Error("expected Busy during the call")
	}
	if err := c.Cancel(); !errors.Is(err, ErrBusy) {
		t.Errorf("Cancel during call = %v", err)
	}
	if err := c.ClickUnassign("2"); !errors.Is(err, ErrBusy) {
		t.Errorf("ClickUnassign during call = %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Save: %v", err)
	}
	s := c.Snapshot()
	if s.Busy || !equalKeys(keys(s.State.Assigned), "2", "1") {
		t.Errorf("after call: %+v", s)
	}
}

func TestObserver(t *testing.T) {
	var events []Event
	api := &fakeAPI{}
	c := New(testPolicy{}, api, reconcile.State{Available: []models.Item{item(1, "a@x.com")}},
		WithObserver(func(e Event) { events = append(events, e) }))

	_ = c.OpenAssign()
	_ = c.Save(context.Background(), []string{"1"})
	_ = c.ClickUnassign("1")
	_ = c.ConfirmUnassign(context.Background())

	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Kind != EventAssign || events[1].Kind != EventUnassign {
		t.Errorf("kinds = %s, %s", events[0].Kind, events[1].Kind)
	}
	if events[0].Policy != "test" || events[0].TenantID != "4" || events[0].Err != nil {
		t.Errorf("event = %+v", events[0])
	}
}

func sectionData() []models.SectionAssignment {
	teacher := models.Item{"id": json.Number("17"), "name": "Amra", "last_name": "Begić"}
	other := models.Item{"id": json.Number("18"), "name": "Haris", "last_name": "Kurt"}
	return []models.SectionAssignment{
		{
			Section:           models.Item{"id": json.Number("7"), "name": "VII-2"},
			Teacher:           teacher,
			AssignedSubjects:  []models.Subject{{Code: "MAT", Name: "Matematika"}},
			AvailableSubjects: []models.Subject{{Code: "FIZ", Name: "Fizika"}, {Code: "HEM", Name: "Hemija"}},
		},
		{
			Section:         models.Item{"id": json.Number("8"), "name": "VIII-1"},
			Teacher:         teacher,
			PendingSubjects: []models.Subject{{Code: "BIO", Name: "Biologija"}},
			InviteID:        30,
		},
		{
			Section:           models.Item{"id": json.Number("7"), "name": "VII-2"},
			Teacher:           other,
			AvailableSubjects: []models.Subject{{Code: "FIZ", Name: "Fizika"}},
		},
	}
}

func TestSaveSections(t *testing.T) {
	var events []Event
	api := &fakeAPI{}
	api.reply = func(method, path string, out any) error {
		fill(t, out, `{
			"invite_data": [
				{"section": {"id": 7, "name": "VII-2"}, "teacher": {"id": 17, "name": "Amra", "last_name": "Begić"},
				 "assigned_subjects": [{"subject_code": "MAT", "subject_name": "Matematika"}],
				 "pending_subjects": [{"subject_code": "FIZ", "subject_name": "Fizika"}],
				 "available_subjects": [{"subject_code": "HEM", "subject_name": "Hemija"}],
				 "is_pending_homeroom_teacher": true, "invite_index_id": 31},
				{"section": {"id": 8, "name": "VIII-1"}, "teacher": {"id": 17, "name": "Amra", "last_name": "Begić"},
				 "available_subjects": [{"subject_code": "BIO", "subject_name": "Biologija"}]}
			],
			"teacher_data": [{"id": 17, "name": "Amra"}, {"id": 18, "name": "Haris"}]
		}`)
		return nil
	}
	initial := reconcile.State{
		Assigned: []models.Item{{"id": json.Number("17"), "name": "Amra"}},
		Pending: []models.PendingInvite{models.InviteFromItem(models.Item{
			"id": json.Number("30"), "tenant_id": json.Number("4"), "teacher_id": json.Number("17"),
			"section_id": json.Number("8"), "status": "pending",
		})},
	}
	c := New(assignpolicy.NewTenantTeachers("4"), api, initial,
		WithSectionAssignments(sectionData()),
		WithObserver(func(e Event) { events = append(events, e) }))

	if err := c.OpenAssign(); err != nil {
		t.Fatalf("OpenAssign: %v", err)
	}
	s := c.Snapshot()
	if s.Phase != AssigningSections || s.SectionTeacher != "" || len(s.SectionTeachers) != 2 {
		t.Fatalf("after open: phase=%s teacher=%q teachers=%d", s.Phase, s.SectionTeacher, len(s.SectionTeachers))
	}
	if err := c.OpenSectionAssign("99"); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown teacher err = %v", err)
	}
	if err := c.OpenSectionAssign("17"); err != nil {
		t.Fatalf("OpenSectionAssign: %v", err)
	}
	if s := c.Snapshot(); len(s.Sections) != 2 || s.SectionTeacher != "17" {
		t.Fatalf("sections = %+v", s.Sections)
	}

	if err := c.SaveSections(context.Background(), "17", nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("empty choices err = %v", err)
	}
	if err := c.SaveSections(context.Background(), "17", map[string]models.SectionChoice{"9": {}}); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown section err = %v", err)
	}
	if api.callCount() != 0 {
		t.Fatalf("rejected saves called the API %d times", api.callCount())
	}

	err := c.SaveSections(context.Background(), "17", map[string]models.SectionChoice{
		"7": {Add: []string{"FIZ"}, KeepAssigned: []string{"MAT"}, Homeroom: true},
		"8": {},
	})
	if err != nil {
		t.Fatalf("SaveSections: %v", err)
	}

	if api.calls[0].path != "/api/tenant_admin/teacher_section_assignments/4/17" {
		t.Errorf("path = %s", api.calls[0].path)
	}
	body, _ := json.Marshal(api.calls[0].body)
	var sent map[string]models.SectionAssignmentRecord
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatalf("body: %v", err)
	}
	rec7 := sent["7"]
	if !rec7.HomeroomRequest || len(rec7.AvailableSubjects) != 2 || !rec7.AvailableSubjects[0].Checked || rec7.AvailableSubjects[1].Checked {
		t.Errorf("section 7 = %+v", rec7)
	}
	if rec8 := sent["8"]; rec8.InviteIndexID != 30 || rec8.PendingSubjects[0].Checked {
		t.Errorf("section 8 = %+v", rec8)
	}

	s = c.Snapshot()
	if s.Phase != Idle || s.Notice == "" || s.Err != "" {
		t.Errorf("after save: phase=%s notice=%q err=%q", s.Phase, s.Notice, s.Err)
	}
	// Invite 30 was withdrawn, invite 31 is new.
	if len(s.State.Pending) != 1 || s.State.Pending[0].Key() != "31:4" {
		t.Errorf("pending = %+v", s.State.Pending)
	}
	if len(s.State.Assigned) != 2 {
		t.Errorf("assigned = %v", s.State.Assigned)
	}
	if len(events) != 1 || events[0].Kind != EventAssign || events[0].Err != nil || len(events[0].Keys) != 2 {
		t.Errorf("events = %+v", events)
	}

	// The modal reopens on the refreshed data.
	if err := c.OpenSectionAssign("17"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	for _, a := range c.Snapshot().Sections {
		if a.SectionID() == "7" && a.InviteID != 31 {
			t.Errorf("section 7 data not refreshed: %+v", a)
		}
	}
}

func TestSaveSections_FailureKeepsModal(t *testing.T) {
	api := &fakeAPI{reply: func(method, path string, out any) error {
		return &apiclient.HTTPError{Status: http.StatusInternalServerError}
	}}
	c := New(assignpolicy.NewTenantTeachers("4"), api, reconcile.State{}, WithSectionAssignments(sectionData()))
	if err := c.OpenSectionAssign("18"); err != nil {
		t.Fatalf("OpenSectionAssign: %v", err)
	}

	err := c.SaveSections(context.Background(), "18", map[string]models.SectionChoice{"7": {Add: []string{"FIZ"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	s := c.Snapshot()
	if s.Phase != AssigningSections || s.Err == "" || len(s.State.Pending) != 0 {
		t.Errorf("after failure: phase=%s err=%q pending=%d", s.Phase, s.Err, len(s.State.Pending))
	}
	if err := c.Cancel(); err != nil || c.Snapshot().Phase != Idle {
		t.Errorf("cancel: %v", err)
	}
}

func TestOpenSectionAssign_DirectAssignPage(t *testing.T) {
	c := New(testPolicy{}, &fakeAPI{}, reconcile.State{})
	if err := c.OpenSectionAssign(""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v", err)
	}
	if err := c.SaveSections(context.Background(), "1", map[string]models.SectionChoice{"1": {}}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("save err = %v", err)
	}
}
