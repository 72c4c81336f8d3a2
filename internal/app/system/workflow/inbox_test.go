package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/labels"
	"github.com/dalemusser/gradebook/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func newInboxServer(t *testing.T, respond http.HandlerFunc) *apiclient.Session {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/common/pupil_section_invites/{userID}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "userID") != "31" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"tenant_id":4,"status":"pending","section_name":"VII-2"},
			{"id":1,"tenant_id":5,"status":"pending","section_name":"VIII-1"},
			{"id":2,"tenant_id":4,"status":"accepted","section_name":"VI-3"}
		]`))
	})
	r.Post("/api/common/respond_to_section_invite", respond)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return c.WithToken("tok")
}

func TestInbox_Decide(t *testing.T) {
	var got map[string]any
	api := newInboxServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	})

	b, err := LoadInbox(context.Background(), PupilInbox, api, "31", nil)
	if err != nil {
		t.Fatalf("LoadInbox: %v", err)
	}
	if n := len(b.Snapshot().Invites); n != 3 {
		t.Fatalf("invites = %d", n)
	}

	if err := b.Decide(context.Background(), "1:5", models.DecisionAccept); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if got["action"] != "accept" || got["invite_id"] != float64(1) || got["tenant_id"] != float64(5) {
		t.Errorf("request body = %v", got)
	}

	invites := b.Snapshot().Invites
	if invites[0].Status != models.InvitePending {
		t.Errorf("same id in another tenant changed: %s", invites[0].Status)
	}
	if invites[1].Status != models.InviteAccepted {
		t.Errorf("decided invite status = %s", invites[1].Status)
	}

	if err := b.Decide(context.Background(), "1:5", models.DecisionDecline); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second decision err = %v", err)
	}
	if err := b.Decide(context.Background(), "2:4", models.DecisionAccept); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("answered invite err = %v", err)
	}
	if err := b.Decide(context.Background(), "77:4", models.DecisionAccept); !errors.Is(err, ErrUnknownItem) {
		t.Errorf("unknown invite err = %v", err)
	}
}

func TestInbox_DecideFailure(t *testing.T) {
	api := newInboxServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	b, err := LoadInbox(context.Background(), PupilInbox, api, "31", nil)
	if err != nil {
		t.Fatalf("LoadInbox: %v", err)
	}
	if err := b.Decide(context.Background(), "1:4", models.DecisionDecline); err == nil {
		t.Fatal("expected error")
	}

	s := b.Snapshot()
	if s.Err != labels.InviteActionError {
		t.Errorf("Err = %q", s.Err)
	}
	if s.Invites[0].Status != models.InvitePending {
		t.Errorf("status changed on failure: %s", s.Invites[0].Status)
	}
	b.DismissError()
	if b.Snapshot().Err != "" {
		t.Error("error not dismissed")
	}
}

func TestInbox_BadDecision(t *testing.T) {
	api := newInboxServer(t, func(http.ResponseWriter, *http.Request) {})
	b, err := LoadInbox(context.Background(), PupilInbox, api, "31", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Decide(context.Background(), "1:4", models.InviteDecision("maybe")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v", err)
	}
}
