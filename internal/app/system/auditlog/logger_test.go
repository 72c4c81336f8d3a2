package auditlog_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/gradebook/internal/app/store/audit"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"github.com/dalemusser/gradebook/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, auditlog.Actor{UserID: "31"}, "4")
	logger.Logout(ctx, req, auditlog.Actor{UserID: "31"})
	logger.Mutation(ctx, req, auditlog.Actor{}, workflow.Event{Kind: workflow.EventAssign}, false)
}

func TestLogger_NilStoreLogsToZap(t *testing.T) {
	zapLog, logs := observed()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, setting := range []string{"all", "db", "log", ""} {
		logs.TakeAll()
		logger := auditlog.New(nil, zapLog, auditlog.Config{Auth: setting})
		logger.LoginFailed(ctx, httptest.NewRequest("POST", "/login", nil), "a@x.com", "bad password")
		if logs.Len() != 1 {
			t.Errorf("setting %q: %d log entries, want 1", setting, logs.Len())
		}
	}
}

func TestLogger_ConfigOff(t *testing.T) {
	zapLog, logs := observed()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(nil, zapLog, auditlog.Config{Auth: "off", Assignment: "off"})
	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginSuccess(ctx, req, auditlog.Actor{UserID: "31"}, "")
	logger.Mutation(ctx, req, auditlog.Actor{UserID: "31"}, workflow.Event{Kind: workflow.EventUnassign}, false)
	if logs.Len() != 0 {
		t.Errorf("expected no entries, got %d", logs.Len())
	}
}

func TestLogger_MutationFields(t *testing.T) {
	zapLog, logs := observed()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(nil, zapLog, auditlog.Config{Assignment: "log"})
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	tests := []struct {
		name   string
		event  workflow.Event
		invite bool
		want   string
		level  zapcore.Level
	}{
		{"assign", workflow.Event{Kind: workflow.EventAssign, Policy: "curricula", TenantID: "4", Keys: []string{"C1"}}, false, audit.EventItemsAssigned, zapcore.InfoLevel},
		{"invite", workflow.Event{Kind: workflow.EventAssign, Policy: "pupils", Keys: []string{"5"}}, true, audit.EventInvitesSent, zapcore.InfoLevel},
		{"unassign failed", workflow.Event{Kind: workflow.EventUnassign, Keys: []string{"5"}, Err: errors.New("boom")}, false, audit.EventItemUnassigned, zapcore.WarnLevel},
		{"withdraw", workflow.Event{Kind: workflow.EventDeleteInvite, Keys: []string{"9:4"}}, true, audit.EventInviteWithdrawn, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.TakeAll()
			logger.Mutation(ctx, req, auditlog.Actor{UserID: "31"}, tt.event, tt.invite)
			entries := logs.TakeAll()
			if len(entries) != 1 {
				t.Fatalf("entries = %d", len(entries))
			}
			e := entries[0]
			if e.Level != tt.level {
				t.Errorf("level = %v, want %v", e.Level, tt.level)
			}
			fields := e.ContextMap()
			if fields["event_type"] != tt.want {
				t.Errorf("event_type = %v, want %s", fields["event_type"], tt.want)
			}
			if fields["ip"] != "10.0.0.1" {
				t.Errorf("ip = %v", fields["ip"])
			}
			if tt.event.Err != nil && fields["failure_reason"] != "boom" {
				t.Errorf("failure_reason = %v", fields["failure_reason"])
			}
		})
	}
}

func TestLogger_WritesToStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Assignment: "db"})
	req := httptest.NewRequest("POST", "/", nil)
	logger.InviteDecision(ctx, req, auditlog.Actor{UserID: "31"}, "pupil", "1:4", "4", true, nil)
	logger.LoginSuccess(ctx, req, auditlog.Actor{UserID: "31", Email: "a@x.com"}, "4")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: "31"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	n, err := store.CountByFilter(ctx, audit.QueryFilter{EventType: audit.EventInviteAccepted, TenantID: "4"})
	if err != nil || n != 1 {
		t.Errorf("invite accepted count = %d, %v", n, err)
	}
}
