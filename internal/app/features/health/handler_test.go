package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/gradebook/internal/app/features/health"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/testutil"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type response struct {
	Status   string `json:"status"`
	API      string `json:"api"`
	Database string `json:"database"`
	Message  string `json:"message"`
}

func serve(t *testing.T, h *health.Handler) (*httptest.ResponseRecorder, response) {
	t.Helper()
	rec := httptest.NewRecorder()
	health.Routes(h).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	var resp response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, resp
}

func TestServe_APIOnly(t *testing.T) {
	srv := testutil.NewAPIServer(t)
	client, _ := apiclient.New(srv.URL)

	rec, resp := serve(t, health.NewHandler(client, nil, zap.NewNop()))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json")
	}
	if resp.Status != "ok" || resp.API != "reachable" || resp.Database != "disabled" {
		t.Errorf("response = %+v", resp)
	}
}

func TestServe_APIUnreachable(t *testing.T) {
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec, resp := serve(t, health.NewHandler(down, nil, nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, rec.Code)
	}
	if resp.Status != "error" || resp.API != "unreachable" || resp.Message != "API unavailable" {
		t.Errorf("response = %+v", resp)
	}
}

func TestServe_DatabaseConnected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	up := pingFunc(func(context.Context) error { return nil })

	rec, resp := serve(t, health.NewHandler(up, db.Client(), nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if resp.Database != "connected" {
		t.Errorf("database: got %q, want %q", resp.Database, "connected")
	}
}
