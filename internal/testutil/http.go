package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID        string
	Name      string
	Email     string
	Role      string
	TenantID  string
	TenantIDs []string
}

// RootUser returns a TestUser with the root account type.
func RootUser() TestUser {
	return TestUser{ID: "1", Name: "Root", Email: "root@test.ba", Role: "root"}
}

// TenantAdminUser returns a tenant administrator of tenantID.
func TenantAdminUser(tenantID string) TestUser {
	return TestUser{
		ID:        "2",
		Name:      "Test Admin",
		Email:     "admin@test.ba",
		Role:      "tenant_admin",
		TenantID:  tenantID,
		TenantIDs: []string{tenantID},
	}
}

// TeacherUser returns a teacher belonging to tenantIDs.
func TeacherUser(tenantIDs ...string) TestUser {
	return TestUser{ID: "3", Name: "Test Teacher", Email: "teacher@test.ba", Role: "teacher", TenantIDs: tenantIDs}
}

// PupilUser returns a pupil.
func PupilUser() TestUser {
	return TestUser{ID: "31", Name: "Test Pupil", Email: "pupil@test.ba", Role: "pupil"}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	sessionUser := &auth.SessionUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Token:     "test-token",
		TenantID:  user.TenantID,
		TenantIDs: user.TenantIDs,
	}
	return auth.WithTestUser(r, sessionUser)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, body io.Reader, user TestUser) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if method == http.MethodPost && body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return WithUser(req, user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d", r.Code, expected)
	}
}

// AssertRedirect checks for a redirect to the expected location.
func (r *ResponseRecorder) AssertRedirect(t testing.TB, expectedLocation string) {
	t.Helper()
	if r.Code != http.StatusSeeOther && r.Code != http.StatusFound && r.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect status, got %d", r.Code)
	}
	if location := r.Header().Get("Location"); location != expectedLocation {
		t.Errorf("redirect location: got %q, want %q", location, expectedLocation)
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t testing.TB, expected string) {
	t.Helper()
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// AssertNotContains checks that the response body lacks s.
func (r *ResponseRecorder) AssertNotContains(t testing.TB, s string) {
	t.Helper()
	if strings.Contains(r.Body.String(), s) {
		t.Errorf("response body unexpectedly contains %q", s)
	}
}

// APICall is one request received by an APIServer.
type APICall struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

// APIServer is an in-process stand-in for the gradebook REST API. Tests
// register routes on Router before making requests.
type APIServer struct {
	*httptest.Server
	Router chi.Router

	mu    sync.Mutex
	calls []APICall
}

// NewAPIServer starts an APIServer that is closed on test cleanup.
func NewAPIServer(t testing.TB) *APIServer {
	t.Helper()
	s := &APIServer{Router: chi.NewRouter()}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func (s *APIServer) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(strings.NewReader(string(body)))
	s.mu.Lock()
	s.calls = append(s.calls, APICall{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	s.mu.Unlock()
	s.Router.ServeHTTP(w, r)
}

// Calls returns the requests received so far.
func (s *APIServer) Calls() []APICall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]APICall(nil), s.calls...)
}

// Mutations returns the non-GET requests received so far.
func (s *APIServer) Mutations() []APICall {
	var out []APICall
	for _, c := range s.Calls() {
		if c.Method != http.MethodGet {
			out = append(out, c)
		}
	}
	return out
}

// JSON answers every request to method+pattern with status and v.
func (s *APIServer) JSON(method, pattern string, status int, v any) {
	s.Router.MethodFunc(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, v)
	})
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
