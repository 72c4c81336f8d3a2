package errors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// renderSafely runs fn, ignoring panics from an unbooted template engine.
func renderSafely(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

func TestHTMXError_PlainRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/x", nil)
	rec := httptest.NewRecorder()
	HTMXError(rec, r, http.StatusConflict, "Zauzeto.", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d", rec.Code)
	}

	called := false
	HTMXError(httptest.NewRecorder(), r, http.StatusConflict, "Zauzeto.", func() { called = true })
	if !called {
		t.Error("fallback not called")
	}
}

func TestHTMXError_Retargets(t *testing.T) {
	r := httptest.NewRequest("POST", "/x", nil)
	r.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	called := false
	renderSafely(func() {
		HTMXError(rec, r, http.StatusBadRequest, "Neispravno.", func() { called = true })
	})
	if called {
		t.Error("fallback used for HTMX request")
	}
	if rec.Header().Get("HX-Retarget") != ErrorModalTarget {
		t.Errorf("HX-Retarget = %q", rec.Header().Get("HX-Retarget"))
	}
	if rec.Header().Get("X-Error-Status") != "Bad Request" {
		t.Errorf("X-Error-Status = %q", rec.Header().Get("X-Error-Status"))
	}
}

func TestHTMXRedirect(t *testing.T) {
	r := httptest.NewRequest("POST", "/logout", nil)
	rec := httptest.NewRecorder()
	HTMXRedirect(rec, r, "/login")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("plain redirect: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	r.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	HTMXRedirect(rec, r, "/login")
	if rec.Code != http.StatusOK || rec.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("htmx redirect: %d %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}
}

func TestCSRFFailure(t *testing.T) {
	r := httptest.NewRequest("POST", "/assign/p/x/save", nil)
	rec := httptest.NewRecorder()
	renderSafely(func() { CSRFFailure(rec, r) })
	if rec.Code != http.StatusForbidden {
		t.Errorf("plain status = %d, want 403", rec.Code)
	}

	r.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	renderSafely(func() { CSRFFailure(rec, r) })
	if rec.Header().Get("X-Error-Status") != "Forbidden" {
		t.Errorf("X-Error-Status = %q", rec.Header().Get("X-Error-Status"))
	}
}
