// internal/app/features/errors/htmx.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
)

// ErrorModalTarget is the element HTMX error snippets are swapped into.
const ErrorModalTarget = "#modal-root"

type modalData struct {
	Status  int
	Message string
	BackURL string
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// HTMXError answers an HTMX request with the error modal, retargeted at
// ErrorModalTarget. Non-HTMX requests get fallback, or a plain error when
// fallback is nil.
//
// The modal is sent with 200 because HTMX does not swap error responses;
// the real status travels in the X-Error-Status header.
func HTMXError(w http.ResponseWriter, r *http.Request, status int, msg string, fallback func()) {
	if !isHTMX(r) {
		if fallback != nil {
			fallback()
			return
		}
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("HX-Retarget", ErrorModalTarget)
	w.Header().Set("HX-Reswap", "innerHTML")
	w.Header().Set("X-Error-Status", http.StatusText(status))
	templates.RenderSnippet(w, "error_modal", modalData{Status: status, Message: msg})
}

// HTMXBadRequest reports a malformed request.
func HTMXBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	HTMXError(w, r, http.StatusBadRequest, msg, func() {
		render(w, r, http.StatusBadRequest, "Neispravan zahtjev", msg, backURL)
	})
}

// HTMXForbidden reports a permission failure.
func HTMXForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	HTMXError(w, r, http.StatusForbidden, msg, func() {
		RenderForbidden(w, r, msg, backURL)
	})
}

// HTMXRedirect sends the browser to url: HX-Redirect for HTMX requests,
// 303 otherwise.
func HTMXRedirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// CSRFFailure answers a request whose CSRF token was missing or stale.
// The usual cause is a page left open past a restart or a new session.
func CSRFFailure(w http.ResponseWriter, r *http.Request) {
	HTMXError(w, r, http.StatusForbidden, "Sesija je istekla. Osvježite stranicu i pokušajte ponovo.", func() {
		render(w, r, http.StatusForbidden, "Zahtjev odbijen", "Sesija je istekla. Osvježite stranicu i pokušajte ponovo.", "/")
	})
}
