// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Session keys                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
	userRoleKey  = "user_role"
	tokenKey     = "access_token"
	tenantIDKey  = "tenant_id"
	tenantIDsKey = "tenant_ids"
	expiresKey   = "expires_at"
)

// ErrEmptySessionKey is returned by NewSessionManager without a key.
var ErrEmptySessionKey = errors.New("session key is empty; provide ≥32 random chars")

// ErrBadEncryptionKey is returned for an encryption key that is not an
// AES-128, AES-192 or AES-256 key.
var ErrBadEncryptionKey = errors.New("session encryption key must be 16, 24 or 32 bytes")

const encKeyInfo = "gradebook session encryption"

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is what we cache in the session & inject into r.Context().
//
// Token is the gradebook API access token; every API call made on the
// user's behalf carries it.
type SessionUser struct {
	ID        string
	Name      string
	Email     string
	Role      string // API account_type: root, tenant_admin, teacher, pupil, parent
	Token     string
	TenantID  string   // tenant administered by a tenant_admin
	TenantIDs []string // tenants the account belongs to
	ExpiresAt time.Time
}

// HasTenant reports whether the user may act within tenantID. Root
// accounts reach every tenant.
func (u *SessionUser) HasTenant(tenantID string) bool {
	if strings.EqualFold(u.Role, "root") {
		return true
	}
	if u.TenantID == tenantID {
		return true
	}
	for _, t := range u.TenantIDs {
		if t == tenantID {
			return true
		}
	}
	return false
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// WithTestUser puts u into the request context, as LoadSessionUser does.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Session manager                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionManager owns the signed and encrypted session cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds the cookie store. The cookie carries the API
// bearer token, so it is encrypted with encKey as well as signed with
// sessionKey. A blank encKey is derived from sessionKey (HKDF-SHA256), which
// keeps sessions valid across restarts.
//
// The `secure` flag controls whether cookies are marked Secure and which
// SameSite mode is used.
//
// In production (secure=true), cookies should be Secure + SameSite=None
// (for cross-site use with HTTPS).
// In local dev over http://localhost, use secure=false so cookies are accepted.
func NewSessionManager(sessionKey, encKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessionKey == "" {
		return nil, ErrEmptySessionKey
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "gradebook-session"
	}
	block, err := encryptionKey(sessionKey, encKey)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore([]byte(sessionKey), block)
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
	}

	// SameSite handling: in prod with Secure cookies, we use None
	// so cookies can be sent in cross-site contexts. In dev, Lax is fine.
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

func encryptionKey(sessionKey, encKey string) ([]byte, error) {
	if encKey != "" {
		switch len(encKey) {
		case 16, 24, 32:
			return []byte(encKey), nil
		}
		return nil, ErrBadEncryptionKey
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(sessionKey), nil, []byte(encKeyInfo)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// Store returns the underlying cookie store.
func (m *SessionManager) Store() *sessions.CookieStore { return m.store }

// Name returns the session cookie name.
func (m *SessionManager) Name() string { return m.name }

// GetSession returns the session. On a decode failure (rotated key,
// tampered cookie) it still returns a fresh session alongside the error.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.name)
}

// SignIn stores u in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u *SessionUser) error {
	sess, err := m.GetSession(r)
	if err != nil {
		m.log.Debug("replacing undecodable session", zap.Error(err))
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	sess.Values[userRoleKey] = u.Role
	sess.Values[tokenKey] = u.Token
	sess.Values[tenantIDKey] = u.TenantID
	sess.Values[tenantIDsKey] = strings.Join(u.TenantIDs, ",")
	if !u.ExpiresAt.IsZero() {
		sess.Values[expiresKey] = u.ExpiresAt.Unix()
	} else {
		delete(sess.Values, expiresKey)
	}
	return sess.Save(r, w)
}

// LoadSessionUser injects the user into context if they are logged in and
// the access token has not expired.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.GetSession(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:       getString(sess, userIDKey),
				Name:     getString(sess, userNameKey),
				Email:    getString(sess, userEmailKey),
				Role:     getString(sess, userRoleKey),
				Token:    getString(sess, tokenKey),
				TenantID: getString(sess, tenantIDKey),
			}
			if ids := getString(sess, tenantIDsKey); ids != "" {
				u.TenantIDs = strings.Split(ids, ",")
			}
			if exp, ok := sess.Values[expiresKey].(int64); ok {
				u.ExpiresAt = time.Unix(exp, 0)
			}
			if u.ExpiresAt.IsZero() || time.Now().Before(u.ExpiresAt) {
				r = withUser(r, u)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadSessionUser).
// If not signed in:
//   - HTMX: sends HX-Redirect to /login?return=...
//   - HTML: 303 redirect to /login?return=...
//   - API:  401 Unauthorized with a plain error body.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		unauthorized(w, r)
	})
}

// RequireRole ensures there is a user with the required role in context (set by LoadSessionUser).
// If not authorized, it redirects to HTML pages (or sets HX-Redirect) instead of writing a blank error.
func (m *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)

			// 1) Not signed in → 401 semantics
			if !ok {
				unauthorized(w, r)
				return
			}

			// 2) Signed in but wrong role → 403 semantics
			if _, has := set[strings.ToLower(u.Role)]; !has {
				forbidden(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Forbidden sends the caller to the forbidden page the same way
// RequireRole does. Handlers use it for per-tenant checks.
func Forbidden(w http.ResponseWriter, r *http.Request) { forbidden(w, r) }

// helpers

func unauthorized(w http.ResponseWriter, r *http.Request) {
	ret := url.QueryEscape(currentURI(r))

	// HTMX: full-page client redirect (no partial swap)
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login?return="+ret)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	// Browser/HTML: go to login and preserve return
	if wantsHTML(r) {
		http.Redirect(w, r, "/login?return="+ret, http.StatusSeeOther)
		return
	}

	// Non-HTML (API) callers: plain 401
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/forbidden")
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if wantsHTML(r) {
		http.Redirect(w, r, "/forbidden", http.StatusSeeOther)
		return
	}
	http.Error(w, "forbidden", http.StatusForbidden)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// getString safely extracts a string from a session value.
func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	// Very light heuristic: treat it as HTML if it's HTMX or Accepts text/html.
	if r.Header.Get("HX-Request") == "true" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html")
}

func currentURI(r *http.Request) string {
	// Preserve path + query as a return param.
	u := *r.URL
	return u.RequestURI()
}
