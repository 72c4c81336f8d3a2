// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"go.uber.org/zap"
)

// PageStore drops every page state held for a user.
type PageStore interface {
	DeleteOwner(owner string) int
}

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Pages      []PageStore
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger, pages ...PageStore) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Pages:      pages,
	}
}

// ServeLogout handles GET and POST /logout.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		dropped := 0
		for _, p := range h.Pages {
			dropped += p.DeleteOwner(u.ID)
		}
		h.AuditLog.Logout(r.Context(), r, auditlog.Actor{UserID: u.ID, Email: u.Email})
		h.Log.Info("user signed out", zap.String("user_id", u.ID), zap.Int("pages_dropped", dropped))
	}

	session, err := h.SessionMgr.GetSession(r)
	if err != nil {
		// Session decode failed. Log and continue - we'll still try to clear the cookie.
		h.Log.Warn("session decode failed during logout", zap.Error(err))
	}

	// The deletion cookie must match the store's cookie options.
	if opts := h.SessionMgr.Store().Options; opts != nil {
		session.Options.Domain = opts.Domain
		session.Options.Path = opts.Path
		session.Options.Secure = opts.Secure
		session.Options.HttpOnly = opts.HttpOnly
		session.Options.SameSite = opts.SameSite
	}
	session.Options.MaxAge = -1

	if err := session.Save(r, w); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}

	if r.Header.Get("HX-Request") != "" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
