// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/gradebook/internal/app/store/audit"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for authentication events (login, logout).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Assignment controls logging for assignment and invite mutations.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Assignment string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
// A nil store (no MongoDB configured) turns "all" and "db" into zap-only.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// Actor identifies who performed an action.
type Actor struct {
	UserID string
	Email  string
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (for reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.UserID != "" {
		fields = append(fields, zap.String("user_id", event.UserID))
	}
	if event.TenantID != "" {
		fields = append(fields, zap.String("tenant_id", event.TenantID))
	}
	if event.Page != "" {
		fields = append(fields, zap.String("page", event.Page))
	}
	if len(event.Keys) > 0 {
		fields = append(fields, zap.Strings("keys", event.Keys))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	// Determine which config setting applies based on event category
	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAssignment, audit.CategoryInvite:
		setting = l.config.Assignment
	}
	if setting == "" {
		setting = "all"
	}

	if setting == "off" {
		return
	}

	if setting == "all" || setting == "log" || l.store == nil {
		l.logToZap(event)
	}

	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- Authentication Events ---

// LoginSuccess logs a successful login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, actor Actor, tenantID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		TenantID:  tenantID,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// LoginFailed logs a rejected login. reason is the API's message.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailed,
		UserEmail:     email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// LoginFailedClaims logs an accepted login whose token could not be read.
func (l *Logger) LoginFailedClaims(ctx context.Context, r *http.Request, email, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedClaims,
		UserEmail:     email,
		IP:            getClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, actor Actor) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Assignment Events ---

// Mutation logs a workflow mutation. inviteMode distinguishes sent
// invites from direct assignments.
func (l *Logger) Mutation(ctx context.Context, r *http.Request, actor Actor, e workflow.Event, inviteMode bool) {
	event := audit.Event{
		Category:  audit.CategoryAssignment,
		EventType: eventType(e, inviteMode),
		TenantID:  e.TenantID,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		Page:      e.Policy,
		Keys:      e.Keys,
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   e.Err == nil,
	}
	if e.Kind == workflow.EventDecide {
		event.Category = audit.CategoryInvite
	}
	if e.Err != nil {
		event.FailureReason = e.Err.Error()
	}
	l.Log(ctx, event)
}

func eventType(e workflow.Event, inviteMode bool) string {
	switch e.Kind {
	case workflow.EventAssign:
		if inviteMode {
			return audit.EventInvitesSent
		}
		return audit.EventItemsAssigned
	case workflow.EventUnassign:
		return audit.EventItemUnassigned
	case workflow.EventDeleteInvite:
		return audit.EventInviteWithdrawn
	}
	return string(e.Kind)
}

// InviteDecision logs an accepted or declined invite.
func (l *Logger) InviteDecision(ctx context.Context, r *http.Request, actor Actor, inbox, inviteKey, tenantID string, accepted bool, err error) {
	et := audit.EventInviteDeclined
	if accepted {
		et = audit.EventInviteAccepted
	}
	event := audit.Event{
		Category:  audit.CategoryInvite,
		EventType: et,
		TenantID:  tenantID,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		Page:      inbox,
		Keys:      []string{inviteKey},
		IP:        getClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   err == nil,
	}
	if err != nil {
		event.FailureReason = err.Error()
	}
	l.Log(ctx, event)
}
