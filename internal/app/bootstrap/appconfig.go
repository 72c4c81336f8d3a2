// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers
// ports, TLS, logging and CORS; everything specific to the dashboard lives
// here and is passed to every lifecycle hook.
type AppConfig struct {
	// Gradebook REST API
	APIBaseURL string        `validate:"required,url"`
	APITimeout time.Duration `validate:"gt=0"`

	// Session management configuration
	SessionKey    string        `validate:"required,min=32"`  // Secret key for signing session cookies
	SessionEncKey string        `validate:"omitempty,len=32"` // AES-256 key for session cookies (blank derives one from SessionKey)
	SessionName   string        // Cookie name for sessions (default: gradebook-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration `validate:"gt=0"`

	// CSRF protection. A blank key gets a random one per process.
	CSRFKey            string `validate:"omitempty,len=32"`
	CSRFTrustedOrigins []string

	// Assignment pages
	ItemsPerPage      int           `validate:"min=1,max=100"`
	PageStateTTL      time.Duration `validate:"gt=0"`
	PageSweepInterval time.Duration `validate:"gt=0"`
	PagesPerUser      int           `validate:"min=1"` // Open assignment pages kept per user

	// MongoDB holds the audit trail only. A blank URI disables it and
	// audit events go to the log.
	MongoURI      string
	MongoDatabase string `validate:"required_with=MongoURI"`

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth       string `validate:"oneof=all db log off"`
	AuditLogAssignment string `validate:"oneof=all db log off"`

	// Timeouts for outbound calls; zero keeps the default.
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
