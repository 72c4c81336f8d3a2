// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the dashboard.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: api_base_url, session_name, etc.
//   - Environment variables: GRADEBOOK_API_BASE_URL, GRADEBOOK_SESSION_NAME, etc.
//   - Command-line flags: --api_base_url, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "api_base_url", Default: "http://localhost:8080", Desc: "Base URL of the gradebook REST API"},
	{Name: "api_timeout", Default: "30s", Desc: "HTTP client timeout for API calls"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_enc_key", Default: "", Desc: "32-byte session cookie encryption key (blank derives one from session_key)"},
	{Name: "session_name", Default: "gradebook-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Session cookie lifetime"},

	{Name: "csrf_key", Default: "", Desc: "32-byte CSRF key (blank generates one per process)"},
	{Name: "csrf_trusted_origins", Default: "", Desc: "Comma-separated origins allowed to post forms"},

	{Name: "items_per_page", Default: 6, Desc: "Cards or rows per page on list pages"},
	{Name: "page_state_ttl", Default: "2h", Desc: "Idle time after which an assignment page expires"},
	{Name: "page_sweep_interval", Default: "5m", Desc: "How often expired page state is dropped"},
	{Name: "page_state_max_per_owner", Default: 20, Desc: "Open pages kept per user; the least recently used is dropped first"},

	{Name: "mongo_uri", Default: "", Desc: "MongoDB URI for the audit trail (blank disables it)"},
	{Name: "mongo_database", Default: "gradebook_dashboard", Desc: "MongoDB database name"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_assignment", Default: "all", Desc: "Assignment event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timeout_ping", Default: "", Desc: "Health check timeout (blank keeps the default)"},
	{Name: "timeout_short", Default: "", Desc: "Timeout for single API calls"},
	{Name: "timeout_medium", Default: "", Desc: "Timeout for page loads"},
	{Name: "timeout_long", Default: "", Desc: "Timeout for batched mutations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, GRADEBOOK_* for app) and flags,
// merging with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GRADEBOOK", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		APIBaseURL: strings.TrimRight(appValues.String("api_base_url"), "/"),
		APITimeout: appValues.Duration("api_timeout", 30*time.Second),

		SessionKey:    appValues.String("session_key"),
		SessionEncKey: appValues.String("session_enc_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		CSRFKey:            appValues.String("csrf_key"),
		CSRFTrustedOrigins: splitList(appValues.String("csrf_trusted_origins")),

		ItemsPerPage:      appValues.Int("items_per_page"),
		PageStateTTL:      appValues.Duration("page_state_ttl", 2*time.Hour),
		PageSweepInterval: appValues.Duration("page_sweep_interval", 5*time.Minute),
		PagesPerUser:      appValues.Int("page_state_max_per_owner"),

		MongoURI:      appValues.String("mongo_uri"),
		MongoDatabase: appValues.String("mongo_database"),

		AuditLogAuth:       appValues.String("audit_log_auth"),
		AuditLogAssignment: appValues.String("audit_log_assignment"),

		TimeoutPing:   appValues.Duration("timeout_ping", 0),
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Struct rules live on AppConfig's validate tags. The MongoDB URI is
// checked separately so a typo fails startup instead of the first write.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validator.New().Struct(appCfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				logger.Error("invalid config value",
					zap.String("field", fe.Field()),
					zap.String("rule", fe.Tag()))
			}
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if appCfg.MongoURI != "" {
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.CSRFKey == "" {
		logger.Warn("csrf_key not set; form tokens will not survive a restart")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
