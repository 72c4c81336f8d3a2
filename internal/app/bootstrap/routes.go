// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	assignmentsfeature "github.com/dalemusser/gradebook/internal/app/features/assignments"
	auditlogfeature "github.com/dalemusser/gradebook/internal/app/features/auditlog"
	errorsfeature "github.com/dalemusser/gradebook/internal/app/features/errors"
	healthfeature "github.com/dalemusser/gradebook/internal/app/features/health"
	homefeature "github.com/dalemusser/gradebook/internal/app/features/home"
	invitesfeature "github.com/dalemusser/gradebook/internal/app/features/invites"
	loginfeature "github.com/dalemusser/gradebook/internal/app/features/login"
	logoutfeature "github.com/dalemusser/gradebook/internal/app/features/logout"
	"github.com/dalemusser/gradebook/internal/app/store/audit"
	"github.com/dalemusser/gradebook/internal/app/store/pagestate"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/dalemusser/gradebook/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// pageSweep is started by BuildHandler and stopped by Shutdown.
var pageSweep *workers.PageSweep

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It boots the template engine, builds
// the API client and page state stores, starts the page sweeper, and mounts
// the feature routers behind the session and CSRF middleware.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionEncKey, appCfg.SessionName, appCfg.SessionDomain,
		appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	api, err := apiclient.New(appCfg.APIBaseURL,
		apiclient.WithHTTPClient(&http.Client{Timeout: appCfg.APITimeout}),
		apiclient.WithLogger(logger.Named("api")))
	if err != nil {
		logger.Error("api client init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	errLog := errorsfeature.NewErrorLogger(logger)

	var auditStore *audit.Store
	if deps.MongoDatabase != nil {
		auditStore = audit.New(deps.MongoDatabase)
	}
	auditLog := auditlog.New(auditStore, logger, auditlog.Config{
		Auth:       appCfg.AuditLogAuth,
		Assignment: appCfg.AuditLogAssignment,
	})

	assignPages := pagestate.New[*assignmentsfeature.Page](appCfg.PageStateTTL).WithMaxPerOwner(appCfg.PagesPerUser)
	inboxPages := pagestate.New[*invitesfeature.Page](appCfg.PageStateTTL).WithMaxPerOwner(appCfg.PagesPerUser)
	pageSweep = workers.NewPageSweep(map[string]workers.Sweeper{
		"assign":  assignPages,
		"invites": inboxPages,
	}, logger, appCfg.PageSweepInterval)
	pageSweep.Start()

	csrfKey := []byte(appCfg.CSRFKey)
	if len(csrfKey) == 0 {
		csrfKey = securecookie.GenerateRandomKey(32)
	}
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName("gorilla.csrf.Token"),
		csrf.RequestHeader("X-CSRF-Token"),
		csrf.ErrorHandler(http.HandlerFunc(errorsfeature.CSRFFailure)),
	}
	if len(appCfg.CSRFTrustedOrigins) > 0 {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(appCfg.CSRFTrustedOrigins))
	}

	r := chi.NewRouter()

	// Plain-HTTP dev servers must say so or the CSRF check demands a
	// same-origin HTTPS referer.
	if !secure {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, csrf.PlaintextHTTPRequest(req))
			})
		})
	}

	// Health check endpoint for load balancers and orchestrators.
	healthHandler := healthfeature.NewHandler(api, deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	r.Group(func(app chi.Router) {
		app.Use(csrf.Protect(csrfKey, csrfOpts...))

		// Global auth middleware: loads SessionUser into context if logged in.
		app.Use(sessionMgr.LoadSessionUser)

		homeHandler := homefeature.NewHandler(api, appCfg.ItemsPerPage, logger)
		app.Mount("/", homefeature.Routes(homeHandler, sessionMgr))

		// Authentication
		loginHandler := loginfeature.NewHandler(api, sessionMgr, errLog, auditLog, logger)
		app.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger, assignPages, inboxPages)
		app.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

		// Error pages
		errorsHandler := errorsfeature.NewHandler()
		app.Get("/forbidden", errorsHandler.Forbidden)
		app.Get("/unauthorized", errorsHandler.Unauthorized)

		// Assignment pages and invite inboxes
		assignHandler := assignmentsfeature.NewHandler(api, assignpolicy.NewRegistry(), assignPages,
			auditLog, errLog, appCfg.ItemsPerPage, logger)
		app.Mount("/assign", assignmentsfeature.Routes(assignHandler, sessionMgr))

		invitesHandler := invitesfeature.NewHandler(api, inboxPages, auditLog, appCfg.ItemsPerPage, logger)
		app.Mount("/invites", invitesfeature.Routes(invitesHandler, sessionMgr))

		// Audit log browser (root only)
		var auditQuery auditlogfeature.Querier
		if auditStore != nil {
			auditQuery = auditStore
		}
		auditlogHandler := auditlogfeature.NewHandler(auditQuery, errLog, logger)
		app.Mount("/audit", auditlogfeature.Routes(auditlogHandler, sessionMgr))

		app.NotFound(errorsHandler.NotFound)
	})

	return r, nil
}
