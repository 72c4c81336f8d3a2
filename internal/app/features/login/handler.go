// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/gradebook/internal/app/features/errors"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/dalemusser/gradebook/internal/app/system/navigation"
	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"github.com/dalemusser/gradebook/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	msgBadCredentials = "Pogrešan email ili lozinka."
	msgUnavailable    = "Server trenutno nije dostupan. Pokušajte ponovo."
	msgBadToken       = "Prijava nije uspjela. Pokušajte ponovo."
)

type Handler struct {
	API        *apiclient.Client
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	AuditLog   *auditlog.Logger
	Log        *zap.Logger

	validate *validator.Validate
}

func NewHandler(api *apiclient.Client, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger,
	audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		API:        api,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		AuditLog:   audit,
		Log:        logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginFormData struct {
	viewdata.BaseVM
	Error     string
	Email     string
	ReturnURL string
}

// credentials is the posted login form.
type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Prijava", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.HTMXLogBadRequest(w, r, "parse form failed", err, "Neispravan zahtjev.", "/login")
		return
	}

	creds := credentials{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	if err := h.validate.Struct(creds); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderFormWithError(w, r, formMessage(err), creds.Email)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	token, err := h.API.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		var te *apiclient.TransportError
		if errors.As(err, &te) {
			h.Log.Warn("login: api unreachable", zap.Error(err))
			w.WriteHeader(http.StatusBadGateway)
			h.renderFormWithError(w, r, msgUnavailable, creds.Email)
			return
		}
		h.AuditLog.LoginFailed(ctx, r, creds.Email, err.Error())
		w.WriteHeader(http.StatusUnauthorized)
		h.renderFormWithError(w, r, apiclient.UserMessage(err, msgBadCredentials), creds.Email)
		return
	}

	claims, err := apiclient.ParseClaims(token)
	if err != nil {
		h.Log.Warn("login: unreadable token", zap.String("email", creds.Email), zap.Error(err))
		h.AuditLog.LoginFailedClaims(ctx, r, creds.Email, err.Error())
		w.WriteHeader(http.StatusBadGateway)
		h.renderFormWithError(w, r, msgBadToken, creds.Email)
		return
	}

	u := sessionUser(claims, token)
	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.ErrLog.HTMXLogServerError(w, r, "session save failed", err, msgBadToken, "/login")
		return
	}
	h.AuditLog.LoginSuccess(ctx, r, auditlog.Actor{UserID: u.ID, Email: u.Email}, u.TenantID)
	h.Log.Info("user signed in", zap.String("user_id", u.ID), zap.String("role", u.Role))

	dest := navigation.SafeBackURL(r, navigation.LoginReturn)
	if dest == "/" {
		dest = navigation.Home(u.Role, u.TenantID)
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// sessionUser maps token claims onto the session record.
func sessionUser(c *apiclient.Claims, token string) *auth.SessionUser {
	u := &auth.SessionUser{
		ID:        strconv.FormatInt(c.ID, 10),
		Name:      c.FullName(),
		Email:     c.Email,
		Role:      c.AccountType,
		Token:     token,
		TenantIDs: c.TenantIDs,
	}
	if c.TenantID != 0 {
		u.TenantID = strconv.FormatInt(c.TenantID, 10)
	}
	if c.ExpiresAt != nil {
		u.ExpiresAt = c.ExpiresAt.Time
	}
	return u
}

// formMessage turns validation errors into the first user-facing message.
func formMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return msgBadCredentials
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "required":
		return "Unesite email."
	case fe.Field() == "Email":
		return "Email nije ispravan."
	default:
		return "Unesite lozinku."
	}
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, email string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Prijava", "/"),
		Error:     msg,
		Email:     email,
		ReturnURL: strings.TrimSpace(r.FormValue("return")),
	})
}
