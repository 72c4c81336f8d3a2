// internal/app/features/home/handler.go
package home

import (
	"net/http"

	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/auth"
	"github.com/dalemusser/gradebook/internal/app/system/navigation"
	"go.uber.org/zap"
)

// Handler serves the landing redirect and the role home lists that lead
// into the assignment pages.
type Handler struct {
	API *apiclient.Client
	Log *zap.Logger

	PageSize int
}

func NewHandler(api *apiclient.Client, pageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		API:      api,
		Log:      logger,
		PageSize: pageSize,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – landing                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeRoot sends the user to their role's home, or to login.
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, navigation.Home(u.Role, u.TenantID), http.StatusSeeOther)
}
