// internal/app/features/assignments/handler.go
package assignments

import (
	uierrors "github.com/dalemusser/gradebook/internal/app/features/errors"
	"github.com/dalemusser/gradebook/internal/app/store/pagestate"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/assignpolicy"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the assignment pages (curricula, section pupils, tenant
// teachers). Each opened page gets a workflow controller kept in Pages
// until it goes idle.
type Handler struct {
	API      *apiclient.Client
	Registry *assignpolicy.Registry
	Pages    *pagestate.Store[*Page]
	Audit    *auditlog.Logger
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger

	// PageSize is the number of cards or rows per page.
	PageSize int
}

// NewHandler constructs an assignments Handler.
func NewHandler(api *apiclient.Client, reg *assignpolicy.Registry, pages *pagestate.Store[*Page],
	audit *auditlog.Logger, errLog *uierrors.ErrorLogger, pageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		API:      api,
		Registry: reg,
		Pages:    pages,
		Audit:    audit,
		ErrLog:   errLog,
		Log:      logger,
		PageSize: pageSize,
	}
}
