// internal/app/features/invites/handler.go
package invites

import (
	"github.com/dalemusser/gradebook/internal/app/store/pagestate"
	"github.com/dalemusser/gradebook/internal/app/system/apiclient"
	"github.com/dalemusser/gradebook/internal/app/system/auditlog"
	"github.com/dalemusser/gradebook/internal/app/system/workflow"
	"go.uber.org/zap"
)

// Handler serves the invite inboxes of pupils and teachers.
type Handler struct {
	API   *apiclient.Client
	Pages *pagestate.Store[*Page]
	Audit *auditlog.Logger
	Log   *zap.Logger

	PageSize int
}

func NewHandler(api *apiclient.Client, pages *pagestate.Store[*Page], audit *auditlog.Logger, pageSize int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		API:      api,
		Pages:    pages,
		Audit:    audit,
		Log:      logger,
		PageSize: pageSize,
	}
}

// Page is one opened inbox.
type Page struct {
	ID    string
	Inbox *workflow.Inbox
	Actor auditlog.Actor
}
