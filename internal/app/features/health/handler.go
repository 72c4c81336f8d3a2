package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/gradebook/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pinger reports whether the gradebook API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	API    Pinger
	Client *mongo.Client // nil when no database is configured
	Log    *zap.Logger
}

// NewHandler constructs a health Handler. client may be nil.
func NewHandler(api Pinger, client *mongo.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		API:    api,
		Client: client,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	API      string `json:"api"`
	Database string `json:"database"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "api":"reachable", "database":"connected" }
//
// database is "disabled" when the audit store is not configured. When the
// API or the database fails: 503 with status "error".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	var apiErr, dbErr error
	var g errgroup.Group
	g.Go(func() error {
		apiErr = h.API.Ping(ctx)
		return nil
	})
	if h.Client != nil {
		g.Go(func() error {
			dbErr = h.Client.Ping(ctx, readpref.Primary())
			return nil
		})
	}
	_ = g.Wait()

	resp := healthResponse{Status: "ok", API: "reachable", Database: "connected"}
	if h.Client == nil {
		resp.Database = "disabled"
	}
	if dbErr != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(dbErr))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = dbErr.Error()
	}
	if apiErr != nil {
		h.Log.Error("health-check: api ping failed", zap.Error(apiErr))
		resp.Status = "error"
		resp.API = "unreachable"
		resp.Message = "API unavailable"
		resp.Error = apiErr.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
