package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/rentity/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Pinger reports whether the store is reachable.
type Pinger func(ctx context.Context) error

// Handler holds dependencies needed for health checks.
type Handler struct {
	Ping    Pinger
	Backend string
	Expose  bool // include the ping error text in 503 responses
	Log     *zap.Logger
}

// NewHandler constructs a health Handler.
func NewHandler(ping Pinger, backend string, expose bool, logger *zap.Logger) *Handler {
	return &Handler{
		Ping:    ping,
		Backend: backend,
		Expose:  expose,
		Log:     logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Backend  string `json:"backend,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "backend":"mongo" }
//
// On store failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable" }
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Backend:  h.Backend,
	}

	if err := h.Ping(ctx); err != nil {
		h.Log.Error("health-check: store ping failed", zap.String("backend", h.Backend), zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		if h.Expose {
			resp.Error = err.Error()
		}
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
