package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"contactsync/pkg/platform/httputil"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck checks one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse is the /healthz body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthHandler reports 200 when every check passes and 503 otherwise.
type HealthHandler struct {
	checks []HealthCheck
	logger *slog.Logger
}

func NewHealthHandler(checks []HealthCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check failed", "check", c.Name, "error", err)
			resp.Checks[c.Name] = "unavailable"
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}
