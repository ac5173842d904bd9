package httptransport

import (
	"context"
	"net/http"
	"time"

	"aegis/pkg/platform/httputil"
	"aegis/pkg/requestcontext"
)

// HealthChecker reports one dependency's connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler serves GET /v1/health. Dependencies degrade the status but
// never fail the endpoint itself.
type HealthHandler struct {
	checks map[string]HealthChecker
}

// NewHealthHandler builds the health endpoint over named dependency checks.
// Nil checkers are skipped so optional backends drop out cleanly.
func NewHealthHandler(checks map[string]HealthChecker) *HealthHandler {
	active := make(map[string]HealthChecker, len(checks))
	for name, c := range checks {
		if c != nil {
			active[name] = c
		}
	}
	return &HealthHandler{checks: active}
}

// HealthResponse is the HTTP response for GET /v1/health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// HandleHealth handles GET /v1/health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			deps[name] = "unhealthy"
			status = "degraded"
			continue
		}
		deps[name] = "healthy"
	}

	httputil.WriteJSON(w, http.StatusOK, &HealthResponse{
		Status:       status,
		Dependencies: deps,
		Timestamp:    requestcontext.Now(r.Context()),
	})
}
