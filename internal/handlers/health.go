package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ragdemo/internal/contextutil"
)

// HealthReporter lists the problems preventing queries from being served.
type HealthReporter interface {
	HealthIssues(ctx context.Context) []string
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	reporter           HealthReporter
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(reporter HealthReporter) *HealthHandler {
	return &HealthHandler{
		reporter:           reporter,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy" or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles GET /api/health.
// Returns 200 OK if healthy, 503 Service Unavailable otherwise.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	issues := h.reporter.HealthIssues(checkCtx)

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"rag_application": "ok"},
	}
	httpStatus := http.StatusOK
	if len(issues) > 0 {
		logger.WarnContext(ctx, "health check failed", "issues", issues)
		response.Status = "unhealthy"
		response.Checks["rag_application"] = "error"
		response.Issues = issues
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to encode health response", "error", err)
	}
}
