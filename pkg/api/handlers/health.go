package handlers

import (
	"net/http"
	"time"

	"github.com/marmos91/assetstream/pkg/registry"
)

// LoaderStats is the part of the streaming loader health checks look at.
type LoaderStats interface {
	Pending() int
	Resident() int
	ResidentBytes() int
	LastError() (time.Time, error)
}

// HealthHandler handles health check endpoints.
//
//   - Liveness: is the process serving?
//   - Readiness: is the registry wired?
//   - Loader: streaming loader queue and residency
type HealthHandler struct {
	registry *registry.Registry
	loader   LoaderStats
}

// NewHealthHandler creates a new health handler. Either argument may be
// nil, in which case the checks depending on it report unhealthy.
func NewHealthHandler(registry *registry.Registry, loader LoaderStats) *HealthHandler {
	return &HealthHandler{registry: registry, loader: loader}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "assetstream",
	}))
}

// Readiness handles GET /health/ready.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("registry not initialized"))
		return
	}
	if h.loader == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("loader not initialized"))
		return
	}

	WriteJSON(w, http.StatusOK, healthyResponse(map[string]any{
		"libraries": h.registry.Len(),
	}))
}

// LoaderHealth is the body of GET /health/loader.
type LoaderHealth struct {
	Pending       int    `json:"pending"`
	Resident      int    `json:"resident"`
	ResidentBytes int    `json:"resident_bytes"`
	LastError     string `json:"last_error,omitempty"`
	LastErrorAt   string `json:"last_error_at,omitempty"`
}

// Loader handles GET /health/loader. Load failures are reported but do
// not make the loader unhealthy; a missing resource is a catalog problem.
func (h *HealthHandler) Loader(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("loader not initialized"))
		return
	}

	body := LoaderHealth{
		Pending:       h.loader.Pending(),
		Resident:      h.loader.Resident(),
		ResidentBytes: h.loader.ResidentBytes(),
	}
	if at, err := h.loader.LastError(); err != nil {
		body.LastError = err.Error()
		body.LastErrorAt = at.UTC().Format(time.RFC3339)
	}
	WriteJSON(w, http.StatusOK, healthyResponse(body))
}
