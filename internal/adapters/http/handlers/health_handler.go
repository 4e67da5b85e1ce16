package handlers

import (
	"net/http"

	"github.com/Aidzix/Monday/internal/ports"
)

const (
	statusOK       = "ok"
	statusReady    = "ready"
	statusDegraded = "degraded"
	statusNotReady = "not_ready"
)

// HealthHandler serves the liveness and readiness checks.
type HealthHandler struct {
	registry ports.HealthRegistry
	optional map[string]bool
}

// NewHealthHandler builds a HealthHandler over registry. Checks named in
// optional report their failures without failing readiness; the engine keeps
// serving without them.
func NewHealthHandler(registry ports.HealthRegistry, optional ...string) *HealthHandler {
	h := &HealthHandler{registry: registry, optional: make(map[string]bool, len(optional))}
	for _, name := range optional {
		h.optional[name] = true
	}
	return h
}

// Liveness handles GET /health/live. Always returns 200 OK.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": statusOK})
}

// Readiness handles GET /health/ready. Any failing required check makes it
// 503 not_ready; failing optional checks alone give 200 degraded.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results := h.registry.CheckAll(r.Context())

	checks := make(map[string]string, len(results))
	status, code := statusReady, http.StatusOK
	for name, err := range results {
		if err == nil {
			checks[name] = statusOK
			continue
		}
		checks[name] = err.Error()
		switch {
		case !h.optional[name]:
			status, code = statusNotReady, http.StatusServiceUnavailable
		case status == statusReady:
			status = statusDegraded
		}
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
