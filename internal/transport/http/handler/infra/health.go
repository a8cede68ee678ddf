package infra

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tooniez/openrouter-relay/internal/version"
)

// RootStatus returns JSON status and version information at GET /.
func (h *Handlers) RootStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"name":    "openrouter-relay",
		"version": version.Version,
		"status":  "running",
		"relay":   "/v1/chat/completions",
		"models":  "/v1/models",
		"health":  "/api/health",
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// HealthCheck handler returns the application health status.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "active",
		"app":    "openrouter-relay",
		"uptime": time.Since(h.StartTime).Round(time.Second).String(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
