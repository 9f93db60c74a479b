package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthCheck represents the health status of the mock API
type HealthCheck struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	Timestamp string `json:"timestamp"`
}

type HealthChecker struct {
	version   string
	gitCommit string
}

func NewHealthChecker(version, gitCommit string) *HealthChecker {
	return &HealthChecker{version: version, gitCommit: gitCommit}
}

// Health reports "healthy", or 503 once the server has started shutting down.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "shutting_down",
			})
			return
		default:
		}

		writeJSON(w, http.StatusOK, HealthCheck{
			Status:    "healthy",
			Version:   h.version,
			GitCommit: h.gitCommit,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}
