package handlers

import (
	"net/http"
	"time"
)

// WorkspaceCounter reports how many browser workspaces are held.
type WorkspaceCounter interface {
	Len() int
}

// NewHealthHandler returns GET /health handler. It reports live workspaces and uptime.
func NewHealthHandler(workspaces WorkspaceCounter) http.HandlerFunc {
	started := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "ok",
			"workspaces": workspaces.Len(),
			"uptime":     time.Since(started).Round(time.Second).String(),
		})
	}
}
