package handlers

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"colonnine/backend/services/console/internal/view"
	"colonnine/backend/services/console/internal/workspace"
	"colonnine/backend/services/console/internal/ws"
)

// PageHandlers serves the console document, its view state and the push socket.
type PageHandlers struct {
	page    *view.Page
	sockets *ws.Server
	logger  *zap.Logger
}

// NewPageHandlers returns handler.
func NewPageHandlers(page *view.Page, sockets *ws.Server, logger *zap.Logger) *PageHandlers {
	return &PageHandlers{page: page, sockets: sockets, logger: logger}
}

// Index handles GET /.
func (h *PageHandlers) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	space, ok := workspace.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "workspace missing")
		return
	}

	var buf bytes.Buffer
	if err := h.page.Render(&buf, space.Controller.View()); err != nil {
		h.logger.Error("render page failed", zap.String("workspace_id", space.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// View handles GET /api/view.
func (h *PageHandlers) View(w http.ResponseWriter, r *http.Request) {
	space, ok := workspace.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "workspace missing")
		return
	}
	frame, err := h.page.Frame(space.Controller.View())
	if err != nil {
		h.logger.Error("render view failed", zap.String("workspace_id", space.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

// Socket handles GET /ws. The current view goes out first so a reconnecting tab catches up.
func (h *PageHandlers) Socket(w http.ResponseWriter, r *http.Request) {
	space, ok := workspace.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusInternalServerError, "workspace missing")
		return
	}
	initial, err := ws.EncodeFrame(h.page, space.Controller.View())
	if err != nil {
		h.logger.Error("encode initial frame failed", zap.String("workspace_id", space.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	if err := h.sockets.Attach(w, r, space.ID, initial); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("workspace_id", space.ID), zap.Error(err))
	}
}
