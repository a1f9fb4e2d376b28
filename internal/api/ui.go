package api

import (
	"log/slog"
	"net/http"
	"os"
)

// UIHandler serves the single-page browser UI from a file on disk.
type UIHandler struct {
	path string
}

// NewUIHandler creates a handler for the UI file at path.
func NewUIHandler(path string) *UIHandler {
	return &UIHandler{path: path}
}

// ServeHTTP handles GET / and GET /index.html. The file is read on every
// request so edits show up without a restart.
func (h *UIHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		slog.Warn("ui file unavailable", slog.String("path", h.path), slog.String("error", err.Error()))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("ui.html not found"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
