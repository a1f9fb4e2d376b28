package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/mdexplorer/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
	Kind  string `json:"kind,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps an explorer error to its status code. IO failures are
// reported as access denied so no file system detail reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.Kind(err)
	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindAccessDenied:
		status = http.StatusForbidden
	case apperr.KindIO:
		status = http.StatusForbidden
		slog.Warn("file system error", slog.String("uri", r.URL.RequestURI()), slog.String("error", err.Error()))
	case apperr.KindNotADirectory, apperr.KindNotAFile, apperr.KindBadRequest:
		status = http.StatusBadRequest
	default:
		slog.Error("request failed", slog.String("uri", r.URL.RequestURI()), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errResponse{Error: apperr.Message(err), Kind: kind})
}
