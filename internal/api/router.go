package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mdexplorer/internal/explorer"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *explorer.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(CORS)
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	// Browsing.
	r.Get("/tree", h.Tree)
	r.Get("/file", h.File)
	r.Get("/render", h.Render)

	// Search.
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
