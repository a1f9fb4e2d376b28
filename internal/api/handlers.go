package api

import (
	"net/http"

	"github.com/starford/mdexplorer/internal/apperr"
	"github.com/starford/mdexplorer/internal/checksum"
	"github.com/starford/mdexplorer/internal/explorer"
)

// Handler holds API route handlers.
type Handler struct {
	svc *explorer.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *explorer.Service) *Handler {
	return &Handler{svc: svc}
}

// Tree handles GET /api/tree.
//
//	@Summary		List one directory level
//	@Tags			browse
//	@Produce		json
//	@Param			path	query		string	false	"Directory relative to the root"	default(/)
//	@Success		200		{object}	TreeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// File handles GET /api/file.
//
//	@Summary		Read a file
//	@Tags			browse
//	@Produce		json
//	@Param			path			query		string	true	"File relative to the root"
//	@Param			If-None-Match	header		string	false	"ETag from a previous read"
//	@Success		200				{object}	FileResponse
//	@Success		304				"Not modified"
//	@Failure		400				{object}	errResponse
//	@Failure		403				{object}	errResponse
//	@Router			/file [get]
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "Missing path", Kind: apperr.KindBadRequest})
		return
	}
	f, err := h.svc.File(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	etag := checksum.ETag(f.Checksum)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// Render handles GET /api/render.
//
//	@Summary		Render a Markdown file to HTML
//	@Tags			browse
//	@Produce		json
//	@Param			path	query		string	true	"Markdown file relative to the root"
//	@Success		200		{object}	RenderResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Router			/render [get]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errResponse{Error: "Missing path", Kind: apperr.KindBadRequest})
		return
	}
	out, err := h.svc.Render(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Search handles GET /api/search.
//
//	@Summary		Case-insensitive content search below a directory
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search text"
//	@Param			dir	query		string	false	"Directory to search"	default(/)
//	@Success		200	{object}	SearchResponse
//	@Failure		403	{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.svc.Search(r.Context(), q.Get("dir"), q.Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
