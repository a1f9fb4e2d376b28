// Package explorer coordinates the sandboxed storage, search and rendering
// behind the transports (HTTP and MCP).
package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/mdexplorer/internal/apperr"
	"github.com/starford/mdexplorer/internal/frontmatter"
	"github.com/starford/mdexplorer/internal/models"
	"github.com/starford/mdexplorer/internal/render"
	"github.com/starford/mdexplorer/internal/search"
	"github.com/starford/mdexplorer/internal/storage"
)

// DefaultSearchTimeout bounds one search walk.
const DefaultSearchTimeout = 10 * time.Second

// Tree is a single-level directory listing.
type Tree struct {
	Path    string         `json:"path"`
	Entries []models.Entry `json:"entries"`
}

// SearchResults is the response payload of a content search.
type SearchResults struct {
	Query   string             `json:"query,omitempty"`
	Results []models.SearchHit `json:"results"`
	Partial bool               `json:"partial,omitempty"`
}

// Rendered is a Markdown file converted to HTML. A YAML header, if any, is
// returned in Meta and not rendered.
type Rendered struct {
	Path  string         `json:"path"`
	Name  string         `json:"name"`
	Title string         `json:"title,omitempty"`
	Tags  []string       `json:"tags,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	HTML  string         `json:"html"`
}

// Service exposes the explorer operations. Every client path goes through
// the storage resolver before any file system access.
type Service struct {
	store         storage.Provider
	searcher      *search.Searcher
	renderer      *render.Renderer
	searchTimeout time.Duration
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSearchTimeout sets the wall-clock budget of a single search.
func WithSearchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.searchTimeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new explorer service.
func NewService(store storage.Provider, searcher *search.Searcher, renderer *render.Renderer, opts ...Option) *Service {
	s := &Service{
		store:         store,
		searcher:      searcher,
		renderer:      renderer,
		searchTimeout: DefaultSearchTimeout,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tree lists the directory at rel. An empty rel lists the root.
func (s *Service) Tree(_ context.Context, rel string) (*Tree, error) {
	if rel == "" {
		rel = "/"
	}
	abs, err := s.store.Resolve(rel)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.List(abs)
	if err != nil {
		return nil, err
	}
	return &Tree{Path: rel, Entries: entries}, nil
}

// File reads the regular file at rel.
func (s *Service) File(_ context.Context, rel string) (*models.File, error) {
	if rel == "" {
		return nil, fmt.Errorf("explorer: %w: missing path", apperr.ErrBadRequest)
	}
	f, err := s.store.ReadFile(rel)
	if err != nil {
		return nil, err
	}
	f.Path = rel
	return f, nil
}

// Search looks for query in the text files below dir (the root when empty).
// A blank query returns no results without touching the file system.
func (s *Service) Search(ctx context.Context, dir, query string) (*SearchResults, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return &SearchResults{Results: []models.SearchHit{}}, nil
	}
	if dir == "" {
		dir = "/"
	}
	abs, err := s.store.Resolve(dir)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.searchTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.searcher.Search(ctx, abs, q)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	attrs := []any{
		slog.String("query", q),
		slog.String("dir", s.store.Rel(abs)),
		slog.Int("hits", len(res.Hits)),
		slog.Int("dirs", res.Stats.Dirs),
		slog.Int("files", res.Stats.Files),
		slog.Int("skipped", res.Stats.Skipped),
		slog.Duration("elapsed", time.Since(start)),
	}
	if res.Partial {
		s.logger.Warn("search stopped early", append(attrs, slog.String("reason", err.Error()))...)
	} else {
		s.logger.Debug("search finished", attrs...)
	}

	return &SearchResults{Query: q, Results: res.Hits, Partial: res.Partial}, nil
}

// Render reads the Markdown file at rel and converts it to HTML.
func (s *Service) Render(ctx context.Context, rel string) (*Rendered, error) {
	f, err := s.File(ctx, rel)
	if err != nil {
		return nil, err
	}
	if !render.IsMarkdown(f.Ext) {
		return nil, fmt.Errorf("explorer: %w: %s is not a markdown file", apperr.ErrNotAFile, rel)
	}
	doc := frontmatter.Parse([]byte(f.Content))
	html, err := s.renderer.Render(doc.Body)
	if err != nil {
		return nil, err
	}
	return &Rendered{
		Path:  f.Path,
		Name:  f.Name,
		Title: doc.Title,
		Tags:  doc.Tags,
		Meta:  doc.Meta,
		HTML:  html,
	}, nil
}
