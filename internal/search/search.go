// Package search implements a bounded, best-effort content search over a
// directory subtree.
//
// The walk is iterative with explicit depth tracking. It stops at MaxDepth
// levels below the starting directory, after MaxFiles files with matches, and
// records at most MaxMatchesPerFile lines per file. Entries that cannot be
// read are skipped; they never fail the search.
package search

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/mdexplorer/internal/models"
	"github.com/starford/mdexplorer/internal/storage"
)

// Traversal and result bounds.
const (
	MaxDepth          = 6
	MaxFiles          = 50
	MaxMatchesPerFile = 5
	MaxLineRunes      = 300
)

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"dist":         {},
	"build":        {},
	".next":        {},
	"__pycache__":  {},
	"vendor":       {},
	".venv":        {},
}

var textExts = map[string]struct{}{
	".md":       {},
	".mdx":      {},
	".markdown": {},
	".txt":      {},
	".json":     {},
	".yaml":     {},
	".yml":      {},
}

// IsSkippedDir reports whether a directory with this name is never descended into.
func IsSkippedDir(name string) bool {
	_, ok := skipDirs[name]
	return ok
}

// IsSearchable reports whether a file with this name is opened for inspection.
func IsSearchable(name string) bool {
	_, ok := textExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// PathMapper turns absolute paths into the client-facing relative form and
// tells whether a resolved path is still inside the root.
type PathMapper interface {
	Rel(abs string) string
	Contains(abs string) bool
}

// Result is the outcome of one search.
type Result struct {
	Query string
	Hits  []models.SearchHit
	// Partial is set when the context ended before the walk finished.
	Partial bool
	Stats   Stats
}

// Stats counts what the walk did with the entries it saw.
type Stats struct {
	Dirs     int // directories read
	Files    int // files opened
	Excluded int // hidden, skip-listed, too deep or not a text file
	Skipped  int // unreadable directories and files
}

// Searcher runs content searches. It holds no per-search state and is safe
// for concurrent use.
type Searcher struct {
	paths        PathMapper
	logger       *slog.Logger
	maxFileBytes int64
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger used for skipped entries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxFileBytes skips files larger than n bytes.
func WithMaxFileBytes(n int64) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.maxFileBytes = n
		}
	}
}

// NewSearcher creates a Searcher reporting paths through paths.
func NewSearcher(paths PathMapper, opts ...Option) *Searcher {
	s := &Searcher{
		paths:        paths,
		logger:       slog.Default(),
		maxFileBytes: storage.DefaultMaxFileBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// outcome is what the walk did with a single directory entry.
type outcome int

const (
	outcomeExcluded outcome = iota // filtered by name, type or depth
	outcomeDescend                 // directory to walk into
	outcomeNoMatch                 // text file without matches
	outcomeMatched                 // text file with at least one match
	outcomeSkipped                 // read failed
)

type frame struct {
	dir     string
	depth   int
	entries []os.DirEntry
	next    int
}

// Search walks absDir depth-first looking for lines that contain query,
// ignoring case. absDir must already be resolved inside the root.
//
// Entries are visited in the lexical order os.ReadDir returns them, so the
// hit order is deterministic. If ctx ends mid-walk the hits collected so far
// are returned with Partial set, together with the context error.
func (s *Searcher) Search(ctx context.Context, absDir, query string) (Result, error) {
	q := strings.TrimSpace(query)
	res := Result{Query: q, Hits: []models.SearchHit{}}
	if q == "" {
		return res, nil
	}
	needle := strings.ToLower(q)

	rootEntries, err := os.ReadDir(absDir)
	if err != nil {
		s.logger.Debug("search: read dir failed",
			slog.String("path", s.paths.Rel(absDir)),
			slog.String("error", err.Error()))
		res.Stats.Skipped++
		return res, nil
	}
	res.Stats.Dirs++
	stack := []*frame{{dir: absDir, depth: 0, entries: rootEntries}}

	for len(stack) > 0 {
		if len(res.Hits) >= MaxFiles {
			break
		}
		if err := ctx.Err(); err != nil {
			res.Partial = true
			return res, err
		}

		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		e := top.entries[top.next]
		top.next++

		abs := filepath.Join(top.dir, e.Name())
		out, hit := s.visit(abs, e, needle)
		switch out {
		case outcomeDescend:
			if top.depth+1 > MaxDepth {
				res.Stats.Excluded++
				continue
			}
			children, err := os.ReadDir(abs)
			if err != nil {
				s.logger.Debug("search: read dir failed",
					slog.String("path", s.paths.Rel(abs)),
					slog.String("error", err.Error()))
				res.Stats.Skipped++
				continue
			}
			res.Stats.Dirs++
			stack = append(stack, &frame{dir: abs, depth: top.depth + 1, entries: children})
		case outcomeMatched:
			res.Stats.Files++
			res.Hits = append(res.Hits, *hit)
		case outcomeNoMatch:
			res.Stats.Files++
		case outcomeSkipped:
			res.Stats.Skipped++
		case outcomeExcluded:
			res.Stats.Excluded++
		}
	}

	return res, nil
}

// visit classifies one entry and, for text files, scans it.
func (s *Searcher) visit(abs string, e os.DirEntry, needle string) (outcome, *models.SearchHit) {
	name := e.Name()
	if storage.IsHidden(name) {
		return outcomeExcluded, nil
	}
	if e.IsDir() {
		if IsSkippedDir(name) {
			return outcomeExcluded, nil
		}
		return outcomeDescend, nil
	}
	if !IsSearchable(name) {
		return outcomeExcluded, nil
	}
	target := abs
	switch {
	case e.Type().IsRegular():
	case e.Type()&os.ModeSymlink != 0:
		resolved, ok := s.linkedFile(abs)
		if !ok {
			return outcomeExcluded, nil
		}
		target = resolved
	default:
		return outcomeExcluded, nil
	}

	matches, err := s.scanFile(target, needle)
	if err != nil {
		s.logger.Debug("search: skip file",
			slog.String("path", s.paths.Rel(abs)),
			slog.String("error", err.Error()))
		return outcomeSkipped, nil
	}
	if len(matches) == 0 {
		return outcomeNoMatch, nil
	}
	return outcomeMatched, &models.SearchHit{
		RelPath: s.paths.Rel(abs),
		Name:    name,
		Matches: matches,
	}
}

// linkedFile resolves a symlink entry. Only links to regular files inside
// the root are searched; links to directories are never walked.
func (s *Searcher) linkedFile(abs string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil || !s.paths.Contains(resolved) {
		return "", false
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return resolved, true
}

// scanFile returns the first MaxMatchesPerFile lines of abs containing needle.
func (s *Searcher) scanFile(abs, needle string) ([]models.Match, error) {
	data, err := s.readText(abs)
	if err != nil {
		return nil, err
	}
	return matchLines(data, needle), nil
}

func (s *Searcher) readText(abs string) (string, error) {
	f, err := os.Open(abs)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxFileBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > s.maxFileBytes {
		return "", errTooLarge
	}
	if !utf8.Valid(data) {
		return "", errNotText
	}
	return string(data), nil
}

// matchLines scans content line by line. needle must already be lower-case.
func matchLines(content, needle string) []models.Match {
	var out []models.Match
	lineNum := 0
	for line := range strings.SplitSeq(content, "\n") {
		lineNum++
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		out = append(out, models.Match{LineNum: lineNum, Line: clip(strings.TrimSpace(line))})
		if len(out) >= MaxMatchesPerFile {
			break
		}
	}
	return out
}

// clip truncates s to MaxLineRunes characters.
func clip(s string) string {
	if utf8.RuneCountInString(s) <= MaxLineRunes {
		return s
	}
	n := 0
	for i := range s {
		if n == MaxLineRunes {
			return s[:i]
		}
		n++
	}
	return s
}
