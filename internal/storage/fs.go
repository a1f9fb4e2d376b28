package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/starford/mdexplorer/internal/apperr"
	"github.com/starford/mdexplorer/internal/checksum"
	"github.com/starford/mdexplorer/internal/models"
)

// DefaultMaxFileBytes bounds a single file read.
const DefaultMaxFileBytes int64 = 10 << 20

// FS implements Provider backed by the local file system.
type FS struct {
	root         string // absolute, symlink-free path
	prefix       string // root with exactly one trailing separator
	maxFileBytes int64
}

// FSOption configures an FS.
type FSOption func(*FS)

// WithMaxFileBytes limits how many bytes ReadFile accepts.
func WithMaxFileBytes(n int64) FSOption {
	return func(f *FS) {
		if n > 0 {
			f.maxFileBytes = n
		}
	}
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string, opts ...FSOption) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}

	prefix := abs
	if !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix += string(os.PathSeparator)
	}

	f := &FS{root: abs, prefix: prefix, maxFileBytes: DefaultMaxFileBytes}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Root returns the absolute root directory.
func (f *FS) Root() string {
	return f.root
}

// Resolve joins rel onto the root and rejects any result that escapes it.
// Leading slashes are ignored so "/docs" and "docs" name the same directory.
// Resolution is lexical: the file system is not consulted.
func (f *FS) Resolve(rel string) (string, error) {
	trimmed := strings.TrimLeft(filepath.FromSlash(rel), `/`+string(os.PathSeparator))
	abs := filepath.Join(f.root, trimmed)
	if !f.Contains(abs) {
		return "", fmt.Errorf("storage: %w: %q escapes root", apperr.ErrAccessDenied, rel)
	}
	return abs, nil
}

// Contains reports whether abs is the root or lies below it. It compares at
// path-segment granularity so "/home/foo" never admits "/home/foobar".
func (f *FS) Contains(abs string) bool {
	return abs == f.root || strings.HasPrefix(abs, f.prefix)
}

// Rel strips the root from abs. The root itself is reported as "/".
func (f *FS) Rel(abs string) string {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil || rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

// List reads the direct children of abs, hides dot-entries and orders the
// rest directories first, then by collation order of their names.
func (f *FS) List(abs string) ([]models.Entry, error) {
	if !f.Contains(abs) {
		return nil, fmt.Errorf("storage: %w: %s is outside root", apperr.ErrAccessDenied, abs)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w: %w", f.Rel(abs), apperr.ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: list %s: %w", f.Rel(abs), apperr.ErrNotADirectory)
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir %s: %w: %w", f.Rel(abs), apperr.ErrIO, err)
	}

	out := make([]models.Entry, 0, len(dirents))
	for _, d := range dirents {
		if IsHidden(d.Name()) {
			continue
		}
		out = append(out, models.Entry{
			Name:  d.Name(),
			IsDir: d.IsDir(),
			Path:  f.Rel(filepath.Join(abs, d.Name())),
		})
	}

	cmp := newEntryOrder()
	slices.SortFunc(out, cmp.compare)
	return out, nil
}

// ReadFile returns the content of the regular file at rel.
func (f *FS) ReadFile(rel string) (*models.File, error) {
	abs, err := f.Resolve(rel)
	if err != nil {
		return nil, err
	}

	// Opening a FIFO or device blocks or has side effects, so the type is
	// checked before the open and confirmed on the opened handle.
	before, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w: %w", f.Rel(abs), apperr.ErrIO, err)
	}
	if !before.Mode().IsRegular() {
		return nil, fmt.Errorf("storage: read %s: %w", f.Rel(abs), apperr.ErrNotAFile)
	}

	fh, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w: %w", f.Rel(abs), apperr.ErrIO, err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w: %w", f.Rel(abs), apperr.ErrIO, err)
	}
	if !info.Mode().IsRegular() || !os.SameFile(before, info) {
		return nil, fmt.Errorf("storage: read %s: %w: changed while opening", f.Rel(abs), apperr.ErrNotAFile)
	}
	if info.Size() > f.maxFileBytes {
		return nil, fmt.Errorf("storage: read %s: %w: file too large (%d bytes)", f.Rel(abs), apperr.ErrIO, info.Size())
	}

	data, err := io.ReadAll(io.LimitReader(fh, f.maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w: %w", f.Rel(abs), apperr.ErrIO, err)
	}
	if int64(len(data)) > f.maxFileBytes {
		return nil, fmt.Errorf("storage: read %s: %w: file too large", f.Rel(abs), apperr.ErrIO)
	}

	return &models.File{
		Path:     f.Rel(abs),
		Name:     filepath.Base(abs),
		Ext:      strings.ToLower(filepath.Ext(abs)),
		Content:  string(data),
		Checksum: checksum.Sum(data),
		Size:     int64(len(data)),
		ModTime:  info.ModTime(),
	}, nil
}

// IsHidden reports whether name follows the dot-file convention.
func IsHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
