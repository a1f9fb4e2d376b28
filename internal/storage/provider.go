// Package storage confines every file system access to a single root directory.
package storage

import "github.com/starford/mdexplorer/internal/models"

// Provider is the interface for sandboxed read access below a fixed root.
type Provider interface {
	// Root returns the absolute, symlink-resolved root directory.
	Root() string
	// Resolve maps a client-relative path to an absolute path inside the root.
	Resolve(rel string) (string, error)
	// Contains reports whether the absolute path abs lies inside the root.
	Contains(abs string) bool
	// Rel maps an absolute path inside the root back to its client form ("/" for the root).
	Rel(abs string) string
	// List returns the visible children of the resolved directory abs.
	List(abs string) ([]models.Entry, error)
	// ReadFile resolves rel and returns the content of the regular file there.
	ReadFile(rel string) (*models.File, error)
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
