// Package testutil provides shared test helpers for building directory trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/mdexplorer/internal/storage"
)

// WriteFile creates root/rel (and any missing parents) with content.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}

// Mkdir creates root/rel including parents.
func Mkdir(t *testing.T, root, rel string) string {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(abs, 0o755); err != nil {
		t.Fatal(err)
	}
	return abs
}

// Tree writes every rel → content pair below root.
func Tree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
}

// TestRoot creates a temporary root directory with a storage.FS over it.
// The returned path is the symlink-resolved root the FS reports.
func TestRoot(t *testing.T) (string, *storage.FS) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store.Root(), store
}

// StoreAt creates a storage.FS over an existing directory.
func StoreAt(t *testing.T, root string) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// Unreadable removes all permissions from abs for the rest of the test.
// It skips the test when running as root, where permissions are not enforced.
func Unreadable(t *testing.T, abs string) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks are not enforced for root")
	}
	info, err := os.Stat(abs)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(abs, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(abs, info.Mode().Perm()) })
}
