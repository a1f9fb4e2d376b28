// Package watcher reports file system changes below the root so connected
// browsers can refresh their view.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/mdexplorer/internal/search"
	"github.com/starford/mdexplorer/internal/sse"
	"github.com/starford/mdexplorer/internal/storage"
)

// EventCallback is called after a change to a visible path.
// kind is one of sse.KindCreated, sse.KindUpdated, sse.KindDeleted and
// path is relative to the root.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the root and processes change events
// until ctx is cancelled.
//
// Directories are watched down to the same depth the search explores;
// hidden and skip-listed directories are not watched. Directories created at
// runtime are added to the watch list.
func Watch(ctx context.Context, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirs(w, root, root, logger); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			handleEvent(w, store, ev, logger, cb)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func handleEvent(w *fsnotify.Watcher, store storage.Provider, ev fsnotify.Event, logger *slog.Logger, cb EventCallback) {
	root := store.Root()
	if !visible(root, ev.Name) {
		return
	}
	rel := store.Rel(ev.Name)

	var kind string
	switch {
	case ev.Op&fsnotify.Create != 0:
		kind = sse.KindCreated
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := addDirs(w, root, ev.Name, logger); addErr != nil {
				logger.Warn("watcher: add new dir failed",
					slog.String("path", rel),
					slog.String("error", addErr.Error()))
			}
		}
	case ev.Op&fsnotify.Write != 0:
		kind = sse.KindUpdated
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Rename fires on the old path; the new path arrives as a Create.
		kind = sse.KindDeleted
	default:
		return
	}

	logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
	if cb != nil {
		cb(kind, rel)
	}
}

// visible reports whether abs lies inside root with no hidden segment.
func visible(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return false
	}
	for _, seg := range strings.Split(rel, string(os.PathSeparator)) {
		if storage.IsHidden(seg) {
			return false
		}
	}
	return true
}

// depth returns how many levels abs lies below root.
func depth(root, abs string) int {
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(os.PathSeparator)) + 1
}

// addDirs adds dir and its watchable subdirectories to the watcher.
// Unreadable subdirectories are logged and skipped.
func addDirs(w *fsnotify.Watcher, root, dir string, logger *slog.Logger) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logger.Debug("watcher: skip dir", slog.String("path", path), slog.String("error", err.Error()))
			return filepath.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (storage.IsHidden(d.Name()) || search.IsSkippedDir(d.Name())) {
			return filepath.SkipDir
		}
		if depth(root, path) > search.MaxDepth {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
