package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/vaultgate/internal/checksum"
	"github.com/starford/vaultgate/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, path string)

// Watch keeps the metadata index current with edits made outside the API
// until ctx is cancelled. cb (if non-nil) runs after each index mutation.
//
// New directories are added to the watch list as they appear. Rename events
// schedule a debounced reconciliation pass.
func Watch(ctx context.Context, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcileAfterRename(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if handleEvent(w, ev, db, store, vaultRoot, logger, cb) {
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// handleEvent applies one fsnotify event to the index. It reports whether
// a reconciliation pass is needed.
func handleEvent(w *fsnotify.Watcher, ev fsnotify.Event, db *DB, store storage.Provider, vaultRoot string, logger *slog.Logger, cb EventCallback) bool {
	rel, relErr := filepath.Rel(vaultRoot, ev.Name)
	if relErr != nil || hiddenPath(rel) {
		return false
	}
	rel = filepath.ToSlash(rel)

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
				logger.Warn("watcher: add new dir failed", slog.String("path", rel), slog.String("error", addErr.Error()))
			}
			indexNewDir(db, store, vaultRoot, ev.Name, logger, cb)
			return false
		}
	}

	if !strings.HasSuffix(strings.ToLower(rel), ".md") {
		return false
	}

	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		data, readErr := store.Read(rel)
		if readErr != nil {
			logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return false
		}
		// Writes made through the API are indexed before they hit the watcher.
		if cs, _ := db.GetChecksum(rel); checksum.Matches(data, cs) {
			return false
		}
		if idxErr := IndexFile(db, rel, data, time.Now()); idxErr != nil {
			logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
			return false
		}
		kind := "updated"
		if ev.Op&fsnotify.Create != 0 {
			kind = "created"
		}
		logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
		if cb != nil {
			cb(kind, rel)
		}

	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// Rename only reports the old name; the new one arrives as Create
		// when it stays inside a watched dir.
		if cs, _ := db.GetChecksum(rel); cs == "" {
			return ev.Op&fsnotify.Rename != 0
		}
		if delErr := db.Delete(rel); delErr != nil {
			logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
			return false
		}
		logger.Debug("watcher: deleted", slog.String("path", rel))
		if cb != nil {
			cb("deleted", rel)
		}
		return ev.Op&fsnotify.Rename != 0
	}
	return false
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}

// reconcileAfterRename removes index entries whose file is gone and indexes
// Markdown files that are missing or stale.
func reconcileAfterRename(db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	files, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		if !f.IsMarkdown() {
			continue
		}
		disk[f.Path] = struct{}{}
		data, readErr := store.Read(f.Path)
		if readErr != nil || checksum.Matches(data, checksums[f.Path]) {
			continue
		}
		if idxErr := IndexFile(db, f.Path, data, f.ModTime); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("path", f.Path))
			if cb != nil {
				cb("created", f.Path)
			}
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if delErr := db.Delete(p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				if cb != nil {
					cb("deleted", p)
				}
			}
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func indexNewDir(db *DB, store storage.Provider, vaultRoot, dirPath string, logger *slog.Logger, cb EventCallback) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(vaultRoot, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		data, readErr := store.Read(rel)
		if readErr != nil {
			return nil
		}
		if idxErr := IndexFile(db, rel, data, time.Now()); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			if cb != nil {
				cb("created", rel)
			}
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
