package index

import (
	"log/slog"
	"time"

	"github.com/starford/vaultgate/internal/checksum"
	"github.com/starford/vaultgate/internal/parser"
	"github.com/starford/vaultgate/internal/storage"
)

// Sync walks the vault and brings the index up to date:
//   - new/changed Markdown files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	files, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		if !f.IsMarkdown() {
			continue
		}
		disk[f.Path] = struct{}{}

		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if checksum.Matches(data, checksums[f.Path]) {
			continue
		}
		if err := IndexFile(db, f.Path, data, f.ModTime); err != nil {
			logger.Warn("sync: index failed", slog.String("path", f.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", f.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.Delete(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses data and upserts it into the DB.
func IndexFile(db *DB, path string, data []byte, mtime time.Time) error {
	meta := parser.Parse(data)
	_, body, _ := parser.ExtractFrontmatter(string(data))
	return db.Upsert(Row{
		Path:      path,
		Checksum:  checksum.Sum(data),
		Meta:      meta,
		Body:      body,
		UpdatedAt: mtime,
	})
}
