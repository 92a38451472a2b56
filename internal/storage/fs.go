package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/models"
)

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to vault directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
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
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string { return f.root }

// safePath resolves a vault-relative path against the root and rejects
// any result that escapes it.
func (f *FS) safePath(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	abs, err := filepath.Abs(filepath.Join(f.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes vault root: %s", rel)
	}
	return abs, nil
}

func (f *FS) info(abs string, fi fs.FileInfo) models.FileInfo {
	rel, _ := filepath.Rel(f.root, abs)
	return models.FileInfo{
		Path:      filepath.ToSlash(rel),
		Size:      fi.Size(),
		ModTime:   fi.ModTime(),
		CreatedAt: fi.ModTime(),
		IsDir:     fi.IsDir(),
	}
}

// List walks the vault and returns every file whose path starts with prefix.
// A prefix ending in "/" only walks that directory; a missing directory is empty.
func (f *FS) List(prefix string) ([]models.FileInfo, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	walkDir := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		walkDir = prefix[:i]
	}
	base, err := f.safePath(walkDir)
	if err != nil {
		return nil, err
	}

	var out []models.FileInfo
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) && p == base {
				return fs.SkipAll
			}
			return walkErr
		}
		if d.IsDir() {
			if p != base && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		item := f.info(p, info)
		if strings.HasPrefix(item.Path, prefix) {
			out = append(out, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Stat describes the entry at rel.
func (f *FS) Stat(rel string) (models.FileInfo, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return models.FileInfo{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.FileInfo{}, fmt.Errorf("storage: stat %s: %w", rel, apperr.ErrNotFound)
		}
		return models.FileInfo{}, fmt.Errorf("storage: stat %s: %w", rel, err)
	}
	return f.info(abs, fi), nil
}

// Exists reports whether rel names an existing file or directory.
func (f *FS) Exists(rel string) bool {
	_, err := f.Stat(rel)
	return err == nil
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(rel string) ([]byte, error) {
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("storage: read %s: %w", rel, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Write replaces rel through a temp file and rename. New files get 0644.
func (f *FS) Write(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	if abs == f.root {
		return fmt.Errorf("storage: write %s: %w", rel, apperr.ErrIsDirectory)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	_, statErr := os.Stat(abs)
	if err := atomic.WriteFile(abs, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("storage: write %s: %w", rel, err)
	}
	if errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Chmod(abs, 0o644); err != nil {
			return fmt.Errorf("storage: chmod %s: %w", rel, err)
		}
	}
	return nil
}

// Create writes a new file, failing if rel already exists.
func (f *FS) Create(rel string, content []byte) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	file, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("storage: create %s: %w", rel, apperr.ErrAlreadyExists)
		}
		return fmt.Errorf("storage: create %s: %w", rel, err)
	}
	if _, err := file.Write(content); err != nil {
		_ = file.Close()
		return fmt.Errorf("storage: create %s: %w", rel, err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("storage: fsync %s: %w", rel, err)
	}
	return file.Close()
}

// Delete removes a file from the vault. Directories are refused.
func (f *FS) Delete(rel string) error {
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: delete %s: %w", rel, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("storage: delete %s: %w", rel, apperr.ErrIsDirectory)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	return nil
}

// Join builds a vault-relative path from slash-separated parts.
func Join(parts ...string) string {
	return strings.TrimPrefix(path.Join(parts...), "/")
}
