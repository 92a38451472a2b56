// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/vaultgate/internal/models"

// Provider is the interface for vault file operations.
// All paths are slash-separated and relative to the vault root.
type Provider interface {
	// List returns every file under prefix, skipping dot-directories.
	List(prefix string) ([]models.FileInfo, error)
	// Stat describes a single file or directory.
	Stat(path string) (models.FileInfo, error)
	// Exists reports whether path names a file or directory.
	Exists(path string) bool
	Read(path string) ([]byte, error)
	// Write atomically replaces (or creates) path.
	Write(path string, content []byte) error
	// Create writes a new file and fails with apperr.ErrAlreadyExists if path exists.
	Create(path string, content []byte) error
	Delete(path string) error
}
