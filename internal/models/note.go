// Package models defines the domain types shared across vaultgate packages.
package models

import (
	"strings"
	"time"
)

// FileInfo describes one vault entry. Path is slash-separated and vault-relative.
type FileInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mtime"`
	CreatedAt time.Time `json:"ctime"`
	IsDir     bool      `json:"-"`
}

// IsMarkdown reports whether the entry is a Markdown document.
func (f FileInfo) IsMarkdown() bool {
	return !f.IsDir && strings.HasSuffix(strings.ToLower(f.Path), ".md")
}

// Stat is the timestamp/size triple exposed on note representations.
type Stat struct {
	CTime int64 `json:"ctime"`
	MTime int64 `json:"mtime"`
	Size  int64 `json:"size"`
}

// StatOf converts a FileInfo into epoch-millisecond stat values.
func StatOf(f FileInfo) Stat {
	return Stat{
		CTime: f.CreatedAt.UnixMilli(),
		MTime: f.ModTime.UnixMilli(),
		Size:  f.Size,
	}
}

// NoteJSON is the structured representation of a note returned for
// application/vnd.olrapi.note+json and used as the structured search input.
type NoteJSON struct {
	Path        string         `json:"path"`
	Content     string         `json:"content"`
	Frontmatter map[string]any `json:"frontmatter"`
	Tags        []string       `json:"tags"`
	Stat        Stat           `json:"stat"`
}
