package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/parser"
)

// Row is one indexed document.
type Row struct {
	Path      string
	Checksum  string
	Meta      *parser.Metadata
	Body      string
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
}

// Upsert inserts or replaces a document and its FTS entry within a transaction.
func (db *DB) Upsert(r Row) error {
	meta := r.Meta
	if meta == nil {
		meta = &parser.Metadata{}
	}
	fmJSON, err := json.Marshal(meta.Frontmatter)
	if err != nil {
		return fmt.Errorf("index: encode frontmatter %s: %w", r.Path, err)
	}
	rawJSON, _ := json.Marshal(meta.Raw)
	tagsJSON, _ := json.Marshal(meta.Tags)
	headingsJSON, _ := json.Marshal(meta.Headings)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO files (path, checksum, frontmatter, raw, tags, headings, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum    = excluded.checksum,
			frontmatter = excluded.frontmatter,
			raw         = excluded.raw,
			tags        = excluded.tags,
			headings    = excluded.headings,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, r.Path, r.Checksum, string(fmJSON), string(rawJSON), string(tagsJSON), string(headingsJSON), r.Body, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert %s: %w", r.Path, err)
	}

	if err := ftsUpsert(tx, r.Path, r.Body, meta.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a document and its FTS entry.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, path)
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete %s: %w", path, err)
	}
	return tx.Commit()
}

// MetadataFor returns the cached metadata for path, or apperr.ErrNotFound
// when the document has not been indexed yet.
func (db *DB) MetadataFor(ctx context.Context, path string) (*parser.Metadata, error) {
	var fmJSON, rawJSON, tagsJSON, headingsJSON string
	err := db.conn.QueryRowContext(ctx,
		`SELECT frontmatter, raw, tags, headings FROM files WHERE path = ?`, path,
	).Scan(&fmJSON, &rawJSON, &tagsJSON, &headingsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: metadata %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: metadata %s: %w", path, err)
	}

	m := &parser.Metadata{}
	for _, pair := range []struct {
		src string
		dst any
	}{
		{fmJSON, &m.Frontmatter},
		{rawJSON, &m.Raw},
		{tagsJSON, &m.Tags},
		{headingsJSON, &m.Headings},
	} {
		if err := json.Unmarshal([]byte(pair.src), pair.dst); err != nil {
			return nil, fmt.Errorf("index: decode metadata %s: %w", path, err)
		}
	}
	if m.Frontmatter == nil {
		m.Frontmatter = map[string]any{}
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	return m, nil
}

// GetChecksum returns the stored checksum for a document, or "" if not indexed.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM files WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum %s: %w", path, err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM files`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
