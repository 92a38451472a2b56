// Package index keeps a SQLite cache of parsed document metadata, with
// optional FTS5 full-text search.
package index

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/vaultgate/internal/parser"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	path        TEXT PRIMARY KEY,
	checksum    TEXT NOT NULL DEFAULT '',
	frontmatter TEXT NOT NULL DEFAULT '{}',
	raw         TEXT NOT NULL DEFAULT '{}',
	tags        TEXT NOT NULL DEFAULT '[]',
	headings    TEXT NOT NULL DEFAULT '[]',
	body        TEXT NOT NULL DEFAULT '',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_updated ON files(updated_at);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

// MetadataIndex is what request handlers and the sync engine read from.
type MetadataIndex interface {
	MetadataFor(ctx context.Context, path string) (*parser.Metadata, error)
}

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

var _ MetadataIndex = (*DB)(nil)

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("index: pragma %q: %w", p, err)
		}
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
