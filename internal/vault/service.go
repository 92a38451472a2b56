// Package vault implements the document operations behind /vault and
// /periodic: listing, reads, writes, appends, heading-relative patches
// and deletes. Every mutation keeps the metadata index current.
package vault

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/index"
	"github.com/starford/vaultgate/internal/models"
	"github.com/starford/vaultgate/internal/parser"
	"github.com/starford/vaultgate/internal/storage"
)

func init() {
	_ = mime.AddExtensionType(".md", "text/markdown")
}

// Publisher receives vault change notifications ("created", "updated", "deleted").
type Publisher interface {
	PublishVaultEvent(kind, path string)
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	events Publisher
}

// NewService creates a vault service. events may be nil.
func NewService(store storage.Provider, db *index.DB, events Publisher) *Service {
	return &Service{store: store, db: db, events: events}
}

// IsDirPath reports whether p addresses a directory listing rather than a file.
func IsDirPath(p string) bool {
	return p == "" || strings.HasSuffix(p, "/")
}

// RequireFile rejects directory-style paths.
func RequireFile(p string) error {
	if IsDirPath(p) {
		return apperr.New(apperr.RequestMethodValidOnlyForFiles, "")
	}
	return nil
}

// ContentType returns the MIME type served for p.
func ContentType(p string) string {
	ct := mime.TypeByExtension(path.Ext(p))
	if ct == "" {
		return "application/octet-stream"
	}
	if strings.HasPrefix(ct, "text/markdown") {
		return "text/markdown; charset=UTF-8"
	}
	return ct
}

// List returns the distinct immediate children of dir, directories suffixed
// with "/", sorted.
func (s *Service) List(_ context.Context, dir string) ([]string, error) {
	files, err := s.store.List(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, f := range files {
		rest := strings.TrimPrefix(f.Path, dir)
		name, _, nested := strings.Cut(rest, "/")
		if nested {
			name += "/"
		}
		if _, dup := seen[name]; dup || name == "" {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Files returns every file in the vault.
func (s *Service) Files(_ context.Context) ([]models.FileInfo, error) {
	return s.store.List("")
}

// Read returns the content and stat of a file.
func (s *Service) Read(_ context.Context, p string) ([]byte, models.FileInfo, error) {
	info, err := s.store.Stat(p)
	if err != nil {
		return nil, models.FileInfo{}, err
	}
	if info.IsDir {
		return nil, models.FileInfo{}, fmt.Errorf("vault: read %s: %w", p, apperr.ErrNotFound)
	}
	data, err := s.store.Read(p)
	if err != nil {
		return nil, models.FileInfo{}, err
	}
	return data, info, nil
}

// Note returns the structured note representation of p.
func (s *Service) Note(ctx context.Context, p string) (*models.NoteJSON, error) {
	data, info, err := s.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	meta, err := s.MetadataFor(ctx, p)
	if err != nil {
		return nil, err
	}
	return &models.NoteJSON{
		Path:        p,
		Content:     string(data),
		Frontmatter: meta.Frontmatter,
		Tags:        meta.Tags,
		Stat:        models.StatOf(info),
	}, nil
}

// MetadataFor returns indexed metadata, indexing the file first when the
// index has not caught up with it yet.
func (s *Service) MetadataFor(ctx context.Context, p string) (*parser.Metadata, error) {
	meta, err := s.db.MetadataFor(ctx, p)
	if err == nil || !errors.Is(err, apperr.ErrNotFound) {
		return meta, err
	}
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	if err := index.IndexFile(s.db, p, data, time.Now()); err != nil {
		return nil, err
	}
	return parser.Parse(data), nil
}

// Put overwrites or creates p with content.
func (s *Service) Put(_ context.Context, p string, content []byte) error {
	if err := RequireFile(p); err != nil {
		return err
	}
	existed := s.store.Exists(p)
	if err := s.store.Write(p, content); err != nil {
		return err
	}
	return s.indexed(p, content, kindFor(existed))
}

// Create writes a new file and fails if p exists.
func (s *Service) Create(_ context.Context, p string, content []byte) error {
	if err := RequireFile(p); err != nil {
		return err
	}
	if err := s.store.Create(p, content); err != nil {
		return err
	}
	return s.indexed(p, content, "created")
}

// Append adds content to the end of p, creating it when missing. A newline
// is inserted first when the existing content does not end with one.
func (s *Service) Append(_ context.Context, p string, content []byte) error {
	if err := RequireFile(p); err != nil {
		return err
	}
	existing, err := s.store.Read(p)
	existed := err == nil
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		existing = append(existing, '\n')
	}
	next := append(existing, content...)
	if err := s.store.Write(p, next); err != nil {
		return err
	}
	return s.indexed(p, next, kindFor(existed))
}

// Delete removes the file at p.
func (s *Service) Delete(_ context.Context, p string) error {
	if err := RequireFile(p); err != nil {
		return err
	}
	if err := s.store.Delete(p); err != nil {
		if errors.Is(err, apperr.ErrIsDirectory) {
			return apperr.New(apperr.RequestMethodValidOnlyForFiles, "")
		}
		return err
	}
	if err := s.db.Delete(p); err != nil {
		return err
	}
	s.publish("deleted", p)
	return nil
}

func (s *Service) indexed(p string, content []byte, kind string) error {
	if err := index.IndexFile(s.db, p, content, time.Now()); err != nil {
		return err
	}
	s.publish(kind, p)
	return nil
}

func (s *Service) publish(kind, p string) {
	if s.events != nil {
		s.events.PublishVaultEvent(kind, p)
	}
}

func kindFor(existed bool) string {
	if existed {
		return "updated"
	}
	return "created"
}
