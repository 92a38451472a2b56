// Package periodic resolves daily, weekly, monthly, quarterly and yearly
// notes to vault paths, creating them on demand.
package periodic

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/models"
	"github.com/starford/vaultgate/internal/storage"
)

// Periods lists every period name the API accepts.
var Periods = []string{"daily", "weekly", "monthly", "quarterly", "yearly"}

// DefaultFormats holds the note-name format used when a period sets none.
var DefaultFormats = map[string]string{
	"daily":     "YYYY-MM-DD",
	"weekly":    "gggg-[W]ww",
	"monthly":   "YYYY-MM",
	"quarterly": "YYYY-[Q]Q",
	"yearly":    "YYYY",
}

// Settings configures one period.
type Settings struct {
	Enabled  bool   `yaml:"enabled"`
	Folder   string `yaml:"folder"`
	Format   string `yaml:"format"`
	Template string `yaml:"template"`
}

// Provider exposes the notes of one period.
type Provider interface {
	Settings() Settings
	Loaded() bool
	// All maps note keys (formatted dates) to vault paths.
	All(ctx context.Context) (map[string]string, error)
	// Get picks the note for now out of all.
	Get(now time.Time, all map[string]string) (string, bool)
	// Create writes the note for now and returns its path.
	Create(ctx context.Context, now time.Time) (string, error)
}

// Vault is the subset of the vault service a FileProvider writes through.
type Vault interface {
	Files(ctx context.Context) ([]models.FileInfo, error)
	Read(ctx context.Context, p string) ([]byte, models.FileInfo, error)
	Create(ctx context.Context, p string, content []byte) error
}

// FileProvider keeps period notes as <folder>/<format(now)>.md.
type FileProvider struct {
	settings Settings
	vault    Vault
}

// NewFileProvider creates a provider for period using settings.
func NewFileProvider(period string, settings Settings, vault Vault) *FileProvider {
	if settings.Format == "" {
		settings.Format = DefaultFormats[period]
	}
	settings.Folder = strings.Trim(settings.Folder, "/")
	return &FileProvider{settings: settings, vault: vault}
}

func (p *FileProvider) Settings() Settings { return p.settings }

func (p *FileProvider) Loaded() bool { return p.settings.Enabled }

func (p *FileProvider) All(ctx context.Context) (map[string]string, error) {
	files, err := p.vault.Files(ctx)
	if err != nil {
		return nil, err
	}
	prefix := ""
	if p.settings.Folder != "" {
		prefix = p.settings.Folder + "/"
	}
	out := make(map[string]string)
	for _, f := range files {
		if !f.IsMarkdown() || !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(f.Path, prefix), path.Ext(f.Path))
		out[key] = f.Path
	}
	return out, nil
}

func (p *FileProvider) Get(now time.Time, all map[string]string) (string, bool) {
	path, ok := all[Format(p.settings.Format, now)]
	return path, ok
}

func (p *FileProvider) Create(ctx context.Context, now time.Time) (string, error) {
	name := Format(p.settings.Format, now)
	target := storage.Join(p.settings.Folder, name+".md")

	content, err := p.render(ctx, name, now)
	if err != nil {
		return "", err
	}
	if err := p.vault.Create(ctx, target, content); err != nil && !errors.Is(err, apperr.ErrAlreadyExists) {
		return "", fmt.Errorf("periodic: create %s: %w", target, err)
	}
	return target, nil
}

func (p *FileProvider) render(ctx context.Context, title string, now time.Time) ([]byte, error) {
	if p.settings.Template == "" {
		return nil, nil
	}
	tmpl := p.settings.Template
	if path.Ext(tmpl) == "" {
		tmpl += ".md"
	}
	data, _, err := p.vault.Read(ctx, tmpl)
	if err != nil {
		return nil, fmt.Errorf("periodic: read template %s: %w", tmpl, err)
	}
	return []byte(strings.NewReplacer(
		"{{title}}", title,
		"{{date}}", now.Format("2006-01-02"),
		"{{time}}", now.Format("15:04"),
	).Replace(string(data))), nil
}
