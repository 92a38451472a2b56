// Package uidsync keeps a scratch document in sync with the UID-addressed
// two-section QA document it is being edited for.
package uidsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/models"
	"github.com/starford/vaultgate/internal/parser"
	"github.com/starford/vaultgate/internal/storage"
)

// ErrSessionNotRunning is returned by SyncSession when the external editor
// is not running.
var ErrSessionNotRunning = errors.New("uidsync: editing session is not running")

// Vault is the document access the engine needs.
type Vault interface {
	Files(ctx context.Context) ([]models.FileInfo, error)
	Read(ctx context.Context, p string) ([]byte, models.FileInfo, error)
	Put(ctx context.Context, p string, content []byte) error
	Create(ctx context.Context, p string, content []byte) error
	MetadataFor(ctx context.Context, p string) (*parser.Metadata, error)
}

// Observer is told the outcome of every sync: merged, created, timeout,
// skipped or error.
type Observer interface {
	ObserveSync(outcome string)
}

// Config holds the engine defaults.
type Config struct {
	UIDField        string
	Delimiter       string
	PersistFolder   string
	ScratchPath     string
	SessionFile     string
	TitleTimeout    time.Duration
	IndicatorLinger time.Duration
}

// Request is one sync. Empty UIDField, Delimiter and PersistFolder fall back
// to the engine defaults.
type Request struct {
	UID           string
	FieldDomain   int
	UIDField      string
	Delimiter     string
	PersistFolder string
}

// Result is the response of a successful sync.
type Result struct {
	Status  string `json:"status"`
	Path    string `json:"path,omitempty"`
	Created bool   `json:"created"`
}

// Engine owns the sync cache and the indicator. Syncs are serialized.
type Engine struct {
	vault     Vault
	prompter  Prompter
	indicator *Indicator
	observer  Observer
	logger    *slog.Logger
	cfg       Config

	mu     sync.Mutex
	cached string
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports sync outcomes to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithIndicator replaces the default indicator.
func WithIndicator(in *Indicator) Option {
	return func(e *Engine) { e.indicator = in }
}

// NewEngine creates an engine.
func NewEngine(vault Vault, prompter Prompter, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if cfg.UIDField == "" {
		cfg.UIDField = "id"
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = "---"
	}
	if cfg.TitleTimeout <= 0 {
		cfg.TitleTimeout = 15 * time.Second
	}
	e := &Engine{
		vault:    vault,
		prompter: prompter,
		logger:   logger,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.indicator == nil {
		e.indicator = NewIndicator(nil, nil)
	}
	return e
}

// Indicator returns the engine's sync indicator.
func (e *Engine) Indicator() *Indicator { return e.indicator }

// CachedPath returns the last resolved QA document path, or "".
func (e *Engine) CachedPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cached
}

// Request builds a request for uid and fieldDomain. Settings come from the
// engine config, overridden by the session file when one is configured.
func (e *Engine) Request(uid string, fieldDomain int) Request {
	req := Request{
		UID:           uid,
		FieldDomain:   fieldDomain,
		UIDField:      e.cfg.UIDField,
		Delimiter:     e.cfg.Delimiter,
		PersistFolder: e.cfg.PersistFolder,
	}
	if e.cfg.SessionFile == "" {
		return req
	}
	s, err := LoadSession(e.cfg.SessionFile)
	if err != nil {
		e.logger.Warn("uidsync: session file ignored", slog.String("error", err.Error()))
		return req
	}
	applySession(&req, s)
	return req
}

func applySession(req *Request, s Session) {
	if s.UIDFieldName != "" {
		req.UIDField = s.UIDFieldName
	}
	if s.Delimiter != "" {
		req.Delimiter = s.Delimiter
	}
	if s.PersistFolder != "" {
		req.PersistFolder = s.PersistFolder
	}
}

// SyncSession runs a sync for the element the session file says is being
// edited. Non-item elements have no QA document and are skipped.
func (e *Engine) SyncSession(ctx context.Context) (Result, error) {
	if e.cfg.SessionFile == "" {
		return Result{}, errors.New("uidsync: no session file configured")
	}
	s, err := LoadSession(e.cfg.SessionFile)
	if err != nil {
		return Result{}, err
	}
	if !s.Running {
		return Result{}, ErrSessionNotRunning
	}
	if s.ElementType != ElementTypeItem {
		e.logger.Warn("uidsync: element is not an item, nothing to persist", slog.String("type", s.ElementType))
		e.observe("skipped")
		return Result{Status: "skipped"}, nil
	}
	if s.EditedElementID == "" {
		return Result{}, apperr.New(apperr.NoFindUidField, "session has no editedEleId")
	}
	domain := s.FieldDomain
	if domain < 0 {
		domain = 0
	}
	req := Request{
		UID:           s.EditedElementID,
		FieldDomain:   domain,
		UIDField:      e.cfg.UIDField,
		Delimiter:     e.cfg.Delimiter,
		PersistFolder: e.cfg.PersistFolder,
	}
	applySession(&req, s)
	return e.Sync(ctx, req)
}

// Sync merges the scratch document into the QA document for req.UID, or
// creates that document after asking the operator for a title.
func (e *Engine) Sync(ctx context.Context, req Request) (Result, error) {
	if req.FieldDomain != 0 && req.FieldDomain != 1 {
		return Result{}, apperr.WithStatus(400, fmt.Sprintf("field_domain must be 0 or 1, got %d", req.FieldDomain))
	}
	if req.UID == "" {
		return Result{}, apperr.New(apperr.NoFindUidField, "empty uid")
	}
	if req.UIDField == "" {
		req.UIDField = e.cfg.UIDField
	}
	if req.Delimiter == "" {
		req.Delimiter = e.cfg.Delimiter
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	gen := e.indicator.Begin()
	res, err := e.sync(ctx, req)
	switch {
	case err != nil:
		e.indicator.Clear(gen)
		if apperr.IsCode(err, apperr.OperationTimedOut) {
			e.observe("timeout")
		} else {
			e.observe("error")
		}
		e.logger.Warn("uidsync: sync failed", slog.String("uid", req.UID), slog.String("error", err.Error()))
		return Result{}, err
	case res.Created:
		e.indicator.Clear(gen)
		e.observe("created")
	default:
		e.indicator.ClearAfter(gen, e.cfg.IndicatorLinger)
		e.observe("merged")
	}
	e.logger.Info("uidsync: synced", slog.String("uid", req.UID), slog.String("path", res.Path), slog.Bool("created", res.Created))
	return res, nil
}

func (e *Engine) sync(ctx context.Context, req Request) (Result, error) {
	uid := Pad(req.UID, UIDWidth)
	path, err := e.resolve(ctx, uid, req.UIDField)
	if err != nil {
		return Result{}, err
	}
	if path != "" {
		if err := e.merge(ctx, path, req); err != nil {
			return Result{}, err
		}
		e.cached = path
		return Result{Status: "success", Path: path}, nil
	}

	title, err := awaitTitle(e.prompter, e.cfg.TitleTimeout)
	if err != nil {
		return Result{}, err
	}
	path, err = e.create(ctx, title, req)
	if err != nil {
		return Result{}, err
	}
	e.cached = path
	return Result{Status: "success", Path: path, Created: true}, nil
}

// resolve finds the QA document carrying uid, trying the cached path before
// scanning the vault. It returns "" when no document matches.
func (e *Engine) resolve(ctx context.Context, uid, field string) (string, error) {
	if e.cached != "" {
		data, _, err := e.vault.Read(ctx, e.cached)
		if err != nil {
			e.cached = ""
			return "", apperr.Wrap(apperr.UncategorizedError, err)
		}
		if parser.Parse(data).Raw[field] == uid {
			return e.cached, nil
		}
	}
	path, err := e.scan(ctx, uid, field)
	if err != nil {
		e.cached = ""
		return "", apperr.Wrap(apperr.UncategorizedError, err)
	}
	return path, nil
}

// scan walks every Markdown file in path order and returns the first whose
// frontmatter field equals uid.
func (e *Engine) scan(ctx context.Context, uid, field string) (string, error) {
	files, err := e.vault.Files(ctx)
	if err != nil {
		return "", err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	for _, f := range files {
		if !f.IsMarkdown() {
			continue
		}
		meta, err := e.vault.MetadataFor(ctx, f.Path)
		if err != nil {
			return "", err
		}
		if meta.Raw[field] == uid {
			return f.Path, nil
		}
	}
	return "", nil
}

func (e *Engine) merge(ctx context.Context, path string, req Request) error {
	doc, _, err := e.vault.Read(ctx, path)
	if err != nil {
		return apperr.Wrap(apperr.UncategorizedError, err)
	}
	scratch, err := e.scratch(ctx)
	if err != nil {
		return err
	}
	merged := Merge(string(doc), scratch, req.FieldDomain, req.Delimiter)
	if err := e.vault.Put(ctx, path, []byte(merged)); err != nil {
		return apperr.Wrap(apperr.UncategorizedError, err)
	}
	return nil
}

func (e *Engine) create(ctx context.Context, title string, req Request) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperr.New(apperr.UncategorizedError, "empty title")
	}
	scratch, err := e.scratch(ctx)
	if err != nil {
		return "", err
	}
	path := storage.Join(req.PersistFolder, title+".md")
	doc := NewDocument(req.UIDField, req.UID, scratch, req.FieldDomain, req.Delimiter)
	if err := e.vault.Create(ctx, path, []byte(doc)); err != nil {
		return "", apperr.Wrap(apperr.UncategorizedError, err)
	}
	return path, nil
}

func (e *Engine) scratch(ctx context.Context) (string, error) {
	data, _, err := e.vault.Read(ctx, e.cfg.ScratchPath)
	if err != nil {
		return "", apperr.Wrap(apperr.UncategorizedError, fmt.Errorf("read scratch %s: %w", e.cfg.ScratchPath, err))
	}
	return string(data), nil
}

func (e *Engine) observe(outcome string) {
	if e.observer != nil {
		e.observer.ObserveSync(outcome)
	}
}
