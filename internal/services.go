package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/events"
	"github.com/starford/vaultgate/internal/index"
	"github.com/starford/vaultgate/internal/metrics"
	"github.com/starford/vaultgate/internal/periodic"
	"github.com/starford/vaultgate/internal/prompt"
	"github.com/starford/vaultgate/internal/storage"
	"github.com/starford/vaultgate/internal/uidsync"
	"github.com/starford/vaultgate/internal/vault"
)

var errConfigRequired = errors.New("config is required")

// services is the object graph shared by the server, MCP and sync entry points.
type services struct {
	store    *storage.FS
	db       *index.DB
	broker   *events.Broker
	metrics  *metrics.Registry
	vault    *vault.Service
	resolver *periodic.Resolver
	engine   *uidsync.Engine
	remote   *prompt.Remote
	commands *commands.Registry
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newServices opens storage and the index and wires every component.
// promptKind selects the title prompt of the sync engine.
func newServices(cfg *Config, logger *slog.Logger, promptKind string, out io.Writer) (*services, error) {
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	s := &services{
		store:   store,
		db:      db,
		broker:  events.NewBroker(),
		metrics: metrics.New(),
	}
	s.vault = vault.NewService(store, db, s.broker)

	providers := make(map[string]periodic.Provider, len(cfg.Periodic))
	for name, settings := range cfg.Periodic {
		providers[name] = periodic.NewFileProvider(name, settings, s.vault)
	}
	s.resolver = periodic.NewResolver(providers, db, logger,
		periodic.WithPoll(cfg.PeriodicPoll.Interval, cfg.PeriodicPoll.Timeout))

	var prompter uidsync.Prompter
	if promptKind == PromptTerminal {
		prompter = prompt.NewTerminal(out, logger)
	} else {
		s.remote = prompt.NewRemote(s.broker)
		prompter = s.remote
	}
	indicator := uidsync.NewIndicator(func(busy bool) {
		s.broker.Publish(events.Event{Type: "sync.status", Data: map[string]any{"busy": busy}})
	}, nil)
	s.engine = uidsync.NewEngine(s.vault, prompter, uidsync.Config{
		UIDField:        cfg.Sync.UIDFieldName,
		Delimiter:       cfg.Sync.SectionDelimiter,
		PersistFolder:   cfg.Sync.PersistFolder,
		ScratchPath:     cfg.Sync.ScratchPath,
		SessionFile:     cfg.Sync.SessionFile,
		TitleTimeout:    cfg.Sync.TitleTimeout,
		IndicatorLinger: cfg.Sync.IndicatorLinger,
	}, logger, uidsync.WithObserver(s.metrics), uidsync.WithIndicator(indicator))

	s.commands = commands.NewRegistry(logger)
	s.commands.Register("sync-markdown", "Sync Markdown from the editing session", func(ctx context.Context) error {
		_, err := s.engine.SyncSession(ctx)
		return err
	})
	for _, c := range cfg.Commands {
		if err := s.commands.RegisterExec(c); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// Close stops the broker and closes the index.
func (s *services) Close() {
	s.broker.Close()
	_ = s.db.Close()
}
