// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultgate/internal/api"
	"github.com/starford/vaultgate/internal/index"
	"github.com/starford/vaultgate/internal/mcpserver"
	"github.com/starford/vaultgate/internal/search"
)

const shutdownTimeout = 10 * time.Second

// Run starts the HTTP servers with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(cfg, os.Stdout)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Bool("tls", cfg.TLS.Enabled()),
		slog.Bool("insecure", cfg.App.HTTP.EnableInsecure),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if !cfg.TLS.Enabled() && !cfg.App.HTTP.EnableInsecure {
		return errors.New("no listener enabled: configure tls.cert_file/key_file or app.http.enable_insecure")
	}

	svc, err := newServices(cfg, logger, cfg.Sync.Prompt, app.output())
	if err != nil {
		return err
	}
	defer svc.Close()

	d := api.Deps{
		Vault:    svc.vault,
		Periodic: svc.resolver,
		View:     search.NewBackgroundView(svc.vault, logger),
		Engine:   svc.engine,
		Commands: svc.commands,
		Opener:   api.EventOpener{Events: svc.broker},
		Events:   svc.broker,
		Metrics:  svc.metrics,
		Auth:     api.Auth{Enabled: cfg.Auth.AuthEnabled(), Token: cfg.Auth.Token},
		CertName: cfg.TLS.CertName,
		CertFile: cfg.TLS.CertFile,
		Version:  app.version,
		GUIPoll:  cfg.Search.GUIPollInterval,
	}
	if svc.remote != nil {
		d.Prompt = svc.remote
	}
	router := api.NewRouter(d)

	var servers []*http.Server
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	if cfg.TLS.Enabled() {
		secure := &http.Server{Addr: cfg.App.HTTP.Address(), Handler: router}
		if err := http2.ConfigureServer(secure, &http2.Server{}); err != nil {
			return fmt.Errorf("configure http2: %w", err)
		}
		servers = append(servers, secure)
		g.Go(func() error {
			logger.Info("Starting HTTPS server", slog.String("address", secure.Addr))
			if err := secure.ListenAndServeTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTPS server error: %w", err)
			}
			return nil
		})
	} else {
		logger.Warn("TLS not configured, secure server disabled")
	}

	if cfg.App.HTTP.EnableInsecure {
		insecure := &http.Server{
			Addr:    cfg.App.HTTP.InsecureAddress(),
			Handler: h2c.NewHandler(router, &http2.Server{}),
		}
		servers = append(servers, insecure)
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", insecure.Addr))
			if err := insecure.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	// File watcher keeps the index current and fans changes out to subscribers.
	g.Go(func() error {
		if err := index.Watch(gCtx, svc.db, svc.store, cfg.Vault.Path, logger, svc.broker.PublishVaultEvent); err != nil {
			logger.Warn("file watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown error", slog.String("address", srv.Addr), slog.String("error", err.Error()))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdin/stdout. Logs go to stderr so they
// never interleave with the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := newLogger(app.config, os.Stderr)

	svc, err := newServices(app.config, logger, PromptRemote, app.output())
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("Serving MCP over stdio")
	return mcpserver.New(svc.vault, svc.db, svc.commands, app.version).ServeStdio()
}

// RunSync runs one sync for the element named in the session file, asking
// for a title on the terminal when a new document is needed.
func RunSync(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	if app.config.Sync.SessionFile == "" {
		return errors.New("sync.session_file is not configured")
	}
	logger := newLogger(app.config, os.Stderr)

	svc, err := newServices(app.config, logger, PromptTerminal, app.output())
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.engine.SyncSession(ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	enc := json.NewEncoder(app.output())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
