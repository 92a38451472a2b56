// Package commands holds the commands exposed on /commands: external
// programs from config plus built-ins registered at startup.
package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"sync"

	"github.com/starford/vaultgate/internal/apperr"
)

// Command is a configured external command.
type Command struct {
	ID   string   `yaml:"id"`
	Name string   `yaml:"name"`
	Exec []string `yaml:"exec"`
}

// Info is the listing view of a command.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RunFunc executes a command.
type RunFunc func(ctx context.Context) error

type entry struct {
	info Info
	run  RunFunc
}

// Registry maps command ids to their implementations.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger, entries: make(map[string]entry)}
}

// Register adds or replaces a command.
func (r *Registry) Register(id, name string, run RunFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = entry{info: Info{ID: id, Name: name}, run: run}
}

// RegisterExec adds a command that runs an external program.
func (r *Registry) RegisterExec(c Command) error {
	if len(c.Exec) == 0 {
		return fmt.Errorf("commands: %s: empty exec", c.ID)
	}
	name := c.Name
	if name == "" {
		name = c.ID
	}
	argv := append([]string(nil), c.Exec...)
	r.Register(c.ID, name, func(ctx context.Context) error {
		return runExec(ctx, argv)
	})
	return nil
}

// List returns every command sorted by id.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Execute runs command id.
func (r *Registry) Execute(ctx context.Context, id string) error {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("commands: %s: %w", id, apperr.ErrNotFound)
	}
	r.logger.Info("commands: execute", slog.String("id", id))
	if err := e.run(ctx); err != nil {
		return fmt.Errorf("commands: %s: %w", id, err)
	}
	return nil
}

func runExec(ctx context.Context, argv []string) error {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if msg := strings.TrimSpace(out.String()); msg != "" && errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}
