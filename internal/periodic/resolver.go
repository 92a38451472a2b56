package periodic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/index"
)

// Resolver maps a period name to the current note's path.
type Resolver struct {
	providers    map[string]Provider
	index        index.MetadataIndex
	now          func() time.Time
	pollInterval time.Duration
	pollTimeout  time.Duration
	logger       *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

// WithPoll sets how often and how long to wait for a created note's metadata.
func WithPoll(interval, timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.pollInterval = interval
		r.pollTimeout = timeout
	}
}

// NewResolver creates a resolver over providers keyed by period name.
func NewResolver(providers map[string]Provider, idx index.MetadataIndex, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		providers:    providers,
		index:        idx,
		now:          time.Now,
		pollInterval: 100 * time.Millisecond,
		pollTimeout:  5 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the path of the current note for period. With create the
// note is created when absent and Resolve waits until its metadata is indexed.
func (r *Resolver) Resolve(ctx context.Context, period string, create bool) (string, error) {
	if !slices.Contains(Periods, period) {
		return "", apperr.New(apperr.PeriodDoesNotExist, "")
	}
	p, ok := r.providers[period]
	if !ok || !p.Loaded() {
		return "", apperr.New(apperr.PeriodIsNotEnabled, "")
	}

	now := r.now()
	all, err := p.All(ctx)
	if err != nil {
		return "", err
	}
	if path, ok := p.Get(now, all); ok {
		return path, nil
	}
	if !create {
		return "", apperr.New(apperr.PeriodicNoteDoesNotExist, "")
	}

	path, err := p.Create(ctx, now)
	if err != nil {
		return "", err
	}
	r.logger.Info("periodic: created note", slog.String("period", period), slog.String("path", path))
	if err := r.awaitMetadata(ctx, path); err != nil {
		return "", err
	}
	return path, nil
}

// awaitMetadata polls the index until path shows up.
func (r *Resolver) awaitMetadata(ctx context.Context, path string) error {
	deadline := time.NewTimer(r.pollTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(r.pollInterval)
	defer tick.Stop()

	for {
		_, err := r.index.MetadataFor(ctx, path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return apperr.New(apperr.UncategorizedError, fmt.Sprintf("metadata for %s did not become available", path))
		case <-tick.C:
		}
	}
}
