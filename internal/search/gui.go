package search

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ViewResult is one file listed by a search view.
type ViewResult struct {
	Path    string
	Content string
	Spans   []Span
}

// View is a search panel that works asynchronously.
type View interface {
	Open(query string)
	Working() bool
	Results() []ViewResult
}

// BackgroundView runs a TokenScorer search in a goroutine per Open.
type BackgroundView struct {
	src    Source
	logger *slog.Logger

	mu      sync.Mutex
	gen     int
	working bool
	results []ViewResult
}

// NewBackgroundView creates a view over src.
func NewBackgroundView(src Source, logger *slog.Logger) *BackgroundView {
	return &BackgroundView{src: src, logger: logger}
}

// Open starts a new search and discards any still running.
func (v *BackgroundView) Open(query string) {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.working = true
	v.results = nil
	v.mu.Unlock()

	go func() {
		results, err := v.run(query)
		if err != nil {
			v.logger.Warn("search view: failed", slog.String("query", query), slog.String("error", err.Error()))
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if gen != v.gen {
			return
		}
		v.results = results
		v.working = false
	}()
}

func (v *BackgroundView) run(query string) ([]ViewResult, error) {
	ctx := context.Background()
	scorer := NewTokenScorer(query)
	files, err := v.src.Files(ctx)
	if err != nil {
		return nil, err
	}
	var out []ViewResult
	for _, f := range files {
		if !f.IsMarkdown() {
			continue
		}
		data, _, err := v.src.Read(ctx, f.Path)
		if err != nil {
			return out, err
		}
		if _, spans, ok := scorer.Score(string(data)); ok {
			out = append(out, ViewResult{Path: f.Path, Content: string(data), Spans: spans})
		}
	}
	return out, nil
}

func (v *BackgroundView) Working() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.working
}

func (v *BackgroundView) Results() []ViewResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.results
}

// GUIResult is one file of a GUI search response.
type GUIResult struct {
	Path    string    `json:"path"`
	Matches []Context `json:"matches"`
}

// GUI opens query in view, waits for it to finish and converts its results.
// The first check happens after initialDelay, later ones every poll.
func GUI(ctx context.Context, view View, query string, contextLength int, initialDelay, poll time.Duration) ([]GUIResult, error) {
	if contextLength < 0 {
		contextLength = DefaultContextLength
	}
	view.Open(query)

	wait := time.NewTimer(initialDelay)
	defer wait.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-wait.C:
	}
	if view.Working() {
		tick := time.NewTicker(poll)
		defer tick.Stop()
		for view.Working() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-tick.C:
			}
		}
	}

	out := []GUIResult{}
	for _, r := range view.Results() {
		out = append(out, GUIResult{Path: r.Path, Matches: Contexts(r.Content, r.Spans, contextLength)})
	}
	return out, nil
}

// Panel runs GUI searches over one shared View. The view shows a single query
// at a time, so concurrent searches take turns instead of reading each
// other's results.
type Panel struct {
	view         View
	initialDelay time.Duration
	poll         time.Duration

	mu sync.Mutex
}

// NewPanel creates a panel over view with the given GUI timings.
func NewPanel(view View, initialDelay, poll time.Duration) *Panel {
	return &Panel{view: view, initialDelay: initialDelay, poll: poll}
}

// Search runs query once the panel is free.
func (p *Panel) Search(ctx context.Context, query string, contextLength int) ([]GUIResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return GUI(ctx, p.view, query, contextLength, p.initialDelay, p.poll)
}
