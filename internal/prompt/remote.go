// Package prompt provides the title prompts used when a sync has to create
// a new QA document.
package prompt

import (
	"errors"
	"sync"

	"github.com/starford/vaultgate/internal/events"
)

// ErrNoPending is returned by Submit when no prompt is waiting for input.
var ErrNoPending = errors.New("prompt: no prompt is waiting for input")

// Publisher broadcasts prompt lifecycle events.
type Publisher interface {
	Publish(events.Event)
}

// Remote is answered over HTTP. Open announces "prompt.opened" to event
// subscribers; a client answers with POST /prompt/.
type Remote struct {
	events Publisher

	mu      sync.Mutex
	seq     uint64
	pending func(string) bool
}

// NewRemote creates a remote prompter.
func NewRemote(events Publisher) *Remote {
	return &Remote{events: events}
}

func (r *Remote) Open(onSubmit func(string) bool) {
	r.mu.Lock()
	r.seq++
	id := r.seq
	r.pending = onSubmit
	r.mu.Unlock()
	r.events.Publish(events.Event{Type: "prompt.opened", Data: map[string]any{"id": id, "message": "Enter a title for the new document"}})
}

func (r *Remote) Close() {
	r.mu.Lock()
	open := r.pending != nil
	r.pending = nil
	id := r.seq
	r.mu.Unlock()
	if open {
		r.events.Publish(events.Event{Type: "prompt.closed", Data: map[string]any{"id": id, "reason": "timeout"}})
	}
}

// Pending reports whether a prompt is waiting for input.
func (r *Remote) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// Submit answers the pending prompt with title. A prompt whose wait already
// expired rejects the title with ErrNoPending.
func (r *Remote) Submit(title string) error {
	r.mu.Lock()
	fn := r.pending
	r.pending = nil
	id := r.seq
	r.mu.Unlock()
	if fn == nil {
		return ErrNoPending
	}
	if !fn(title) {
		r.events.Publish(events.Event{Type: "prompt.closed", Data: map[string]any{"id": id, "reason": "timeout"}})
		return ErrNoPending
	}
	r.events.Publish(events.Event{Type: "prompt.closed", Data: map[string]any{"id": id, "reason": "submitted"}})
	return nil
}
