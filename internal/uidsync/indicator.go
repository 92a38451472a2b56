package uidsync

import (
	"sync"
	"time"
)

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Indicator is the "sync in progress" flag. Each Begin starts a new
// generation; clears for older generations are ignored so a delayed clear
// from a finished sync never hides a newer one.
type Indicator struct {
	mu        sync.Mutex
	gen       uint64
	busy      bool
	afterFunc AfterFunc
	notify    func(busy bool)
}

// NewIndicator creates an idle indicator. notify, if set, is called on every
// transition; afterFunc defaults to time.AfterFunc.
func NewIndicator(notify func(busy bool), afterFunc AfterFunc) *Indicator {
	if afterFunc == nil {
		afterFunc = timeAfterFunc
	}
	return &Indicator{afterFunc: afterFunc, notify: notify}
}

// Begin marks a sync as running and returns its generation.
func (in *Indicator) Begin() uint64 {
	in.mu.Lock()
	in.gen++
	gen := in.gen
	changed := !in.busy
	in.busy = true
	in.mu.Unlock()
	if changed {
		in.emit(true)
	}
	return gen
}

// Clear hides the indicator if gen is still the latest generation.
func (in *Indicator) Clear(gen uint64) {
	in.mu.Lock()
	changed := gen == in.gen && in.busy
	if changed {
		in.busy = false
	}
	in.mu.Unlock()
	if changed {
		in.emit(false)
	}
}

// ClearAfter clears generation gen after d.
func (in *Indicator) ClearAfter(gen uint64, d time.Duration) {
	if d <= 0 {
		in.Clear(gen)
		return
	}
	in.afterFunc(d, func() { in.Clear(gen) })
}

// Busy reports whether a sync is shown as running.
func (in *Indicator) Busy() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.busy
}

func (in *Indicator) emit(busy bool) {
	if in.notify != nil {
		in.notify(busy)
	}
}
