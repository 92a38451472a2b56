package uidsync

import (
	"sync/atomic"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
)

// Prompter asks the operator for a document title.
type Prompter interface {
	// Open shows the prompt; onSubmit is called with the entered title and
	// reports whether the title was accepted.
	Open(onSubmit func(title string) bool)
	// Close dismisses the prompt.
	Close()
}

const (
	outcomeWaiting int32 = iota
	outcomeSubmitted
	outcomeTimedOut
)

// awaitTitle opens p and waits for a title or the timeout, whichever wins
// the single transition out of the waiting state. Only the timer ends the
// wait; a caller that goes away does not cancel a pending prompt.
func awaitTitle(p Prompter, timeout time.Duration) (string, error) {
	var state atomic.Int32
	titles := make(chan string, 1)
	p.Open(func(title string) bool {
		if !state.CompareAndSwap(outcomeWaiting, outcomeSubmitted) {
			return false
		}
		titles <- title
		return true
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case title := <-titles:
		return title, nil
	case <-timer.C:
	}

	if !state.CompareAndSwap(outcomeWaiting, outcomeTimedOut) {
		// The submit landed in the same tick as the timeout.
		return <-titles, nil
	}
	p.Close()
	return "", apperr.New(apperr.OperationTimedOut, "no title entered within "+timeout.String())
}
