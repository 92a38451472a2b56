package prompt

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/peterh/liner"
)

// Terminal reads the title from the controlling terminal. It is used by the
// one-shot "sync" command.
type Terminal struct {
	out    io.Writer
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewTerminal creates a terminal prompter writing notices to out.
func NewTerminal(out io.Writer, logger *slog.Logger) *Terminal {
	return &Terminal{out: out, logger: logger}
}

func (t *Terminal) Open(onSubmit func(string) bool) {
	t.mu.Lock()
	t.closed = false
	t.mu.Unlock()

	go func() {
		line := liner.NewLiner()
		defer line.Close()
		line.SetCtrlCAborts(true)

		title, err := line.Prompt("Title for the new document: ")
		if err != nil {
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				t.logger.Warn("prompt: terminal read failed", slog.String("error", err.Error()))
			}
			return
		}
		if !onSubmit(strings.TrimSpace(title)) {
			fmt.Fprintln(t.out, "title discarded: prompt already timed out")
		}
	}()
}

// Close tells the operator the prompt expired. A pending read is abandoned;
// whatever is typed afterwards is discarded by the caller.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	fmt.Fprintln(t.out, "\ntitle prompt timed out")
}
