package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	stdout  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by GET / and the MCP handshake.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithOutput redirects the terminal prompt and sync report.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, errConfigRequired
	}
	return app, nil
}

func (a *application) output() io.Writer {
	if a.stdout == nil {
		return os.Stdout
	}
	return a.stdout
}
