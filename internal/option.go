package internal

import (
	"fmt"
	"io"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	// logOut receives the JSON log stream.
	logOut io.Writer
	// totalsThrottle bounds how often totals.updated is sent per project.
	totalsThrottle time.Duration
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogOutput redirects logs, e.g. to stderr when stdout carries MCP.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}

// WithTotalsThrottle sets the minimum gap between totals.updated events
// for one project.
func WithTotalsThrottle(d time.Duration) Option {
	return func(a *application) {
		a.totalsThrottle = d
	}
}

func newApplication(defaultLog io.Writer, opts ...Option) (*application, error) {
	app := &application{
		logOut:         defaultLog,
		totalsThrottle: 2 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}
