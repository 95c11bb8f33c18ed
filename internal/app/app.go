package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/artpar/colldex/internal/collections"
	"github.com/artpar/colldex/internal/config"
	"github.com/artpar/colldex/internal/requeststore"
)

// App is the application container. It owns the single collection
// manager and named request store the rest of the program shares.
type App struct {
	config    config.Config
	logger    *slog.Logger
	logOutput io.Writer
	manager   *collections.Manager
	requests  *requeststore.Store
}

// Option is a function that configures the App.
type Option func(*App)

// WithConfig sets the application configuration.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithLogger overrides the logger built from the log configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithLogOutput sets where the configured logger writes. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *App) {
		a.logOutput = w
	}
}

// New creates an App with the given options.
func New(opts ...Option) (*App, error) {
	a := &App{
		config:    config.Default(),
		logOutput: os.Stderr,
		requests:  requeststore.New(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if err := a.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if a.logger == nil {
		logger, err := NewLogger(a.config.Log, a.logOutput)
		if err != nil {
			return nil, err
		}
		a.logger = logger
	}

	mode, err := collections.ParseWatchMode(a.config.Watch.Mode)
	if err != nil {
		return nil, err
	}

	manager, err := collections.NewManager(a.config.BasePath,
		collections.WithLogger(a.logger),
		collections.WithRequestIndexPruning(a.config.Index.PruneRequests),
		collections.WithWatchMode(mode),
		collections.WithPollInterval(a.config.Watch.PollInterval),
		collections.WithEventBuffer(a.config.Watch.Buffer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open collections: %w", err)
	}
	a.manager = manager

	return a, nil
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Collections returns the collection manager.
func (a *App) Collections() *collections.Manager {
	return a.manager
}

// Requests returns the named request store.
func (a *App) Requests() *requeststore.Store {
	return a.requests
}

// Close stops background work.
func (a *App) Close() {
	a.manager.StopWatching()
}

// NewLogger builds a slog logger writing text or JSON records to w.
func NewLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
