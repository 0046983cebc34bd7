package resapp

import (
	"log/slog"

	"github.com/junioryono/resapp/internal/reflection"
)

// Option configures a Builder.
type Option func(*config)

type config struct {
	logger    *slog.Logger
	provider  MetadataProvider
	parallel  int
	observers []HookObserver
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:   slog.Default(),
		provider: reflection.New(),
		parallel: 1,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// WithLogger sets the logger used while building and shutting down Apps.
// A nil logger keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMetadataProvider replaces the struct tag based metadata provider.
func WithMetadataProvider(provider MetadataProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.provider = provider
		}
	}
}

// WithParallelWiring wires up to n resources concurrently. Values below 1 wire
// sequentially.
func WithParallelWiring(n int) Option {
	return func(cfg *config) {
		cfg.parallel = max(n, 1)
	}
}

// WithHookObserver adds an observer called after every lifecycle hook.
func WithHookObserver(hook HookObserver) Option {
	return func(cfg *config) {
		if hook != nil {
			cfg.observers = append(cfg.observers, hook)
		}
	}
}
