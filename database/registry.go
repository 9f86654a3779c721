package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Registry holds named connection configurations. It is built once at
// startup and passed to whatever needs to open connections.
type Registry struct {
	mu          sync.RWMutex
	configs     map[string]Config
	defaultName string
	logger      *slog.Logger
}

// NewRegistry creates an empty registry. logger may be nil.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		configs: make(map[string]Config),
		logger:  logger,
	}
}

// Add registers cfg under name. The first connection added becomes the
// default one.
func (r *Registry) Add(name string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("connection %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[name] = cfg
	if r.defaultName == "" {
		r.defaultName = name
	}
	return nil
}

// SetDefault changes the default connection.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.configs[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}
	r.defaultName = name
	return nil
}

// Default returns the name of the default connection.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultName
}

// Names returns the registered connection names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the configuration registered under name. An empty name
// selects the default connection.
func (r *Registry) Config(name string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaultName
	}
	cfg, ok := r.configs[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownConnection, name)
	}
	return cfg, nil
}

// Open connects to the named connection.
func (r *Registry) Open(ctx context.Context, name string) (*Conn, error) {
	cfg, err := r.Config(name)
	if err != nil {
		return nil, err
	}

	var opts []Option
	if r.logger != nil {
		opts = append(opts, WithLogger(r.logger.With("connection", name)))
	}
	return Open(ctx, cfg, opts...)
}
