// Package watch re-runs a callback when a migrations directory changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups bursts of file events into one callback.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one directory for migration file changes.
type Watcher struct {
	dir      string
	debounce time.Duration
	callback func(ctx context.Context) error
	onError  func(error)
	watcher  *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long events are collected before the callback runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithErrorHandler receives callback and watcher errors. They are
// dropped by default.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// New watches dir. The callback runs after changes to .sql or .yaml files.
func New(dir string, callback func(ctx context.Context) error, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(abs); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	w := &Watcher{
		dir:      abs,
		debounce: DefaultDebounce,
		callback: callback,
		onError:  func(error) {},
		watcher:  watcher,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run blocks until ctx is done, invoking the callback once per burst of
// relevant events. The watcher is closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if relevant(event) {
				timer.Reset(w.debounce)
				fire = timer.C
			}

		case <-fire:
			fire = nil
			if err := w.callback(ctx); err != nil {
				w.onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.onError(err)

		case <-ctx.Done():
			return nil
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(event.Name) {
	case ".sql", ".yaml", ".yml":
		return true
	}
	return false
}
