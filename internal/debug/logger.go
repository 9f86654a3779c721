// Package debug holds the process-wide slog logger of the sqlkit CLI.
package debug

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu      sync.RWMutex
	logger  = slog.New(slog.DiscardHandler)
	enabled bool
)

// Options configures Init.
type Options struct {
	// Enabled turns on debug level output. When false only errors are kept.
	Enabled bool
	// Format is "text" (default) or "json".
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Init replaces the process logger.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := slog.LevelError
	if opts.Enabled {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(handler)
	enabled = opts.Enabled
}

// Enabled reports whether debug output is on.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Logger returns the process logger. It discards everything until Init.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns the process logger with attrs attached.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }
func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
