package migrate

import (
	"context"
	"log/slog"
)

// Logger receives the progress notifications of a Runner.
type Logger interface {
	Info(msg string)
	Note(msg string)
	Warning(msg string)
	Success(msg string)
	Critical(msg string)
}

// SlogLogger forwards notifications to a slog.Logger. Notes are logged at
// debug level and successes at info level with success=true.
type SlogLogger struct {
	Logger *slog.Logger
}

func (l SlogLogger) Info(msg string)     { l.log(slog.LevelInfo, msg) }
func (l SlogLogger) Note(msg string)     { l.log(slog.LevelDebug, msg) }
func (l SlogLogger) Warning(msg string)  { l.log(slog.LevelWarn, msg) }
func (l SlogLogger) Success(msg string)  { l.log(slog.LevelInfo, msg, "success", true) }
func (l SlogLogger) Critical(msg string) { l.log(slog.LevelError, msg) }

func (l SlogLogger) log(level slog.Level, msg string, args ...any) {
	if l.Logger == nil {
		return
	}
	l.Logger.Log(context.Background(), level, msg, args...)
}

type nopLogger struct{}

func (nopLogger) Info(string)     {}
func (nopLogger) Note(string)     {}
func (nopLogger) Warning(string)  {}
func (nopLogger) Success(string)  {}
func (nopLogger) Critical(string) {}

var (
	_ Logger = SlogLogger{}
	_ Logger = nopLogger{}
)
