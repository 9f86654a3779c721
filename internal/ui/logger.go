package ui

import "github.com/satishbabariya/sqlkit/migrate"

// Logger prints migration progress.
type Logger struct {
	Printer *Printer
}

func (l Logger) Info(msg string)     { l.Printer.Info("%s", msg) }
func (l Logger) Note(msg string)     { l.Printer.Note("%s", msg) }
func (l Logger) Warning(msg string)  { l.Printer.Warning("%s", msg) }
func (l Logger) Success(msg string)  { l.Printer.Success("%s", msg) }
func (l Logger) Critical(msg string) { l.Printer.Error("%s", msg) }

var _ migrate.Logger = Logger{}
