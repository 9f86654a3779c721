// Package ui renders sqlkit CLI output.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/migrate"
)

var (
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	SQLStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 1)
)

// Printer writes styled output.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a Printer on stdout and stderr.
func New() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

func (p *Printer) Header(title, subtitle string) {
	fmt.Fprintln(p.Out, TitleStyle.Render(title))
	if subtitle != "" {
		fmt.Fprintln(p.Out, SecondaryStyle.Render(subtitle))
	}
	fmt.Fprintln(p.Out)
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.Err, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.Out, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Info(format string, args ...any) {
	color.New(color.FgCyan).Fprintf(p.Out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func (p *Printer) Note(format string, args ...any) {
	color.New(color.Faint).Fprintf(p.Out, "  %s\n", fmt.Sprintf(format, args...))
}

// SQL prints a statement and its arguments in a box.
func (p *Printer) SQL(sql string, args []any) {
	body := sql
	if len(args) > 0 {
		body += "\n" + SecondaryStyle.Render(fmt.Sprintf("args: %v", args))
	}
	fmt.Fprintln(p.Out, SQLStyle.Render(body))
}

// Table prints rows under headers.
func (p *Printer) Table(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(p.Out, out)
	return nil
}

// Rows prints query results with columns in sorted order.
func (p *Printer) Rows(rows []database.Row) error {
	if len(rows) == 0 {
		p.Info("no rows")
		return nil
	}
	headers, cells := RowCells(rows)
	return p.Table(headers, cells)
}

// Markdown renders markdown for the terminal.
func (p *Printer) Markdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}
	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Fprint(p.Out, out)
	return nil
}

// Stats prints the ledger grouped by version.
func (p *Printer) Stats(stats []migrate.Stat) error {
	if len(stats) == 0 {
		p.Warning("no migration applied")
		return nil
	}
	var rows [][]string
	for _, s := range stats {
		for _, e := range s.Entries {
			rows = append(rows, []string{s.Version, e.Migration, formatTime(e)})
		}
	}
	return p.Table([]string{"Version", "Migration", "Applied at"}, rows)
}

// RowCells flattens rows into a header line and string cells. NULL values
// render as "NULL".
func RowCells(rows []database.Row) ([]string, [][]string) {
	seen := make(map[string]bool)
	var headers []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		line := make([]string, len(headers))
		for i, h := range headers {
			v, ok := row[h]
			switch {
			case !ok:
				line[i] = ""
			case v == nil:
				line[i] = "NULL"
			default:
				line[i] = fmt.Sprint(v)
			}
		}
		cells = append(cells, line)
	}
	return headers, cells
}

// StatsMarkdown renders the ledger as a markdown report.
func StatsMarkdown(stats []migrate.Stat) string {
	var b strings.Builder
	b.WriteString("# Migrations\n\n")
	if len(stats) == 0 {
		b.WriteString("_No migration applied._\n")
		return b.String()
	}
	for _, s := range stats {
		fmt.Fprintf(&b, "## %s\n\n", s.Version)
		b.WriteString("| Migration | Applied at |\n|---|---|\n")
		for _, e := range s.Entries {
			fmt.Fprintf(&b, "| %s | %s |\n", e.Migration, formatTime(e))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatTime(e migrate.Entry) string {
	if e.AppliedAt.IsZero() {
		return "-"
	}
	return e.AppliedAt.Format(database.TimeLayout)
}
