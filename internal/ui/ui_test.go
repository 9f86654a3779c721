package ui_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/internal/ui"
	"github.com/satishbabariya/sqlkit/migrate"
)

func TestRowCells(t *testing.T) {
	headers, cells := ui.RowCells([]database.Row{
		{"name": "ada", "id": int64(1)},
		{"id": int64(2), "email": nil},
	})

	assert.Equal(t, []string{"email", "id", "name"}, headers)
	assert.Equal(t, [][]string{
		{"", "1", "ada"},
		{"NULL", "2", ""},
	}, cells)
}

func TestStatsMarkdown(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	md := ui.StatsMarkdown([]migrate.Stat{
		{Version: "v1", Entries: []migrate.Entry{{Migration: "users", AppliedAt: at}, {Migration: "posts"}}},
	})

	assert.Contains(t, md, "## v1")
	assert.Contains(t, md, "| users | 2024-05-01 10:00:00 |")
	assert.Contains(t, md, "| posts | - |")

	assert.Contains(t, ui.StatsMarkdown(nil), "No migration applied")
}

func TestLogger(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	logger := ui.Logger{Printer: &ui.Printer{Out: &out, Err: &errOut}}

	logger.Info("Running version: v1")
	logger.Note("Run users.v1")
	logger.Success("1 migrations executed")
	logger.Warning("careful")
	logger.Critical("boom")

	assert.Contains(t, out.String(), "ℹ Running version: v1")
	assert.Contains(t, out.String(), "Run users.v1")
	assert.Contains(t, out.String(), "1 migrations executed")
	assert.Contains(t, out.String(), "careful")
	assert.Contains(t, errOut.String(), "boom")
}

func TestPrinterTable(t *testing.T) {
	var out bytes.Buffer
	p := &ui.Printer{Out: &out, Err: &out}

	require.NoError(t, p.Rows([]database.Row{{"id": int64(7), "name": "ada"}}))
	assert.Contains(t, out.String(), "ada")
	assert.Contains(t, out.String(), "name")
}
