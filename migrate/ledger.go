package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cast"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/schema"
)

// LedgerTable is the table holding applied migrations.
const LedgerTable = "migrations"

// Entry is one applied (version, source) pair.
type Entry struct {
	ID        int64
	Version   string
	Migration string
	AppliedAt time.Time
}

// ledger reads and writes the migrations table.
type ledger struct {
	schema *schema.Builder
	repo   *query.Repository
}

func newLedger(s *schema.Builder, base *query.Builder) *ledger {
	return &ledger{
		schema: s,
		repo:   query.NewRepository(base, LedgerTable),
	}
}

// ensure creates the ledger table when missing. created reports whether
// it had to.
func (l *ledger) ensure(ctx context.Context) (created bool, err error) {
	exists, err := l.schema.HasTable(ctx, LedgerTable)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	define := func(t *schema.Table) {
		t.ID("id")
		t.String("version", 0)
		t.String("migration", 0)
		t.Timestamp("created_at").UseCurrent()
	}
	if l.schema.Dialect().Features().CreateIfNotExists {
		err = l.schema.CreateTableIfNotExists(ctx, LedgerTable, define)
	} else {
		err = l.schema.CreateTable(ctx, LedgerTable, define)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}

	exists, err = l.schema.HasTable(ctx, LedgerTable)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrLedgerUnavailable
	}
	return true, nil
}

// entries returns every ledger entry in insertion order.
func (l *ledger) entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.repo.Query().OrderBy("id", "ASC").Get(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, toEntry(row))
	}
	return entries, nil
}

func (l *ledger) create(ctx context.Context, version, migration string) error {
	return l.repo.Query().Insert(ctx, map[string]any{
		"version":   version,
		"migration": migration,
	})
}

func (l *ledger) delete(ctx context.Context, version, migration string) error {
	return l.repo.Query().
		Where("version", version).
		Where("migration", migration).
		Delete(ctx)
}

func toEntry(row database.Row) Entry {
	e := Entry{
		ID:        cast.ToInt64(row["id"]),
		Version:   cast.ToString(row["version"]),
		Migration: cast.ToString(row["migration"]),
	}
	if at, err := cast.ToTimeE(row["created_at"]); err == nil {
		e.AppliedAt = at
	}
	return e
}
