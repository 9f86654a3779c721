package query

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	"github.com/satishbabariya/sqlkit/database"
)

// aggregateColumn is the alias Count reads its value from.
const aggregateColumn = "aggregate"

// Get runs the SELECT, resolves the declared relations and applies the
// cast rules.
func (b *Builder) Get(ctx context.Context) ([]database.Row, error) {
	if b.executor == nil {
		return nil, ErrNoExecutor
	}
	sql, args, err := b.ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := b.executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	if err := b.resolve(ctx, rows); err != nil {
		return nil, err
	}
	b.applyCasts(rows)
	return rows, nil
}

// First returns the first row, or nil without error when there is none.
func (b *Builder) First(ctx context.Context) (database.Row, error) {
	rows, err := b.clone().Limit(1).Get(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Count returns the number of matching rows. Ordering and pagination are
// ignored.
func (b *Builder) Count(ctx context.Context) (int64, error) {
	if b.executor == nil {
		return 0, ErrNoExecutor
	}

	counter := b.clone()
	counter.columns = []string{"COUNT(*) AS " + aggregateColumn}
	counter.with = nil
	counter.orderBy = nil
	counter.offset, counter.count = 0, 0

	sql, args, err := counter.ToSQL()
	if err != nil {
		return 0, err
	}
	rows, err := b.executor.Query(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := cast.ToInt64E(rows[0][aggregateColumn])
	if err != nil {
		return 0, fmt.Errorf("read count: %w", err)
	}
	return n, nil
}

// Exists reports whether at least one row matches.
func (b *Builder) Exists(ctx context.Context) (bool, error) {
	n, err := b.Count(ctx)
	return n > 0, err
}

// Delete removes the matching rows.
func (b *Builder) Delete(ctx context.Context) error {
	if b.executor == nil {
		return ErrNoExecutor
	}
	sql, args, err := b.DeleteSQL()
	if err != nil {
		return err
	}
	return b.executor.Execute(ctx, sql, args...)
}

// Insert writes one row after applying the normalize rules.
func (b *Builder) Insert(ctx context.Context, values map[string]any) error {
	if b.executor == nil {
		return ErrNoExecutor
	}
	sql, args, err := b.InsertSQL(b.applyNormalize(values))
	if err != nil {
		return err
	}
	return b.executor.Execute(ctx, sql, args...)
}

// InsertMany writes several rows in one statement.
func (b *Builder) InsertMany(ctx context.Context, rows []map[string]any) error {
	if b.executor == nil {
		return ErrNoExecutor
	}
	normalized := make([]map[string]any, len(rows))
	for i, row := range rows {
		normalized[i] = b.applyNormalize(row)
	}
	sql, args, err := b.InsertManySQL(normalized)
	if err != nil {
		return err
	}
	return b.executor.Execute(ctx, sql, args...)
}

// Update sets values on the matching rows.
func (b *Builder) Update(ctx context.Context, values map[string]any) error {
	if b.executor == nil {
		return ErrNoExecutor
	}
	sql, args, err := b.UpdateSQL(b.applyNormalize(values))
	if err != nil {
		return err
	}
	return b.executor.Execute(ctx, sql, args...)
}
