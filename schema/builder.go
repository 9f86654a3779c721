package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
)

// ErrNoExecutor is returned when a Builder has nothing to send DDL to.
var ErrNoExecutor = errors.New("schema: builder has no executor")

// Builder compiles table definitions and executes the resulting DDL
// statement by statement. Sequences are not transactional.
type Builder struct {
	dialect  dialect.Dialect
	executor database.Executor
	logger   *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger logs every DDL statement at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder returns a DDL builder sending statements to exec.
func NewBuilder(d dialect.Dialect, exec database.Executor, opts ...Option) *Builder {
	b := &Builder{dialect: d, executor: exec}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Dialect returns the dialect statements are rendered for.
func (b *Builder) Dialect() dialect.Dialect { return b.dialect }

// CreateTable defines a table with fn and creates it.
func (b *Builder) CreateTable(ctx context.Context, name string, fn func(*Table)) error {
	return b.create(ctx, name, fn, false)
}

// CreateTableIfNotExists creates the table unless it already exists.
func (b *Builder) CreateTableIfNotExists(ctx context.Context, name string, fn func(*Table)) error {
	return b.create(ctx, name, fn, true)
}

func (b *Builder) create(ctx context.Context, name string, fn func(*Table), ifNotExists bool) error {
	t := NewTable(name)
	if fn != nil {
		fn(t)
	}
	sql, err := t.CreateSQL(b.dialect, ifNotExists)
	if err != nil {
		return err
	}
	return b.exec(ctx, sql)
}

// AlterTable runs every statement produced by the definition of fn, in
// order, stopping at the first failure.
func (b *Builder) AlterTable(ctx context.Context, name string, fn func(*Table)) error {
	t := NewTable(name)
	if fn != nil {
		fn(t)
	}
	statements, err := t.AlterSQL(b.dialect)
	if err != nil {
		return err
	}
	for _, sql := range statements {
		if err := b.exec(ctx, sql); err != nil {
			return err
		}
	}
	return nil
}

// DropTable runs "DROP TABLE name".
func (b *Builder) DropTable(ctx context.Context, name string) error {
	return b.exec(ctx, NewTable(name).DropSQL(b.dialect, false))
}

// DropTableIfExists runs "DROP TABLE IF EXISTS name".
func (b *Builder) DropTableIfExists(ctx context.Context, name string) error {
	return b.exec(ctx, NewTable(name).DropSQL(b.dialect, true))
}

// Rename renames table from to to.
func (b *Builder) Rename(ctx context.Context, from, to string) error {
	sql, err := renameSQL(b.dialect, from, to)
	if err != nil {
		return err
	}
	return b.exec(ctx, sql)
}

// RemovePrimaryKey drops the primary key of table.
func (b *Builder) RemovePrimaryKey(ctx context.Context, table string) error {
	return b.AlterTable(ctx, table, func(t *Table) { t.RemovePrimary() })
}

// RemoveForeignKey drops the named foreign key of table.
func (b *Builder) RemoveForeignKey(ctx context.Context, table, constraint string) error {
	return b.AlterTable(ctx, table, func(t *Table) { t.RemoveForeignConstraint(constraint) })
}

// Exec sends raw SQL unchanged.
func (b *Builder) Exec(ctx context.Context, sql string, args ...any) error {
	return b.exec(ctx, sql, args...)
}

// HasTable reports whether table exists. A missing table is not an error.
func (b *Builder) HasTable(ctx context.Context, table string) (bool, error) {
	if b.executor == nil {
		return false, ErrNoExecutor
	}
	sql, args := b.dialect.TableExists(table)
	rows, err := b.executor.Query(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("failed to probe table %q: %w", table, err)
	}
	return len(rows) > 0, nil
}

func (b *Builder) exec(ctx context.Context, sql string, args ...any) error {
	if b.executor == nil {
		return ErrNoExecutor
	}
	if b.logger != nil {
		b.logger.DebugContext(ctx, "ddl", "sql", sql)
	}
	return b.executor.Execute(ctx, sql, args...)
}
