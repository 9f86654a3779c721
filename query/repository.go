package query

import (
	"context"

	"github.com/satishbabariya/sqlkit/database"
)

// Repository gives table level shortcuts on top of a base builder.
type Repository struct {
	base       *Builder
	table      string
	primaryKey string
	orderKey   string
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// PrimaryKey overrides the primary key column (default "id").
func PrimaryKey(column string) RepositoryOption {
	return func(r *Repository) {
		r.primaryKey = column
	}
}

// OrderKey overrides the column Last orders by (default the primary key).
func OrderKey(column string) RepositoryOption {
	return func(r *Repository) {
		r.orderKey = column
	}
}

// NewRepository creates a repository over table. base provides the
// dialect, executor and relations.
func NewRepository(base *Builder, table string, opts ...RepositoryOption) *Repository {
	r := &Repository{base: base, table: table, primaryKey: "id"}
	for _, opt := range opts {
		opt(r)
	}
	if r.orderKey == "" {
		r.orderKey = r.primaryKey
	}
	return r
}

// Table returns the table name.
func (r *Repository) Table() string {
	return r.table
}

// PrimaryKey returns the primary key column.
func (r *Repository) PrimaryKey() string {
	return r.primaryKey
}

// Query returns a fresh builder on the repository table.
func (r *Repository) Query() *Builder {
	return r.base.fork().Table(r.table)
}

// All returns every row of the table.
func (r *Repository) All(ctx context.Context) ([]database.Row, error) {
	return r.Query().Get(ctx)
}

// First returns the first row, or nil when the table is empty.
func (r *Repository) First(ctx context.Context) (database.Row, error) {
	return r.Query().First(ctx)
}

// Last returns the row with the highest order key.
func (r *Repository) Last(ctx context.Context) (database.Row, error) {
	return r.Query().OrderBy(r.orderKey, "DESC").First(ctx)
}

// Find returns the row whose primary key equals id, or nil.
func (r *Repository) Find(ctx context.Context, id any) (database.Row, error) {
	return r.Query().Where(r.primaryKey, id).First(ctx)
}
