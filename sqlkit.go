// Package sqlkit ties a database connection, its dialect, a relation
// registry and the migration runner together behind one handle.
//
//	db, err := sqlkit.Open(ctx, database.Config{Driver: "sqlite", Path: "app.db"})
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	rows, err := db.Table("users").Where("age", ">", 18).Get(ctx)
package sqlkit

import (
	"context"
	"log/slog"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/migrate"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/schema"
)

// DB is a connection handle producing builders bound to it.
type DB struct {
	conn      *database.Conn
	relations *query.Relations
	logger    *slog.Logger
}

// Option configures a DB.
type Option func(*DB)

// WithRelations makes the relations available to With on every builder.
func WithRelations(rels *query.Relations) Option {
	return func(db *DB) {
		db.relations = rels
	}
}

// WithLogger logs statements, DDL and migration runs at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// Open connects with cfg.
func Open(ctx context.Context, cfg database.Config, opts ...Option) (*DB, error) {
	db := &DB{}
	for _, opt := range opts {
		opt(db)
	}

	var connOpts []database.Option
	if db.logger != nil {
		connOpts = append(connOpts, database.WithLogger(db.logger))
	}
	conn, err := database.Open(ctx, cfg, connOpts...)
	if err != nil {
		return nil, err
	}
	db.conn = conn
	return db, nil
}

// New wraps an open connection.
func New(conn *database.Conn, opts ...Option) *DB {
	db := &DB{conn: conn}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Conn returns the underlying connection.
func (db *DB) Conn() *database.Conn { return db.conn }

func (db *DB) Dialect() dialect.Dialect { return db.conn.Dialect() }

func (db *DB) Close() error { return db.conn.Close() }

// Query returns an empty builder.
func (db *DB) Query() *query.Builder {
	var opts []query.Option
	if db.relations != nil {
		opts = append(opts, query.WithRelations(db.relations))
	}
	return query.New(db.conn.Dialect(), db.conn, opts...)
}

// Table returns a builder targeting table.
func (db *DB) Table(table string) *query.Builder {
	return db.Query().Table(table)
}

// Repository returns a table repository.
func (db *DB) Repository(table string, opts ...query.RepositoryOption) *query.Repository {
	return query.NewRepository(db.Query(), table, opts...)
}

// Schema returns a DDL builder.
func (db *DB) Schema() *schema.Builder {
	var opts []schema.Option
	if db.logger != nil {
		opts = append(opts, schema.WithLogger(db.logger))
	}
	return schema.NewBuilder(db.conn.Dialect(), db.conn, opts...)
}

// Migrator returns a runner for cfg.
func (db *DB) Migrator(cfg migrate.Config, opts ...migrate.RunnerOption) *migrate.Runner {
	if db.logger != nil {
		opts = append([]migrate.RunnerOption{migrate.WithSlog(db.logger)}, opts...)
	}
	return migrate.NewRunner(cfg, db.conn.Dialect(), db.conn, opts...)
}
