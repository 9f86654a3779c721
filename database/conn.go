package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/satishbabariya/sqlkit/dialect"
)

// Conn is an Executor backed by database/sql.
type Conn struct {
	db       *sql.DB
	dialect  dialect.Dialect
	classify func(error) error
	logger   *slog.Logger
}

// Option configures a Conn.
type Option func(*Conn)

// WithLogger logs every statement at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// Open connects using cfg and verifies the connection with a ping.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	driver := strings.ToLower(cfg.Driver)
	connector := connectors[driver]

	d, err := dialect.Lookup(driver)
	if err != nil {
		return nil, err
	}

	db, err := connector.open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if connector.single {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections / 2)
		db.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if connector.init != nil {
		if err := connector.init(pingCtx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	c := NewConn(db, d, opts...)
	c.classify = connector.classify
	return c, nil
}

// NewConn wraps an already opened handle.
func NewConn(db *sql.DB, d dialect.Dialect, opts ...Option) *Conn {
	c := &Conn{db: db, dialect: d, classify: classifyAny}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dialect returns the dialect of the connection.
func (c *Conn) Dialect() dialect.Dialect {
	return c.dialect
}

// DB returns the underlying handle.
func (c *Conn) DB() *sql.DB {
	return c.db
}

// Close closes the connection.
func (c *Conn) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// Ping checks if the database connection is alive.
func (c *Conn) Ping(ctx context.Context) error {
	if c.db == nil {
		return ErrNotConnected
	}
	return c.db.PingContext(ctx)
}

// Execute runs a statement that returns no rows.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) error {
	if c.db == nil {
		return ErrNotConnected
	}
	c.trace(query, args)
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return c.wrap(query, args, err)
	}
	return nil
}

// Query runs a statement and returns every row, normalized.
func (c *Conn) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if c.db == nil {
		return nil, ErrNotConnected
	}
	c.trace(query, args)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, c.wrap(query, args, err)
	}
	defer rows.Close()

	result, err := ScanRows(rows)
	if err != nil {
		return nil, c.wrap(query, args, err)
	}
	return result, nil
}

// ScanRows reads all rows into normalized Row maps.
func ScanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			row[column] = Normalize(values[i])
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (c *Conn) trace(query string, args []any) {
	if c.logger != nil {
		c.logger.Debug("sql", "dialect", c.dialect.Name(), "query", query, "args", args)
	}
}

func (c *Conn) wrap(query string, args []any, err error) error {
	classify := c.classify
	if classify == nil {
		classify = classifyAny
	}
	return &ExecError{Query: query, Args: args, Err: err, Kind: classify(err)}
}

var _ Executor = (*Conn)(nil)
