package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// openSQLite opens a file path or ":memory:". SQLite is kept on a single
// connection so that in-memory databases survive between statements.
func openSQLite(cfg Config) (*sql.DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = cfg.Path
	}
	if dsn == "" {
		dsn = cfg.Database
	}
	return sql.Open("sqlite3", dsn)
}

// initSQLite enables foreign keys, disabled by default in SQLite.
func initSQLite(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return nil
}

func classifySQLite(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return nil
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return ErrUniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		return ErrForeignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		return ErrNotNullViolation
	}
	return nil
}
