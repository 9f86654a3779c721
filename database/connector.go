package database

import (
	"context"
	"database/sql"
)

// connector opens a driver specific handle and classifies its errors.
type connector struct {
	open     func(cfg Config) (*sql.DB, error)
	init     func(ctx context.Context, db *sql.DB) error
	classify func(err error) error
	// single keeps the pool on one connection.
	single bool
}

var connectors = map[string]connector{
	"mysql":      {open: openMySQL, classify: classifyMySQL},
	"mariadb":    {open: openMySQL, classify: classifyMySQL},
	"postgres":   {open: openPostgres, classify: classifyPostgres},
	"postgresql": {open: openPostgres, classify: classifyPostgres},
	"pgx":        {open: openPgx, classify: classifyPostgres},
	"sqlite":     {open: openSQLite, init: initSQLite, classify: classifySQLite, single: true},
	"sqlite3":    {open: openSQLite, init: initSQLite, classify: classifySQLite, single: true},
	"sqlserver":  {open: openSQLServer, classify: classifySQLServer},
	"mssql":      {open: openSQLServer, classify: classifySQLServer},
}

// Drivers lists the accepted driver names.
func Drivers() []string {
	return []string{"mysql", "mariadb", "postgres", "postgresql", "pgx", "sqlite", "sqlite3", "sqlserver", "mssql"}
}

// classifyAny is used for handles opened outside of Open.
func classifyAny(err error) error {
	for _, classify := range []func(error) error{classifyMySQL, classifyPostgres, classifySQLite, classifySQLServer} {
		if kind := classify(err); kind != nil {
			return kind
		}
	}
	return nil
}
