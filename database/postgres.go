package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// PostgresURL builds a postgres:// connection URL from discrete fields.
func PostgresURL(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.host("localhost"), strconv.Itoa(cfg.port(5432))),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	query := url.Values{}
	for k, v := range cfg.Params {
		query.Set(k, v)
	}
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// openPostgres uses lib/pq.
func openPostgres(cfg Config) (*sql.DB, error) {
	dsn := PostgresURL(cfg)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		converted, err := pq.ParseURL(dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres dsn: %w", err)
		}
		dsn = converted
	}
	return sql.Open("postgres", dsn)
}

// openPgx uses the pgx driver through its database/sql adapter.
func openPgx(cfg Config) (*sql.DB, error) {
	pgxConfig, err := pgx.ParseConfig(PostgresURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("pgx dsn: %w", err)
	}
	return stdlib.OpenDB(*pgxConfig), nil
}

func classifyPostgres(err error) error {
	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	default:
		return nil
	}
	switch code {
	case "23505":
		return ErrUniqueViolation
	case "23503":
		return ErrForeignKeyViolation
	case "23502":
		return ErrNotNullViolation
	}
	return nil
}
