package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"github.com/microsoft/go-mssqldb/msdsn"
)

// SQLServerDSN builds a sqlserver:// URL from discrete fields and
// validates it.
func SQLServerDSN(cfg Config) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		u := url.URL{
			Scheme: "sqlserver",
			Host:   net.JoinHostPort(cfg.host("localhost"), strconv.Itoa(cfg.port(1433))),
		}
		if cfg.User != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		}
		query := url.Values{}
		query.Set("database", cfg.Database)
		for k, v := range cfg.Params {
			query.Set(k, v)
		}
		u.RawQuery = query.Encode()
		dsn = u.String()
	}
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("mssql dsn: %w", err)
	}
	return dsn, nil
}

func openSQLServer(cfg Config) (*sql.DB, error) {
	dsn, err := SQLServerDSN(cfg)
	if err != nil {
		return nil, err
	}
	return sql.Open("sqlserver", dsn)
}

func classifySQLServer(err error) error {
	var numbered interface{ SQLErrorNumber() int32 }
	if !errors.As(err, &numbered) {
		return nil
	}
	switch numbered.SQLErrorNumber() {
	case 2601, 2627:
		return ErrUniqueViolation
	case 547:
		return ErrForeignKeyViolation
	case 515:
		return ErrNotNullViolation
	}
	return nil
}
