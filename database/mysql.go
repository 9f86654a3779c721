package database

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// ansiMode makes MySQL accept double quoted identifiers.
const ansiMode = "'ANSI_QUOTES,STRICT_TRANS_TABLES,NO_ENGINE_SUBSTITUTION'"

// MySQLDSN builds the driver DSN. The session always runs with
// ANSI_QUOTES unless params override sql_mode.
func MySQLDSN(cfg Config) (string, error) {
	var mc *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", fmt.Errorf("mysql dsn: %w", err)
		}
		mc = parsed
	} else {
		mc = mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.host("127.0.0.1"), strconv.Itoa(cfg.port(3306)))
		mc.DBName = cfg.Database
	}
	mc.ParseTime = true

	if mc.Params == nil {
		mc.Params = make(map[string]string)
	}
	for k, v := range cfg.Params {
		mc.Params[k] = v
	}
	if _, ok := mc.Params["sql_mode"]; !ok {
		mc.Params["sql_mode"] = ansiMode
	}
	return mc.FormatDSN(), nil
}

func openMySQL(cfg Config) (*sql.DB, error) {
	dsn, err := MySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return sql.Open("mysql", dsn)
}

func classifyMySQL(err error) error {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return nil
	}
	switch me.Number {
	case 1062:
		return ErrUniqueViolation
	case 1216, 1217, 1451, 1452:
		return ErrForeignKeyViolation
	case 1048:
		return ErrNotNullViolation
	}
	return nil
}
