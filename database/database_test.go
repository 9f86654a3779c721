package database_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/database"
)

func TestNormalize(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{"nil", nil, nil},
		{"bytes", []byte("abc"), "abc"},
		{"int", 7, int64(7)},
		{"int32", int32(7), int64(7)},
		{"uint8", uint8(1), int64(1)},
		{"uint64", uint64(42), int64(42)},
		{"uint64 above int64", uint64(math.MaxUint64), "18446744073709551615"},
		{"float32", float32(1.5), float64(1.5)},
		{"bool", true, true},
		{"time", ts, "2024-03-01 12:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, database.Normalize(tt.input))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	err := database.Config{Driver: "oracle", Database: "x"}.Validate()
	assert.ErrorIs(t, err, database.ErrUnknownDriver)

	err = database.Config{Driver: "mysql"}.Validate()
	assert.Error(t, err)

	assert.NoError(t, database.Config{Driver: "SQLite3", DSN: ":memory:"}.Validate())
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := database.MySQLDSN(database.Config{
		Driver:   "mysql",
		User:     "root",
		Password: "secret",
		Database: "app",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "root:secret@tcp(127.0.0.1:3306)/app?"), dsn)
	assert.Contains(t, dsn, "ANSI_QUOTES")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestPostgresURL(t *testing.T) {
	u := database.PostgresURL(database.Config{
		Driver:   "postgres",
		Host:     "db",
		User:     "app",
		Password: "pw",
		Database: "shop",
	})
	assert.Equal(t, "postgres://app:pw@db:5432/shop?sslmode=disable", u)

	assert.Equal(t, "postgres://x", database.PostgresURL(database.Config{DSN: "postgres://x"}))
}

func TestSQLServerDSN(t *testing.T) {
	dsn, err := database.SQLServerDSN(database.Config{
		Driver:   "sqlserver",
		User:     "sa",
		Password: "pw",
		Database: "app",
	})
	require.NoError(t, err)
	assert.Equal(t, "sqlserver://sa:pw@localhost:1433?database=app", dsn)
}

func TestExecErrorClassification(t *testing.T) {
	cause := errors.New("boom")
	err := error(&database.ExecError{Query: "INSERT", Err: cause, Kind: database.ErrUniqueViolation})

	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsForeignKeyViolation(err))
	assert.ErrorIs(t, err, cause)
}

func TestRegistry(t *testing.T) {
	r := database.NewRegistry(nil)
	require.NoError(t, r.Add("main", database.Config{Driver: "sqlite3", DSN: ":memory:"}))
	require.NoError(t, r.Add("reports", database.Config{Driver: "postgres", Database: "reports"}))

	assert.Equal(t, "main", r.Default())
	assert.Equal(t, []string{"main", "reports"}, r.Names())

	cfg, err := r.Config("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", cfg.Driver)

	require.NoError(t, r.SetDefault("reports"))
	assert.Equal(t, "reports", r.Default())

	_, err = r.Config("missing")
	assert.ErrorIs(t, err, database.ErrUnknownConnection)
	assert.ErrorIs(t, r.SetDefault("missing"), database.ErrUnknownConnection)

	assert.ErrorIs(t, r.Add("bad", database.Config{Driver: "db2", Database: "x"}), database.ErrUnknownDriver)
}

func TestSQLiteConn(t *testing.T) {
	ctx := context.Background()

	conn, err := database.Open(ctx, database.Config{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "sqlite", conn.Dialect().Name())

	require.NoError(t, conn.Execute(ctx, `CREATE TABLE "users" ("id" INTEGER PRIMARY KEY, "email" VARCHAR(255) UNIQUE, "score" REAL)`))
	require.NoError(t, conn.Execute(ctx, `INSERT INTO "users" ("email", "score") VALUES (?, ?)`, "a@example.com", 1.5))

	rows, err := conn.Query(ctx, `SELECT "id", "email", "score" FROM "users"`)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, database.Row{"id": int64(1), "email": "a@example.com", "score": 1.5}, rows[0])

	err = conn.Execute(ctx, `INSERT INTO "users" ("email") VALUES (?)`, "a@example.com")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))

	var execErr *database.ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, []any{"a@example.com"}, execErr.Args)

	rows, err = conn.Query(ctx, `SELECT "id" FROM "users" WHERE "id" = ?`, 99)
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Execute(ctx, "SELECT 1"), database.ErrNotConnected)
}
