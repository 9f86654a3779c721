// Package dialect defines how SQL is rendered for a specific database.
//
// The query compiler and the schema builder are dialect agnostic: every
// database-specific decision (identifier quoting, placeholder style, LIMIT
// syntax, column type names, DDL capabilities) is delegated to a Dialect.
package dialect

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownDialect is returned by Lookup for an unregistered name.
	ErrUnknownDialect = errors.New("dialect: unknown dialect")

	// ErrUnsupported is returned when a dialect cannot express an operation.
	ErrUnsupported = errors.New("dialect: operation not supported")
)

// ColumnType is the logical type of a column.
type ColumnType string

const (
	Int       ColumnType = "INT"
	TinyInt   ColumnType = "TINYINT"
	SmallInt  ColumnType = "SMALLINT"
	BigInt    ColumnType = "BIGINT"
	Bool      ColumnType = "BOOL"
	Float     ColumnType = "FLOAT"
	Double    ColumnType = "DOUBLE"
	Decimal   ColumnType = "DECIMAL"
	String    ColumnType = "STRING"
	Text      ColumnType = "TEXT"
	JSON      ColumnType = "JSON"
	Point     ColumnType = "POINT"
	Enum      ColumnType = "ENUM"
	Date      ColumnType = "DATE"
	Time      ColumnType = "TIME"
	DateTime  ColumnType = "DATETIME"
	Timestamp ColumnType = "TIMESTAMP"
)

// TypeSpec carries everything a dialect needs to render a column type.
type TypeSpec struct {
	Type          ColumnType
	Length        int
	Precision     int
	Values        []string
	AutoIncrement bool
}

// Features describes the DDL capabilities of a dialect. Format strings
// receive already quoted identifiers.
type Features struct {
	// Unsigned reports whether UNSIGNED is accepted on numeric columns.
	Unsigned bool
	// AutoIncrement is the keyword appended to auto-increment columns.
	// Empty when the type name itself carries the behaviour (SERIAL).
	AutoIncrement string
	// AutoIncrementAfterPrimary places the keyword after PRIMARY KEY.
	AutoIncrementAfterPrimary bool
	// OnUpdateTimestamp reports support for ON UPDATE CURRENT_TIMESTAMP.
	OnUpdateTimestamp bool
	// ColumnPosition reports support for AFTER <column>.
	ColumnPosition bool
	// Comments reports support for inline COMMENT '<text>'.
	Comments bool
	// CreateIfNotExists reports support for CREATE TABLE IF NOT EXISTS.
	CreateIfNotExists bool
	// ChangeColumn renders a rename+redefine: old, new, definition.
	ChangeColumn string
	// RenameTable renders the table rename clause: new name.
	RenameTable string
	// DropPrimary drops the primary key of the table.
	DropPrimary string
	// DropForeign drops a named foreign key constraint.
	DropForeign string
	// DropIndex drops a named unique/index constraint.
	DropIndex string
	// TrueLiteral and FalseLiteral render boolean defaults.
	TrueLiteral  string
	FalseLiteral string
}

// Dialect renders database specific SQL fragments.
type Dialect interface {
	// Name returns the canonical dialect name.
	Name() string
	// Quote quotes an identifier. Already quoted identifiers, "*" and
	// expressions are returned unchanged.
	Quote(identifier string) string
	// Rebind rewrites "?" placeholders into the dialect's native form.
	Rebind(query string) string
	// Limit renders the pagination clause. ordered reports whether the
	// statement already has an ORDER BY clause.
	Limit(offset, count int, ordered bool) string
	// TableExists returns a query (already rebound) yielding one row when
	// the table exists.
	TableExists(table string) (string, []any)
	// TypeName renders the column type.
	TypeName(spec TypeSpec) string
	// Features describes DDL capabilities.
	Features() Features
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// IsQuoted reports whether identifier is wrapped in any known quote pair.
func IsQuoted(identifier string) bool {
	if len(identifier) < 2 {
		return false
	}
	first, last := identifier[0], identifier[len(identifier)-1]
	switch first {
	case '"':
		return last == '"'
	case '`':
		return last == '`'
	case '[':
		return last == ']'
	}
	return false
}

// IsExpression reports whether s is a SQL expression rather than a plain
// identifier, e.g. "COUNT(*) AS total".
func IsExpression(s string) bool {
	return strings.ContainsAny(s, "() \t\n,")
}

// quote wraps every dot separated segment of identifier in open/close.
func quote(identifier, open, close string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || identifier == "*" || IsQuoted(identifier) || IsExpression(identifier) {
		return identifier
	}
	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		if part == "*" || IsQuoted(part) {
			continue
		}
		parts[i] = open + strings.ReplaceAll(part, close, close+close) + close
	}
	return strings.Join(parts, ".")
}

// rebind replaces every "?" outside of string literals using next.
func rebind(query string, next func(n int) string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteString(next(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// sized renders name(length) or name(length, precision) when set.
func sized(name string, length, precision int) string {
	switch {
	case length > 0 && precision > 0:
		return fmt.Sprintf("%s(%d, %d)", name, length, precision)
	case length > 0:
		return fmt.Sprintf("%s(%d)", name, length)
	default:
		return name
	}
}

// enumValues renders ('a', 'b') with single quoted, escaped values.
func enumValues(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}
