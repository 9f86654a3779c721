package dialect

import "fmt"

// SQLite renders SQLite. Integer types collapse to INTEGER so that an
// auto-increment primary key becomes a rowid alias.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) Quote(identifier string) string { return quote(identifier, `"`, `"`) }

func (SQLite) Rebind(query string) string { return query }

func (SQLite) Limit(offset, count int, _ bool) string {
	return fmt.Sprintf("LIMIT %d, %d", offset, count)
}

func (SQLite) TableExists(table string) (string, []any) {
	return "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", []any{table}
}

func (SQLite) TypeName(spec TypeSpec) string {
	switch spec.Type {
	case Int, TinyInt, SmallInt, BigInt:
		return "INTEGER"
	case Bool:
		return "BOOLEAN"
	case Float, Double:
		return "REAL"
	case Decimal:
		return sized("NUMERIC", spec.Length, spec.Precision)
	case String:
		length := spec.Length
		if length == 0 {
			length = 255
		}
		return sized("VARCHAR", length, 0)
	case Enum, JSON:
		return "TEXT"
	case Point:
		return "BLOB"
	default:
		return string(spec.Type)
	}
}

func (SQLite) Features() Features {
	return Features{
		AutoIncrement:             "AUTOINCREMENT",
		AutoIncrementAfterPrimary: true,
		CreateIfNotExists:         true,
		RenameTable:               "RENAME TO %s",
		DropIndex:                 "DROP INDEX %s",
		TrueLiteral:               "1",
		FalseLiteral:              "0",
	}
}

var _ Dialect = SQLite{}
