package dialect

import "fmt"

// Postgres renders PostgreSQL: "$n" placeholders, SERIAL types for
// auto-increment columns, no UNSIGNED and no column positioning.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Quote(identifier string) string { return quote(identifier, `"`, `"`) }

func (Postgres) Rebind(query string) string {
	return rebind(query, func(n int) string { return fmt.Sprintf("$%d", n) })
}

func (Postgres) Limit(offset, count int, _ bool) string {
	if offset > 0 {
		return fmt.Sprintf("LIMIT %d OFFSET %d", count, offset)
	}
	return fmt.Sprintf("LIMIT %d", count)
}

func (Postgres) TableExists(table string) (string, []any) {
	return "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname = current_schema() AND tablename = $1", []any{table}
}

func (Postgres) TypeName(spec TypeSpec) string {
	switch spec.Type {
	case Int:
		if spec.AutoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case TinyInt, SmallInt:
		if spec.AutoIncrement {
			return "SMALLSERIAL"
		}
		return "SMALLINT"
	case BigInt:
		if spec.AutoIncrement {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case Bool:
		return "BOOLEAN"
	case Float:
		return "REAL"
	case Double:
		return "DOUBLE PRECISION"
	case Decimal:
		return sized("NUMERIC", spec.Length, spec.Precision)
	case String:
		length := spec.Length
		if length == 0 {
			length = 255
		}
		return sized("VARCHAR", length, 0)
	case Enum:
		return "TEXT"
	case JSON:
		return "JSONB"
	case DateTime, Timestamp:
		return "TIMESTAMP"
	default:
		return string(spec.Type)
	}
}

func (Postgres) Features() Features {
	return Features{
		CreateIfNotExists: true,
		RenameTable:       "RENAME TO %s",
		DropForeign:       "DROP CONSTRAINT %s",
		DropIndex:         "DROP CONSTRAINT %s",
		TrueLiteral:       "TRUE",
		FalseLiteral:      "FALSE",
	}
}

var _ Dialect = Postgres{}
