package dialect

import "fmt"

// MySQL is the reference dialect. Identifiers are quoted with double
// quotes, which requires the ANSI_QUOTES sql_mode on the session; the MySQL
// connector in package database enables it.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Quote(identifier string) string { return quote(identifier, `"`, `"`) }

func (MySQL) Rebind(query string) string { return query }

func (MySQL) Limit(offset, count int, _ bool) string {
	return fmt.Sprintf("LIMIT %d, %d", offset, count)
}

func (MySQL) TableExists(table string) (string, []any) {
	return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?", []any{table}
}

func (MySQL) TypeName(spec TypeSpec) string {
	switch spec.Type {
	case String:
		length := spec.Length
		if length == 0 {
			length = 255
		}
		return sized("VARCHAR", length, 0)
	case Enum:
		if spec.Length == 0 && len(spec.Values) > 0 {
			return "ENUM" + enumValues(spec.Values)
		}
		return sized("ENUM", spec.Length, 0)
	case Float, Double, Decimal:
		return sized(string(spec.Type), spec.Length, spec.Precision)
	default:
		return sized(string(spec.Type), spec.Length, 0)
	}
}

func (MySQL) Features() Features {
	return Features{
		Unsigned:          true,
		AutoIncrement:     "AUTO_INCREMENT",
		OnUpdateTimestamp: true,
		ColumnPosition:    true,
		Comments:          true,
		CreateIfNotExists: true,
		ChangeColumn:      "CHANGE %s %s %s",
		RenameTable:       "RENAME TO %s",
		DropPrimary:       "DROP PRIMARY KEY",
		DropForeign:       "DROP FOREIGN KEY %s",
		DropIndex:         "DROP INDEX %s",
		TrueLiteral:       "1",
		FalseLiteral:      "0",
	}
}

var _ Dialect = MySQL{}
