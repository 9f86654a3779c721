package dialect

import "fmt"

// SQLServer renders Microsoft SQL Server: bracket quoting, "@pN"
// placeholders and OFFSET/FETCH pagination.
type SQLServer struct{}

func (SQLServer) Name() string { return "sqlserver" }

func (SQLServer) Quote(identifier string) string { return quote(identifier, "[", "]") }

func (SQLServer) Rebind(query string) string {
	return rebind(query, func(n int) string { return fmt.Sprintf("@p%d", n) })
}

// Limit requires an ORDER BY; one is synthesized when the statement has none.
func (SQLServer) Limit(offset, count int, ordered bool) string {
	clause := fmt.Sprintf("OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, count)
	if !ordered {
		return "ORDER BY (SELECT NULL) " + clause
	}
	return clause
}

func (SQLServer) TableExists(table string) (string, []any) {
	return "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1", []any{table}
}

func (SQLServer) TypeName(spec TypeSpec) string {
	switch spec.Type {
	case Bool:
		return "BIT"
	case Float:
		return "REAL"
	case Double:
		return "FLOAT"
	case Decimal:
		return sized("DECIMAL", spec.Length, spec.Precision)
	case String:
		length := spec.Length
		if length == 0 {
			length = 255
		}
		return sized("NVARCHAR", length, 0)
	case Enum:
		return "NVARCHAR(255)"
	case Text, JSON:
		return "NVARCHAR(MAX)"
	case Point:
		return "GEOMETRY"
	case DateTime, Timestamp:
		return "DATETIME2"
	default:
		return string(spec.Type)
	}
}

func (SQLServer) Features() Features {
	return Features{
		AutoIncrement: "IDENTITY(1,1)",
		DropForeign:   "DROP CONSTRAINT %s",
		DropIndex:     "DROP CONSTRAINT %s",
		TrueLiteral:   "1",
		FalseLiteral:  "0",
	}
}

var _ Dialect = SQLServer{}
