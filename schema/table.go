package schema

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/dialect"
)

// Table is an ordered set of column definitions for one table. The same
// definition renders either a CREATE TABLE or a series of ALTER TABLE
// statements.
type Table struct {
	name     string
	renameTo string
	columns  []*Column
}

// NewTable creates an empty definition for table name.
func NewTable(name string) *Table {
	return &Table{name: name}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Columns returns the definitions in declaration order, pseudo-columns
// included.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// Column appends a column of any type.
func (t *Table) Column(name string, typ dialect.ColumnType) *Column {
	c := NewColumn(name, typ)
	t.columns = append(t.columns, c)
	return c
}

// ID adds an unsigned auto-increment INT(11) primary key. An empty name
// defaults to "id".
func (t *Table) ID(name string) *Column {
	return t.Int(keyName(name)).Unsigned().Primary().AutoIncrement()
}

// TinyID is ID on a TINYINT column.
func (t *Table) TinyID(name string) *Column {
	return t.TinyInt(keyName(name)).Unsigned().Primary().AutoIncrement()
}

// SmallID is ID on a SMALLINT column.
func (t *Table) SmallID(name string) *Column {
	return t.SmallInt(keyName(name)).Unsigned().Primary().AutoIncrement()
}

// BigID is ID on a BIGINT column.
func (t *Table) BigID(name string) *Column {
	return t.BigInt(keyName(name)).Unsigned().Primary().AutoIncrement()
}

// Int adds an INT(11) column.
func (t *Table) Int(name string) *Column      { return t.Column(name, dialect.Int).Length(11) }
// TinyInt adds a TINYINT(4) column.
func (t *Table) TinyInt(name string) *Column  { return t.Column(name, dialect.TinyInt).Length(4) }
// SmallInt adds a SMALLINT(6) column.
func (t *Table) SmallInt(name string) *Column { return t.Column(name, dialect.SmallInt).Length(6) }
// BigInt adds a BIGINT(20) column.
func (t *Table) BigInt(name string) *Column   { return t.Column(name, dialect.BigInt).Length(20) }
// Bool adds a boolean column.
func (t *Table) Bool(name string) *Column     { return t.Column(name, dialect.Bool) }
// Float adds a FLOAT column.
func (t *Table) Float(name string) *Column    { return t.Column(name, dialect.Float) }
// Double adds a DOUBLE column.
func (t *Table) Double(name string) *Column   { return t.Column(name, dialect.Double) }
// Point adds a spatial POINT column.
func (t *Table) Point(name string) *Column    { return t.Column(name, dialect.Point) }
// Text adds a TEXT column.
func (t *Table) Text(name string) *Column     { return t.Column(name, dialect.Text) }
// JSON adds a JSON column.
func (t *Table) JSON(name string) *Column     { return t.Column(name, dialect.JSON) }
// Date adds a DATE column.
func (t *Table) Date(name string) *Column     { return t.Column(name, dialect.Date) }
// Time adds a TIME column.
func (t *Table) Time(name string) *Column     { return t.Column(name, dialect.Time) }
// DateTime adds a DATETIME column.
func (t *Table) DateTime(name string) *Column { return t.Column(name, dialect.DateTime) }

// Timestamp adds a TIMESTAMP column.
func (t *Table) Timestamp(name string) *Column {
	return t.Column(name, dialect.Timestamp)
}

// Decimal adds a DECIMAL(length, precision) column.
func (t *Table) Decimal(name string, length, precision int) *Column {
	return t.Column(name, dialect.Decimal).Length(length).Precision(precision)
}

// String adds a VARCHAR column. A zero length renders as 255.
func (t *Table) String(name string, length int) *Column {
	return t.Column(name, dialect.String).Length(length)
}

// Enum adds an ENUM column restricted to values.
func (t *Table) Enum(name string, values ...string) *Column {
	return t.Column(name, dialect.Enum).Values(values...)
}

// Timestamps adds nullable created_at and updated_at columns defaulting to
// the current time; updated_at also refreshes on update.
func (t *Table) Timestamps() {
	t.Timestamp("created_at").Nullable().UseCurrent()
	t.Timestamp("updated_at").Nullable().UseCurrent().UseCurrentOnUpdate()
}

// SoftDelete adds a nullable deleted_at timestamp.
func (t *Table) SoftDelete() *Column {
	return t.Timestamp("deleted_at").Nullable()
}

// Primary declares a composite primary key named pk_<table>.
func (t *Table) Primary(columns ...string) *Column {
	c := &Column{
		name:       strings.Join(columns, "_"),
		composite:  append([]string(nil), columns...),
		constraint: "pk_" + t.name,
		primary:    true,
	}
	t.columns = append(t.columns, c)
	return c
}

// Unique declares a composite unique constraint named uq_<table>_<columns>.
func (t *Table) Unique(columns ...string) *Column {
	c := &Column{
		name:       strings.Join(columns, "_"),
		composite:  append([]string(nil), columns...),
		constraint: "uq_" + t.name + "_" + strings.Join(columns, "_"),
	}
	t.columns = append(t.columns, c)
	return c
}

// Foreign declares a foreign key constraint on an existing column, named
// fk_<table>_<column>. Complete it with References.
func (t *Table) Foreign(column string) *Column {
	c := &Column{name: column, constraintOnly: true}
	c.Foreign("fk_" + t.name + "_" + column)
	t.columns = append(t.columns, c)
	return c
}

// DropColumn drops the column when the table is altered.
func (t *Table) DropColumn(name string) *Column {
	c := &Column{name: name, drop: true}
	t.columns = append(t.columns, c)
	return c
}

// RenameColumn renames from to to when the table is altered.
func (t *Table) RenameColumn(from, to string) *Column {
	c := &Column{name: from, renameTo: to}
	t.columns = append(t.columns, c)
	return c
}

// Rename renames the table after every column statement.
func (t *Table) Rename(to string) {
	t.renameTo = to
}

// RemoveConstraint drops a named unique or index constraint.
func (t *Table) RemoveConstraint(name string) {
	t.columns = append(t.columns, &Column{name: name, constraint: name, remove: removeIndex})
}

// RemoveForeignConstraint drops a named foreign key.
func (t *Table) RemoveForeignConstraint(name string) {
	t.columns = append(t.columns, &Column{name: name, constraint: name, remove: removeForeign})
}

// RemovePrimary drops the primary key.
func (t *Table) RemovePrimary() {
	t.columns = append(t.columns, &Column{name: "pk_" + t.name, constraint: "pk_" + t.name, remove: removePrimary})
}

// CreateSQL renders the CREATE TABLE statement: column definitions first,
// then constraint definitions.
func (t *Table) CreateSQL(d dialect.Dialect, ifNotExists bool) (string, error) {
	if len(t.columns) == 0 {
		return "", fmt.Errorf("%w: table %q has no columns", ErrInvalidDefinition, t.name)
	}
	if ifNotExists && !d.Features().CreateIfNotExists {
		return "", fmt.Errorf("%w: CREATE TABLE IF NOT EXISTS on %s", dialect.ErrUnsupported, d.Name())
	}

	var columns, constraints []string
	for _, c := range t.columns {
		column, constraint, err := c.CreateSQL(d)
		if err != nil {
			return "", fmt.Errorf("table %q: %w", t.name, err)
		}
		if column != "" {
			columns = append(columns, column)
		}
		if constraint != "" {
			constraints = append(constraints, constraint)
		}
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.Quote(t.name))
	b.WriteString(" (")
	b.WriteString(strings.Join(append(columns, constraints...), ", "))
	b.WriteString(")")
	return b.String(), nil
}

// AlterSQL renders one ALTER TABLE statement per column, followed by its
// constraint statement, and a trailing rename.
func (t *Table) AlterSQL(d dialect.Dialect) ([]string, error) {
	prefix := "ALTER TABLE " + d.Quote(t.name) + " "

	var statements []string
	for _, c := range t.columns {
		fragment, constraint, err := c.AlterSQL(d)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", t.name, err)
		}
		if fragment != "" {
			statements = append(statements, prefix+fragment)
		}
		if constraint != "" {
			statements = append(statements, prefix+constraint)
		}
	}

	if t.renameTo != "" {
		rename, err := renameSQL(d, t.name, t.renameTo)
		if err != nil {
			return nil, err
		}
		statements = append(statements, rename)
	}
	return statements, nil
}

// DropSQL renders the DROP TABLE statement.
func (t *Table) DropSQL(d dialect.Dialect, ifExists bool) string {
	if ifExists {
		return "DROP TABLE IF EXISTS " + d.Quote(t.name)
	}
	return "DROP TABLE " + d.Quote(t.name)
}

func renameSQL(d dialect.Dialect, from, to string) (string, error) {
	format := d.Features().RenameTable
	if format == "" {
		return "", fmt.Errorf("%w: rename table on %s", dialect.ErrUnsupported, d.Name())
	}
	return "ALTER TABLE " + d.Quote(from) + " " + fmt.Sprintf(format, d.Quote(to)), nil
}

func keyName(name string) string {
	if name == "" {
		return "id"
	}
	return name
}
