// Package schema builds table definitions and compiles them to DDL.
package schema

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/sqlkit/dialect"
)

var (
	// ErrConflictingMutation is returned when a column carries mutation
	// flags that cannot be combined, such as drop and rename.
	ErrConflictingMutation = errors.New("schema: conflicting column mutations")

	// ErrInvalidDefinition is returned for definitions that cannot render.
	ErrInvalidDefinition = errors.New("schema: invalid definition")
)

// Raw is a SQL expression used verbatim, e.g. as a column default.
// It renders wrapped in parentheses.
type Raw string

// SQL returns the parenthesized expression.
func (r Raw) SQL() string {
	return "(" + string(r) + ")"
}

type removal int

const (
	keepConstraint removal = iota
	removePrimary
	removeForeign
	removeIndex
)

// ForeignKey describes the reference of a foreign key constraint.
type ForeignKey struct {
	Table    string
	Column   string
	OnUpdate string
	OnDelete string
}

// Column is a column definition, or a pseudo-column carrying a composite
// or removal constraint. Every method returns the same *Column.
type Column struct {
	name       string
	composite  []string
	constraint string

	typ       dialect.ColumnType
	length    int
	precision int
	values    []string

	nullable           bool
	unsigned           bool
	unique             bool
	primary            bool
	autoIncrement      bool
	useCurrent         bool
	useCurrentOnUpdate bool

	def        any
	hasDefault bool
	comment    string

	foreign        *ForeignKey
	constraintOnly bool

	renameTo string
	after    string
	change   bool
	drop     bool
	remove   removal
}

// NewColumn creates a column of the given type.
func NewColumn(name string, typ dialect.ColumnType) *Column {
	return &Column{name: name, typ: typ}
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the logical type.
func (c *Column) Type() dialect.ColumnType { return c.typ }

// Length sets the display or character length.
func (c *Column) Length(n int) *Column {
	c.length = n
	return c
}

// Precision sets the number of decimal digits.
func (c *Column) Precision(n int) *Column {
	c.precision = n
	return c
}

// Values sets the allowed values of an ENUM column.
func (c *Column) Values(values ...string) *Column {
	c.values = append([]string(nil), values...)
	return c
}

// Nullable allows NULL values.
func (c *Column) Nullable() *Column {
	c.nullable = true
	return c
}

// Unsigned marks a numeric column UNSIGNED where supported.
func (c *Column) Unsigned() *Column {
	c.unsigned = true
	return c
}

// Unique adds a UNIQUE constraint on the column.
func (c *Column) Unique() *Column {
	c.unique = true
	return c
}

// Primary makes the column the primary key.
func (c *Column) Primary() *Column {
	c.primary = true
	return c
}

// AutoIncrement makes the database generate values.
func (c *Column) AutoIncrement() *Column {
	c.autoIncrement = true
	return c
}

// Default sets the default value: nil, a string, an integer, a float, a
// bool, a time.Time or a Raw expression.
func (c *Column) Default(v any) *Column {
	c.def = v
	c.hasDefault = true
	return c
}

// UseCurrent defaults the column to CURRENT_TIMESTAMP.
func (c *Column) UseCurrent() *Column {
	c.useCurrent = true
	return c
}

// UseCurrentOnUpdate refreshes the column on every update where supported.
func (c *Column) UseCurrentOnUpdate() *Column {
	c.useCurrentOnUpdate = true
	return c
}

// Comment attaches a column comment where supported.
func (c *Column) Comment(text string) *Column {
	c.comment = text
	return c
}

// Foreign marks the column as a foreign key named constraint. An empty
// name becomes "fk_<column>".
func (c *Column) Foreign(constraint string) *Column {
	if constraint == "" {
		constraint = "fk_" + c.name
	}
	c.constraint = constraint
	if c.foreign == nil {
		c.foreign = &ForeignKey{}
	}
	return c
}

// References sets the referenced table and column of a foreign key.
func (c *Column) References(table, column string) *Column {
	if c.foreign == nil {
		c.Foreign("")
	}
	c.foreign.Table = table
	c.foreign.Column = column
	return c
}

// Constrained names the constraint of the column.
func (c *Column) Constrained(name string) *Column {
	c.constraint = name
	return c
}

// OnUpdate sets the referential action on update of the referenced row.
func (c *Column) OnUpdate(action string) *Column {
	if c.foreign == nil {
		c.Foreign("")
	}
	c.foreign.OnUpdate = strings.ToUpper(action)
	return c
}

// OnDelete sets the referential action on delete of the referenced row.
func (c *Column) OnDelete(action string) *Column {
	if c.foreign == nil {
		c.Foreign("")
	}
	c.foreign.OnDelete = strings.ToUpper(action)
	return c
}

// CascadeOnUpdate is OnUpdate("CASCADE").
func (c *Column) CascadeOnUpdate() *Column  { return c.OnUpdate("CASCADE") }
// RestrictOnUpdate is OnUpdate("RESTRICT").
func (c *Column) RestrictOnUpdate() *Column { return c.OnUpdate("RESTRICT") }
// NullOnUpdate is OnUpdate("SET NULL").
func (c *Column) NullOnUpdate() *Column     { return c.OnUpdate("SET NULL") }
// CascadeOnDelete is OnDelete("CASCADE").
func (c *Column) CascadeOnDelete() *Column  { return c.OnDelete("CASCADE") }
// RestrictOnDelete is OnDelete("RESTRICT").
func (c *Column) RestrictOnDelete() *Column { return c.OnDelete("RESTRICT") }
// NullOnDelete is OnDelete("SET NULL").
func (c *Column) NullOnDelete() *Column     { return c.OnDelete("SET NULL") }

// After places an added or changed column after another one.
func (c *Column) After(column string) *Column {
	c.after = column
	return c
}

// Rename renames the column. Combined with Change it renames and
// redefines the column in one statement.
func (c *Column) Rename(to string) *Column {
	c.renameTo = to
	return c
}

// Change redefines an existing column instead of adding it.
func (c *Column) Change() *Column {
	c.change = true
	return c
}

// Drop drops the column.
func (c *Column) Drop() *Column {
	c.drop = true
	return c
}

// CreateSQL renders the column definition for CREATE TABLE and, for a
// foreign key, the constraint definition to place after all columns.
func (c *Column) CreateSQL(d dialect.Dialect) (column, constraint string, err error) {
	if c.remove != keepConstraint || c.drop || c.renameTo != "" || c.change {
		return "", "", fmt.Errorf("%w: column %q carries an alter-only mutation", ErrInvalidDefinition, c.name)
	}
	if len(c.composite) > 0 {
		return c.compositeSQL(d), "", nil
	}
	if c.foreign != nil {
		if constraint, err = c.foreignSQL(d); err != nil {
			return "", "", err
		}
	}
	if c.constraintOnly {
		return "", constraint, nil
	}
	definition, err := c.definition(d)
	if err != nil {
		return "", "", err
	}
	return d.Quote(c.name) + " " + definition, constraint, nil
}

// AlterSQL renders the ALTER TABLE fragment of the column. Mutations are
// dispatched by priority: constraint removal, drop, rename, foreign key
// (returned as constraint), change, then add.
func (c *Column) AlterSQL(d dialect.Dialect) (fragment, constraint string, err error) {
	if err := c.checkMutations(); err != nil {
		return "", "", err
	}
	f := d.Features()

	switch {
	case c.remove != keepConstraint:
		return c.removalSQL(d)
	case c.drop:
		return "DROP COLUMN " + d.Quote(c.name), "", nil
	case c.renameTo != "" && !c.change:
		return "RENAME COLUMN " + d.Quote(c.name) + " TO " + d.Quote(c.renameTo), "", nil
	}

	if len(c.composite) > 0 {
		return "ADD " + c.compositeSQL(d), "", nil
	}

	if c.foreign != nil {
		fk, err := c.foreignSQL(d)
		if err != nil {
			return "", "", err
		}
		constraint = "ADD " + fk
		if c.constraintOnly {
			return "", constraint, nil
		}
	}

	definition, err := c.definition(d)
	if err != nil {
		return "", "", err
	}

	if c.change {
		if f.ChangeColumn == "" {
			return "", "", fmt.Errorf("%w: change column on %s", dialect.ErrUnsupported, d.Name())
		}
		to := c.name
		if c.renameTo != "" {
			to = c.renameTo
		}
		return fmt.Sprintf(f.ChangeColumn, d.Quote(c.name), d.Quote(to), definition), constraint, nil
	}
	return "ADD COLUMN " + d.Quote(c.name) + " " + definition, constraint, nil
}

func (c *Column) checkMutations() error {
	if c.remove != keepConstraint && (c.drop || c.renameTo != "" || c.change) {
		return fmt.Errorf("%w: constraint removal on %q combined with another mutation", ErrConflictingMutation, c.name)
	}
	if c.drop && (c.renameTo != "" || c.change) {
		return fmt.Errorf("%w: drop of %q combined with rename or change", ErrConflictingMutation, c.name)
	}
	return nil
}

func (c *Column) removalSQL(d dialect.Dialect) (string, string, error) {
	f := d.Features()
	var format string
	switch c.remove {
	case removePrimary:
		if f.DropPrimary == "" {
			return "", "", fmt.Errorf("%w: drop primary key on %s", dialect.ErrUnsupported, d.Name())
		}
		return f.DropPrimary, "", nil
	case removeForeign:
		format = f.DropForeign
	default:
		format = f.DropIndex
	}
	if format == "" {
		return "", "", fmt.Errorf("%w: drop constraint on %s", dialect.ErrUnsupported, d.Name())
	}
	return fmt.Sprintf(format, d.Quote(c.constraint)), "", nil
}

func (c *Column) compositeSQL(d dialect.Dialect) string {
	quoted := make([]string, len(c.composite))
	for i, name := range c.composite {
		quoted[i] = d.Quote(name)
	}
	columns := "(" + strings.Join(quoted, ", ") + ")"

	var parts []string
	if c.constraint != "" {
		parts = append(parts, "CONSTRAINT "+d.Quote(c.constraint))
	}
	if c.primary {
		parts = append(parts, "PRIMARY KEY "+columns)
	} else {
		parts = append(parts, "UNIQUE "+columns)
	}
	return strings.Join(parts, " ")
}

func (c *Column) foreignSQL(d dialect.Dialect) (string, error) {
	fk := c.foreign
	if fk.Table == "" || fk.Column == "" {
		return "", fmt.Errorf("%w: foreign key %q has no reference", ErrInvalidDefinition, c.constraint)
	}
	sql := "CONSTRAINT " + d.Quote(c.constraint) +
		" FOREIGN KEY (" + d.Quote(c.name) + ") REFERENCES " + d.Quote(fk.Table) + "(" + d.Quote(fk.Column) + ")"
	if fk.OnUpdate != "" {
		sql += " ON UPDATE " + fk.OnUpdate
	}
	if fk.OnDelete != "" {
		sql += " ON DELETE " + fk.OnDelete
	}
	return sql, nil
}

// definition renders everything after the column name.
func (c *Column) definition(d dialect.Dialect) (string, error) {
	if c.name == "" {
		return "", fmt.Errorf("%w: column without a name", ErrInvalidDefinition)
	}
	if c.typ == dialect.Enum && len(c.values) == 0 && c.length == 0 {
		return "", fmt.Errorf("%w: enum %q without values", ErrInvalidDefinition, c.name)
	}
	f := d.Features()

	parts := []string{d.TypeName(dialect.TypeSpec{
		Type:          c.typ,
		Length:        c.length,
		Precision:     c.precision,
		Values:        c.values,
		AutoIncrement: c.autoIncrement,
	})}

	if c.unsigned && f.Unsigned {
		parts = append(parts, "UNSIGNED")
	}
	if c.unique {
		parts = append(parts, "UNIQUE")
	}
	if c.autoIncrement && f.AutoIncrement != "" && !f.AutoIncrementAfterPrimary {
		parts = append(parts, f.AutoIncrement)
	}
	if c.nullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if c.primary {
		parts = append(parts, "PRIMARY KEY")
		if c.autoIncrement && f.AutoIncrementAfterPrimary {
			parts = append(parts, f.AutoIncrement)
		}
	}

	switch {
	case c.hasDefault:
		literal, err := defaultLiteral(d, c.def)
		if err != nil {
			return "", fmt.Errorf("column %q: %w", c.name, err)
		}
		parts = append(parts, "DEFAULT "+literal)
	case c.useCurrent:
		parts = append(parts, "DEFAULT CURRENT_TIMESTAMP")
	}

	if c.useCurrentOnUpdate && f.OnUpdateTimestamp {
		parts = append(parts, "ON UPDATE CURRENT_TIMESTAMP")
	}
	if c.comment != "" && f.Comments {
		parts = append(parts, "COMMENT "+quoteString(c.comment))
	}
	if c.after != "" && f.ColumnPosition {
		parts = append(parts, "AFTER "+d.Quote(c.after))
	}
	return strings.Join(parts, " "), nil
}

func defaultLiteral(d dialect.Dialect, v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case Raw:
		return x.SQL(), nil
	case string:
		return quoteString(x), nil
	case bool:
		if x {
			return d.Features().TrueLiteral, nil
		}
		return d.Features().FalseLiteral, nil
	case int:
		return strconv.Itoa(x), nil
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", x), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return quoteString(x.Format("2006-01-02 15:04:05")), nil
	default:
		return "", fmt.Errorf("%w: unsupported default %T", ErrInvalidDefinition, v)
	}
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
