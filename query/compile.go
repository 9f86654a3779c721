package query

import (
	"fmt"
	"sort"
	"strings"
)

// ToSQL compiles the SELECT statement. Parameters are recomputed on every
// call, so compiling an unchanged builder twice yields identical output.
func (b *Builder) ToSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.table == "" {
		return "", nil, ErrNoTable
	}
	sql, args, err := b.compileSelect()
	if err != nil {
		return "", nil, err
	}
	return b.dialect.Rebind(sql), args, nil
}

// DeleteSQL compiles "DELETE FROM <table> [WHERE ...]".
func (b *Builder) DeleteSQL() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.table == "" {
		return "", nil, ErrNoTable
	}
	sql, args, err := b.conditions("DELETE FROM " + b.dialect.Quote(b.table))
	if err != nil {
		return "", nil, err
	}
	return b.dialect.Rebind(sql), args, nil
}

// InsertSQL compiles a single row INSERT. Columns are rendered sorted.
func (b *Builder) InsertSQL(values map[string]any) (string, []any, error) {
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: nothing to insert", ErrInvalidValues)
	}
	return b.InsertManySQL([]map[string]any{values})
}

// InsertManySQL compiles a multi row INSERT. Every row must carry the same
// columns.
func (b *Builder) InsertManySQL(rows []map[string]any) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.table == "" {
		return "", nil, ErrNoTable
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil, fmt.Errorf("%w: nothing to insert", ErrInvalidValues)
	}

	columns := sortedKeys(rows[0])
	quoted := make([]string, len(columns))
	for i, column := range columns {
		quoted[i] = b.dialect.Quote(column)
	}

	mark := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	marks := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrInvalidValues, i, len(row), len(columns))
		}
		for _, column := range columns {
			value, ok := row[column]
			if !ok {
				return "", nil, fmt.Errorf("%w: row %d is missing %q", ErrInvalidValues, i, column)
			}
			args = append(args, value)
		}
		marks[i] = mark
	}

	sql := "INSERT INTO " + b.dialect.Quote(b.table) +
		" (" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(marks, ", ")
	return b.dialect.Rebind(sql), args, nil
}

// UpdateSQL compiles "UPDATE <table> SET ... [WHERE ...]". A func(*Builder)
// value is rendered as a parenthesized sub-select.
func (b *Builder) UpdateSQL(values map[string]any) (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.table == "" {
		return "", nil, ErrNoTable
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("%w: nothing to update", ErrInvalidValues)
	}

	var args []any
	sets := make([]string, 0, len(values))
	for _, column := range sortedKeys(values) {
		value := values[column]
		if fn, ok := value.(func(*Builder)); ok {
			sub, err := b.subQuery(fn)
			if err != nil {
				return "", nil, err
			}
			subSQL, subArgs, err := sub.compileNested()
			if err != nil {
				return "", nil, err
			}
			sets = append(sets, b.dialect.Quote(column)+" = ("+subSQL+")")
			args = append(args, subArgs...)
			continue
		}
		sets = append(sets, b.dialect.Quote(column)+" = ?")
		args = append(args, value)
	}

	sql, condArgs, err := b.conditions("UPDATE " + b.dialect.Quote(b.table) + " SET " + strings.Join(sets, ", "))
	if err != nil {
		return "", nil, err
	}
	return b.dialect.Rebind(sql), append(args, condArgs...), nil
}

// compileNested renders a sub-builder: its full SELECT when it has a table,
// otherwise its bare WHERE body. Placeholders stay "?".
func (b *Builder) compileNested() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}
	if b.table == "" {
		return renderPredicates(b.dialect, b.where)
	}
	return b.compileSelect()
}

func (b *Builder) compileSelect() (string, []any, error) {
	columns := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, column := range b.columns {
			quoted[i] = b.dialect.Quote(column)
		}
		columns = strings.Join(quoted, ", ")
	}
	return b.conditions("SELECT " + columns + " FROM " + b.dialect.Quote(b.table))
}

// conditions appends WHERE, GROUP BY, ORDER BY, HAVING and the limit, in
// that order.
func (b *Builder) conditions(head string) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(head)

	where, args, err := renderPredicates(b.dialect, b.where)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE " + where)
	}

	if len(b.groupBy) > 0 {
		columns := make([]string, len(b.groupBy))
		for i, t := range b.groupBy {
			columns[i] = b.dialect.Quote(t.column)
		}
		sb.WriteString(" GROUP BY " + strings.Join(columns, ", "))
	}

	if len(b.orderBy) > 0 {
		terms := make([]string, len(b.orderBy))
		for i, t := range b.orderBy {
			terms[i] = b.dialect.Quote(t.column) + " " + t.direction
		}
		sb.WriteString(" ORDER BY " + strings.Join(terms, ", "))
	}

	if b.having != nil {
		having, havingArgs, err := renderPredicates(b.dialect, b.having.where)
		if err != nil {
			return "", nil, err
		}
		if having != "" {
			sb.WriteString(" HAVING " + having)
			args = append(args, havingArgs...)
		}
	}

	if b.count > 0 {
		sb.WriteString(" " + b.dialect.Limit(b.offset, b.count, len(b.orderBy) > 0))
	}
	return sb.String(), args, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
