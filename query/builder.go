// Package query provides a fluent SQL query builder.
//
// A Builder accumulates a table, a projection, predicates, grouping,
// ordering, pagination and relation usages. Compilation renders SQL with
// "?" placeholders and an ordered parameter list; the dialect rewrites
// placeholders of the top level statement only, so nested sub-queries
// always splice their parameters in placeholder order.
//
//	sql, args, err := query.New(dialect.MySQL{}, conn).
//		Table("users").
//		Select("id", "name").
//		Where("age", ">", 18).
//		OrWhere("active", true).
//		ToSQL()
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
)

var (
	// ErrInvalidPredicate is returned for malformed predicates.
	ErrInvalidPredicate = errors.New("query: invalid predicate")

	// ErrUnknownRelation is returned by With for unregistered relations.
	ErrUnknownRelation = errors.New("query: unknown relation")

	// ErrInvalidDirection is returned for sort directions other than ASC/DESC.
	ErrInvalidDirection = errors.New("query: invalid direction")

	// ErrInvalidValues is returned for empty or inconsistent write values.
	ErrInvalidValues = errors.New("query: invalid values")

	// ErrInvalidRule is returned for unknown cast or normalize rules.
	ErrInvalidRule = errors.New("query: invalid rule")

	// ErrNoTable is returned when a statement needs a table and has none.
	ErrNoTable = errors.New("query: no table")

	// ErrNoExecutor is returned when a builder without executor is run.
	ErrNoExecutor = errors.New("query: no executor")
)

type term struct {
	column    string
	direction string
}

type usage struct {
	relation Relation
	child    *Builder
}

// Builder accumulates the state of one statement. A Builder is not safe
// for concurrent use; every sub-query gets its own instance.
type Builder struct {
	dialect   dialect.Dialect
	executor  database.Executor
	relations *Relations

	table   string
	columns []string
	where   []Predicate
	having  *Builder
	groupBy []term
	orderBy []term
	offset  int
	count   int
	with    []usage

	casts     map[string]Rule
	normalize map[string]Rule

	err error
}

// Option configures a Builder.
type Option func(*Builder)

// WithRelations makes the registered relations available to With.
func WithRelations(r *Relations) Option {
	return func(b *Builder) {
		b.relations = r
	}
}

// New creates an empty builder. exec may be nil when the builder is only
// compiled.
func New(d dialect.Dialect, exec database.Executor, opts ...Option) *Builder {
	b := &Builder{dialect: d, executor: exec}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// fork returns a fresh builder sharing the dialect, executor and relations.
func (b *Builder) fork() *Builder {
	return &Builder{dialect: b.dialect, executor: b.executor, relations: b.relations}
}

// clone copies the builder state.
func (b *Builder) clone() *Builder {
	c := *b
	c.columns = append([]string(nil), b.columns...)
	c.where = append([]Predicate(nil), b.where...)
	c.groupBy = append([]term(nil), b.groupBy...)
	c.orderBy = append([]term(nil), b.orderBy...)
	c.with = append([]usage(nil), b.with...)
	return &c
}

// Dialect returns the dialect the builder renders for.
func (b *Builder) Dialect() dialect.Dialect {
	return b.dialect
}

// Err returns the first configuration error recorded by a fluent call.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Table sets the target table.
func (b *Builder) Table(name string) *Builder {
	b.table = name
	return b
}

// Select sets the projection. No columns means "*".
func (b *Builder) Select(columns ...string) *Builder {
	b.columns = append([]string(nil), columns...)
	return b
}

// Where adds an AND predicate. It accepts (column, value) meaning "=", or
// (column, operator, value). A func(*Builder) value compiles to a sub-query.
func (b *Builder) Where(column string, args ...any) *Builder {
	return b.addComparison(And, column, args)
}

// OrWhere adds an OR predicate with the same arguments as Where.
func (b *Builder) OrWhere(column string, args ...any) *Builder {
	return b.addComparison(Or, column, args)
}

// WhereGroup adds an AND parenthesized group built by fn.
func (b *Builder) WhereGroup(fn func(*Builder)) *Builder {
	return b.addGroup(And, fn)
}

// OrWhereGroup adds an OR parenthesized group built by fn.
func (b *Builder) OrWhereGroup(fn func(*Builder)) *Builder {
	return b.addGroup(Or, fn)
}

// WhereNull adds "column IS NULL".
func (b *Builder) WhereNull(column string) *Builder {
	return b.addPredicate(NullTest{Link: And, Column: column})
}

// OrWhereNull adds an OR "column IS NULL".
func (b *Builder) OrWhereNull(column string) *Builder {
	return b.addPredicate(NullTest{Link: Or, Column: column})
}

// WhereNotNull adds "column IS NOT NULL".
func (b *Builder) WhereNotNull(column string) *Builder {
	return b.addPredicate(NullTest{Link: And, Column: column, Not: true})
}

// OrWhereNotNull adds an OR "column IS NOT NULL".
func (b *Builder) OrWhereNotNull(column string) *Builder {
	return b.addPredicate(NullTest{Link: Or, Column: column, Not: true})
}

// WhereIn adds "column IN (...)". values is a slice or a func(*Builder)
// building a sub-query.
func (b *Builder) WhereIn(column string, values any) *Builder {
	return b.addSet(And, column, false, values)
}

// OrWhereIn is WhereIn joined with OR.
func (b *Builder) OrWhereIn(column string, values any) *Builder {
	return b.addSet(Or, column, false, values)
}

// WhereNotIn adds "column NOT IN (...)".
func (b *Builder) WhereNotIn(column string, values any) *Builder {
	return b.addSet(And, column, true, values)
}

// OrWhereNotIn is WhereNotIn joined with OR.
func (b *Builder) OrWhereNotIn(column string, values any) *Builder {
	return b.addSet(Or, column, true, values)
}

// WhereBetween adds "column BETWEEN lower AND upper".
func (b *Builder) WhereBetween(column string, lower, upper any) *Builder {
	return b.addPredicate(RangeTest{Link: And, Column: column, Lower: lower, Upper: upper})
}

// OrWhereBetween is WhereBetween joined with OR.
func (b *Builder) OrWhereBetween(column string, lower, upper any) *Builder {
	return b.addPredicate(RangeTest{Link: Or, Column: column, Lower: lower, Upper: upper})
}

// WhereNotBetween adds "column NOT BETWEEN lower AND upper".
func (b *Builder) WhereNotBetween(column string, lower, upper any) *Builder {
	return b.addPredicate(RangeTest{Link: And, Column: column, Not: true, Lower: lower, Upper: upper})
}

// OrWhereNotBetween is WhereNotBetween joined with OR.
func (b *Builder) OrWhereNotBetween(column string, lower, upper any) *Builder {
	return b.addPredicate(RangeTest{Link: Or, Column: column, Not: true, Lower: lower, Upper: upper})
}

// Having sets the HAVING clause to the predicates built by fn.
func (b *Builder) Having(fn func(*Builder)) *Builder {
	having := b.fork()
	fn(having)
	if having.err != nil {
		return b.fail(having.err)
	}
	b.having = having
	return b
}

// GroupBy adds a grouping column. Only the column is rendered; the
// direction is kept for callers inspecting the state.
func (b *Builder) GroupBy(column string, direction ...string) *Builder {
	dir := "ASC"
	if len(direction) > 0 {
		dir = direction[0]
	}
	return b.addTerm(&b.groupBy, column, dir)
}

// OrderBy adds or replaces the ordering of column.
func (b *Builder) OrderBy(column, direction string) *Builder {
	return b.addTerm(&b.orderBy, column, direction)
}

// Limit returns the first n rows.
func (b *Builder) Limit(n int) *Builder {
	b.offset = 0
	b.count = n
	return b
}

// Skip sets the number of rows to skip. It only applies with Take.
func (b *Builder) Skip(n int) *Builder {
	b.offset = n
	return b
}

// Take sets the number of rows to return.
func (b *Builder) Take(n int) *Builder {
	b.count = n
	return b
}

// Predicates returns the predicates added so far.
func (b *Builder) Predicates() []Predicate {
	return append([]Predicate(nil), b.where...)
}

func (b *Builder) addPredicate(p Predicate) *Builder {
	b.where = append(b.where, p)
	return b
}

func (b *Builder) addComparison(link Connective, column string, args []any) *Builder {
	var op string
	var value any
	switch len(args) {
	case 1:
		op, value = "=", args[0]
	case 2:
		s, ok := args[0].(string)
		if !ok {
			return b.fail(fmt.Errorf("%w: operator for %q must be a string", ErrInvalidPredicate, column))
		}
		op, value = s, args[1]
	default:
		return b.fail(fmt.Errorf("%w: %q expects a value or an operator and a value", ErrInvalidPredicate, column))
	}

	if !operators[normalizeOperator(op)] {
		return b.fail(fmt.Errorf("%w: unsupported operator %q", ErrInvalidPredicate, op))
	}

	cmp := Comparison{Link: link, Column: column, Operator: op, Value: value}
	if fn, ok := value.(func(*Builder)); ok {
		sub, err := b.subQuery(fn)
		if err != nil {
			return b.fail(err)
		}
		cmp.Value, cmp.Sub = nil, sub
	}
	return b.addPredicate(cmp)
}

func (b *Builder) addGroup(link Connective, fn func(*Builder)) *Builder {
	sub, err := b.subQuery(fn)
	if err != nil {
		return b.fail(err)
	}
	return b.addPredicate(Group{Link: link, Sub: sub})
}

func (b *Builder) addSet(link Connective, column string, not bool, values any) *Builder {
	set := SetTest{Link: link, Column: column, Not: not}
	if fn, ok := values.(func(*Builder)); ok {
		sub, err := b.subQuery(fn)
		if err != nil {
			return b.fail(err)
		}
		set.Sub = sub
		return b.addPredicate(set)
	}

	list, err := toSlice(values)
	if err != nil {
		return b.fail(fmt.Errorf("%w: %q: %v", ErrInvalidPredicate, column, err))
	}
	set.Values = list
	return b.addPredicate(set)
}

func (b *Builder) addTerm(terms *[]term, column, direction string) *Builder {
	dir := strings.ToUpper(strings.TrimSpace(direction))
	if dir != "ASC" && dir != "DESC" {
		return b.fail(fmt.Errorf("%w: %q", ErrInvalidDirection, direction))
	}
	for i, t := range *terms {
		if t.column == column {
			(*terms)[i].direction = dir
			return b
		}
	}
	*terms = append(*terms, term{column: column, direction: dir})
	return b
}

func (b *Builder) subQuery(fn func(*Builder)) (*Builder, error) {
	sub := b.fork()
	fn(sub)
	if sub.err != nil {
		return nil, sub.err
	}
	return sub, nil
}

// toSlice converts any slice or array to []any.
func toSlice(values any) ([]any, error) {
	if values == nil {
		return nil, nil
	}
	if list, ok := values.([]any); ok {
		return append([]any(nil), list...), nil
	}
	v := reflect.ValueOf(values)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a slice, got %T", values)
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, nil
}
