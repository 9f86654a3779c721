package query

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/sqlkit/dialect"
)

// Connective joins a predicate to the one before it.
type Connective string

const (
	And Connective = "AND"
	Or  Connective = "OR"
)

// Predicate is one node of a WHERE or HAVING clause. The connective of the
// first node of a clause is never rendered.
type Predicate interface {
	connective() Connective
	render(d dialect.Dialect) (string, []any, error)
}

var operators = map[string]bool{
	"=": true, "!=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "NOT LIKE": true, "IS": true, "IS NOT": true,
}

// literals accepted on the right hand side of IS / IS NOT.
var literals = map[string]bool{
	"NULL": true, "NOT NULL": true, "TRUE": true, "FALSE": true,
}

// Comparison is "<column> <operator> <value>". When Sub is set the value is
// the compiled sub-query.
type Comparison struct {
	Link     Connective
	Column   string
	Operator string
	Value    any
	Sub      *Builder
}

func (c Comparison) connective() Connective { return c.Link }

func (c Comparison) render(d dialect.Dialect) (string, []any, error) {
	op := normalizeOperator(c.Operator)
	if !operators[op] {
		return "", nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidPredicate, c.Operator)
	}
	column := d.Quote(c.Column)

	if op == "IS" || op == "IS NOT" {
		rhs, err := isLiteral(c.Value)
		if err != nil {
			return "", nil, err
		}
		if op == "IS NOT" && rhs == "NOT NULL" {
			return "", nil, fmt.Errorf("%w: IS NOT NOT NULL", ErrInvalidPredicate)
		}
		return column + " " + op + " " + rhs, nil, nil
	}

	if c.Sub != nil {
		sub, args, err := c.Sub.compileNested()
		if err != nil {
			return "", nil, err
		}
		return column + " " + op + " (" + sub + ")", args, nil
	}
	return column + " " + op + " ?", []any{c.Value}, nil
}

// NullTest is "<column> IS [NOT] NULL".
type NullTest struct {
	Link   Connective
	Column string
	Not    bool
}

func (n NullTest) connective() Connective { return n.Link }

func (n NullTest) render(d dialect.Dialect) (string, []any, error) {
	if n.Not {
		return d.Quote(n.Column) + " IS NOT NULL", nil, nil
	}
	return d.Quote(n.Column) + " IS NULL", nil, nil
}

// SetTest is "<column> [NOT] IN (...)" over literal values or a sub-query.
type SetTest struct {
	Link   Connective
	Column string
	Not    bool
	Values []any
	Sub    *Builder
}

func (s SetTest) connective() Connective { return s.Link }

func (s SetTest) render(d dialect.Dialect) (string, []any, error) {
	op := " IN "
	if s.Not {
		op = " NOT IN "
	}

	if s.Sub != nil {
		sub, args, err := s.Sub.compileNested()
		if err != nil {
			return "", nil, err
		}
		return d.Quote(s.Column) + op + "(" + sub + ")", args, nil
	}

	// An empty set matches nothing, its negation everything.
	if len(s.Values) == 0 {
		if s.Not {
			return "1 = 1", nil, nil
		}
		return "1 = 0", nil, nil
	}

	marks := strings.TrimSuffix(strings.Repeat("?, ", len(s.Values)), ", ")
	args := make([]any, len(s.Values))
	copy(args, s.Values)
	return d.Quote(s.Column) + op + "(" + marks + ")", args, nil
}

// RangeTest is "<column> [NOT] BETWEEN ? AND ?".
type RangeTest struct {
	Link         Connective
	Column       string
	Not          bool
	Lower, Upper any
}

func (r RangeTest) connective() Connective { return r.Link }

func (r RangeTest) render(d dialect.Dialect) (string, []any, error) {
	op := " BETWEEN "
	if r.Not {
		op = " NOT BETWEEN "
	}
	return d.Quote(r.Column) + op + "? AND ?", []any{r.Lower, r.Upper}, nil
}

// Group is a parenthesized sub-builder: its full SELECT when it has a
// table, otherwise its WHERE body.
type Group struct {
	Link Connective
	Sub  *Builder
}

func (g Group) connective() Connective { return g.Link }

func (g Group) render(_ dialect.Dialect) (string, []any, error) {
	sub, args, err := g.Sub.compileNested()
	if err != nil {
		return "", nil, err
	}
	if sub == "" {
		return "", nil, fmt.Errorf("%w: empty group", ErrInvalidPredicate)
	}
	return "(" + sub + ")", args, nil
}

func normalizeOperator(op string) string {
	return strings.Join(strings.Fields(strings.ToUpper(op)), " ")
}

func isLiteral(v any) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	s, ok := v.(string)
	if !ok {
		if b, isBool := v.(bool); isBool {
			if b {
				return "TRUE", nil
			}
			return "FALSE", nil
		}
		return "", fmt.Errorf("%w: IS expects NULL, NOT NULL, TRUE or FALSE, got %v", ErrInvalidPredicate, v)
	}
	lit := normalizeOperator(s)
	if !literals[lit] {
		return "", fmt.Errorf("%w: IS expects NULL, NOT NULL, TRUE or FALSE, got %q", ErrInvalidPredicate, s)
	}
	return lit, nil
}

// renderPredicates joins nodes with their connectives.
func renderPredicates(d dialect.Dialect, nodes []Predicate) (string, []any, error) {
	var b strings.Builder
	var args []any
	for i, node := range nodes {
		sql, nodeArgs, err := node.render(d)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			link := node.connective()
			if link == "" {
				link = And
			}
			b.WriteString(" " + string(link) + " ")
		}
		b.WriteString(sql)
		args = append(args, nodeArgs...)
	}
	return b.String(), args, nil
}
