// Package filter parses the textual where clause accepted by the CLI and
// applies it to a query builder.
//
//	age >= 18 and (role in ('admin', 'owner') or deleted_at is null)
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/sqlkit/query"
)

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(and|or|not|in|between|like|is|null|true|false)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[-+]?\d+(\.\d+)?`},
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Operator", Pattern: `<>|!=|<=|>=|=|<|>`},
	{Name: "Punct", Pattern: `[(),.]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[Expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(4),
)

// Expression is a disjunction of conjunctions.
type Expression struct {
	Pos lexer.Position

	Or []*Conjunction `@@ ( "or" @@ )*`
}

type Conjunction struct {
	Pos lexer.Position

	And []*Term `@@ ( "and" @@ )*`
}

// Term is a parenthesised group or a single condition.
type Term struct {
	Pos lexer.Position

	Group     *Expression `  "(" @@ ")"`
	Condition *Condition  `| @@`
}

type Condition struct {
	Pos lexer.Position

	Column  string   `@Ident ( @"." @Ident )*`
	Null    *Null    `( @@`
	Between *Between `| @@`
	In      *In      `| @@`
	Like    *Like    `| @@`
	Compare *Compare `| @@ )`
}

type Null struct {
	Not bool `"is" @"not"? "null"`
}

type Between struct {
	Not   bool   `@"not"? "between"`
	Lower *Value `@@`
	Upper *Value `"and" @@`
}

type In struct {
	Not    bool     `@"not"? "in"`
	Values []*Value `"(" ( @@ ( "," @@ )* )? ")"`
}

type Like struct {
	Not     bool   `@"not"? "like"`
	Pattern *Value `@@`
}

type Compare struct {
	Operator string `@Operator`
	Value    *Value `@@`
}

type Value struct {
	Pos lexer.Position

	String *string `  @String`
	Number *string `| @Number`
	Bool   *string `| @( "true" | "false" )`
	Null   bool    `| @"null"`
}

// Parse parses a filter expression.
func Parse(input string) (*Expression, error) {
	expr, err := parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return expr, nil
}

// Apply parses input and adds the resulting predicates to b. An empty input
// leaves b untouched.
func Apply(b *query.Builder, input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	expr, err := Parse(input)
	if err != nil {
		return err
	}
	if err := expr.apply(b); err != nil {
		return err
	}
	return b.Err()
}

func (e *Expression) apply(b *query.Builder) error {
	for i, conj := range e.Or {
		for j, t := range conj.And {
			if err := t.apply(b, i > 0 && j == 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Term) apply(b *query.Builder, or bool) error {
	if t.Group == nil {
		return t.Condition.apply(b, or)
	}

	var inner error
	fn := func(g *query.Builder) {
		inner = t.Group.apply(g)
	}
	if or {
		b.OrWhereGroup(fn)
	} else {
		b.WhereGroup(fn)
	}
	return inner
}

func (c *Condition) apply(b *query.Builder, or bool) error {
	switch {
	case c.Null != nil:
		switch {
		case c.Null.Not && or:
			b.OrWhereNotNull(c.Column)
		case c.Null.Not:
			b.WhereNotNull(c.Column)
		case or:
			b.OrWhereNull(c.Column)
		default:
			b.WhereNull(c.Column)
		}

	case c.Between != nil:
		lo, err := c.Between.Lower.value()
		if err != nil {
			return err
		}
		hi, err := c.Between.Upper.value()
		if err != nil {
			return err
		}
		switch {
		case c.Between.Not && or:
			b.OrWhereNotBetween(c.Column, lo, hi)
		case c.Between.Not:
			b.WhereNotBetween(c.Column, lo, hi)
		case or:
			b.OrWhereBetween(c.Column, lo, hi)
		default:
			b.WhereBetween(c.Column, lo, hi)
		}

	case c.In != nil:
		values := make([]any, 0, len(c.In.Values))
		for _, v := range c.In.Values {
			val, err := v.value()
			if err != nil {
				return err
			}
			values = append(values, val)
		}
		switch {
		case c.In.Not && or:
			b.OrWhereNotIn(c.Column, values)
		case c.In.Not:
			b.WhereNotIn(c.Column, values)
		case or:
			b.OrWhereIn(c.Column, values)
		default:
			b.WhereIn(c.Column, values)
		}

	case c.Like != nil:
		pattern, err := c.Like.Pattern.value()
		if err != nil {
			return err
		}
		op := "LIKE"
		if c.Like.Not {
			op = "NOT LIKE"
		}
		where(b, or, c.Column, op, pattern)

	case c.Compare != nil && c.Compare.Value.Null:
		switch c.Compare.Operator {
		case "=":
			return (&Condition{Column: c.Column, Null: &Null{}}).apply(b, or)
		case "!=", "<>":
			return (&Condition{Column: c.Column, Null: &Null{Not: true}}).apply(b, or)
		}
		return fmt.Errorf("filter: %s: %s cannot compare with null", c.Pos, c.Compare.Operator)

	case c.Compare != nil:
		val, err := c.Compare.Value.value()
		if err != nil {
			return err
		}
		where(b, or, c.Column, c.Compare.Operator, val)
	}
	return nil
}

func where(b *query.Builder, or bool, column, op string, value any) {
	if or {
		b.OrWhere(column, op, value)
		return
	}
	b.Where(column, op, value)
}

func (v *Value) value() (any, error) {
	switch {
	case v.String != nil:
		s := *v.String
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), nil
	case v.Number != nil:
		if !strings.Contains(*v.Number, ".") {
			n, err := strconv.ParseInt(*v.Number, 10, 64)
			if err == nil {
				return n, nil
			}
		}
		f, err := strconv.ParseFloat(*v.Number, 64)
		if err != nil {
			return nil, fmt.Errorf("filter: %s: invalid number %q", v.Pos, *v.Number)
		}
		return f, nil
	case v.Bool != nil:
		return strings.EqualFold(*v.Bool, "true"), nil
	}
	return nil, nil
}
