package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/satishbabariya/sqlkit/database"
)

// Rule converts one column value.
type Rule func(value any) any

// defaultLayout is used by date rules without an explicit layout.
const defaultLayout = database.TimeLayout

// ParseCast parses a read side rule: "string", "int", "float[:precision]",
// "bool", "array[:sep]", "json", "date[:layout]", "csv[:sep]", "pipe",
// "sep:<sep>" or "null".
func ParseCast(spec string) (Rule, error) {
	kind, param, hasParam := strings.Cut(spec, ":")
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "string", "str":
		return func(v any) any {
			if v == nil {
				return ""
			}
			return cast.ToString(v)
		}, nil
	case "int", "integer":
		return func(v any) any { return cast.ToInt64(v) }, nil
	case "float", "double", "decimal":
		precision, err := parsePrecision(spec, param, hasParam)
		if err != nil {
			return nil, err
		}
		return func(v any) any { return round(cast.ToFloat64(v), precision) }, nil
	case "bool", "boolean":
		return func(v any) any { return toBool(v) }, nil
	case "array", "csv", "comma":
		return splitRule(param, ","), nil
	case "pipe":
		return splitRule(param, "|"), nil
	case "separator", "sep":
		return splitRule(param, ","), nil
	case "json":
		return func(v any) any {
			s := cast.ToString(v)
			if s == "" {
				return nil
			}
			var decoded any
			if err := json.Unmarshal([]byte(s), &decoded); err != nil {
				return nil
			}
			return decoded
		}, nil
	case "date", "datetime":
		return func(v any) any {
			if v == nil || v == "" {
				return nil
			}
			if s, ok := v.(string); ok && hasParam {
				t, err := time.Parse(param, s)
				if err != nil {
					return nil
				}
				return t
			}
			t, err := cast.ToTimeE(v)
			if err != nil {
				return nil
			}
			return t
		}, nil
	case "null":
		return func(any) any { return nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRule, spec)
	}
}

// ParseNormalize parses a write side rule. It accepts the same names as
// ParseCast but converts toward values a driver can bind: "float:2,string"
// renders a fixed point string, "json" encodes, "date[:layout]" formats and
// the list rules join.
func ParseNormalize(spec string) (Rule, error) {
	kind, param, hasParam := strings.Cut(spec, ":")
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "string", "str":
		return func(v any) any { return cast.ToString(v) }, nil
	case "int", "integer":
		return func(v any) any { return cast.ToInt64(v) }, nil
	case "float", "double", "decimal":
		digits, format, _ := strings.Cut(param, ",")
		precision, err := parsePrecision(spec, digits, hasParam)
		if err != nil {
			return nil, err
		}
		return func(v any) any {
			f := round(cast.ToFloat64(v), precision)
			if format == "string" && precision >= 0 {
				return strconv.FormatFloat(f, 'f', precision, 64)
			}
			return f
		}, nil
	case "bool", "boolean":
		return func(v any) any { return toBool(v) }, nil
	case "array":
		return func(v any) any {
			if list, err := toSlice(v); err == nil {
				return list
			}
			return []any{v}
		}, nil
	case "json":
		return func(v any) any {
			if s, ok := v.(string); ok {
				return s
			}
			encoded, err := json.Marshal(v)
			if err != nil {
				return "{}"
			}
			return string(encoded)
		}, nil
	case "date", "datetime":
		layout := defaultLayout
		if hasParam && param != "" {
			layout = param
		}
		return func(v any) any {
			t, err := cast.ToTimeE(v)
			if err != nil {
				return v
			}
			return t.Format(layout)
		}, nil
	case "csv", "comma":
		return joinRule(param, ","), nil
	case "pipe":
		return joinRule(param, "|"), nil
	case "separator", "sep":
		return joinRule(param, ","), nil
	case "null":
		return func(any) any { return nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidRule, spec)
	}
}

// Casts sets rules applied to every fetched row.
func (b *Builder) Casts(rules map[string]string) *Builder {
	for column, spec := range rules {
		rule, err := ParseCast(spec)
		if err != nil {
			return b.fail(fmt.Errorf("cast %q: %w", column, err))
		}
		b.CastWith(column, rule)
	}
	return b
}

// CastWith sets a custom read side rule for column.
func (b *Builder) CastWith(column string, rule Rule) *Builder {
	if b.casts == nil {
		b.casts = make(map[string]Rule)
	}
	b.casts[column] = rule
	return b
}

// Normalize sets rules applied to values before Insert and Update.
func (b *Builder) Normalize(rules map[string]string) *Builder {
	for column, spec := range rules {
		rule, err := ParseNormalize(spec)
		if err != nil {
			return b.fail(fmt.Errorf("normalize %q: %w", column, err))
		}
		b.NormalizeWith(column, rule)
	}
	return b
}

// NormalizeWith sets a custom write side rule for column.
func (b *Builder) NormalizeWith(column string, rule Rule) *Builder {
	if b.normalize == nil {
		b.normalize = make(map[string]Rule)
	}
	b.normalize[column] = rule
	return b
}

// applyCasts converts the listed columns of rows in place.
func (b *Builder) applyCasts(rows []database.Row) {
	if len(b.casts) == 0 {
		return
	}
	for _, row := range rows {
		for column, rule := range b.casts {
			if v, ok := row[column]; ok {
				row[column] = rule(v)
			}
		}
	}
}

// applyNormalize returns a copy of values with the listed non-nil columns
// converted.
func (b *Builder) applyNormalize(values map[string]any) map[string]any {
	if len(b.normalize) == 0 {
		return values
	}
	out := make(map[string]any, len(values))
	for column, v := range values {
		if rule, ok := b.normalize[column]; ok && v != nil {
			if _, sub := v.(func(*Builder)); !sub {
				v = rule(v)
			}
		}
		out[column] = v
	}
	return out
}

func parsePrecision(spec, param string, hasParam bool) (int, error) {
	if !hasParam || param == "" {
		return -1, nil
	}
	p, err := strconv.Atoi(param)
	if err != nil || p < 0 {
		return 0, fmt.Errorf("%w: %q: bad precision", ErrInvalidRule, spec)
	}
	return p, nil
}

func round(f float64, precision int) float64 {
	if precision < 0 {
		return f
	}
	pow := math.Pow(10, float64(precision))
	return math.Round(f*pow) / pow
}

func toBool(v any) bool {
	if s, ok := v.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes", "on", "y":
			return true
		case "", "0", "false", "no", "off", "n":
			return false
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f != 0
		}
		return false
	}
	return cast.ToBool(v)
}

// splitRule turns a delimited string into its trimmed, non-empty parts.
func splitRule(sep, def string) Rule {
	if sep == "" {
		sep = def
	}
	return func(v any) any {
		s := cast.ToString(v)
		parts := []string{}
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				parts = append(parts, part)
			}
		}
		return parts
	}
}

// joinRule joins a slice with sep. Strings pass through.
func joinRule(sep, def string) Rule {
	if sep == "" {
		sep = def
	}
	return func(v any) any {
		if s, ok := v.(string); ok {
			return s
		}
		return strings.Join(cast.ToStringSlice(v), sep)
	}
}
