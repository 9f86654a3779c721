package query

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/satishbabariya/sqlkit/database"
)

// Kind tells how many children a parent row receives.
type Kind int

const (
	HasMany Kind = iota
	HasOne
)

func (k Kind) String() string {
	if k == HasOne {
		return "hasOne"
	}
	return "hasMany"
}

// Relation declares a parent to child association. Children are the rows
// of Table whose ForeignKey equals the parent's LocalKey.
type Relation struct {
	Name       string
	Table      string
	LocalKey   string
	ForeignKey string
	Kind       Kind
}

// Relations is a registry of relations by name.
type Relations struct {
	mu     sync.RWMutex
	byName map[string]Relation
}

// NewRelations creates a registry holding rels.
func NewRelations(rels ...Relation) (*Relations, error) {
	r := &Relations{byName: make(map[string]Relation)}
	for _, rel := range rels {
		if err := r.Register(rel); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a relation. LocalKey defaults to "id".
func (r *Relations) Register(rel Relation) error {
	if rel.Name == "" || rel.Table == "" || rel.ForeignKey == "" {
		return fmt.Errorf("relation %q: name, table and foreign key are required", rel.Name)
	}
	if rel.LocalKey == "" {
		rel.LocalKey = "id"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[rel.Name] = rel
	return nil
}

// Lookup returns the relation registered under name.
func (r *Relations) Lookup(name string) (Relation, bool) {
	if r == nil {
		return Relation{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rel, ok := r.byName[name]
	return rel, ok
}

// With eager loads the named relation. filter, when not nil, receives the
// child builder and may add predicates, ordering or nested With calls. It
// runs immediately so that its errors surface before any query. The foreign
// key is added to a narrowed projection. Every parent receives its own copy
// of the child rows.
func (b *Builder) With(name string, filter func(*Builder)) *Builder {
	rel, ok := b.relations.Lookup(name)
	if !ok {
		return b.fail(fmt.Errorf("%w: %q", ErrUnknownRelation, name))
	}
	child := b.fork().Table(rel.Table)
	if filter != nil {
		filter(child)
		if child.err != nil {
			return b.fail(child.err)
		}
	}
	b.with = append(b.with, usage{relation: rel, child: child})
	return b
}

// resolve runs one query per relation usage and attaches the children to
// rows under the relation name.
func (b *Builder) resolve(ctx context.Context, rows []database.Row) error {
	for _, u := range b.with {
		rel := u.relation

		keys := distinctValues(rows, rel.LocalKey)
		children := map[string][]database.Row{}
		if len(keys) > 0 {
			child := u.child.clone()
			child.scope(rel.ForeignKey, keys)

			found, err := child.Get(ctx)
			if err != nil {
				return fmt.Errorf("relation %q: %w", rel.Name, err)
			}
			for _, row := range found {
				key := keyOf(row[rel.ForeignKey])
				children[key] = append(children[key], row)
			}
		}

		for _, row := range rows {
			matches := children[keyOf(row[rel.LocalKey])]
			if row[rel.LocalKey] == nil {
				matches = nil
			}
			if rel.Kind == HasOne {
				if len(matches) > 0 {
					row[rel.Name] = maps.Clone(matches[0])
				} else {
					row[rel.Name] = nil
				}
				continue
			}
			own := make([]database.Row, len(matches))
			for i, m := range matches {
				own[i] = maps.Clone(m)
			}
			row[rel.Name] = own
		}
	}
	return nil
}

// scope restricts the builder to rows whose column is in keys. Predicates
// added by a relation filter are grouped behind the restriction.
func (b *Builder) scope(column string, keys []any) {
	if len(b.columns) > 0 && !b.projects(column) {
		b.columns = append(b.columns, column)
	}
	restriction := SetTest{Link: And, Column: column, Values: keys}
	if len(b.where) == 0 {
		b.where = []Predicate{restriction}
		return
	}
	filter := b.fork()
	filter.where = b.where
	b.where = []Predicate{restriction, Group{Link: And, Sub: filter}}
}

// projects reports whether the projection already yields column.
func (b *Builder) projects(column string) bool {
	want := b.dialect.Quote(column)
	for _, c := range b.columns {
		if c == "*" || c == column || b.dialect.Quote(c) == want {
			return true
		}
		if strings.HasSuffix(c, "."+column) || strings.HasSuffix(c, ".*") {
			return true
		}
	}
	return false
}

// distinctValues returns the non-nil values of column, first seen first.
func distinctValues(rows []database.Row, column string) []any {
	seen := make(map[string]bool)
	var values []any
	for _, row := range rows {
		v, ok := row[column]
		if !ok || v == nil {
			continue
		}
		key := keyOf(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, v)
	}
	return values
}

// keyOf normalizes a key so that 1, int64(1) and "1" match.
func keyOf(v any) string {
	return fmt.Sprint(v)
}
