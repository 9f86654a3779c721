// Package migrate applies and rolls back versioned schema migrations and
// records every applied (version, source) pair in a ledger table.
//
// A Config declares the version order and the migration sources. Each
// source exposes one Operation per version name and one per rollback name:
//
//	users := migrate.NewSource("users").
//		Define("v1", func(ctx context.Context, b *schema.Builder) error {
//			return b.CreateTable(ctx, "users", func(t *schema.Table) {
//				t.ID("")
//				t.String("email", 0).Unique()
//			})
//		}).
//		Define("rollback_v1", func(ctx context.Context, b *schema.Builder) error {
//			return b.DropTable(ctx, "users")
//		})
//
//	runner := migrate.NewRunner(migrate.Declaration{
//		Order:   []string{"v1"},
//		Sources: []migrate.Source{users},
//	}, conn.Dialect(), conn)
//	err := runner.Migrate(ctx, "")
package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/satishbabariya/sqlkit/schema"
)

var (
	// ErrUnknownVersion is returned when a requested version is not declared.
	ErrUnknownVersion = errors.New("migrate: unknown version")

	// ErrMissingRollback is returned when a ledger entry exists for a source
	// that does not define the rollback operation.
	ErrMissingRollback = errors.New("migrate: missing rollback operation")

	// ErrLedgerUnavailable is returned when the ledger table cannot be created.
	ErrLedgerUnavailable = errors.New("migrate: ledger table unavailable")
)

// DefaultRollbackPrefix derives rollback names as "rollback_<version>".
const DefaultRollbackPrefix = "rollback_"

// Operation runs one migration step against a fresh schema builder.
type Operation func(ctx context.Context, b *schema.Builder) error

// Source is a named set of operations looked up by name.
type Source interface {
	Name() string
	Operation(name string) (Operation, bool)
}

// Config declares the migrations to run.
type Config interface {
	// Migrations returns the sources in declaration order.
	Migrations() []Source
	// Versions returns the version identifiers in apply order.
	Versions() []string
	// RollbackName returns the operation name that undoes version.
	RollbackName(version string) string
}

// MapSource is a Source backed by a map.
type MapSource struct {
	name       string
	operations map[string]Operation
}

// NewSource returns an empty source named name.
func NewSource(name string) *MapSource {
	return &MapSource{name: name, operations: make(map[string]Operation)}
}

// Define registers op under name, replacing any previous definition.
func (s *MapSource) Define(name string, op Operation) *MapSource {
	s.operations[name] = op
	return s
}

// Name returns the source name recorded in the ledger.
func (s *MapSource) Name() string { return s.name }

// Operation returns the operation defined under name.
func (s *MapSource) Operation(name string) (Operation, bool) {
	op, ok := s.operations[name]
	return op, ok
}

// Declaration is a static Config.
type Declaration struct {
	Order   []string
	Sources []Source
	// RollbackPrefix defaults to DefaultRollbackPrefix.
	RollbackPrefix string
}

// Migrations returns the sources in declaration order.
func (d Declaration) Migrations() []Source { return d.Sources }

// Versions returns the declared version order.
func (d Declaration) Versions() []string { return d.Order }

// RollbackName prefixes version with RollbackPrefix, or with
// DefaultRollbackPrefix when none is set.
func (d Declaration) RollbackName(version string) string {
	if d.RollbackPrefix == "" {
		return DefaultRollbackPrefix + version
	}
	return d.RollbackPrefix + version
}

// indexOf returns the position of version in versions, or -1.
func indexOf(versions []string, version string) int {
	for i, v := range versions {
		if v == version {
			return i
		}
	}
	return -1
}

func assertVersion(cfg Config, version string) error {
	if version == "" || indexOf(cfg.Versions(), version) >= 0 {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownVersion, version)
}

var (
	_ Source = (*MapSource)(nil)
	_ Config = Declaration{}
)
