// Package database is the execution gateway: it runs SQL with positional
// parameters and returns generic rows.
package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimeLayout is used to render time values found in result rows.
const TimeLayout = "2006-01-02 15:04:05"

var (
	// ErrUnknownDriver is returned when a connection names an unsupported driver.
	ErrUnknownDriver = errors.New("database: unknown driver")

	// ErrUnknownConnection is returned when a registry has no such connection.
	ErrUnknownConnection = errors.New("database: unknown connection")

	// ErrNotConnected is returned when a closed connection is used.
	ErrNotConnected = errors.New("database: not connected")

	// ErrUniqueViolation classifies unique constraint violations.
	ErrUniqueViolation = errors.New("database: unique constraint violation")

	// ErrForeignKeyViolation classifies foreign key constraint violations.
	ErrForeignKeyViolation = errors.New("database: foreign key constraint violation")

	// ErrNotNullViolation classifies NOT NULL constraint violations.
	ErrNotNullViolation = errors.New("database: not null constraint violation")
)

// Row is one result record. Values are normalized to string, int64,
// float64, bool or nil.
type Row map[string]any

// Executor runs SQL statements. It is the only I/O primitive the query
// builder, the schema builder and the migration runner depend on.
type Executor interface {
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string, args ...any) error

	// Query runs a statement and returns all its rows.
	Query(ctx context.Context, query string, args ...any) ([]Row, error)
}

// ExecError wraps a failure reported by the database for one statement.
type ExecError struct {
	Query string
	Args  []any
	Err   error
	// Kind is one of the classification sentinels, or nil.
	Kind error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// Is matches the classification sentinel of the error.
func (e *ExecError) Is(target error) bool {
	return e.Kind != nil && e.Kind == target
}

// IsUniqueViolation checks if an error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, ErrUniqueViolation)
}

// IsForeignKeyViolation checks if an error is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, ErrForeignKeyViolation)
}

// Normalize converts a driver value to one of the Row value types.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, int64, float64:
		return x
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		return normalizeUint(uint64(x))
	case uint64:
		return normalizeUint(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.Format(TimeLayout)
	default:
		return fmt.Sprint(x)
	}
}

// normalizeUint keeps values that do not fit in an int64 as decimal strings.
func normalizeUint(x uint64) any {
	if x > math.MaxInt64 {
		return strconv.FormatUint(x, 10)
	}
	return int64(x)
}
