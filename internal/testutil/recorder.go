// Package testutil provides a recording fake of database.Executor.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/satishbabariya/sqlkit/database"
)

// Statement is one recorded call.
type Statement struct {
	SQL  string
	Args []any
}

// Recorder records every statement it receives. Query answers come from
// responders matched by SQL prefix or substring, in registration order.
type Recorder struct {
	mu         sync.Mutex
	statements []Statement
	responders []responder
	failures   []responder
}

type responder struct {
	match string
	rows  func(args []any) []database.Row
	err   error
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnQuery answers queries containing match with rows.
func (r *Recorder) OnQuery(match string, rows ...database.Row) *Recorder {
	return r.OnQueryFunc(match, func([]any) []database.Row { return rows })
}

// OnQueryFunc answers queries containing match with the rows fn returns.
func (r *Recorder) OnQueryFunc(match string, fn func(args []any) []database.Row) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responders = append(r.responders, responder{match: match, rows: fn})
	return r
}

// FailOn makes any statement containing match return err.
func (r *Recorder) FailOn(match string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, responder{match: match, err: err})
	return r
}

// Execute implements database.Executor.
func (r *Recorder) Execute(_ context.Context, query string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = append(r.statements, Statement{SQL: query, Args: args})
	return r.failure(query)
}

// Query implements database.Executor.
func (r *Recorder) Query(_ context.Context, query string, args ...any) ([]database.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statements = append(r.statements, Statement{SQL: query, Args: args})
	if err := r.failure(query); err != nil {
		return nil, err
	}
	for _, resp := range r.responders {
		if strings.Contains(query, resp.match) {
			return resp.rows(args), nil
		}
	}
	return []database.Row{}, nil
}

func (r *Recorder) failure(query string) error {
	for _, f := range r.failures {
		if strings.Contains(query, f.match) {
			return f.err
		}
	}
	return nil
}

// Statements returns a copy of everything recorded so far.
func (r *Recorder) Statements() []Statement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Statement(nil), r.statements...)
}

// SQL returns the recorded statement texts.
func (r *Recorder) SQL() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.statements))
	for i, s := range r.statements {
		out[i] = s.SQL
	}
	return out
}

// Count returns how many statements contain match.
func (r *Recorder) Count(match string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.statements {
		if strings.Contains(s.SQL, match) {
			n++
		}
	}
	return n
}

// Reset forgets the recorded statements but keeps the responders.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = nil
}

var _ database.Executor = (*Recorder)(nil)
