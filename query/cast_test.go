package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/internal/testutil"
	"github.com/satishbabariya/sqlkit/query"
)

func TestParseCast(t *testing.T) {
	tests := []struct {
		rule  string
		input any
		want  any
	}{
		{"string", int64(5), "5"},
		{"string", nil, ""},
		{"int", "42", int64(42)},
		{"int", nil, int64(0)},
		{"float", "1.25", 1.25},
		{"float:1", 1.26, 1.3},
		{"bool", "yes", true},
		{"bool", "off", false},
		{"bool", int64(1), true},
		{"bool", "2.5", true},
		{"csv", "a, b,,c", []string{"a", "b", "c"}},
		{"pipe", "a|b", []string{"a", "b"}},
		{"sep:;", "a;b", []string{"a", "b"}},
		{"json", `{"a":1}`, map[string]any{"a": float64(1)}},
		{"json", "not json", nil},
		{"null", "anything", nil},
		{"date:2006-01-02", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"date", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			rule, err := query.ParseCast(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule(tt.input))
		})
	}

	_, err := query.ParseCast("uuid")
	assert.ErrorIs(t, err, query.ErrInvalidRule)

	_, err = query.ParseCast("float:x")
	assert.ErrorIs(t, err, query.ErrInvalidRule)
}

func TestParseNormalize(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)

	tests := []struct {
		rule  string
		input any
		want  any
	}{
		{"string", 12, "12"},
		{"int", "7", int64(7)},
		{"float:2", 1.005001, 1.01},
		{"float:2,string", 3.14159, "3.14"},
		{"bool", "true", true},
		{"json", map[string]any{"a": 1}, `{"a":1}`},
		{"json", `{"raw":true}`, `{"raw":true}`},
		{"date", ts, "2024-03-01 08:05:00"},
		{"date:2006-01-02", ts, "2024-03-01"},
		{"csv", []string{"a", "b"}, "a,b"},
		{"pipe", []any{"a", 1}, "a|1"},
		{"sep:;", "already;joined", "already;joined"},
		{"null", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			rule, err := query.ParseNormalize(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule(tt.input))
		})
	}
}

func TestCastsAppliedToFetchedRows(t *testing.T) {
	rec := testutil.NewRecorder().OnQuery(`FROM "users"`,
		database.Row{"id": "1", "tags": "a,b", "active": int64(1)},
	)

	rows, err := query.New(dialect.MySQL{}, rec).
		Table("users").
		Casts(map[string]string{"id": "int", "tags": "csv", "missing": "int"}).
		CastWith("active", func(v any) any { return v == int64(1) }).
		Get(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, database.Row{"id": int64(1), "tags": []string{"a", "b"}, "active": true}, rows[0])
}

func TestNormalizeAppliedBeforeWrites(t *testing.T) {
	rec := testutil.NewRecorder()

	err := query.New(dialect.MySQL{}, rec).
		Table("users").
		Normalize(map[string]string{"tags": "csv", "score": "float:1", "note": "string"}).
		Insert(context.Background(), map[string]any{"tags": []string{"x", "y"}, "score": 2.46, "note": nil})
	require.NoError(t, err)

	statements := rec.Statements()
	require.Len(t, statements, 1)
	assert.Equal(t, `INSERT INTO "users" ("note", "score", "tags") VALUES (?, ?, ?)`, statements[0].SQL)
	assert.Equal(t, []any{nil, 2.5, "x,y"}, statements[0].Args)
}

func TestInvalidRuleIsAConfigurationError(t *testing.T) {
	_, _, err := users().Casts(map[string]string{"id": "bogus"}).ToSQL()
	assert.ErrorIs(t, err, query.ErrInvalidRule)
}
