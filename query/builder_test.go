package query_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/internal/testutil"
	"github.com/satishbabariya/sqlkit/query"
)

func users() *query.Builder {
	return query.New(dialect.MySQL{}, nil).Table("users")
}

func TestSelect_Scenario(t *testing.T) {
	sql, args, err := users().
		Select("id", "name").
		Where("age", ">", 18).
		OrWhere("active", true).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name" FROM "users" WHERE "age" > ? OR "active" = ?`, sql)
	assert.Equal(t, []any{18, true}, args)
}

func TestSelect_Connectives(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *query.Builder)
		want  string
	}{
		{
			name: "where only joins with AND",
			build: func(b *query.Builder) {
				b.Where("a", 1).Where("b", 2).Where("c", 3)
			},
			want: `SELECT * FROM "users" WHERE "a" = ? AND "b" = ? AND "c" = ?`,
		},
		{
			name: "one orWhere inserts one OR at its position",
			build: func(b *query.Builder) {
				b.Where("a", 1).OrWhere("b", 2).Where("c", 3)
			},
			want: `SELECT * FROM "users" WHERE "a" = ? OR "b" = ? AND "c" = ?`,
		},
		{
			name: "leading orWhere renders no connective",
			build: func(b *query.Builder) {
				b.OrWhere("a", 1).Where("b", 2)
			},
			want: `SELECT * FROM "users" WHERE "a" = ? AND "b" = ?`,
		},
		{
			name: "nested group",
			build: func(b *query.Builder) {
				b.Where("a", 1).OrWhereGroup(func(g *query.Builder) {
					g.Where("b", 2).Where("c", "<>", 3)
				})
			},
			want: `SELECT * FROM "users" WHERE "a" = ? OR ("b" = ? AND "c" <> ?)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := users()
			tt.build(b)
			sql, args, err := b.ToSQL()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Len(t, args, strings.Count(sql, "?"))
		})
	}
}

func TestSelect_ParameterOrder(t *testing.T) {
	b := users().
		Where("a", 1).
		WhereIn("b", []int{2, 3}).
		WhereNull("c").
		Where("d", "IS", "NOT NULL").
		WhereIn("e", func(s *query.Builder) {
			s.Table("teams").Select("id").Where("f", 4)
		}).
		OrWhereBetween("g", 5, 6).
		WhereNotIn("h", []string{})

	sql, args, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "users" WHERE "a" = ? AND "b" IN (?, ?) AND "c" IS NULL AND "d" IS NOT NULL`+
			` AND "e" IN (SELECT "id" FROM "teams" WHERE "f" = ?) OR "g" BETWEEN ? AND ? AND 1 = 1`,
		sql)
	assert.Equal(t, []any{1, 2, 3, 4, 5, 6}, args)
}

func TestSelect_Repeatable(t *testing.T) {
	b := users().
		Where("a", 1).
		Where("b", func(s *query.Builder) {
			s.Table("scores").Select("MAX(score)").Where("kind", "best")
		})

	sql1, args1, err := b.ToSQL()
	require.NoError(t, err)
	sql2, args2, err := b.ToSQL()
	require.NoError(t, err)

	assert.Equal(t, sql1, sql2)
	assert.Equal(t, args1, args2)
	assert.Equal(t, []any{1, "best"}, args2)
}

func TestSelect_ClauseOrder(t *testing.T) {
	sql, args, err := users().
		Select("role", "COUNT(*) AS total").
		Where("active", true).
		GroupBy("role").
		OrderBy("role", "desc").
		Having(func(h *query.Builder) {
			h.Where("COUNT(*)", ">", 1)
		}).
		Skip(10).
		Take(5).
		ToSQL()

	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "role", COUNT(*) AS total FROM "users" WHERE "active" = ? GROUP BY "role" ORDER BY "role" DESC HAVING COUNT(*) > ? LIMIT 10, 5`,
		sql)
	assert.Equal(t, []any{true, 1}, args)
}

func TestSelect_OrderByReplacesDirection(t *testing.T) {
	sql, _, err := users().OrderBy("name", "ASC").OrderBy("id", "DESC").OrderBy("name", "DESC").Limit(3).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" ORDER BY "name" DESC, "id" DESC LIMIT 0, 3`, sql)
}

func TestSelect_Dialects(t *testing.T) {
	build := func(d dialect.Dialect) *query.Builder {
		return query.New(d, nil).
			Table("users").
			Where("a", 1).
			WhereIn("id", func(s *query.Builder) {
				s.Table("posts").Select("user_id").Where("likes", ">", 10)
			}).
			Limit(5)
	}

	sql, args, err := build(dialect.Postgres{}).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "a" = $1 AND "id" IN (SELECT "user_id" FROM "posts" WHERE "likes" > $2) LIMIT 5`, sql)
	assert.Equal(t, []any{1, 10}, args)

	sql, _, err = build(dialect.SQLServer{}).ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM [users] WHERE [a] = @p1 AND [id] IN (SELECT [user_id] FROM [posts] WHERE [likes] > @p2) ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY`, sql)
}

func TestSelect_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *query.Builder
		want  error
	}{
		{"unsupported operator", func() *query.Builder { return users().Where("a", "~", 1) }, query.ErrInvalidPredicate},
		{"operator not a string", func() *query.Builder { return users().Where("a", 1, 2) }, query.ErrInvalidPredicate},
		{"IS with a value", func() *query.Builder { return users().Where("a", "IS", 5) }, query.ErrInvalidPredicate},
		{"IS NOT NOT NULL", func() *query.Builder { return users().Where("a", "IS NOT", "NOT NULL") }, query.ErrInvalidPredicate},
		{"IN with a scalar", func() *query.Builder { return users().WhereIn("a", 5) }, query.ErrInvalidPredicate},
		{"bad direction", func() *query.Builder { return users().OrderBy("a", "sideways") }, query.ErrInvalidDirection},
		{"error inside sub-query", func() *query.Builder {
			return users().WhereIn("a", func(s *query.Builder) { s.Table("t").Where("b", "??", 1) })
		}, query.ErrInvalidPredicate},
		{"no table", func() *query.Builder { return query.New(dialect.MySQL{}, nil).Where("a", 1) }, query.ErrNoTable},
		{"unknown relation", func() *query.Builder { return users().With("ghosts", nil) }, query.ErrUnknownRelation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.build().ToSQL()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSelect_IsLiterals(t *testing.T) {
	sql, args, err := users().Where("a", "is", nil).Where("b", "IS NOT", true).Where("c", "IS", "null").ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "a" IS NULL AND "b" IS NOT TRUE AND "c" IS NULL`, sql)
	assert.Empty(t, args)
}

func TestWriteStatements(t *testing.T) {
	t.Run("insert renders sorted columns", func(t *testing.T) {
		sql, args, err := users().InsertSQL(map[string]any{"name": "bob", "age": 30})
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "users" ("age", "name") VALUES (?, ?)`, sql)
		assert.Equal(t, []any{30, "bob"}, args)
	})

	t.Run("insert many", func(t *testing.T) {
		sql, args, err := users().InsertManySQL([]map[string]any{
			{"name": "a", "age": 1},
			{"name": "b", "age": 2},
		})
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO "users" ("age", "name") VALUES (?, ?), (?, ?)`, sql)
		assert.Equal(t, []any{1, "a", 2, "b"}, args)
	})

	t.Run("insert many with mismatched rows", func(t *testing.T) {
		_, _, err := users().InsertManySQL([]map[string]any{{"a": 1}, {"b": 2}})
		assert.ErrorIs(t, err, query.ErrInvalidValues)
	})

	t.Run("empty insert", func(t *testing.T) {
		_, _, err := users().InsertSQL(nil)
		assert.ErrorIs(t, err, query.ErrInvalidValues)
	})

	t.Run("update with sub-select", func(t *testing.T) {
		sql, args, err := users().Where("id", 1).UpdateSQL(map[string]any{
			"score": func(s *query.Builder) {
				s.Table("scores").Select("MAX(score)").Where("user_id", 7)
			},
			"name": "x",
		})
		require.NoError(t, err)
		assert.Equal(t, `UPDATE "users" SET "name" = ?, "score" = (SELECT MAX(score) FROM "scores" WHERE "user_id" = ?) WHERE "id" = ?`, sql)
		assert.Equal(t, []any{"x", 7, 1}, args)
	})

	t.Run("delete", func(t *testing.T) {
		sql, args, err := users().Where("id", 1).DeleteSQL()
		require.NoError(t, err)
		assert.Equal(t, `DELETE FROM "users" WHERE "id" = ?`, sql)
		assert.Equal(t, []any{1}, args)
	})
}

func TestFirst_EmptyResult(t *testing.T) {
	rec := testutil.NewRecorder()
	b := query.New(dialect.MySQL{}, rec).Table("users").Where("id", 42)

	row, err := b.First(context.Background())
	require.NoError(t, err)
	assert.Nil(t, row)
	assert.Equal(t, []string{`SELECT * FROM "users" WHERE "id" = ? LIMIT 0, 1`}, rec.SQL())

	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT", "First must not change the builder")
}

func TestFirst_ReturnsFirstRow(t *testing.T) {
	rec := testutil.NewRecorder().OnQuery(`FROM "users"`,
		database.Row{"id": int64(1)},
		database.Row{"id": int64(2)},
	)

	row, err := query.New(dialect.MySQL{}, rec).Table("users").First(context.Background())
	require.NoError(t, err)
	assert.Equal(t, database.Row{"id": int64(1)}, row)
}

func TestCount(t *testing.T) {
	rec := testutil.NewRecorder().OnQuery("COUNT(*)", database.Row{"aggregate": "3"})

	n, err := query.New(dialect.MySQL{}, rec).Table("users").Select("id").Where("active", true).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{`SELECT COUNT(*) AS aggregate FROM "users" WHERE "active" = ?`}, rec.SQL())
}

func TestCount_IgnoresOrderAndPagination(t *testing.T) {
	ctx := context.Background()
	rec := testutil.NewRecorder().OnQuery("COUNT(*)", database.Row{"aggregate": int64(12)})
	b := query.New(dialect.MySQL{}, rec).Table("users").OrderBy("name", "asc").Skip(10).Take(5)

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, []string{`SELECT COUNT(*) AS aggregate FROM "users"`}, rec.SQL())

	sql, _, err := b.ToSQL()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" ORDER BY "name" ASC LIMIT 10, 5`, sql)
}

func TestExecute_Writes(t *testing.T) {
	ctx := context.Background()
	rec := testutil.NewRecorder()
	b := query.New(dialect.MySQL{}, rec).Table("users")

	require.NoError(t, b.Insert(ctx, map[string]any{"name": "a"}))
	require.NoError(t, b.InsertMany(ctx, []map[string]any{{"name": "b"}, {"name": "c"}}))
	require.NoError(t, b.Where("name", "a").Update(ctx, map[string]any{"name": "z"}))
	require.NoError(t, b.Delete(ctx))

	statements := rec.Statements()
	require.Len(t, statements, 4)
	assert.Equal(t, `INSERT INTO "users" ("name") VALUES (?)`, statements[0].SQL)
	assert.Equal(t, []any{"b", "c"}, statements[1].Args)
	assert.Equal(t, `UPDATE "users" SET "name" = ? WHERE "name" = ?`, statements[2].SQL)
	assert.Equal(t, []any{"z", "a"}, statements[2].Args)
	assert.Equal(t, `DELETE FROM "users" WHERE "name" = ?`, statements[3].SQL)
}

func TestExecute_ConfigurationErrorSendsNothing(t *testing.T) {
	rec := testutil.NewRecorder()
	_, err := query.New(dialect.MySQL{}, rec).Table("users").Where("a", "===", 1).Get(context.Background())

	assert.ErrorIs(t, err, query.ErrInvalidPredicate)
	assert.Empty(t, rec.Statements())
}

func TestExecute_NoExecutor(t *testing.T) {
	_, err := users().Get(context.Background())
	assert.ErrorIs(t, err, query.ErrNoExecutor)
}
