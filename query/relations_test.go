package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/internal/testutil"
	"github.com/satishbabariya/sqlkit/query"
)

func registry(t *testing.T) *query.Relations {
	t.Helper()
	rels, err := query.NewRelations(
		query.Relation{Name: "team", Table: "teams", LocalKey: "team_id", ForeignKey: "id", Kind: query.HasOne},
		query.Relation{Name: "posts", Table: "posts", ForeignKey: "user_id", Kind: query.HasMany},
		query.Relation{Name: "comments", Table: "comments", ForeignKey: "post_id", Kind: query.HasMany},
	)
	require.NoError(t, err)
	return rels
}

func TestWith_BatchesOneQueryPerRelation(t *testing.T) {
	rec := testutil.NewRecorder().
		OnQueryFunc(`FROM "users"`, func([]any) []database.Row {
			return []database.Row{
				{"id": int64(1), "team_id": int64(10)},
				{"id": int64(2), "team_id": int64(20)},
				{"id": int64(3), "team_id": int64(10)},
			}
		}).
		OnQueryFunc(`FROM "teams"`, func([]any) []database.Row {
			return []database.Row{
				{"id": int64(10), "name": "red"},
				{"id": int64(20), "name": "blue"},
			}
		})

	rows, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("team", nil).
		Get(context.Background())
	require.NoError(t, err)

	statements := rec.Statements()
	require.Len(t, statements, 2)
	assert.Equal(t, `SELECT * FROM "teams" WHERE "id" IN (?, ?)`, statements[1].SQL)
	assert.Equal(t, []any{int64(10), int64(20)}, statements[1].Args)

	require.Len(t, rows, 3)
	assert.Equal(t, "red", rows[0]["team"].(database.Row)["name"])
	assert.Equal(t, "blue", rows[1]["team"].(database.Row)["name"])
	assert.Equal(t, "red", rows[2]["team"].(database.Row)["name"])
}

func TestWith_HasManyNeverNil(t *testing.T) {
	rec := testutil.NewRecorder().
		OnQueryFunc(`FROM "users"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(1)}, {"id": int64(2)}, {"id": nil}}
		}).
		OnQueryFunc(`FROM "posts"`, func([]any) []database.Row {
			return []database.Row{
				{"id": int64(100), "user_id": "1"},
				{"id": int64(101), "user_id": int64(1)},
			}
		})

	rows, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("posts", nil).
		Get(context.Background())
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Len(t, rows[0]["posts"], 2)
	assert.Equal(t, []database.Row{}, rows[1]["posts"])
	assert.Equal(t, []database.Row{}, rows[2]["posts"])

	assert.Equal(t, []any{int64(1), int64(2)}, rec.Statements()[1].Args)
}

func TestWith_FilterAndNestedRelations(t *testing.T) {
	rec := testutil.NewRecorder().
		OnQueryFunc(`FROM "users"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(1)}, {"id": int64(2)}}
		}).
		OnQueryFunc(`FROM "posts"`, func([]any) []database.Row {
			return []database.Row{
				{"id": int64(7), "user_id": int64(2)},
				{"id": int64(8), "user_id": int64(2)},
			}
		}).
		OnQueryFunc(`FROM "comments"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(70), "post_id": int64(7), "body": "hi"}}
		})

	rows, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("posts", func(p *query.Builder) {
			p.Where("published", true).OrWhere("pinned", true).With("comments", nil)
		}).
		Get(context.Background())
	require.NoError(t, err)

	sql := rec.SQL()
	require.Len(t, sql, 3)
	assert.Equal(t, `SELECT * FROM "posts" WHERE "user_id" IN (?, ?) AND ("published" = ? OR "pinned" = ?)`, sql[1])
	assert.Equal(t, `SELECT * FROM "comments" WHERE "post_id" IN (?, ?)`, sql[2])

	posts := rows[1]["posts"].([]database.Row)
	require.Len(t, posts, 2)
	assert.Len(t, posts[0]["comments"], 1)
	assert.Equal(t, []database.Row{}, posts[1]["comments"])
	assert.Equal(t, []database.Row{}, rows[0]["posts"])
}

func TestWith_NarrowedProjectionKeepsForeignKey(t *testing.T) {
	rec := testutil.NewRecorder().
		OnQueryFunc(`FROM "users"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(1)}}
		}).
		OnQueryFunc(`FROM "posts"`, func([]any) []database.Row {
			return []database.Row{{"title": "a", "user_id": int64(1)}}
		})

	rows, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("posts", func(p *query.Builder) { p.Select("title") }).
		Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `SELECT "title", "user_id" FROM "posts" WHERE "user_id" IN (?)`, rec.SQL()[1])
	require.Len(t, rows, 1)
	assert.Equal(t, []database.Row{{"title": "a", "user_id": int64(1)}}, rows[0]["posts"])
}

func TestWith_ProjectionWithForeignKeyUnchanged(t *testing.T) {
	rec := testutil.NewRecorder().
		OnQueryFunc(`FROM "users"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(1)}}
		})

	_, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("posts", func(p *query.Builder) { p.Select("posts.user_id", "title") }).
		Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `SELECT "posts"."user_id", "title" FROM "posts" WHERE "user_id" IN (?)`, rec.SQL()[1])
}

func TestWith_ParentsOwnTheirChildren(t *testing.T) {
	rec := testutil.NewRecorder().
		OnQueryFunc(`FROM "users"`, func([]any) []database.Row {
			return []database.Row{
				{"id": int64(1), "team_id": int64(10)},
				{"id": int64(1), "team_id": int64(10)},
			}
		}).
		OnQueryFunc(`FROM "posts"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(7), "user_id": int64(1), "title": "a"}}
		}).
		OnQueryFunc(`FROM "teams"`, func([]any) []database.Row {
			return []database.Row{{"id": int64(10), "name": "red"}}
		})

	rows, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("posts", nil).
		With("team", nil).
		Get(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]["posts"].([]database.Row)
	first[0]["title"] = "changed"
	rows[0]["posts"] = append(first, database.Row{"id": int64(8)})
	rows[0]["team"].(database.Row)["name"] = "blue"

	second := rows[1]["posts"].([]database.Row)
	require.Len(t, second, 1)
	assert.Equal(t, "a", second[0]["title"])
	assert.Equal(t, "red", rows[1]["team"].(database.Row)["name"])
}

func TestWith_NoParentsNoQuery(t *testing.T) {
	rec := testutil.NewRecorder()

	rows, err := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).
		Table("users").
		With("posts", nil).
		Get(context.Background())
	require.NoError(t, err)

	assert.Empty(t, rows)
	assert.Equal(t, 0, rec.Count(`"posts"`))
}

func TestWith_UnknownRelationBeforeAnySQL(t *testing.T) {
	rec := testutil.NewRecorder()
	b := query.New(dialect.MySQL{}, rec, query.WithRelations(registry(t))).Table("users")

	_, err := b.With("posts", func(p *query.Builder) { p.With("likes", nil) }).Get(context.Background())
	assert.ErrorIs(t, err, query.ErrUnknownRelation)
	assert.Empty(t, rec.Statements())
}

func TestRelations_Register(t *testing.T) {
	rels, err := query.NewRelations()
	require.NoError(t, err)

	assert.Error(t, rels.Register(query.Relation{Name: "x"}))
	require.NoError(t, rels.Register(query.Relation{Name: "x", Table: "xs", ForeignKey: "owner_id"}))

	rel, ok := rels.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "id", rel.LocalKey)
	assert.Equal(t, query.HasMany, rel.Kind)
}
