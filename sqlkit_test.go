package sqlkit_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit"
	"github.com/satishbabariya/sqlkit/database"
	"github.com/satishbabariya/sqlkit/migrate"
	"github.com/satishbabariya/sqlkit/query"
	"github.com/satishbabariya/sqlkit/schema"
)

func TestDB(t *testing.T) {
	ctx := context.Background()

	rels, err := query.NewRelations(query.Relation{Name: "items", Table: "items", ForeignKey: "list_id"})
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	db, err := sqlkit.Open(ctx, database.Config{Driver: "sqlite", DSN: ":memory:"},
		sqlkit.WithRelations(rels),
		sqlkit.WithLogger(logger),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	assert.Equal(t, "sqlite", db.Dialect().Name())

	lists := migrate.NewSource("lists").Define("v1", func(ctx context.Context, b *schema.Builder) error {
		if err := b.CreateTable(ctx, "lists", func(t *schema.Table) {
			t.ID("")
			t.String("title", 0)
		}); err != nil {
			return err
		}
		return b.CreateTable(ctx, "items", func(t *schema.Table) {
			t.ID("")
			t.Int("list_id")
			t.String("label", 0)
		})
	})
	require.NoError(t, db.Migrator(migrate.Declaration{Order: []string{"v1"}, Sources: []migrate.Source{lists}}).Migrate(ctx, ""))

	require.NoError(t, db.Table("lists").Insert(ctx, map[string]any{"title": "groceries"}))
	require.NoError(t, db.Table("items").InsertMany(ctx, []map[string]any{
		{"list_id": 1, "label": "milk"},
		{"list_id": 1, "label": "eggs"},
	}))

	list, err := db.Repository("lists").Query().With("items", nil).First(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, "groceries", list["title"])
	assert.Len(t, list["items"], 2)

	ok, err := db.Schema().HasTable(ctx, "items")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Contains(t, logs.String(), "run_id=")
	assert.Contains(t, logs.String(), "msg=ddl")
}
