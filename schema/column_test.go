package schema_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/sqlkit/dialect"
	"github.com/satishbabariya/sqlkit/schema"
)

func TestColumn_Defaults(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Dialect
		value   any
		want    string
	}{
		{"nil", dialect.MySQL{}, nil, `"c" TEXT NOT NULL DEFAULT NULL`},
		{"quoted string", dialect.MySQL{}, "it's", `"c" TEXT NOT NULL DEFAULT 'it''s'`},
		{"integer", dialect.MySQL{}, int64(42), `"c" TEXT NOT NULL DEFAULT 42`},
		{"float", dialect.MySQL{}, 1.5, `"c" TEXT NOT NULL DEFAULT 1.5`},
		{"bool mysql", dialect.MySQL{}, false, `"c" TEXT NOT NULL DEFAULT 0`},
		{"bool postgres", dialect.Postgres{}, true, `"c" TEXT NOT NULL DEFAULT TRUE`},
		{"raw", dialect.MySQL{}, schema.Raw("NOW()"), `"c" TEXT NOT NULL DEFAULT (NOW())`},
		{"time", dialect.MySQL{}, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), `"c" TEXT NOT NULL DEFAULT '2024-01-02 03:04:05'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			column, constraint, err := schema.NewColumn("c", dialect.Text).Default(tt.value).CreateSQL(tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, column)
			assert.Empty(t, constraint)
		})
	}

	_, _, err := schema.NewColumn("c", dialect.Text).Default(struct{}{}).CreateSQL(dialect.MySQL{})
	assert.ErrorIs(t, err, schema.ErrInvalidDefinition)
}

func TestColumn_ForeignKey(t *testing.T) {
	c := schema.NewColumn("author_id", dialect.BigInt).
		Unsigned().
		Foreign("").
		References("authors", "id").
		CascadeOnUpdate().
		NullOnDelete().
		Nullable()

	column, constraint, err := c.CreateSQL(dialect.MySQL{})
	require.NoError(t, err)
	assert.Equal(t, `"author_id" BIGINT UNSIGNED NULL`, column)
	assert.Equal(t, `CONSTRAINT "fk_author_id" FOREIGN KEY ("author_id") REFERENCES "authors"("id") ON UPDATE CASCADE ON DELETE SET NULL`, constraint)

	_, _, err = schema.NewColumn("x", dialect.Int).Foreign("fk_x").CreateSQL(dialect.MySQL{})
	assert.ErrorIs(t, err, schema.ErrInvalidDefinition)
}

func TestColumn_AlterPriority(t *testing.T) {
	tests := []struct {
		name           string
		column         *schema.Column
		wantFragment   string
		wantConstraint string
	}{
		{
			name:         "drop wins over definition",
			column:       schema.NewColumn("a", dialect.Int).Drop(),
			wantFragment: `DROP COLUMN "a"`,
		},
		{
			name:         "rename without change",
			column:       schema.NewColumn("a", dialect.Int).Rename("b"),
			wantFragment: `RENAME COLUMN "a" TO "b"`,
		},
		{
			name:         "rename with change",
			column:       schema.NewColumn("a", dialect.Int).Rename("b").Change(),
			wantFragment: `CHANGE "a" "b" INT NOT NULL`,
		},
		{
			name:           "foreign key then change",
			column:         schema.NewColumn("a", dialect.Int).Change().Foreign("fk_a").References("t", "id"),
			wantFragment:   `CHANGE "a" "a" INT NOT NULL`,
			wantConstraint: `ADD CONSTRAINT "fk_a" FOREIGN KEY ("a") REFERENCES "t"("id")`,
		},
		{
			name:         "add with position",
			column:       schema.NewColumn("a", dialect.Int).After("z"),
			wantFragment: `ADD COLUMN "a" INT NOT NULL AFTER "z"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment, constraint, err := tt.column.AlterSQL(dialect.MySQL{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFragment, fragment)
			assert.Equal(t, tt.wantConstraint, constraint)
		})
	}
}

func TestColumn_ConflictingMutations(t *testing.T) {
	tests := []struct {
		name   string
		column *schema.Column
	}{
		{"drop and rename", schema.NewColumn("a", dialect.Int).Drop().Rename("b")},
		{"drop and change", schema.NewColumn("a", dialect.Int).Drop().Change()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.column.AlterSQL(dialect.MySQL{})
			assert.ErrorIs(t, err, schema.ErrConflictingMutation)
		})
	}

	table := schema.NewTable("t")
	table.RemoveConstraint("uq")
	table.Columns()[0].Drop()
	_, err := table.AlterSQL(dialect.MySQL{})
	assert.ErrorIs(t, err, schema.ErrConflictingMutation)
}

func TestColumn_DialectFragments(t *testing.T) {
	c := func() *schema.Column {
		return schema.NewColumn("id", dialect.BigInt).Unsigned().Primary().AutoIncrement().Comment("key")
	}

	tests := []struct {
		dialect dialect.Dialect
		want    string
	}{
		{dialect.MySQL{}, `"id" BIGINT UNSIGNED AUTO_INCREMENT NOT NULL PRIMARY KEY COMMENT 'key'`},
		{dialect.Postgres{}, `"id" BIGSERIAL NOT NULL PRIMARY KEY`},
		{dialect.SQLite{}, `"id" INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT`},
		{dialect.SQLServer{}, `[id] BIGINT IDENTITY(1,1) NOT NULL PRIMARY KEY`},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.Name(), func(t *testing.T) {
			column, _, err := c().CreateSQL(tt.dialect)
			require.NoError(t, err)
			assert.Equal(t, tt.want, column)
		})
	}
}

func TestColumn_EnumWithoutValues(t *testing.T) {
	_, _, err := schema.NewColumn("state", dialect.Enum).CreateSQL(dialect.MySQL{})
	assert.ErrorIs(t, err, schema.ErrInvalidDefinition)
}
