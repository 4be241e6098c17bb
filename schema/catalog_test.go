package schema_test

import (
	"context"
	"testing"

	"github.com/stockdesk/schemachain/schema"
	"github.com/stretchr/testify/require"
)

func newProductsCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	c := schema.NewCatalog()
	err := c.Apply(schema.CreateTable{Table: "products", Columns: []schema.Column{
		{Name: "id", Type: schema.BigInteger(), PrimaryKey: true},
		{Name: "name", Type: schema.String(255)},
	}})
	require.NoError(t, err)
	return c
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	favorite := schema.Column{Name: "is_favorite", Type: schema.Boolean(), Default: schema.BoolValue(false)}

	t.Run("add_and_drop_column", func(t *testing.T) {
		c := newProductsCatalog(t)
		require.NoError(t, c.Apply(schema.AddColumn{Table: "products", Column: favorite}))
		require.Equal(t, []string{"id", "name", "is_favorite"}, c.Columns("products"))
		require.True(t, c.HasColumn("products", "is_favorite"))
		require.NoError(t, c.Apply(schema.DropColumn{Table: "products", Column: favorite}))
		require.Equal(t, []string{"id", "name"}, c.Columns("products"))
	})
	t.Run("conflicts", func(t *testing.T) {
		c := newProductsCatalog(t)
		require.NoError(t, c.Apply(schema.AddColumn{Table: "products", Column: favorite}))
		// Operations are not idempotent.
		err := c.Apply(schema.AddColumn{Table: "products", Column: favorite})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		err = c.Apply(schema.DropColumn{Table: "products", Column: schema.Column{Name: "color", Type: schema.String(32), Nullable: true}})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		err = c.Apply(schema.AddColumn{Table: "missing", Column: favorite})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		err = c.Apply(schema.CreateTable{Table: "products", Columns: []schema.Column{{Name: "id", Type: schema.Integer()}}})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		err = c.Apply(schema.DropTable{Table: "missing", Columns: []schema.Column{{Name: "id", Type: schema.Integer()}}})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		// The failed operations left the catalog unchanged.
		require.Equal(t, []string{"id", "name", "is_favorite"}, c.Columns("products"))
	})
	t.Run("indexes", func(t *testing.T) {
		c := newProductsCatalog(t)
		ix := schema.Index{Name: "ix_products_name", Columns: []string{"name"}, Unique: true}
		require.NoError(t, c.Apply(schema.CreateIndex{Table: "products", Index: ix}))
		require.True(t, c.HasIndex("products", "ix_products_name"))
		err := c.Apply(schema.CreateIndex{Table: "products", Index: ix})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		// Indexed columns cannot be dropped.
		err = c.Apply(schema.DropColumn{Table: "products", Column: schema.Column{Name: "name", Type: schema.String(255)}})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		err = c.Apply(schema.CreateIndex{Table: "products", Index: schema.Index{Name: "ix_missing", Columns: []string{"nope"}}})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		require.NoError(t, c.Apply(schema.DropIndex{Table: "products", Index: ix}))
		err = c.Apply(schema.DropIndex{Table: "products", Index: ix})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
	})
	t.Run("default_backfill", func(t *testing.T) {
		c := newProductsCatalog(t)
		require.NoError(t, c.Insert("products", schema.Row{"id": schema.IntValue(1), "name": schema.StringValue("cement")}))
		require.NoError(t, c.Insert("products", schema.Row{"id": schema.IntValue(2), "name": schema.StringValue("brick")}))
		require.NoError(t, c.Apply(schema.AddColumn{Table: "products", Column: favorite}))
		table, ok := c.Table("products")
		require.True(t, ok)
		require.Len(t, table.Rows, 2)
		for _, row := range table.Rows {
			require.True(t, row["is_favorite"].Equal(schema.BoolValue(false)))
		}
		// Downgrade removes the column and its values; nothing is restored.
		require.NoError(t, c.Apply(schema.DropColumn{Table: "products", Column: favorite}))
		for _, row := range table.Rows {
			_, ok := row["is_favorite"]
			require.False(t, ok)
		}
		// Not null without a default cannot be added to a table with rows.
		err := c.Apply(schema.AddColumn{Table: "products", Column: schema.Column{Name: "sku", Type: schema.String(64)}})
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
	})
	t.Run("insert", func(t *testing.T) {
		c := newProductsCatalog(t)
		require.Error(t, c.Insert("missing", schema.Row{}))
		require.Error(t, c.Insert("products", schema.Row{"id": schema.IntValue(1)}))
		require.Error(t, c.Insert("products", schema.Row{"id": schema.IntValue(1), "name": schema.IntValue(1)}))
		require.Error(t, c.Insert("products", schema.Row{"id": schema.IntValue(1), "name": schema.StringValue("a"), "nope": schema.IntValue(1)}))
	})
	t.Run("clone_and_equal", func(t *testing.T) {
		c := newProductsCatalog(t)
		before := c.Clone()
		require.True(t, c.Equal(before))
		ops := []schema.Operation{
			schema.AddColumn{Table: "products", Column: favorite},
			schema.CreateIndex{Table: "products", Index: schema.Index{Name: "ix_fav", Columns: []string{"is_favorite"}}},
		}
		for _, op := range ops {
			require.NoError(t, c.Apply(op))
		}
		require.False(t, c.Equal(before))
		for _, op := range schema.Reverse(ops) {
			require.NoError(t, c.Apply(op))
		}
		require.True(t, c.Equal(before))
		require.Equal(t, []string{"products"}, c.Tables())
	})
	t.Run("execute_canceled", func(t *testing.T) {
		c := newProductsCatalog(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := c.Execute(ctx, schema.AddColumn{Table: "products", Column: favorite})
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, c.HasColumn("products", "is_favorite"))
	})
}
