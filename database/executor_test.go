package database_test

import (
	"context"
	"testing"

	"github.com/stockdesk/schemachain/database"
	"github.com/stockdesk/schemachain/internal/dialect/dialectquery"
	"github.com/stockdesk/schemachain/schema"
	"github.com/stretchr/testify/require"
)

func TestExecutor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newDB(t)
	exec, err := database.NewExecutor(database.DialectSQLite3, db)
	require.NoError(t, err)

	users := schema.CreateTable{Table: "users", Columns: []schema.Column{
		{Name: "id", Type: schema.BigInteger(), PrimaryKey: true},
		{Name: "username", Type: schema.String(64)},
	}}
	language := schema.AddColumn{Table: "users", Column: schema.Column{
		Name: "language", Type: schema.String(8), Default: schema.StringValue("uz"),
	}}
	languageIx := schema.CreateIndex{Table: "users", Index: schema.Index{
		Name: "ix_users_language", Columns: []string{"language"},
	}}

	t.Run("create_table", func(t *testing.T) {
		require.NoError(t, exec.Execute(ctx, users))
		err := exec.Execute(ctx, users)
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		require.Contains(t, err.Error(), "table users already exists")
		_, err = db.ExecContext(ctx, `INSERT INTO users (id, username) VALUES (1, 'admin')`)
		require.NoError(t, err)
	})
	t.Run("add_column_backfills_default", func(t *testing.T) {
		require.NoError(t, exec.Execute(ctx, language))
		var got string
		err := db.QueryRowContext(ctx, `SELECT language FROM users WHERE id = 1`).Scan(&got)
		require.NoError(t, err)
		require.Equal(t, "uz", got)
		// Not implicitly idempotent.
		err = exec.Execute(ctx, language)
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		require.Contains(t, err.Error(), "column users.language already exists")
	})
	t.Run("index", func(t *testing.T) {
		require.NoError(t, exec.Execute(ctx, languageIx))
		err := exec.Execute(ctx, languageIx)
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		require.Contains(t, err.Error(), "index ix_users_language on users already exists")
		require.NoError(t, exec.Execute(ctx, languageIx.Inverse()))
		err = exec.Execute(ctx, languageIx.Inverse())
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
	})
	t.Run("drop_column", func(t *testing.T) {
		require.NoError(t, exec.Execute(ctx, language.Inverse()))
		err := exec.Execute(ctx, language.Inverse())
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		require.Contains(t, err.Error(), "column users.language does not exist")
	})
	t.Run("missing_table", func(t *testing.T) {
		op := schema.AddColumn{Table: "customers", Column: schema.Column{
			Name: "telegram_id", Type: schema.BigInteger(), Nullable: true,
		}}
		err := exec.Execute(ctx, op)
		require.ErrorIs(t, err, schema.ErrSchemaConflict)
		require.Contains(t, err.Error(), "table customers does not exist")
	})
	t.Run("drop_table", func(t *testing.T) {
		require.NoError(t, exec.Execute(ctx, users.Inverse()))
		require.ErrorIs(t, exec.Execute(ctx, users.Inverse()), schema.ErrSchemaConflict)
	})
}

func TestExecutorUnsupported(t *testing.T) {
	t.Parallel()

	_, err := database.NewExecutor("ydb", newDB(t))
	require.Error(t, err)
	_, err = database.NewExecutor(database.DialectSQLite3, nil)
	require.Error(t, err)

	// Rendering fails before the database is touched.
	exec, err := database.NewExecutor(database.DialectVertica, newDB(t))
	require.NoError(t, err)
	op := schema.CreateIndex{Table: "products", Index: schema.Index{Name: "ix", Columns: []string{"sku"}}}
	err = exec.Execute(context.Background(), op)
	require.ErrorIs(t, err, dialectquery.ErrUnsupported)
}

func TestRenderStatements(t *testing.T) {
	t.Parallel()

	op := schema.AddColumn{Table: "customers", Column: schema.Column{
		Name: "telegram_id", Type: schema.BigInteger(), Nullable: true,
	}}
	stmts, err := database.RenderStatements(database.DialectPostgres, op)
	require.NoError(t, err)
	require.Equal(t, []string{"ALTER TABLE customers ADD COLUMN telegram_id BIGINT"}, stmts)

	_, err = database.RenderStatements("", op)
	require.Error(t, err)

	tx, err := database.TransactionalDDL(database.DialectMySQL)
	require.NoError(t, err)
	require.False(t, tx)
}
