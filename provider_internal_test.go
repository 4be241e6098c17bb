package schemachain

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stockdesk/schemachain/database"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestCreateVersionTableAfterRace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "stock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	steps := []*Step{{Revision: "a"}}

	first, err := NewProvider(database.DialectSQLite3, db, steps)
	require.NoError(t, err)
	second, err := NewProvider(database.DialectSQLite3, db, steps)
	require.NoError(t, err)

	// The first runner wins the race and creates the table.
	rev, err := first.GetRevision(ctx)
	require.NoError(t, err)
	require.Empty(t, rev)

	// The second runner saw no table and now tries to create it.
	conn, err := db.Conn(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, second.createVersionTable(ctx, conn))

	history, err := second.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.EqualValues(t, 0, history[0].Seq)

	t.Run("other_errors", func(t *testing.T) {
		broken, err := NewProvider(database.DialectSQLite3, db, steps, WithTableName("missing.revisions"))
		require.NoError(t, err)
		require.Error(t, broken.createVersionTable(ctx, conn))
	})
}
