package normalizedsn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDBString(t *testing.T) {
	t.Parallel()

	got, err := DBString("stock:secret@tcp(localhost:3306)/stockdesk", "")
	require.NoError(t, err)
	require.Equal(t, "stock:secret@tcp(localhost:3306)/stockdesk?parseTime=true", got)

	got, err = DBString("stock:secret@tcp(localhost:3306)/stockdesk?parseTime=false", "custom")
	require.NoError(t, err)
	require.Contains(t, got, "parseTime=true")
	require.Contains(t, got, "tls=custom")

	_, err = DBString("not a dsn", "")
	require.Error(t, err)
}
