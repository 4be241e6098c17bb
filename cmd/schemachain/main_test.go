package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stockdesk/schemachain"
	"github.com/stretchr/testify/require"
)

func TestFirstNonEmpty(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{name: "no values", input: []string{}, expected: ""},
		{name: "all empty values", input: []string{"", "", ""}, expected: ""},
		{name: "value at start", input: []string{"value", "", ""}, expected: "value"},
		{name: "value in middle", input: []string{"", "value", ""}, expected: "value"},
		{name: "value at end", input: []string{"", "", "value"}, expected: "value"},
		{name: "multiple values", input: []string{"first", "second", "third"}, expected: "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, firstNonEmpty(tt.input...))
		})
	}
}

func TestDialectFor(t *testing.T) {
	t.Parallel()

	for driver, want := range map[string]string{
		"postgres":   "pgx",
		"redshift":   "pgx",
		"mysql":      "mysql",
		"mymysql":    "mymysql",
		"tidb":       "mysql",
		"sqlite3":    "sqlite",
		"turso":      "libsql",
		"mssql":      "sqlserver",
		"clickhouse": "clickhouse",
		"vertica":    "vertica",
	} {
		_, got, err := dialectFor(driver)
		require.NoError(t, err, driver)
		require.Equal(t, want, got, driver)
	}
	_, _, err := dialectFor("oracle")
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "stock.db")
	exec := func(t *testing.T, args ...string) string {
		t.Helper()
		var buf bytes.Buffer
		err := run(ctx, append([]string{"-env=none", "sqlite3", dbPath}, args...), &buf)
		require.NoError(t, err, buf.String())
		return buf.String()
	}

	out := exec(t, "version")
	require.Equal(t, "revision base\n", out)

	out = exec(t, "up")
	require.Equal(t, 7, strings.Count(out, "OK"))
	require.Contains(t, out, "007_add_default_per_piece")

	out = exec(t, "up")
	require.Equal(t, "no steps to run\n", out)

	out = exec(t, "down-to", "004_add_telegram_id")
	require.Equal(t, 3, strings.Count(out, "down"))

	out = exec(t, "status")
	require.Contains(t, out, "Pending                  -- 005_add_edit_tracking")
	require.NotContains(t, out, "Pending                  -- 004_add_telegram_id")

	out = exec(t, "plan", "head")
	require.Equal(t, "004_add_telegram_id -> 007_add_default_per_piece (up, 3 steps)\n"+
		"    005_add_edit_tracking\n"+
		"    006_add_user_language\n"+
		"    007_add_default_per_piece\n", out)

	out = exec(t, "force", "002_add_usd_fields")
	require.Equal(t, "forced revision 002_add_usd_fields\n", out)
	out = exec(t, "version")
	require.Equal(t, "revision 002_add_usd_fields\n", out)

	out = exec(t, "history")
	require.True(t, strings.HasPrefix(out, "SEQ"))
	// header, base row, 7 up, 3 down, 1 force
	require.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 13)

	var buf bytes.Buffer
	err := run(ctx, []string{"-env=none", "sqlite3", dbPath, "up-to"}, &buf)
	require.Error(t, err)
	err = run(ctx, []string{"-env=none", "sqlite3", dbPath, "sideways"}, &buf)
	require.Error(t, err)
	err = run(ctx, []string{"-env=none", "sqlite3", dbPath, "up-to", "999_nonexistent"}, &buf)
	require.ErrorContains(t, err, "unknown revision")
	err = run(ctx, []string{"-env=none", "sqlite3"}, &buf)
	require.ErrorIs(t, err, errUsage)
}

func TestRunOffline(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	err := run(ctx, []string{"-env=none", "-from", "002_add_usd_fields", "postgres", "", "sql", "003_add_product_usd_color"}, &buf)
	require.NoError(t, err)
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "-- up 003_add_product_usd_color\n"), out)
	require.Contains(t, out, "ALTER TABLE products ADD COLUMN is_favorite BOOLEAN NOT NULL DEFAULT FALSE;\n")

	buf.Reset()
	err = run(ctx, []string{"-env=none", "-from", "head", "postgres", "", "sql", "005_add_edit_tracking"}, &buf)
	require.NoError(t, err)
	out = buf.String()
	require.True(t, strings.HasPrefix(out, "-- down 007_add_default_per_piece\n"), out)
	require.Contains(t, out, "-- down 006_add_user_language\n")

	for _, driver := range []string{"postgres", "mysql", "sqlite3", "mssql", "clickhouse", "vertica", "redshift", "tidb", "turso"} {
		buf.Reset()
		err = run(ctx, []string{"-env=none", driver, "", "validate"}, &buf)
		require.NoError(t, err, driver)
		require.True(t, strings.HasPrefix(buf.String(), "OK: 7 steps, head 007_add_default_per_piece"), buf.String())
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "migrations")
	var buf bytes.Buffer
	require.NoError(t, create(&buf, dir, "add_customer_email"))
	path := filepath.Join(dir, "008_add_customer_email.go")
	require.Contains(t, buf.String(), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	src := string(data)
	require.Contains(t, src, "func addCustomerEmail() *schemachain.Step {")
	require.Contains(t, src, `"008_add_customer_email"`)
	require.Contains(t, src, `"007_add_default_per_piece"`)

	require.ErrorContains(t, create(&buf, dir, "add_customer_email"), "already exists")
	require.Error(t, create(&buf, dir, "Add-Email"))
	require.Equal(t, "addUserLanguage", funcName("add_user_language"))
}

func TestPrintResultsPartial(t *testing.T) {
	t.Parallel()

	step := func(rev string) *schemachain.Step { return &schemachain.Step{Revision: rev} }
	applied := make([]*schemachain.MigrationResult, 1, 4)
	applied[0] = &schemachain.MigrationResult{Step: step("001_initial"), Direction: schemachain.DirectionUp}
	spare := &schemachain.MigrationResult{Step: step("spare"), Direction: schemachain.DirectionUp}
	applied = append(applied, spare)[:1]

	failure := errors.New("boom")
	partial := &schemachain.PartialError{
		Applied: applied,
		Failed:  &schemachain.MigrationResult{Step: step("002_add_usd_fields"), Direction: schemachain.DirectionUp, Error: failure},
		Err:     failure,
	}
	var buf bytes.Buffer
	err := printResults(&buf, nil, partial)
	require.ErrorIs(t, err, failure)
	require.Contains(t, buf.String(), "OK     up   001_initial")
	require.Contains(t, buf.String(), "FAILED up   002_add_usd_fields")
	require.Same(t, spare, applied[:2][1], "applied results were overwritten")
}
