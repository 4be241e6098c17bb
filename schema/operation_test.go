package schema_test

import (
	"testing"

	"github.com/stockdesk/schemachain/schema"
	"github.com/stretchr/testify/require"
)

func TestInverse(t *testing.T) {
	t.Parallel()

	color := schema.Column{Name: "color", Type: schema.String(32), Nullable: true}
	ix := schema.Index{Name: "ix_products_color", Columns: []string{"color"}}
	table := []schema.Column{
		{Name: "id", Type: schema.BigInteger(), PrimaryKey: true},
		{Name: "name", Type: schema.String(255)},
	}

	tt := []struct {
		name string
		op   schema.Operation
		want schema.Operation
	}{
		{"add_column", schema.AddColumn{Table: "products", Column: color}, schema.DropColumn{Table: "products", Column: color}},
		{"drop_column", schema.DropColumn{Table: "products", Column: color}, schema.AddColumn{Table: "products", Column: color}},
		{"create_index", schema.CreateIndex{Table: "products", Index: ix}, schema.DropIndex{Table: "products", Index: ix}},
		{"drop_index", schema.DropIndex{Table: "products", Index: ix}, schema.CreateIndex{Table: "products", Index: ix}},
		{"create_table", schema.CreateTable{Table: "products", Columns: table}, schema.DropTable{Table: "products", Columns: table}},
		{"drop_table", schema.DropTable{Table: "products", Columns: table}, schema.CreateTable{Table: "products", Columns: table}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.op.Inverse()
			require.True(t, schema.Equal(got, tc.want), "got %v want %v", got, tc.want)
			require.True(t, schema.IsInverse(tc.op, tc.want))
			require.True(t, schema.Equal(got.Inverse(), tc.op))
		})
	}
	t.Run("not_inverse", func(t *testing.T) {
		add := schema.AddColumn{Table: "products", Column: color}
		// Different table.
		require.False(t, schema.IsInverse(add, schema.DropColumn{Table: "stock", Column: color}))
		// Same name, different definition.
		other := color
		other.Nullable = false
		other.Default = schema.StringValue("red")
		require.False(t, schema.IsInverse(add, schema.DropColumn{Table: "products", Column: other}))
		// Same kind is never its own inverse.
		require.False(t, schema.IsInverse(add, add))
		require.False(t, schema.IsInverse(add, nil))
	})
}

func TestReverse(t *testing.T) {
	t.Parallel()

	a := schema.AddColumn{Table: "users", Column: schema.Column{Name: "a", Type: schema.Integer(), Nullable: true}}
	b := schema.AddColumn{Table: "users", Column: schema.Column{Name: "b", Type: schema.Boolean(), Default: schema.BoolValue(false)}}
	got := schema.Reverse([]schema.Operation{a, b})
	require.Len(t, got, 2)
	require.True(t, schema.IsInverse(b, got[0]))
	require.True(t, schema.IsInverse(a, got[1]))
	require.Empty(t, schema.Reverse(nil))
}

func TestClone(t *testing.T) {
	t.Parallel()

	create := schema.CreateTable{Table: "users", Columns: []schema.Column{
		{Name: "id", Type: schema.BigInteger(), PrimaryKey: true},
		{Name: "language", Type: schema.String(8), Default: schema.StringValue("uz")},
	}}
	cp := schema.Clone(create).(schema.CreateTable)
	require.True(t, schema.Equal(create, cp))
	cp.Columns[0].Name = "other"
	*cp.Columns[1].Default = *schema.StringValue("ru")
	require.Equal(t, "id", create.Columns[0].Name)
	require.Equal(t, "'uz'", create.Columns[1].Default.String())

	ix := schema.CreateIndex{Table: "users", Index: schema.Index{Name: "ix_users_language", Columns: []string{"language"}}}
	ixCopy := schema.Clone(ix).(schema.CreateIndex)
	ixCopy.Index.Columns[0] = "other"
	require.Equal(t, "language", ix.Index.Columns[0])

	add := schema.AddColumn{Table: "users", Column: schema.Column{Name: "a", Type: schema.Boolean(), Default: schema.BoolValue(false)}}
	addCopy := schema.Clone(add).(schema.AddColumn)
	*addCopy.Column.Default = *schema.BoolValue(true)
	require.Equal(t, "FALSE", add.Column.Default.String())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name    string
		op      schema.Operation
		wantErr bool
	}{
		{"ok", schema.AddColumn{Table: "users", Column: schema.Column{Name: "language", Type: schema.String(8), Default: schema.StringValue("uz")}}, false},
		{"empty_table", schema.AddColumn{Column: schema.Column{Name: "a", Type: schema.Integer()}}, true},
		{"empty_column", schema.AddColumn{Table: "users", Column: schema.Column{Type: schema.Integer()}}, true},
		{"unknown_type", schema.AddColumn{Table: "users", Column: schema.Column{Name: "a"}}, true},
		{"bad_numeric", schema.AddColumn{Table: "users", Column: schema.Column{Name: "a", Type: schema.Numeric(2, 4)}}, true},
		{"default_type_mismatch", schema.AddColumn{Table: "users", Column: schema.Column{Name: "a", Type: schema.Boolean(), Default: schema.IntValue(0)}}, true},
		{"default_too_long", schema.AddColumn{Table: "users", Column: schema.Column{Name: "a", Type: schema.String(2), Default: schema.StringValue("uzb")}}, true},
		{"add_primary_key", schema.AddColumn{Table: "users", Column: schema.Column{Name: "a", Type: schema.Integer(), PrimaryKey: true}}, true},
		{"index_without_columns", schema.CreateIndex{Table: "users", Index: schema.Index{Name: "ix"}}, true},
		{"table_without_columns", schema.CreateTable{Table: "users"}, true},
		{"table_duplicate_column", schema.CreateTable{Table: "users", Columns: []schema.Column{
			{Name: "a", Type: schema.Integer()},
			{Name: "a", Type: schema.Integer()},
		}}, true},
		{"numeric_integer_default", schema.AddColumn{Table: "products", Column: schema.Column{Name: "p", Type: schema.Numeric(18, 2), Default: schema.IntValue(0)}}, false},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.op.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "'uz'", schema.StringValue("uz").String())
	require.Equal(t, "'o''zbek'", schema.StringValue("o'zbek").String())
	require.Equal(t, "FALSE", schema.BoolValue(false).String())
	require.Equal(t, "0", schema.IntValue(0).String())
	require.Equal(t, "12.5", schema.DecimalValue("12.50").String())
	var null *schema.Value
	require.Equal(t, "NULL", null.String())
	require.True(t, schema.DecimalValue("1.0").Equal(schema.DecimalValue("1")))
	require.False(t, schema.IntValue(1).Equal(schema.DecimalValue("1")))
}
