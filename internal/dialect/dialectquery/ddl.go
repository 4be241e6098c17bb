package dialectquery

import (
	"fmt"
	"strings"

	"github.com/stockdesk/schemachain/schema"
)

// ddl renders schema operations. Dialects fill in the parts that differ and leave the rest nil.
type ddl struct {
	typeName func(t schema.Type) string
	// literal renders a default value. Defaults to [schema.Value.String].
	literal func(v *schema.Value) string
	// addColumn is the keyword between the table name and the column definition.
	addColumn string
	// nullableType wraps the type of a nullable column. When set, NOT NULL is never rendered.
	nullableType func(typ string) string
	// defaultConstraint names the default constraint of a column, for dialects that require it to
	// be dropped before the column.
	defaultConstraint func(table, column string) string
	// withValues is appended to ADD column statements with a default.
	withValues string
	createIndex func(table string, ix schema.Index) (string, error)
	dropIndex   func(table string, ix schema.Index) (string, error)
	// tableOptions is appended after the closing parenthesis of CREATE TABLE. When set, the
	// primary key is not rendered inside the column list.
	tableOptions func(columns []schema.Column) string
}

func (d *ddl) render(op schema.Operation) ([]string, error) {
	if err := op.Validate(); err != nil {
		return nil, err
	}
	switch op := op.(type) {
	case schema.CreateTable:
		return []string{d.createTable(op.Table, op.Columns)}, nil
	case schema.DropTable:
		return []string{"DROP TABLE " + op.Table}, nil
	case schema.AddColumn:
		q := fmt.Sprintf("ALTER TABLE %s %s %s", op.Table, d.addColumn, d.columnDef(op.Table, op.Column))
		if d.withValues != "" && !op.Column.Default.IsNull() {
			q += " " + d.withValues
		}
		return []string{q}, nil
	case schema.DropColumn:
		var out []string
		if d.defaultConstraint != nil && !op.Column.Default.IsNull() {
			out = append(out, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
				op.Table, d.defaultConstraint(op.Table, op.Column.Name)))
		}
		return append(out, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", op.Table, op.Column.Name)), nil
	case schema.CreateIndex:
		q, err := d.createIndex(op.Table, op.Index)
		if err != nil {
			return nil, err
		}
		return []string{q}, nil
	case schema.DropIndex:
		q, err := d.dropIndex(op.Table, op.Index)
		if err != nil {
			return nil, err
		}
		return []string{q}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, op.Kind())
}

func (d *ddl) createTable(table string, columns []schema.Column) string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(table)
	sb.WriteString(" (\n")
	var pk []string
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString("\t")
		sb.WriteString(d.columnDef(table, c))
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	if len(pk) > 0 && d.tableOptions == nil {
		sb.WriteString(",\n\tPRIMARY KEY (")
		sb.WriteString(strings.Join(pk, ", "))
		sb.WriteString(")")
	}
	sb.WriteString("\n)")
	if d.tableOptions != nil {
		sb.WriteString(" ")
		sb.WriteString(d.tableOptions(columns))
	}
	return sb.String()
}

func (d *ddl) columnDef(table string, c schema.Column) string {
	typ := d.typeName(c.Type)
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(" ")
	switch {
	case d.nullableType != nil && c.Nullable:
		sb.WriteString(d.nullableType(typ))
	default:
		sb.WriteString(typ)
	}
	if !c.Nullable && d.nullableType == nil {
		sb.WriteString(" NOT NULL")
	}
	if !c.Default.IsNull() {
		if d.defaultConstraint != nil {
			sb.WriteString(" CONSTRAINT ")
			sb.WriteString(d.defaultConstraint(table, c.Name))
		}
		sb.WriteString(" DEFAULT ")
		sb.WriteString(d.renderLiteral(c.Default))
	}
	return sb.String()
}

func (d *ddl) renderLiteral(v *schema.Value) string {
	if d.literal != nil {
		return d.literal(v)
	}
	return v.String()
}

// standardCreateIndex renders CREATE [UNIQUE] INDEX name ON table (columns).
func standardCreateIndex(table string, ix schema.Index) (string, error) {
	unique := ""
	if ix.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)", unique, ix.Name, table, strings.Join(ix.Columns, ", ")), nil
}

// dropIndexByName renders DROP INDEX name, for dialects where index names are schema wide.
func dropIndexByName(_ string, ix schema.Index) (string, error) {
	return "DROP INDEX " + ix.Name, nil
}

// dropIndexOnTable renders DROP INDEX name ON table.
func dropIndexOnTable(table string, ix schema.Index) (string, error) {
	return fmt.Sprintf("DROP INDEX %s ON %s", ix.Name, table), nil
}

func noIndexes(dialect string) func(string, schema.Index) (string, error) {
	return func(table string, ix schema.Index) (string, error) {
		return "", fmt.Errorf("%w: %s has no secondary indexes (index %s on %s)", ErrUnsupported, dialect, ix.Name, table)
	}
}

// ansiType covers the types shared by most dialects. text is used for unbounded strings.
func ansiType(text string) func(schema.Type) string {
	return func(t schema.Type) string {
		switch t.Kind {
		case schema.TypeString:
			if t.Length == 0 {
				return text
			}
			return fmt.Sprintf("VARCHAR(%d)", t.Length)
		case schema.TypeNumeric:
			return fmt.Sprintf("NUMERIC(%d,%d)", t.Precision, t.Scale)
		case schema.TypeBoolean:
			return "BOOLEAN"
		case schema.TypeInteger:
			return "INTEGER"
		case schema.TypeBigInteger:
			return "BIGINT"
		}
		return "UNKNOWN"
	}
}
