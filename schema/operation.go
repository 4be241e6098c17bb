package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Kind discriminates the Operation variants.
type Kind int

const (
	KindAddColumn Kind = iota + 1
	KindDropColumn
	KindCreateIndex
	KindDropIndex
	KindCreateTable
	KindDropTable
)

func (k Kind) String() string {
	switch k {
	case KindAddColumn:
		return "add_column"
	case KindDropColumn:
		return "drop_column"
	case KindCreateIndex:
		return "create_index"
	case KindDropIndex:
		return "drop_index"
	case KindCreateTable:
		return "create_table"
	case KindDropTable:
		return "drop_table"
	default:
		return fmt.Sprintf("unknown (%d)", int(k))
	}
}

// Operation is a single structural change to a schema.
//
// Drop variants carry the full definition of what they remove so that every operation has a
// structural inverse.
type Operation interface {
	Kind() Kind
	// Target is the name of the table the operation acts on.
	Target() string
	// Inverse returns the operation that undoes this one.
	Inverse() Operation
	// Validate checks the operation is well formed. It does not look at any schema.
	Validate() error
	String() string
}

// Column is a column definition.
type Column struct {
	Name       string
	Type       Type
	Nullable   bool
	Default    *Value
	PrimaryKey bool
}

func (c Column) validate() error {
	if c.Name == "" {
		return errors.New("column name must not be empty")
	}
	if err := c.Type.validate(); err != nil {
		return fmt.Errorf("column %s: %w", c.Name, err)
	}
	if !c.Default.assignable(c.Type) {
		return fmt.Errorf("column %s: default %s is not a valid %s", c.Name, c.Default, c.Type)
	}
	if c.PrimaryKey && c.Nullable {
		return fmt.Errorf("column %s: primary key must not be nullable", c.Name)
	}
	return nil
}

func (c Column) equal(other Column) bool {
	return c.Name == other.Name &&
		c.Type == other.Type &&
		c.Nullable == other.Nullable &&
		c.PrimaryKey == other.PrimaryKey &&
		c.Default.Equal(other.Default)
}

func (c Column) clone() Column {
	if c.Default != nil {
		v := *c.Default
		c.Default = &v
	}
	return c
}

func (c Column) String() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(" ")
	sb.WriteString(c.Type.String())
	if !c.Nullable {
		sb.WriteString(" not null")
	}
	if !c.Default.IsNull() {
		sb.WriteString(" default ")
		sb.WriteString(c.Default.String())
	}
	if c.PrimaryKey {
		sb.WriteString(" primary key")
	}
	return sb.String()
}

// Index is an index definition.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

func (ix Index) validate() error {
	if ix.Name == "" {
		return errors.New("index name must not be empty")
	}
	if len(ix.Columns) == 0 {
		return fmt.Errorf("index %s: at least one column is required", ix.Name)
	}
	return nil
}

func (ix Index) equal(other Index) bool {
	return ix.Name == other.Name && ix.Unique == other.Unique && slices.Equal(ix.Columns, other.Columns)
}

// AddColumn adds Column to Table. A default, if set, is written to every existing row.
type AddColumn struct {
	Table  string
	Column Column
}

var _ Operation = AddColumn{}

func (op AddColumn) Kind() Kind         { return KindAddColumn }
func (op AddColumn) Target() string     { return op.Table }
func (op AddColumn) Inverse() Operation { return DropColumn(op) }
func (op AddColumn) Validate() error    { return validateColumnOp(op.Table, op.Column) }
func (op AddColumn) String() string {
	return fmt.Sprintf("add column %s.%s", op.Table, op.Column)
}

// DropColumn removes Column from Table.
type DropColumn struct {
	Table  string
	Column Column
}

var _ Operation = DropColumn{}

func (op DropColumn) Kind() Kind         { return KindDropColumn }
func (op DropColumn) Target() string     { return op.Table }
func (op DropColumn) Inverse() Operation { return AddColumn(op) }
func (op DropColumn) Validate() error    { return validateColumnOp(op.Table, op.Column) }
func (op DropColumn) String() string {
	return fmt.Sprintf("drop column %s.%s", op.Table, op.Column.Name)
}

// CreateIndex creates Index on Table.
type CreateIndex struct {
	Table string
	Index Index
}

var _ Operation = CreateIndex{}

func (op CreateIndex) Kind() Kind         { return KindCreateIndex }
func (op CreateIndex) Target() string     { return op.Table }
func (op CreateIndex) Inverse() Operation { return DropIndex(op) }
func (op CreateIndex) Validate() error    { return validateIndexOp(op.Table, op.Index) }
func (op CreateIndex) String() string {
	return fmt.Sprintf("create index %s on %s(%s)", op.Index.Name, op.Table, strings.Join(op.Index.Columns, ","))
}

// DropIndex drops Index from Table.
type DropIndex struct {
	Table string
	Index Index
}

var _ Operation = DropIndex{}

func (op DropIndex) Kind() Kind         { return KindDropIndex }
func (op DropIndex) Target() string     { return op.Table }
func (op DropIndex) Inverse() Operation { return CreateIndex(op) }
func (op DropIndex) Validate() error    { return validateIndexOp(op.Table, op.Index) }
func (op DropIndex) String() string {
	return fmt.Sprintf("drop index %s on %s", op.Index.Name, op.Table)
}

// CreateTable creates Table with Columns.
type CreateTable struct {
	Table   string
	Columns []Column
}

var _ Operation = CreateTable{}

func (op CreateTable) Kind() Kind         { return KindCreateTable }
func (op CreateTable) Target() string     { return op.Table }
func (op CreateTable) Inverse() Operation { return DropTable(op) }
func (op CreateTable) Validate() error    { return validateTableOp(op.Table, op.Columns) }
func (op CreateTable) String() string {
	return fmt.Sprintf("create table %s (%d columns)", op.Table, len(op.Columns))
}

// DropTable drops Table. Columns is the definition the table had when it was dropped.
type DropTable struct {
	Table   string
	Columns []Column
}

var _ Operation = DropTable{}

func (op DropTable) Kind() Kind         { return KindDropTable }
func (op DropTable) Target() string     { return op.Table }
func (op DropTable) Inverse() Operation { return CreateTable(op) }
func (op DropTable) Validate() error    { return validateTableOp(op.Table, op.Columns) }
func (op DropTable) String() string     { return "drop table " + op.Table }

func validateColumnOp(table string, c Column) error {
	if table == "" {
		return errors.New("table name must not be empty")
	}
	if c.PrimaryKey {
		return fmt.Errorf("column %s: primary key columns can only be declared with create table", c.Name)
	}
	return c.validate()
}

func validateIndexOp(table string, ix Index) error {
	if table == "" {
		return errors.New("table name must not be empty")
	}
	return ix.validate()
}

func validateTableOp(table string, columns []Column) error {
	if table == "" {
		return errors.New("table name must not be empty")
	}
	if len(columns) == 0 {
		return fmt.Errorf("table %s: at least one column is required", table)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if err := c.validate(); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
		if seen[c.Name] {
			return fmt.Errorf("table %s: duplicate column %s", table, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// IsInverse reports whether b structurally undoes a.
func IsInverse(a, b Operation) bool {
	if a == nil || b == nil {
		return false
	}
	return Equal(a.Inverse(), b)
}

// Equal reports whether two operations are structurally identical.
func Equal(a, b Operation) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() || a.Target() != b.Target() {
		return false
	}
	switch x := a.(type) {
	case AddColumn:
		return x.Column.equal(b.(AddColumn).Column)
	case DropColumn:
		return x.Column.equal(b.(DropColumn).Column)
	case CreateIndex:
		return x.Index.equal(b.(CreateIndex).Index)
	case DropIndex:
		return x.Index.equal(b.(DropIndex).Index)
	case CreateTable:
		return columnsEqual(x.Columns, b.(CreateTable).Columns)
	case DropTable:
		return columnsEqual(x.Columns, b.(DropTable).Columns)
	}
	return false
}

func columnsEqual(a, b []Column) bool {
	return slices.EqualFunc(a, b, func(x, y Column) bool { return x.equal(y) })
}

// Clone returns a deep copy of op. Column lists, index columns and default values are copied so
// that changes to the copy never reach op.
func Clone(op Operation) Operation {
	switch op := op.(type) {
	case AddColumn:
		op.Column = op.Column.clone()
		return op
	case DropColumn:
		op.Column = op.Column.clone()
		return op
	case CreateIndex:
		op.Index.Columns = slices.Clone(op.Index.Columns)
		return op
	case DropIndex:
		op.Index.Columns = slices.Clone(op.Index.Columns)
		return op
	case CreateTable:
		op.Columns = cloneColumns(op.Columns)
		return op
	case DropTable:
		op.Columns = cloneColumns(op.Columns)
		return op
	}
	return op
}

func cloneColumns(columns []Column) []Column {
	if columns == nil {
		return nil
	}
	out := make([]Column, len(columns))
	for i, c := range columns {
		out[i] = c.clone()
	}
	return out
}

// Reverse returns the inverse of each operation, last operation first. Applying ops followed by
// Reverse(ops) leaves the structure of a schema unchanged.
func Reverse(ops []Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	for i := len(ops) - 1; i >= 0; i-- {
		out = append(out, ops[i].Inverse())
	}
	return out
}
