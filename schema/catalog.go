package schema

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrSchemaConflict is returned when an operation's target is already in a conflicting state,
	// for example adding a column that already exists or dropping one that does not.
	ErrSchemaConflict = errors.New("schema conflict")
)

// Executor applies operations to a schema. Implementations must not treat operations as
// idempotent: an operation whose target is in a conflicting state must fail with an error
// wrapping [ErrSchemaConflict].
type Executor interface {
	Execute(ctx context.Context, op Operation) error
}

// Row is a single row of a catalog table, keyed by column name.
type Row map[string]*Value

// Table is a table in a [Catalog].
type Table struct {
	Name    string
	Columns []Column
	Indexes []Index
	Rows    []Row
}

func (t *Table) column(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (t *Table) index(name string) (int, bool) {
	for i, ix := range t.Indexes {
		if ix.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Catalog is an in-memory schema. It models tables, columns and indexes, plus enough row data to
// observe default backfill. The zero value is not usable, use [NewCatalog].
//
// A Catalog is not safe for concurrent use.
type Catalog struct {
	tables map[string]*Table
}

var _ Executor = (*Catalog)(nil)

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*Table)}
}

// Execute applies op. See [Catalog.Apply].
func (c *Catalog) Execute(ctx context.Context, op Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.Apply(op)
}

// Apply applies a single operation, returning an error wrapping [ErrSchemaConflict] if the
// operation's target is in a conflicting state. A failed operation leaves the catalog unchanged.
func (c *Catalog) Apply(op Operation) error {
	if op == nil {
		return errors.New("nil operation")
	}
	if err := op.Validate(); err != nil {
		return err
	}
	switch op := op.(type) {
	case CreateTable:
		if _, ok := c.tables[op.Table]; ok {
			return conflictf("table %s already exists", op.Table)
		}
		c.tables[op.Table] = &Table{
			Name:    op.Table,
			Columns: slices.Clone(op.Columns),
		}
		return nil
	case DropTable:
		if _, ok := c.tables[op.Table]; !ok {
			return conflictf("table %s does not exist", op.Table)
		}
		delete(c.tables, op.Table)
		return nil
	}
	t, ok := c.tables[op.Target()]
	if !ok {
		return conflictf("table %s does not exist", op.Target())
	}
	switch op := op.(type) {
	case AddColumn:
		return addColumn(t, op.Column)
	case DropColumn:
		return dropColumn(t, op.Column.Name)
	case CreateIndex:
		if _, ok := t.index(op.Index.Name); ok {
			return conflictf("index %s already exists on %s", op.Index.Name, t.Name)
		}
		for _, name := range op.Index.Columns {
			if _, ok := t.column(name); !ok {
				return conflictf("index %s references missing column %s.%s", op.Index.Name, t.Name, name)
			}
		}
		t.Indexes = append(t.Indexes, cloneIndex(op.Index))
		return nil
	case DropIndex:
		i, ok := t.index(op.Index.Name)
		if !ok {
			return conflictf("index %s does not exist on %s", op.Index.Name, t.Name)
		}
		t.Indexes = slices.Delete(t.Indexes, i, i+1)
		return nil
	}
	return fmt.Errorf("unsupported operation: %s", op.Kind())
}

func addColumn(t *Table, col Column) error {
	if _, ok := t.column(col.Name); ok {
		return conflictf("column %s.%s already exists", t.Name, col.Name)
	}
	if !col.Nullable && col.Default.IsNull() && len(t.Rows) > 0 {
		return conflictf("column %s.%s is not null without a default and table has %d rows",
			t.Name, col.Name, len(t.Rows))
	}
	t.Columns = append(t.Columns, col)
	for _, row := range t.Rows {
		row[col.Name] = col.Default
	}
	return nil
}

func dropColumn(t *Table, name string) error {
	i, ok := t.column(name)
	if !ok {
		return conflictf("column %s.%s does not exist", t.Name, name)
	}
	for _, ix := range t.Indexes {
		if slices.Contains(ix.Columns, name) {
			return conflictf("column %s.%s is used by index %s", t.Name, name, ix.Name)
		}
	}
	t.Columns = slices.Delete(t.Columns, i, i+1)
	for _, row := range t.Rows {
		delete(row, name)
	}
	return nil
}

// Insert appends a row to table. Columns missing from row take their default.
func (c *Catalog) Insert(table string, row Row) error {
	t, ok := c.tables[table]
	if !ok {
		return fmt.Errorf("table %s does not exist", table)
	}
	out := make(Row, len(t.Columns))
	for _, col := range t.Columns {
		v, ok := row[col.Name]
		if !ok {
			v = col.Default
		}
		if v.IsNull() && !col.Nullable {
			return fmt.Errorf("column %s.%s must not be null", table, col.Name)
		}
		if !v.assignable(col.Type) {
			return fmt.Errorf("column %s.%s: %s is not a valid %s", table, col.Name, v, col.Type)
		}
		out[col.Name] = v
	}
	for name := range row {
		if _, ok := t.column(name); !ok {
			return fmt.Errorf("column %s.%s does not exist", table, name)
		}
	}
	t.Rows = append(t.Rows, out)
	return nil
}

// Table returns the named table. The returned value must not be modified.
func (c *Catalog) Table(name string) (*Table, bool) {
	t, ok := c.tables[name]
	return t, ok
}

// Tables returns the table names in sorted order.
func (c *Catalog) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Columns returns the column names of table in definition order, or nil if the table does not
// exist.
func (c *Catalog) Columns(table string) []string {
	t, ok := c.tables[table]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

func (c *Catalog) HasColumn(table, column string) bool {
	t, ok := c.tables[table]
	if !ok {
		return false
	}
	_, ok = t.column(column)
	return ok
}

func (c *Catalog) HasIndex(table, index string) bool {
	t, ok := c.tables[table]
	if !ok {
		return false
	}
	_, ok = t.index(index)
	return ok
}

// Clone returns a deep copy of the catalog, including rows.
func (c *Catalog) Clone() *Catalog {
	out := NewCatalog()
	for name, t := range c.tables {
		nt := &Table{
			Name:    t.Name,
			Columns: slices.Clone(t.Columns),
			Indexes: make([]Index, 0, len(t.Indexes)),
			Rows:    make([]Row, 0, len(t.Rows)),
		}
		for _, ix := range t.Indexes {
			nt.Indexes = append(nt.Indexes, cloneIndex(ix))
		}
		for _, row := range t.Rows {
			r := make(Row, len(row))
			for k, v := range row {
				r[k] = v
			}
			nt.Rows = append(nt.Rows, r)
		}
		out.tables[name] = nt
	}
	return out
}

// Equal reports whether two catalogs have the same structure: the same tables, with the same
// columns in the same order and the same set of indexes. Row data is ignored.
func (c *Catalog) Equal(other *Catalog) bool {
	if len(c.tables) != len(other.tables) {
		return false
	}
	for name, t := range c.tables {
		o, ok := other.tables[name]
		if !ok || !columnsEqual(t.Columns, o.Columns) || len(t.Indexes) != len(o.Indexes) {
			return false
		}
		for _, ix := range t.Indexes {
			i, ok := o.index(ix.Name)
			if !ok || !ix.equal(o.Indexes[i]) {
				return false
			}
		}
	}
	return true
}

func cloneIndex(ix Index) Index {
	ix.Columns = slices.Clone(ix.Columns)
	return ix
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaConflict, fmt.Sprintf(format, args...))
}
