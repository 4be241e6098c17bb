package dialectquery

import (
	"fmt"
	"strings"

	"github.com/stockdesk/schemachain/schema"
)

// Clickhouse keeps the revision log in a KeeperMap table, the only engine that can reject a
// second row with the same key. DDL is never transactional.
type Clickhouse struct{}

var _ Querier = (*Clickhouse)(nil)

var clickhouseDDL = &ddl{
	typeName: func(t schema.Type) string {
		switch t.Kind {
		case schema.TypeString:
			return "String"
		case schema.TypeNumeric:
			return fmt.Sprintf("Decimal(%d,%d)", t.Precision, t.Scale)
		case schema.TypeBoolean:
			return "Bool"
		case schema.TypeInteger:
			return "Int32"
		}
		return "Int64"
	},
	literal: func(v *schema.Value) string {
		if v.Kind() == schema.TypeBoolean {
			return strings.ToLower(v.String())
		}
		return v.String()
	},
	addColumn:    "ADD COLUMN",
	nullableType: func(typ string) string { return "Nullable(" + typ + ")" },
	createIndex: func(table string, ix schema.Index) (string, error) {
		if ix.Unique {
			return "", fmt.Errorf("%w: clickhouse has no unique indexes (index %s on %s)", ErrUnsupported, ix.Name, table)
		}
		return fmt.Sprintf("ALTER TABLE %s ADD INDEX %s (%s) TYPE minmax GRANULARITY 1",
			table, ix.Name, strings.Join(ix.Columns, ", ")), nil
	},
	dropIndex: func(table string, ix schema.Index) (string, error) {
		return fmt.Sprintf("ALTER TABLE %s DROP INDEX %s", table, ix.Name), nil
	},
	tableOptions: func(columns []schema.Column) string {
		var pk []string
		for _, c := range columns {
			if c.PrimaryKey {
				pk = append(pk, c.Name)
			}
		}
		if len(pk) == 0 {
			return "ENGINE = MergeTree ORDER BY tuple()"
		}
		return "ENGINE = MergeTree ORDER BY (" + strings.Join(pk, ", ") + ")"
	},
}

func (c *Clickhouse) CreateTable(tableName string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		seq Int64,
		revision_id String,
		dirty Bool,
		tstamp DateTime64(9, 'UTC') default now64(9, 'UTC')
	)
	ENGINE = KeeperMap('/schemachain/%s')
	PRIMARY KEY seq`
	return fmt.Sprintf(q, tableName, tableName)
}

// InsertRevision runs in strict mode: without it KeeperMap overwrites an existing key and two
// runners could both claim the same seq.
func (c *Clickhouse) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (seq, revision_id, dirty) SETTINGS keeper_map_strict_mode = 1 VALUES ($1, $2, $3)`
	return fmt.Sprintf(q, tableName)
}

func (c *Clickhouse) LatestRevision(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC LIMIT 1`
	return fmt.Sprintf(q, tableName)
}

func (c *Clickhouse) ListRevisions(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (c *Clickhouse) TableExists() string {
	return `SELECT toInt64(count()) FROM system.tables WHERE database = currentDatabase() AND name = $1`
}

func (c *Clickhouse) ColumnExists() string {
	return `SELECT toInt64(count()) FROM system.columns WHERE database = currentDatabase() AND table = $1 AND name = $2`
}

func (c *Clickhouse) IndexExists() string {
	return `SELECT toInt64(count()) FROM system.data_skipping_indices WHERE database = currentDatabase() AND table = $1 AND name = $2`
}

func (c *Clickhouse) DDL(op schema.Operation) ([]string, error) { return clickhouseDDL.render(op) }

func (c *Clickhouse) TransactionalDDL() bool { return false }
