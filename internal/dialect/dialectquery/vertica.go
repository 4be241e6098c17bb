package dialectquery

import (
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

// Vertica has projections instead of secondary indexes, and DDL commits implicitly.
type Vertica struct{}

var _ Querier = (*Vertica)(nil)

var verticaDDL = &ddl{
	typeName: func(t schema.Type) string {
		if t.Kind == schema.TypeBigInteger {
			// INTEGER is 64-bit.
			return "INTEGER"
		}
		return ansiType("VARCHAR(65000)")(t)
	},
	addColumn:   "ADD COLUMN",
	createIndex: noIndexes("vertica"),
	dropIndex:   noIndexes("vertica"),
}

func (v *Vertica) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		seq integer NOT NULL,
		revision_id varchar(255) NOT NULL,
		dirty boolean NOT NULL,
		tstamp timestamp NULL default now(),
		PRIMARY KEY(seq) ENABLED
	)`
	return fmt.Sprintf(q, tableName)
}

func (v *Vertica) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (seq, revision_id, dirty) VALUES (?, ?, ?)`
	return fmt.Sprintf(q, tableName)
}

func (v *Vertica) LatestRevision(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC LIMIT 1`
	return fmt.Sprintf(q, tableName)
}

func (v *Vertica) ListRevisions(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (v *Vertica) TableExists() string {
	return `SELECT COUNT(*) FROM v_catalog.tables WHERE table_name = ?`
}

func (v *Vertica) ColumnExists() string {
	return `SELECT COUNT(*) FROM v_catalog.columns WHERE table_name = ? AND column_name = ?`
}

func (v *Vertica) IndexExists() string { return "" }

func (v *Vertica) DDL(op schema.Operation) ([]string, error) { return verticaDDL.render(op) }

func (v *Vertica) TransactionalDDL() bool { return false }
