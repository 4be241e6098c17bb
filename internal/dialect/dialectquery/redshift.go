package dialectquery

import (
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

// Redshift speaks the postgres protocol, but has no secondary indexes, no advisory locks and does
// not enforce primary keys.
type Redshift struct {
	pg Postgres
}

var _ Querier = (*Redshift)(nil)

var redshiftDDL = &ddl{
	typeName:    ansiType("VARCHAR(65535)"),
	addColumn:   "ADD COLUMN",
	createIndex: noIndexes("redshift"),
	dropIndex:   noIndexes("redshift"),
}

func (r *Redshift) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		seq bigint NOT NULL,
		revision_id varchar(255) NOT NULL,
		dirty boolean NOT NULL,
		tstamp timestamp NULL default sysdate,
		PRIMARY KEY(seq)
	)`
	return fmt.Sprintf(q, tableName)
}

func (r *Redshift) InsertRevision(tableName string) string { return r.pg.InsertRevision(tableName) }
func (r *Redshift) LatestRevision(tableName string) string { return r.pg.LatestRevision(tableName) }
func (r *Redshift) ListRevisions(tableName string) string  { return r.pg.ListRevisions(tableName) }
func (r *Redshift) TableExists() string                    { return r.pg.TableExists() }
func (r *Redshift) ColumnExists() string                   { return r.pg.ColumnExists() }
func (r *Redshift) IndexExists() string                    { return "" }

func (r *Redshift) DDL(op schema.Operation) ([]string, error) { return redshiftDDL.render(op) }

func (r *Redshift) TransactionalDDL() bool { return true }
