package dialectquery

import (
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

type Mysql struct{}

var (
	_ Querier     = (*Mysql)(nil)
	_ LockQuerier = (*Mysql)(nil)
)

var mysqlDDL = &ddl{
	typeName: func(t schema.Type) string {
		switch t.Kind {
		case schema.TypeNumeric:
			return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
		case schema.TypeInteger:
			return "INT"
		}
		return ansiType("TEXT")(t)
	},
	addColumn:   "ADD COLUMN",
	createIndex: standardCreateIndex,
	dropIndex:   dropIndexOnTable,
}

func (m *Mysql) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		seq bigint NOT NULL,
		revision_id varchar(255) NOT NULL,
		dirty boolean NOT NULL,
		tstamp timestamp NULL default now(),
		PRIMARY KEY(seq)
	)`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (seq, revision_id, dirty) VALUES (?, ?, ?)`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) LatestRevision(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC LIMIT 1`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) ListRevisions(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) TableExists() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`
}

func (m *Mysql) ColumnExists() string {
	return `SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?`
}

func (m *Mysql) IndexExists() string {
	return `SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?`
}

func (m *Mysql) DDL(op schema.Operation) ([]string, error) { return mysqlDDL.render(op) }

// TransactionalDDL is false: every DDL statement causes an implicit commit.
func (m *Mysql) TransactionalDDL() bool { return false }

func (m *Mysql) CreateLockTable(tableName string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		lock_id bigint NOT NULL PRIMARY KEY,
		owner varchar(255) NOT NULL,
		expires_at bigint NOT NULL
	)`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) ReclaimLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = ? AND expires_at < ?`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) AcquireLock(tableName string) string {
	q := `INSERT IGNORE INTO %s (lock_id, owner, expires_at) VALUES (?, ?, ?)`
	return fmt.Sprintf(q, tableName)
}

func (m *Mysql) ReleaseLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = ? AND owner = ?`
	return fmt.Sprintf(q, tableName)
}
