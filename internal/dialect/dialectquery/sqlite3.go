package dialectquery

import (
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

type Sqlite3 struct{}

var (
	_ Querier     = (*Sqlite3)(nil)
	_ LockQuerier = (*Sqlite3)(nil)
)

var sqliteDDL = &ddl{
	typeName: func(t schema.Type) string {
		switch t.Kind {
		case schema.TypeString:
			return "TEXT"
		case schema.TypeNumeric:
			return "NUMERIC"
		case schema.TypeBoolean:
			return "BOOLEAN"
		}
		return "INTEGER"
	},
	addColumn:   "ADD COLUMN",
	createIndex: standardCreateIndex,
	dropIndex:   dropIndexByName,
}

func (s *Sqlite3) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		seq INTEGER NOT NULL PRIMARY KEY,
		revision_id TEXT NOT NULL,
		dirty BOOLEAN NOT NULL,
		tstamp TIMESTAMP DEFAULT (datetime('now'))
	)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (seq, revision_id, dirty) VALUES (?, ?, ?)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) LatestRevision(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC LIMIT 1`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) ListRevisions(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) TableExists() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
}

func (s *Sqlite3) ColumnExists() string {
	return `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
}

func (s *Sqlite3) IndexExists() string {
	return `SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = ? AND name = ?`
}

func (s *Sqlite3) DDL(op schema.Operation) ([]string, error) { return sqliteDDL.render(op) }

func (s *Sqlite3) TransactionalDDL() bool { return true }

func (s *Sqlite3) CreateLockTable(tableName string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		lock_id INTEGER NOT NULL PRIMARY KEY,
		owner TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) ReclaimLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = ? AND expires_at < ?`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) AcquireLock(tableName string) string {
	q := `INSERT OR IGNORE INTO %s (lock_id, owner, expires_at) VALUES (?, ?, ?)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlite3) ReleaseLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = ? AND owner = ?`
	return fmt.Sprintf(q, tableName)
}
