package dialectquery

import (
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

type Postgres struct{}

var (
	_ Querier     = (*Postgres)(nil)
	_ LockQuerier = (*Postgres)(nil)
)

var postgresDDL = &ddl{
	typeName:    ansiType("TEXT"),
	addColumn:   "ADD COLUMN",
	createIndex: standardCreateIndex,
	dropIndex:   dropIndexByName,
}

func (p *Postgres) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		seq bigint NOT NULL,
		revision_id varchar(255) NOT NULL,
		dirty boolean NOT NULL,
		tstamp timestamp NULL default now(),
		PRIMARY KEY(seq)
	)`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (seq, revision_id, dirty) VALUES ($1, $2, $3)`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) LatestRevision(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC LIMIT 1`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) ListRevisions(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) TableExists() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
}

func (p *Postgres) ColumnExists() string {
	return `SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`
}

func (p *Postgres) IndexExists() string {
	return `SELECT COUNT(*) FROM pg_indexes WHERE schemaname = current_schema() AND tablename = $1 AND indexname = $2`
}

func (p *Postgres) DDL(op schema.Operation) ([]string, error) { return postgresDDL.render(op) }

func (p *Postgres) TransactionalDDL() bool { return true }

func (p *Postgres) CreateLockTable(tableName string) string {
	q := `CREATE TABLE IF NOT EXISTS %s (
		lock_id bigint NOT NULL PRIMARY KEY,
		owner varchar(255) NOT NULL,
		expires_at bigint NOT NULL
	)`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) ReclaimLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = $1 AND expires_at < $2`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) AcquireLock(tableName string) string {
	q := `INSERT INTO %s (lock_id, owner, expires_at) VALUES ($1, $2, $3) ON CONFLICT (lock_id) DO NOTHING`
	return fmt.Sprintf(q, tableName)
}

func (p *Postgres) ReleaseLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = $1 AND owner = $2`
	return fmt.Sprintf(q, tableName)
}

// TryAdvisoryLockSession returns the query to try to lock the database using an exclusive session
// level advisory lock. It returns a single boolean.
func (p *Postgres) TryAdvisoryLockSession(id int64) string {
	q := `SELECT pg_try_advisory_lock(%d)`
	return fmt.Sprintf(q, id)
}

// AdvisoryUnlockSession returns the query to release an exclusive session level advisory lock.
func (p *Postgres) AdvisoryUnlockSession(id int64) string {
	q := `SELECT pg_advisory_unlock(%d)`
	return fmt.Sprintf(q, id)
}
