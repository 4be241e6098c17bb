package dialectquery

import (
	"fmt"
	"strings"

	"github.com/stockdesk/schemachain/schema"
)

type Sqlserver struct{}

var (
	_ Querier     = (*Sqlserver)(nil)
	_ LockQuerier = (*Sqlserver)(nil)
)

var sqlserverDDL = &ddl{
	typeName: func(t schema.Type) string {
		switch t.Kind {
		case schema.TypeString:
			if t.Length == 0 {
				return "NVARCHAR(MAX)"
			}
			return fmt.Sprintf("NVARCHAR(%d)", t.Length)
		case schema.TypeNumeric:
			return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
		case schema.TypeBoolean:
			return "BIT"
		case schema.TypeInteger:
			return "INT"
		}
		return "BIGINT"
	},
	literal: func(v *schema.Value) string {
		switch v.Kind() {
		case schema.TypeBoolean:
			if v.Bool() {
				return "1"
			}
			return "0"
		case schema.TypeString:
			return "N" + v.String()
		}
		return v.String()
	},
	addColumn: "ADD",
	// Default constraints are named so that they can be dropped along with their column.
	defaultConstraint: func(table, column string) string {
		return "DF_" + table + "_" + column
	},
	withValues:  "WITH VALUES",
	createIndex: standardCreateIndex,
	dropIndex:   dropIndexOnTable,
}

func (s *Sqlserver) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		seq BIGINT NOT NULL PRIMARY KEY,
		revision_id NVARCHAR(255) NOT NULL,
		dirty BIT NOT NULL,
		tstamp DATETIME NULL DEFAULT CURRENT_TIMESTAMP
	)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlserver) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (seq, revision_id, dirty) VALUES (@p1, @p2, @p3)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlserver) LatestRevision(tableName string) string {
	q := `SELECT TOP 1 seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlserver) ListRevisions(tableName string) string {
	q := `SELECT seq, revision_id, dirty, tstamp FROM %s ORDER BY seq DESC`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlserver) TableExists() string {
	return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1`
}

func (s *Sqlserver) ColumnExists() string {
	return `SELECT COUNT(*) FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = @p1 AND COLUMN_NAME = @p2`
}

func (s *Sqlserver) IndexExists() string {
	return `SELECT COUNT(*) FROM sys.indexes WHERE object_id = OBJECT_ID(@p1) AND name = @p2`
}

func (s *Sqlserver) DDL(op schema.Operation) ([]string, error) { return sqlserverDDL.render(op) }

func (s *Sqlserver) TransactionalDDL() bool { return true }

func (s *Sqlserver) CreateLockTable(tableName string) string {
	q := `IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (
		lock_id BIGINT NOT NULL PRIMARY KEY,
		owner NVARCHAR(255) NOT NULL,
		expires_at BIGINT NOT NULL
	)`
	return fmt.Sprintf(q, strings.ReplaceAll(tableName, "'", "''"), tableName)
}

func (s *Sqlserver) ReclaimLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = @p1 AND expires_at < @p2`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlserver) AcquireLock(tableName string) string {
	q := `INSERT INTO %[1]s (lock_id, owner, expires_at)
	SELECT @p1, @p2, @p3
	WHERE NOT EXISTS (SELECT 1 FROM %[1]s WITH (UPDLOCK, HOLDLOCK) WHERE lock_id = @p1)`
	return fmt.Sprintf(q, tableName)
}

func (s *Sqlserver) ReleaseLock(tableName string) string {
	q := `DELETE FROM %s WHERE lock_id = @p1 AND owner = @p2`
	return fmt.Sprintf(q, tableName)
}
