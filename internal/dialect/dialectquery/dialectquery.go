package dialectquery

import (
	"errors"
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

var (
	// ErrUnsupported is returned when a dialect cannot express an operation.
	ErrUnsupported = errors.New("unsupported by dialect")
)

// Querier is the interface that wraps the methods to create dialect specific queries.
type Querier interface {
	// CreateTable returns the SQL query string to create the revision table.
	CreateTable(tableName string) string

	// InsertRevision returns the SQL query string to record a revision transition. It takes the
	// seq, revision_id and dirty arguments. seq is the primary key, so two transitions from the
	// same state cannot both be recorded.
	InsertRevision(tableName string) string

	// LatestRevision returns the SQL query string to get the most recent transition.
	//
	// The query should return the seq, revision_id, dirty and tstamp columns.
	LatestRevision(tableName string) string

	// ListRevisions returns the SQL query string to list all transitions in descending order by
	// seq, with the same columns as LatestRevision.
	ListRevisions(tableName string) string

	// TableExists, ColumnExists and IndexExists return queries producing a single count. They take
	// (table), (table, column) and (table, index) arguments. An empty string means the dialect
	// cannot answer the question.
	TableExists() string
	ColumnExists() string
	IndexExists() string

	// DDL renders a schema operation as one or more statements, executed in order.
	DDL(op schema.Operation) ([]string, error)

	// TransactionalDDL reports whether DDL statements run inside a transaction are rolled back
	// with it.
	TransactionalDDL() bool
}

// LockQuerier is implemented by dialects that support a table based lock.
type LockQuerier interface {
	// CreateLockTable returns the SQL query string to create the lock table if it does not exist.
	CreateLockTable(tableName string) string

	// ReclaimLock returns the SQL query string to delete an expired lock. It takes the lock_id and
	// the current unix time.
	ReclaimLock(tableName string) string

	// AcquireLock returns the SQL query string to insert the lock row unless it already exists. It
	// takes lock_id, owner and expires_at arguments and must affect exactly one row on success.
	AcquireLock(tableName string) string

	// ReleaseLock returns the SQL query string to delete the lock row. It takes lock_id and owner.
	ReleaseLock(tableName string) string
}

// Lookup returns the querier for the named dialect.
func Lookup(dialect string) (Querier, error) {
	switch dialect {
	case "postgres":
		return &Postgres{}, nil
	case "redshift":
		return &Redshift{}, nil
	case "sqlite3":
		return &Sqlite3{}, nil
	case "turso":
		return &Turso{}, nil
	case "mysql":
		return &Mysql{}, nil
	case "tidb":
		return &Tidb{}, nil
	case "mssql":
		return &Sqlserver{}, nil
	case "clickhouse":
		return &Clickhouse{}, nil
	case "vertica":
		return &Vertica{}, nil
	}
	return nil, fmt.Errorf("unknown dialect: %q", dialect)
}
