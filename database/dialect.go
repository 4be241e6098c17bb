package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stockdesk/schemachain/internal/dialect/dialectquery"
	"github.com/stockdesk/schemachain/schema"
)

// Dialect is the type of database dialect.
type Dialect string

const (
	DialectClickHouse Dialect = "clickhouse"
	DialectMSSQL      Dialect = "mssql"
	DialectMySQL      Dialect = "mysql"
	DialectPostgres   Dialect = "postgres"
	DialectRedshift   Dialect = "redshift"
	DialectSQLite3    Dialect = "sqlite3"
	DialectTiDB       Dialect = "tidb"
	DialectTurso      Dialect = "turso"
	DialectVertica    Dialect = "vertica"
)

// DBTxConn is a thin interface for common methods that is satisfied by *sql.DB, *sql.Tx and
// *sql.Conn.
//
// There is a long outstanding issue to formalize a std lib interface, but alas. See:
// https://github.com/golang/go/issues/14468
type DBTxConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func lookup(dialect Dialect) (dialectquery.Querier, error) {
	if dialect == "" {
		return nil, errors.New("dialect must not be empty")
	}
	return dialectquery.Lookup(string(dialect))
}

// TransactionalDDL reports whether the dialect rolls back DDL together with the enclosing
// transaction. When it does not, a Provider records a dirty state around every step.
func TransactionalDDL(dialect Dialect) (bool, error) {
	q, err := lookup(dialect)
	if err != nil {
		return false, err
	}
	return q.TransactionalDDL(), nil
}

// RenderStatements renders op as the statements the dialect would execute, without a database.
func RenderStatements(dialect Dialect, op schema.Operation) ([]string, error) {
	q, err := lookup(dialect)
	if err != nil {
		return nil, err
	}
	stmts, err := q.DDL(op)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dialect, err)
	}
	return stmts, nil
}
