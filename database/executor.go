package database

import (
	"context"
	"fmt"

	"github.com/stockdesk/schemachain/internal/dialect/dialectquery"
	"github.com/stockdesk/schemachain/schema"
)

// Executor applies schema operations to a database as dialect specific DDL.
//
// Before each operation it checks the database is in the state the operation expects, using the
// dialect's catalog queries, and reports a mismatch as [schema.ErrSchemaConflict] without running
// anything. Checks the dialect cannot express are skipped and left to the database.
type Executor struct {
	querier dialectquery.Querier
	db      DBTxConn
}

var _ schema.Executor = (*Executor)(nil)

// NewExecutor returns an Executor that runs statements on db, which may be a transaction.
func NewExecutor(dialect Dialect, db DBTxConn) (*Executor, error) {
	querier, err := lookup(dialect)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("db must not be nil")
	}
	return &Executor{querier: querier, db: db}, nil
}

// Execute renders op, checks the database against it and runs the statements in order.
func (e *Executor) Execute(ctx context.Context, op schema.Operation) error {
	stmts, err := e.querier.DDL(op)
	if err != nil {
		return err
	}
	if err := e.check(ctx, op); err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := e.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to execute %s: %w", op, err)
		}
	}
	return nil
}

func (e *Executor) check(ctx context.Context, op schema.Operation) error {
	switch op := op.(type) {
	case schema.CreateTable:
		return e.expect(ctx, false, "table %s already exists", e.querier.TableExists(), op.Table)
	case schema.DropTable:
		return e.expect(ctx, true, "table %s does not exist", e.querier.TableExists(), op.Table)
	case schema.AddColumn:
		if err := e.expect(ctx, true, "table %s does not exist", e.querier.TableExists(), op.Table); err != nil {
			return err
		}
		return e.expect(ctx, false, "column %s.%s already exists", e.querier.ColumnExists(), op.Table, op.Column.Name)
	case schema.DropColumn:
		if err := e.expect(ctx, true, "table %s does not exist", e.querier.TableExists(), op.Table); err != nil {
			return err
		}
		return e.expect(ctx, true, "column %s.%s does not exist", e.querier.ColumnExists(), op.Table, op.Column.Name)
	case schema.CreateIndex:
		if err := e.expect(ctx, true, "table %s does not exist", e.querier.TableExists(), op.Table); err != nil {
			return err
		}
		return e.expect(ctx, false, "index %[2]s on %[1]s already exists", e.querier.IndexExists(), op.Table, op.Index.Name)
	case schema.DropIndex:
		return e.expect(ctx, true, "index %[2]s on %[1]s does not exist", e.querier.IndexExists(), op.Table, op.Index.Name)
	}
	return nil
}

// expect runs the count query q with args and returns a conflict unless the presence of the object
// matches want. An empty query skips the check.
func (e *Executor) expect(ctx context.Context, want bool, format, q string, args ...string) error {
	if q == "" {
		return nil
	}
	qargs := make([]any, len(args))
	for i, a := range args {
		qargs[i] = a
	}
	var n int64
	if err := e.db.QueryRowContext(ctx, q, qargs...).Scan(&n); err != nil {
		return fmt.Errorf("failed to inspect schema: %w", err)
	}
	if (n > 0) != want {
		return fmt.Errorf("%w: %s", schema.ErrSchemaConflict, fmt.Sprintf(format, qargs...))
	}
	return nil
}
