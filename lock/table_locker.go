package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/stockdesk/schemachain/database"
	"github.com/stockdesk/schemachain/internal/dialect/dialectquery"
)

// NewTableLocker returns a SessionLocker that holds a lease row in a lock table. It works on any
// dialect that can insert a row only if it is absent: postgres, sqlite3, turso, mysql, tidb and
// mssql.
//
// The lock table is created on first use. A lease that is not released, for example because the
// runner died, expires after the lease duration and may then be reclaimed by another runner. The
// lease is not renewed while held, so it must outlast the longest run.
//
// Defaults:
//
//	Table: "schemachain_lock"
//	Lock ID: DefaultLockID
//	Lease: 30m
//	Lock retry: 2s intervals, 60m timeout
//	Unlock retry: 2s intervals, 1m timeout
func NewTableLocker(dialect database.Dialect, opts ...SessionLockerOption) (SessionLocker, error) {
	cfg, err := newSessionLockerConfig(opts)
	if err != nil {
		return nil, err
	}
	q, err := dialectquery.Lookup(string(dialect))
	if err != nil {
		return nil, err
	}
	querier, ok := q.(dialectquery.LockQuerier)
	if !ok {
		return nil, fmt.Errorf("table locking is not supported for dialect %q", dialect)
	}
	owner, err := newOwner()
	if err != nil {
		return nil, err
	}
	return &tableLocker{
		querier:     querier,
		tableName:   cfg.tableName,
		lockID:      cfg.lockID,
		owner:       owner,
		lease:       cfg.lease,
		retryLock:   newBackoff(cfg.lockDuration, cfg.retryInterval),
		retryUnlock: newBackoff(cfg.unlockDuration, cfg.retryInterval),
		now:         time.Now,
	}, nil
}

type tableLocker struct {
	querier   dialectquery.LockQuerier
	tableName string
	lockID    int64
	// owner identifies this locker in the lock row, so a runner only ever releases its own lease.
	owner       string
	lease       time.Duration
	retryLock   func() retry.Backoff
	retryUnlock func() retry.Backoff
	now         func() time.Time
}

var _ SessionLocker = (*tableLocker)(nil)

func (l *tableLocker) SessionLock(ctx context.Context, conn *sql.Conn) error {
	if _, err := conn.ExecContext(ctx, l.querier.CreateLockTable(l.tableName)); err != nil {
		return fmt.Errorf("failed to create lock table %q: %w", l.tableName, err)
	}
	return retry.Do(ctx, l.retryLock(), func(ctx context.Context) error {
		now := l.now()
		if _, err := conn.ExecContext(ctx, l.querier.ReclaimLock(l.tableName), l.lockID, now.Unix()); err != nil {
			return fmt.Errorf("failed to reclaim expired lock: %w", err)
		}
		expiresAt := now.Add(l.lease).Unix()
		res, err := conn.ExecContext(ctx, l.querier.AcquireLock(l.tableName), l.lockID, l.owner, expiresAt)
		if err != nil {
			// Concurrent inserts may surface as lock or constraint errors depending on the
			// driver. Either way another runner got there first.
			return retry.RetryableError(fmt.Errorf("failed to acquire lock: %w", err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if n == 1 {
			return nil
		}
		return retry.RetryableError(errors.New("failed to acquire lock"))
	})
}

func (l *tableLocker) SessionUnlock(ctx context.Context, conn *sql.Conn) error {
	return retry.Do(ctx, l.retryUnlock(), func(ctx context.Context) error {
		res, err := conn.ExecContext(ctx, l.querier.ReleaseLock(l.tableName), l.lockID, l.owner)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("failed to release lock: %w", err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to release lock: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: lock %d in %s", ErrLockNotHeld, l.lockID, l.tableName)
		}
		return nil
	})
}

func newOwner() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate lock owner: %w", err)
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), id), nil
}
