package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/stockdesk/schemachain/internal/dialect/dialectquery"
)

// NewPostgresSessionLocker returns a SessionLocker that utilizes PostgreSQL's exclusive
// session-level advisory lock mechanism.
//
// This function creates a SessionLocker that can be used to acquire and release locks for
// synchronization purposes. The lock acquisition is retried until it is successfully acquired or
// until the maximum duration is reached. The default lock duration is set to 60 minutes, and the
// default unlock duration is set to 1 minute.
//
// See [SessionLockerOption] for options that can be used to configure the SessionLocker.
func NewPostgresSessionLocker(opts ...SessionLockerOption) (SessionLocker, error) {
	cfg, err := newSessionLockerConfig(opts)
	if err != nil {
		return nil, err
	}
	return &postgresSessionLocker{
		lockID:      cfg.lockID,
		retryLock:   newBackoff(cfg.lockDuration, cfg.retryInterval),
		retryUnlock: newBackoff(cfg.unlockDuration, cfg.retryInterval),
	}, nil
}

type postgresSessionLocker struct {
	lockID      int64
	retryLock   func() retry.Backoff
	retryUnlock func() retry.Backoff
}

var _ SessionLocker = (*postgresSessionLocker)(nil)

func (l *postgresSessionLocker) SessionLock(ctx context.Context, conn *sql.Conn) error {
	return retry.Do(ctx, l.retryLock(), func(ctx context.Context) error {
		row := conn.QueryRowContext(ctx, (&dialectquery.Postgres{}).TryAdvisoryLockSession(l.lockID))
		var locked bool
		if err := row.Scan(&locked); err != nil {
			return fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
		}
		if locked {
			// A session-level advisory lock was acquired.
			return nil
		}
		// A session-level advisory lock could not be acquired. This is likely because another
		// process has already acquired the lock. We will continue retrying until the lock is
		// acquired or the maximum number of retries is reached.
		return retry.RetryableError(errors.New("failed to acquire lock"))
	})
}

func (l *postgresSessionLocker) SessionUnlock(ctx context.Context, conn *sql.Conn) error {
	return retry.Do(ctx, l.retryUnlock(), func(ctx context.Context) error {
		var unlocked bool
		row := conn.QueryRowContext(ctx, (&dialectquery.Postgres{}).AdvisoryUnlockSession(l.lockID))
		if err := row.Scan(&unlocked); err != nil {
			return fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
		}
		if unlocked {
			// A session-level advisory lock was released.
			return nil
		}
		// pg_advisory_unlock returns false when the session does not hold the lock. Retrying
		// cannot change that.
		return fmt.Errorf("%w: advisory lock %d", ErrLockNotHeld, l.lockID)
	})
}

// newBackoff returns a constructor because backoffs are stateful and each call to retry.Do needs a
// fresh one.
func newBackoff(maxDuration, interval time.Duration) func() retry.Backoff {
	return func() retry.Backoff {
		return retry.WithMaxDuration(maxDuration, retry.NewConstant(interval))
	}
}
