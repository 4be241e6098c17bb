package lock

import (
	"errors"
	"time"
)

const (
	// DefaultLockID is the id used to lock the database for migrations. Runners of unrelated
	// chains sharing a database should each set their own with [WithLockID].
	DefaultLockID int64 = 4350712094626139431

	// DefaultLockTableName is the table used by the table locker.
	DefaultLockTableName = "schemachain_lock"

	// Default values for the lock (time to wait for the lock to be acquired) and unlock (time to
	// wait for the lock to be released) durations.
	DefaultLockDuration   time.Duration = 60 * time.Minute
	DefaultUnlockDuration time.Duration = 1 * time.Minute

	// DefaultLease is how long a table lock row stays valid. A runner that dies while holding the
	// lock blocks others for at most this long.
	DefaultLease time.Duration = 30 * time.Minute

	// DefaultRetryInterval is the delay between attempts to acquire or release a lock.
	DefaultRetryInterval time.Duration = 2 * time.Second
)

// SessionLockerOption is used to configure a SessionLocker.
type SessionLockerOption interface {
	apply(*sessionLockerConfig) error
}

// WithLockID sets the lock ID to use when locking the database.
//
// If WithLockID is not called, the DefaultLockID is used.
func WithLockID(lockID int64) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		c.lockID = lockID
		return nil
	})
}

// WithLockDuration sets the max duration to wait for the lock to be acquired.
func WithLockDuration(duration time.Duration) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		if duration <= 0 {
			return errors.New("lock duration must be positive")
		}
		c.lockDuration = duration
		return nil
	})
}

// WithUnlockDuration sets the max duration to wait for the lock to be released.
func WithUnlockDuration(duration time.Duration) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		if duration <= 0 {
			return errors.New("unlock duration must be positive")
		}
		c.unlockDuration = duration
		return nil
	})
}

// WithRetryInterval sets the delay between attempts to acquire or release the lock.
func WithRetryInterval(interval time.Duration) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		if interval <= 0 {
			return errors.New("retry interval must be positive")
		}
		c.retryInterval = interval
		return nil
	})
}

// WithLockTable sets the table used by the table locker. It has no effect on the postgres
// session locker.
func WithLockTable(tableName string) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		if tableName == "" {
			return errors.New("lock table name must not be empty")
		}
		c.tableName = tableName
		return nil
	})
}

// WithLease sets how long a table lock stays valid after it is acquired. It should be longer than
// the longest expected run. It has no effect on the postgres session locker.
func WithLease(lease time.Duration) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		if lease <= 0 {
			return errors.New("lease must be positive")
		}
		c.lease = lease
		return nil
	})
}

type sessionLockerConfig struct {
	lockID         int64
	lockDuration   time.Duration
	unlockDuration time.Duration
	retryInterval  time.Duration
	tableName      string
	lease          time.Duration
}

func newSessionLockerConfig(opts []SessionLockerOption) (*sessionLockerConfig, error) {
	cfg := &sessionLockerConfig{
		lockID:         DefaultLockID,
		lockDuration:   DefaultLockDuration,
		unlockDuration: DefaultUnlockDuration,
		retryInterval:  DefaultRetryInterval,
		tableName:      DefaultLockTableName,
		lease:          DefaultLease,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

var _ SessionLockerOption = (sessionLockerConfigFunc)(nil)

type sessionLockerConfigFunc func(*sessionLockerConfig) error

func (f sessionLockerConfigFunc) apply(cfg *sessionLockerConfig) error {
	return f(cfg)
}
