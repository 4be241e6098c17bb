// Package lock provides ways to ensure that only one runner applies migrations to a database at a
// time.
package lock

import (
	"context"
	"database/sql"
	"errors"
)

// ErrLockNotHeld is returned when releasing a lock the session does not hold.
var ErrLockNotHeld = errors.New("lock not held")

// SessionLocker is the interface to lock and unlock the database for the duration of a session. The
// session is defined as the duration of a single connection and both methods must be called on the
// same connection.
type SessionLocker interface {
	SessionLock(ctx context.Context, conn *sql.Conn) error
	SessionUnlock(ctx context.Context, conn *sql.Conn) error
}
