package schemachain

import (
	"errors"
	"fmt"

	"github.com/stockdesk/schemachain/lock"
)

const (
	// DefaultTableName is the revision table used when [WithTableName] is not set.
	DefaultTableName = "schemachain_revision"
)

// ProviderOption is a configuration option for a Provider.
type ProviderOption interface {
	apply(*config) error
}

// WithTableName sets the name of the database table used to record the revision history.
//
// If WithTableName is not called, the default value is "schemachain_revision".
func WithTableName(name string) ProviderOption {
	return configFunc(func(c *config) error {
		if c.tableName != "" {
			return fmt.Errorf("table already set to %q", c.tableName)
		}
		if name == "" {
			return errors.New("table must not be empty")
		}
		c.tableName = name
		return nil
	})
}

// WithVerbose enables verbose logging.
func WithVerbose(b bool) ProviderOption {
	return configFunc(func(c *config) error {
		c.verbose = b
		return nil
	})
}

// WithLogger sets the logger used for verbose output. It has no effect unless verbose logging is
// enabled.
func WithLogger(l Logger) ProviderOption {
	return configFunc(func(c *config) error {
		if l == nil {
			return errors.New("logger must not be nil")
		}
		c.logger = l
		return nil
	})
}

// WithSessionLocker enables locking using the provided SessionLocker.
//
// If WithSessionLocker is not called, locking is disabled and concurrent runners are only kept
// apart by the revision table itself. The loser of a race fails, usually with
// [database.ErrRevisionChanged] or [ErrSchemaConflict], but the driver's own error may surface
// instead, for example SQLITE_BUSY when two sqlite transactions upgrade to write locks at once.
// No revision is recorded twice either way.
func WithSessionLocker(locker lock.SessionLocker) ProviderOption {
	return configFunc(func(c *config) error {
		if c.sessionLocker != nil {
			return errors.New("session locker already set")
		}
		if locker == nil {
			return errors.New("session locker must not be nil")
		}
		c.sessionLocker = locker
		return nil
	})
}

// WithAllowDirty lets [Provider.GetRevision] and [Provider.Status] report a dirty database instead
// of failing with [ErrDirty]. Steps are never applied to a dirty database regardless of this
// option.
func WithAllowDirty(b bool) ProviderOption {
	return configFunc(func(c *config) error {
		c.allowDirty = b
		return nil
	})
}

type config struct {
	tableName  string
	verbose    bool
	logger     Logger
	allowDirty bool

	sessionLocker lock.SessionLocker
}

type configFunc func(*config) error

func (f configFunc) apply(cfg *config) error {
	return f(cfg)
}
