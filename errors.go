package schemachain

import (
	"errors"
	"fmt"

	"github.com/stockdesk/schemachain/schema"
)

var (
	// ErrBrokenChain is returned when a step's parent is missing from the set, when no root exists,
	// or when some steps cannot be reached from the root.
	ErrBrokenChain = errors.New("broken chain")

	// ErrAmbiguousChain is returned when two steps claim the same parent (including two roots) or
	// share a revision id. Branching is not supported.
	ErrAmbiguousChain = errors.New("ambiguous chain")

	// ErrUnknownRevision is returned when a target or current revision is not in the chain.
	ErrUnknownRevision = errors.New("unknown revision")

	// ErrNotAncestor is returned when there is no path in the requested direction, for example
	// upgrading to a revision that is behind the current one.
	ErrNotAncestor = errors.New("not an ancestor")

	// ErrSchemaConflict is returned when an operation's target is already in a conflicting state.
	ErrSchemaConflict = schema.ErrSchemaConflict

	// ErrInvalidStep is returned by [NewChain] when a step is malformed or its downgrade is not
	// the exact inverse of its upgrade.
	ErrInvalidStep = errors.New("invalid step")

	// ErrNoSteps is returned when a chain or provider is constructed without steps.
	ErrNoSteps = errors.New("no migration steps")

	// ErrNoNextRevision is returned by single step operations when there is nothing to apply in
	// the requested direction.
	ErrNoNextRevision = errors.New("no next revision found")

	// ErrDirty is returned when the database was left in the middle of a step. It requires manual
	// remediation followed by [Provider.Force].
	ErrDirty = errors.New("database is dirty")
)

// OpError records the failure of a single operation within a step.
type OpError struct {
	// Revision of the step that was being applied.
	Revision  string
	Direction Direction
	// Index of the failed operation within the step's Up or Down list.
	Index int
	Op    schema.Operation
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: operation %d (%s): %v", e.Direction, e.Revision, e.Index, e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// PartialError is returned when a step fails, but some steps were already applied.
type PartialError struct {
	// Applied are steps that were applied successfully before the error occurred. May be empty.
	Applied []*MigrationResult
	// Failed contains the result of the step that failed. Cannot be nil.
	Failed *MigrationResult
	// Err is the error that caused the failure.
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("partial migration error (%s %s, %d applied): %v",
		e.Failed.Direction, e.Failed.Step.Revision, len(e.Applied), e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
