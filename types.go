package schemachain

import (
	"fmt"
	"time"
)

const (
	// Base is the revision of a database before the root step is applied. The empty string is
	// accepted as an alias.
	Base = "base"
	// Head resolves to the last step of the chain. "latest" is accepted as an alias.
	Head = "head"
)

// Direction is the direction a step is applied in.
type Direction int

const (
	DirectionUp Direction = iota + 1
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		// This should never happen.
		return fmt.Sprintf("unknown (%d)", int(d))
	}
}

// MigrationResult is the result of applying a single step.
//
// Note, the caller is responsible for checking the Error field for any errors that occurred while
// running the step. If the Error field is not nil, the step failed.
type MigrationResult struct {
	Step      *Step
	Direction Direction
	Duration  time.Duration
	// Empty is true if the step had no operations in the applied direction.
	Empty bool
	// Error is any error that occurred while applying the step.
	Error error
}

func (r *MigrationResult) String() string {
	state := "OK"
	if r.Error != nil {
		state = "FAILED"
	}
	return fmt.Sprintf("%-6s %-4s %s (%s)", state, r.Direction, r.Step.Revision, r.Duration.Round(time.Microsecond))
}

// State represents the state of a step relative to a database.
type State string

const (
	// StatePending is a step that has not been applied to the database.
	StatePending State = "pending"
	// StateApplied is a step that has been applied to the database.
	StateApplied State = "applied"
	// StateDirty is a step that failed partway on a database without transactional DDL.
	StateDirty State = "dirty"
)

// MigrationStatus represents the status of a single step.
type MigrationStatus struct {
	State State
	// AppliedAt is the time the step was last applied. Only set if state is [StateApplied] and
	// the version table recorded it.
	AppliedAt time.Time
	Step      *Step
}
