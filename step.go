package schemachain

import (
	"fmt"
	"slices"

	"github.com/stockdesk/schemachain/schema"
)

// Step is a single migration step, identified by its revision and linked to its predecessor by
// Parent.
//
// A step is authored once and must not change after it has been applied anywhere. The chain keeps
// its own copy of every step, so mutating a Step after passing it to [NewChain] has no effect on
// the chain.
type Step struct {
	// Revision uniquely identifies the step.
	Revision string
	// Parent is the revision this step follows. Empty only for the root step.
	Parent string
	// BranchLabels and DependsOn are reserved for branching chains and must be empty.
	BranchLabels []string
	DependsOn    []string
	// Up is applied in order when upgrading.
	Up []schema.Operation
	// Down is applied in order when downgrading. It must be the exact inverse of Up: Down[i]
	// undoes Up[len(Up)-1-i].
	Down []schema.Operation
}

// IsRoot reports whether the step has no parent.
func (s *Step) IsRoot() bool { return s.Parent == "" }

func (s *Step) String() string { return s.Revision }

func (s *Step) operations(d Direction) []schema.Operation {
	if d == DirectionDown {
		return s.Down
	}
	return s.Up
}

func (s *Step) clone() *Step {
	return &Step{
		Revision:     s.Revision,
		Parent:       s.Parent,
		BranchLabels: slices.Clone(s.BranchLabels),
		DependsOn:    slices.Clone(s.DependsOn),
		Up:           cloneOps(s.Up),
		Down:         cloneOps(s.Down),
	}
}

func cloneOps(ops []schema.Operation) []schema.Operation {
	if ops == nil {
		return nil
	}
	out := make([]schema.Operation, len(ops))
	for i, op := range ops {
		out[i] = schema.Clone(op)
	}
	return out
}

// Validate checks the step is well formed and that Down is the exact inverse of Up in reverse
// order.
func (s *Step) Validate() error {
	if s.Revision == "" {
		return fmt.Errorf("%w: revision must not be empty", ErrInvalidStep)
	}
	if isSymbolic(s.Revision) {
		return fmt.Errorf("%w: revision %q is reserved", ErrInvalidStep, s.Revision)
	}
	if s.Parent == s.Revision {
		return fmt.Errorf("%w: %s: step cannot be its own parent", ErrInvalidStep, s.Revision)
	}
	if len(s.BranchLabels) > 0 || len(s.DependsOn) > 0 {
		return fmt.Errorf("%w: %s: branch labels and depends on are not supported", ErrInvalidStep, s.Revision)
	}
	if len(s.Up) != len(s.Down) {
		return fmt.Errorf("%w: %s: %d upgrade operations but %d downgrade operations",
			ErrInvalidStep, s.Revision, len(s.Up), len(s.Down))
	}
	for i, op := range s.Up {
		if op == nil {
			return fmt.Errorf("%w: %s: upgrade operation %d is nil", ErrInvalidStep, s.Revision, i)
		}
		if err := op.Validate(); err != nil {
			return fmt.Errorf("%w: %s: upgrade operation %d: %v", ErrInvalidStep, s.Revision, i, err)
		}
		j := len(s.Down) - 1 - i
		if !schema.IsInverse(op, s.Down[j]) {
			return fmt.Errorf("%w: %s: downgrade operation %d (%v) does not undo upgrade operation %d (%s)",
				ErrInvalidStep, s.Revision, j, s.Down[j], i, op)
		}
	}
	return nil
}

func isSymbolic(rev string) bool {
	switch rev {
	case Base, Head, "latest":
		return true
	}
	return false
}
