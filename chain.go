package schemachain

import (
	"fmt"
	"slices"
	"strings"
)

// Chain is a validated, strictly ordered sequence of steps from a single root to a single head.
//
// A Chain is immutable and safe for concurrent use.
type Chain struct {
	steps []*Step
	// index maps a revision to its position in steps.
	index map[string]int
}

// NewChain validates every step and resolves the unique root to head order. See [ResolveOrder].
func NewChain(steps ...*Step) (*Chain, error) {
	ordered, err := ResolveOrder(steps)
	if err != nil {
		return nil, err
	}
	c := &Chain{
		steps: make([]*Step, 0, len(ordered)),
		index: make(map[string]int, len(ordered)),
	}
	for i, s := range ordered {
		c.steps = append(c.steps, s.clone())
		c.index[s.Revision] = i
	}
	return c, nil
}

// ResolveOrder reconstructs the path from root to head by following parent links. The input may be
// in any order and is not modified.
//
// It fails with [ErrBrokenChain] if a step's parent is absent, there is no root, or some steps
// cannot be reached from the root; and with [ErrAmbiguousChain] if two steps declare the same
// parent or the same revision.
func ResolveOrder(steps []*Step) ([]*Step, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	byRevision := make(map[string]*Step, len(steps))
	for _, s := range steps {
		if s == nil {
			return nil, fmt.Errorf("%w: nil step", ErrInvalidStep)
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, ok := byRevision[s.Revision]; ok {
			return nil, fmt.Errorf("%w: duplicate revision %s", ErrAmbiguousChain, s.Revision)
		}
		byRevision[s.Revision] = s
	}
	// children maps a parent revision to the single step that follows it. The root is keyed by
	// the empty string.
	children := make(map[string]*Step, len(steps))
	for _, s := range steps {
		if !s.IsRoot() {
			if _, ok := byRevision[s.Parent]; !ok {
				return nil, fmt.Errorf("%w: %s: parent %s not found", ErrBrokenChain, s.Revision, s.Parent)
			}
		}
		if other, ok := children[s.Parent]; ok {
			if s.IsRoot() {
				return nil, fmt.Errorf("%w: multiple roots: %s and %s", ErrAmbiguousChain, other.Revision, s.Revision)
			}
			return nil, fmt.Errorf("%w: %s and %s both follow %s",
				ErrAmbiguousChain, other.Revision, s.Revision, s.Parent)
		}
		children[s.Parent] = s
	}
	root, ok := children[""]
	if !ok {
		return nil, fmt.Errorf("%w: no root step", ErrBrokenChain)
	}
	ordered := make([]*Step, 0, len(steps))
	for s := root; s != nil; s = children[s.Revision] {
		ordered = append(ordered, s)
	}
	if len(ordered) != len(steps) {
		var unreachable []string
		for _, s := range steps {
			if !slices.Contains(ordered, s) {
				unreachable = append(unreachable, s.Revision)
			}
		}
		slices.Sort(unreachable)
		return nil, fmt.Errorf("%w: unreachable from root %s: [%s]",
			ErrBrokenChain, root.Revision, strings.Join(unreachable, ","))
	}
	return ordered, nil
}

// Len returns the number of steps.
func (c *Chain) Len() int { return len(c.steps) }

// Steps returns the steps in root to head order.
func (c *Chain) Steps() []*Step { return slices.Clone(c.steps) }

// Revisions returns the revisions in root to head order.
func (c *Chain) Revisions() []string {
	out := make([]string, 0, len(c.steps))
	for _, s := range c.steps {
		out = append(out, s.Revision)
	}
	return out
}

// Root returns the first step.
func (c *Chain) Root() *Step { return c.steps[0] }

// Head returns the last step.
func (c *Chain) Head() *Step { return c.steps[len(c.steps)-1] }

// Lookup returns the step for rev, or [ErrUnknownRevision]. Symbolic revisions are not accepted.
func (c *Chain) Lookup(rev string) (*Step, error) {
	i, ok := c.index[rev]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRevision, rev)
	}
	return c.steps[i], nil
}

// Parent returns the revision rev follows, or "" if rev is the root.
func (c *Chain) Parent(rev string) (string, error) {
	s, err := c.Lookup(rev)
	if err != nil {
		return "", err
	}
	return s.Parent, nil
}

// Next returns the step that follows rev. Use [Base] to get the root. It returns
// [ErrNoNextRevision] when rev is the head.
func (c *Chain) Next(rev string) (*Step, error) {
	pos, err := c.position(rev)
	if err != nil {
		return nil, err
	}
	if pos+1 >= len(c.steps) {
		return nil, fmt.Errorf("%s: %w", rev, ErrNoNextRevision)
	}
	return c.steps[pos+1], nil
}

// Resolve normalizes rev: symbolic names are replaced with the revision they stand for ("" for
// base), and concrete revisions are checked for existence.
func (c *Chain) Resolve(rev string) (string, error) {
	pos, err := c.position(rev)
	if err != nil {
		return "", err
	}
	if pos < 0 {
		return "", nil
	}
	return c.steps[pos].Revision, nil
}

// position returns the index of rev in the chain, -1 for base.
func (c *Chain) position(rev string) (int, error) {
	switch rev {
	case "", Base:
		return -1, nil
	case Head, "latest":
		return len(c.steps) - 1, nil
	}
	i, ok := c.index[rev]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRevision, rev)
	}
	return i, nil
}

// UpgradePath returns the steps after current, up to and including target, in chain order. Both
// revisions may be symbolic. If target equals current, the path is empty.
//
// It fails with [ErrUnknownRevision] if either endpoint is not in the chain, and with
// [ErrNotAncestor] if target is not a descendant of current.
func (c *Chain) UpgradePath(target, current string) ([]*Step, error) {
	to, err := c.position(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	from, err := c.position(current)
	if err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	if to < from {
		return nil, fmt.Errorf("%w: cannot upgrade from %s to %s", ErrNotAncestor, displayRev(current), displayRev(target))
	}
	return slices.Clone(c.steps[from+1 : to+1]), nil
}

// DowngradePath returns the steps from current back to target (exclusive), most recent first.
// Both revisions may be symbolic; downgrading to [Base] includes the root.
//
// It fails with [ErrUnknownRevision] if either endpoint is not in the chain, and with
// [ErrNotAncestor] if target is not an ancestor of current.
func (c *Chain) DowngradePath(target, current string) ([]*Step, error) {
	to, err := c.position(target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}
	from, err := c.position(current)
	if err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}
	if to > from {
		return nil, fmt.Errorf("%w: cannot downgrade from %s to %s", ErrNotAncestor, displayRev(current), displayRev(target))
	}
	path := make([]*Step, 0, from-to)
	for i := from; i > to; i-- {
		path = append(path, c.steps[i])
	}
	return path, nil
}

// PathTo returns the steps to apply to move from current to target, in application order, and the
// direction to apply them in. A target behind current is reached by downgrading.
func (c *Chain) PathTo(target, current string) (Direction, []*Step, error) {
	to, err := c.position(target)
	if err != nil {
		return 0, nil, fmt.Errorf("target: %w", err)
	}
	from, err := c.position(current)
	if err != nil {
		return 0, nil, fmt.Errorf("current: %w", err)
	}
	if to < from {
		path, err := c.DowngradePath(target, current)
		return DirectionDown, path, err
	}
	path, err := c.UpgradePath(target, current)
	return DirectionUp, path, err
}

func displayRev(rev string) string {
	if rev == "" {
		return Base
	}
	return rev
}
