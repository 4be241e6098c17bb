package schemachain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/stockdesk/schemachain/database"
	"go.uber.org/multierr"
)

// Provider applies a chain of steps to a single database and records its revision there.
type Provider struct {
	// mu protects all accesses to the provider and must be held when calling operations on the
	// database.
	mu sync.Mutex

	db      *sql.DB
	dialect database.Dialect
	store   database.Store
	chain   *Chain
	cfg     config
	// transactional is true when a step's operations and its revision claim commit together.
	transactional bool
}

// NewProvider returns a new Provider for the given steps, which may be in any order.
//
// The caller is responsible for matching the database dialect with the database/sql driver. For
// example, if the database dialect is "postgres", the database/sql driver could be
// github.com/jackc/pgx/v5/stdlib.
//
// See [ProviderOption] for more information on configuring the provider.
//
// Unless otherwise specified, all methods on Provider are safe for concurrent use.
func NewProvider(dialect database.Dialect, db *sql.DB, steps []*Step, opts ...ProviderOption) (*Provider, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if dialect == "" {
		return nil, errors.New("dialect must not be empty")
	}
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	var cfg config
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}
	// Set defaults after applying user-supplied options so option funcs can check for empty values.
	if cfg.tableName == "" {
		cfg.tableName = DefaultTableName
	}
	if cfg.logger == nil {
		cfg.logger = newStdLogger()
	}
	store, err := database.NewStore(dialect, cfg.tableName)
	if err != nil {
		return nil, err
	}
	transactional, err := database.TransactionalDDL(dialect)
	if err != nil {
		return nil, err
	}
	chain, err := NewChain(steps...)
	if err != nil {
		return nil, err
	}
	return &Provider{
		db:            db,
		dialect:       dialect,
		store:         store,
		chain:         chain,
		cfg:           cfg,
		transactional: transactional,
	}, nil
}

// Chain returns the validated chain of steps.
func (p *Provider) Chain() *Chain {
	return p.chain
}

// ListSteps returns the steps in root to head order.
func (p *Provider) ListSteps() []*Step {
	return p.chain.Steps()
}

// Ping attempts to ping the database to verify a connection is available.
func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection initially supplied to the provider.
func (p *Provider) Close() error {
	return p.db.Close()
}

// Up applies all pending steps. If the database is already at head, it returns an empty result
// and no error.
func (p *Provider) Up(ctx context.Context) ([]*MigrationResult, error) {
	return p.UpTo(ctx, Head)
}

// UpByOne applies the next pending step. If there is none, it returns [ErrNoNextRevision].
func (p *Provider) UpByOne(ctx context.Context) (*MigrationResult, error) {
	return p.runOne(ctx, func(current string) (*Step, error) {
		return p.chain.Next(current)
	}, DirectionUp)
}

// UpTo applies the steps after the current revision up to and including target. It fails with
// [ErrNotAncestor] if target is behind the current revision.
func (p *Provider) UpTo(ctx context.Context, target string) ([]*MigrationResult, error) {
	return p.run(ctx, func(current string) ([]*Step, Direction, error) {
		path, err := p.chain.UpgradePath(target, current)
		return path, DirectionUp, err
	})
}

// Down rolls back the current step. At base, it returns [ErrNoNextRevision].
func (p *Provider) Down(ctx context.Context) (*MigrationResult, error) {
	return p.runOne(ctx, func(current string) (*Step, error) {
		if current == "" {
			return nil, fmt.Errorf("%s: %w", Base, ErrNoNextRevision)
		}
		return p.chain.Lookup(current)
	}, DirectionDown)
}

// DownTo rolls back steps, most recent first, until target is the current revision. Use [Base] to
// roll back every step. It fails with [ErrNotAncestor] if target is ahead of the current revision.
func (p *Provider) DownTo(ctx context.Context, target string) ([]*MigrationResult, error) {
	return p.run(ctx, func(current string) ([]*Step, Direction, error) {
		path, err := p.chain.DowngradePath(target, current)
		return path, DirectionDown, err
	})
}

// Reset rolls back every step.
func (p *Provider) Reset(ctx context.Context) ([]*MigrationResult, error) {
	return p.DownTo(ctx, Base)
}

// Redo rolls back the current step and applies it again, in a single session.
func (p *Provider) Redo(ctx context.Context) (_ []*MigrationResult, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	state, err := p.cleanState(ctx, conn)
	if err != nil {
		return nil, err
	}
	if state.Revision == "" {
		return nil, fmt.Errorf("redo at %s: %w", Base, ErrNoNextRevision)
	}
	s, err := p.chain.Lookup(state.Revision)
	if err != nil {
		return nil, err
	}
	down, err := p.runSteps(ctx, conn, state, []*Step{s}, DirectionDown)
	if err != nil {
		return nil, err
	}
	state, err = p.store.Current(ctx, conn)
	if err != nil {
		return nil, err
	}
	up, err := p.runSteps(ctx, conn, state, []*Step{s}, DirectionUp)
	if err != nil {
		var partialErr *PartialError
		if errors.As(err, &partialErr) {
			partialErr.Applied = append(down, partialErr.Applied...)
		}
		return nil, err
	}
	return append(down, up...), nil
}

// Force records revision as the current revision without applying any operations, and clears a
// dirty state. It is the way out after a step failed partway and the database was repaired by
// hand. Symbolic revisions are accepted.
func (p *Provider) Force(ctx context.Context, revision string) (retErr error) {
	resolved, err := p.chain.Resolve(revision)
	if err != nil {
		return err
	}
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	state, err := p.store.Current(ctx, conn)
	if err != nil {
		return err
	}
	req := state.Next(resolved, false)
	if err := p.store.Claim(ctx, conn, req); err != nil {
		return database.CheckClaim(ctx, p.store, conn, req, err)
	}
	p.printf("forced revision %s (was %s%s)", displayRev(resolved), displayRev(state.Revision), dirtySuffix(state.Dirty))
	return nil
}

// GetRevision returns the current revision of the database, "" at base. If a step failed partway,
// it returns [ErrDirty] unless the provider was created with [WithAllowDirty], in which case the
// revision of the incomplete step is returned.
func (p *Provider) GetRevision(ctx context.Context) (_ string, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	state, err := p.store.Current(ctx, conn)
	if err != nil {
		return "", err
	}
	if state.Dirty && !p.cfg.allowDirty {
		return "", dirtyError(state)
	}
	return state.Revision, nil
}

// Status returns the state of every step, root first.
//
// A step's AppliedAt is the time it was last applied while upgrading, if the revision history
// still records it. A step that failed partway is reported as [StateDirty] when the provider was
// created with [WithAllowDirty]; otherwise Status fails with [ErrDirty].
func (p *Provider) Status(ctx context.Context) (_ []*MigrationStatus, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	history, err := p.store.History(ctx, conn)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, database.ErrVersionNotFound
	}
	state := history[0]
	if state.Dirty && !p.cfg.allowDirty {
		return nil, dirtyError(state)
	}
	current, err := p.chain.position(state.Revision)
	if err != nil {
		return nil, fmt.Errorf("database revision: %w", err)
	}
	appliedAt := p.appliedAt(history)
	status := make([]*MigrationStatus, 0, p.chain.Len())
	for i, s := range p.chain.steps {
		st := &MigrationStatus{
			State: StatePending,
			Step:  s,
		}
		switch {
		case state.Dirty && i == current:
			st.State = StateDirty
		case state.Dirty && i < current, !state.Dirty && i <= current:
			st.State = StateApplied
			st.AppliedAt = appliedAt[s.Revision]
		}
		status = append(status, st)
	}
	return status, nil
}

// History returns every recorded revision transition, most recent first.
func (p *Provider) History(ctx context.Context) (_ []*database.RevisionState, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	return p.store.History(ctx, conn)
}

// Plan is the set of steps that would move a database from one revision to another.
type Plan struct {
	// From and To are concrete revisions, "" for base.
	From, To  string
	Direction Direction
	// Steps in application order. Empty when From equals To.
	Steps []*Step
}

// Plan returns the steps that moving the database to target would apply, without applying them.
func (p *Provider) Plan(ctx context.Context, target string) (_ *Plan, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()

	state, err := p.cleanState(ctx, conn)
	if err != nil {
		return nil, err
	}
	return p.chain.Plan(target, state.Revision)
}

// Plan returns the steps that move a database from current to target. Both may be symbolic.
func (c *Chain) Plan(target, current string) (*Plan, error) {
	direction, path, err := c.PathTo(target, current)
	if err != nil {
		return nil, err
	}
	to, err := c.Resolve(target)
	if err != nil {
		return nil, err
	}
	from, err := c.Resolve(current)
	if err != nil {
		return nil, err
	}
	return &Plan{From: from, To: to, Direction: direction, Steps: path}, nil
}
