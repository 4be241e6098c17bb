package schemachain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stockdesk/schemachain/database"
	"go.uber.org/multierr"
)

// run reads the current revision, asks plan for the steps to apply and applies them.
//
// If plan returns no steps, run returns nil with no error.
func (p *Provider) run(
	ctx context.Context,
	plan func(current string) ([]*Step, Direction, error),
) (_ []*MigrationResult, retErr error) {
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
	path, direction, err := plan(state.Revision)
	if err != nil {
		return nil, err
	}
	if len(path) == 0 {
		p.printf("no migrations to run. current revision: %s", displayRev(state.Revision))
		return nil, nil
	}
	return p.runSteps(ctx, conn, state, path, direction)
}

// runOne applies the single step chosen by next.
func (p *Provider) runOne(
	ctx context.Context,
	next func(current string) (*Step, error),
	direction Direction,
) (*MigrationResult, error) {
	results, err := p.run(ctx, func(current string) ([]*Step, Direction, error) {
		s, err := next(current)
		if err != nil {
			return nil, direction, err
		}
		return []*Step{s}, direction, nil
	})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// runSteps applies path in order, starting from state. Each step commits on its own, so a failure
// leaves the steps before it applied and reports them in a [*PartialError].
func (p *Provider) runSteps(
	ctx context.Context,
	conn *sql.Conn,
	state *database.RevisionState,
	path []*Step,
	direction Direction,
) ([]*MigrationResult, error) {
	var results []*MigrationResult
	for _, s := range path {
		result := &MigrationResult{
			Step:      s,
			Direction: direction,
			Empty:     len(s.operations(direction)) == 0,
		}
		start := time.Now()
		next, err := p.runStep(ctx, conn, state, s, direction)
		result.Duration = time.Since(start)
		if err != nil {
			result.Error = err
			p.printf("%s", result)
			return nil, &PartialError{
				Applied: results,
				Failed:  result,
				Err:     err,
			}
		}
		p.printf("%s", result)
		state = next
		results = append(results, result)
	}
	return results, nil
}

// runStep applies a single step and records the resulting revision. It returns the new state.
//
// With transactional DDL, the operations and the claim of the new revision commit or roll back
// together. Otherwise the step is bracketed by a dirty claim and a clean claim; a failure in
// between leaves the database dirty.
func (p *Provider) runStep(
	ctx context.Context,
	conn *sql.Conn,
	state *database.RevisionState,
	s *Step,
	direction Direction,
) (*database.RevisionState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Cancellation is only honored between steps.
	ctx = context.WithoutCancel(ctx)

	target := s.Revision
	if direction == DirectionDown {
		target = s.Parent
	}
	if p.transactional {
		req := state.Next(target, false)
		var claimed bool
		err := p.beginTx(ctx, conn, func(tx *sql.Tx) error {
			exec, err := database.NewExecutor(p.dialect, tx)
			if err != nil {
				return err
			}
			if err := applyOps(ctx, exec, s, direction); err != nil {
				return err
			}
			claimed = true
			return p.store.Claim(ctx, tx, req)
		})
		if err != nil {
			if claimed {
				return nil, database.CheckClaim(ctx, p.store, conn, req, err)
			}
			return nil, err
		}
		return &database.RevisionState{Seq: req.Seq, Revision: target}, nil
	}

	dirty := state.Next(s.Revision, true)
	if err := p.store.Claim(ctx, conn, dirty); err != nil {
		return nil, database.CheckClaim(ctx, p.store, conn, dirty, err)
	}
	exec, err := database.NewExecutor(p.dialect, conn)
	if err != nil {
		return nil, err
	}
	if err := applyOps(ctx, exec, s, direction); err != nil {
		return nil, fmt.Errorf("%w (database left dirty at %s)", err, s.Revision)
	}
	clean := (&database.RevisionState{Seq: dirty.Seq}).Next(target, false)
	if err := p.store.Claim(ctx, conn, clean); err != nil {
		return nil, database.CheckClaim(ctx, p.store, conn, clean, err)
	}
	return &database.RevisionState{Seq: clean.Seq, Revision: target}, nil
}

// beginTx begins a transaction and runs the given function. If the function returns an error, the
// transaction is rolled back. Otherwise, the transaction is committed.
func (p *Provider) beginTx(
	ctx context.Context,
	conn *sql.Conn,
	fn func(tx *sql.Tx) error,
) (retErr error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			retErr = multierr.Append(retErr, tx.Rollback())
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Provider) initialize(ctx context.Context) (*sql.Conn, func() error, error) {
	p.mu.Lock()
	conn, err := p.db.Conn(ctx)
	if err != nil {
		p.mu.Unlock()
		return nil, nil, err
	}
	// cleanup is a function that cleans up the connection, and optionally, the session lock.
	cleanup := func() error {
		p.mu.Unlock()
		return conn.Close()
	}
	if l := p.cfg.sessionLocker; l != nil {
		if err := l.SessionLock(ctx, conn); err != nil {
			return nil, nil, multierr.Append(err, cleanup())
		}
		cleanup = func() error {
			p.mu.Unlock()
			// Use a detached context to unlock the session. This is because the context passed to
			// SessionLock may have been canceled, and we don't want to cancel the unlock.
			detachedCtx := context.WithoutCancel(ctx)
			return multierr.Append(l.SessionUnlock(detachedCtx, conn), conn.Close())
		}
	}
	if err := p.ensureVersionTable(ctx, conn); err != nil {
		return nil, nil, multierr.Append(err, cleanup())
	}
	return conn, cleanup, nil
}

func (p *Provider) ensureVersionTable(ctx context.Context, conn *sql.Conn) error {
	exists, err := p.store.TableExists(ctx, conn)
	if err != nil {
		if !errors.Is(err, database.ErrNotSupported) {
			return err
		}
		// The dialect cannot tell, so probe the table instead.
		_, err := p.store.Current(ctx, conn)
		exists = err == nil || errors.Is(err, database.ErrVersionNotFound)
	}
	if exists {
		return nil
	}
	return p.createVersionTable(ctx, conn)
}

func (p *Provider) createVersionTable(ctx context.Context, conn *sql.Conn) error {
	err := p.beginTx(ctx, conn, func(tx *sql.Tx) error {
		return p.store.CreateVersionTable(ctx, tx)
	})
	if err == nil {
		return nil
	}
	// Another runner may have created the table after it was checked. Its initial row is all
	// that is needed.
	if _, cerr := p.store.Current(ctx, conn); cerr == nil {
		return nil
	}
	return err
}

// cleanState returns the current state, or [ErrDirty] if a step failed partway.
func (p *Provider) cleanState(ctx context.Context, conn *sql.Conn) (*database.RevisionState, error) {
	state, err := p.store.Current(ctx, conn)
	if err != nil {
		return nil, err
	}
	if state.Dirty {
		return nil, dirtyError(state)
	}
	if state.Revision != "" {
		if _, err := p.chain.Lookup(state.Revision); err != nil {
			return nil, fmt.Errorf("database revision: %w", err)
		}
	}
	return state, nil
}

// appliedAt maps each revision to the time it was last reached by applying its upgrade. history is
// most recent first.
func (p *Provider) appliedAt(history []*database.RevisionState) map[string]time.Time {
	out := make(map[string]time.Time)
	var previous string
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		if h.Dirty {
			continue
		}
		if h.Revision != "" && h.Revision != previous {
			if parent, err := p.chain.Parent(h.Revision); err == nil && parent == previous {
				out[h.Revision] = h.Timestamp
			}
		}
		previous = h.Revision
	}
	return out
}

func (p *Provider) printf(format string, v ...any) {
	if p.cfg.verbose {
		p.cfg.logger.Printf("schemachain: "+format, v...)
	}
}

func dirtyError(state *database.RevisionState) error {
	return fmt.Errorf("%w: step %s did not complete (seq %d); repair the schema and force a revision",
		ErrDirty, state.Revision, state.Seq)
}

func dirtySuffix(dirty bool) string {
	if dirty {
		return ", dirty"
	}
	return ""
}
