package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stockdesk/schemachain/internal/dialect/dialectquery"
)

var (
	// ErrVersionNotFound is returned by [Store.Current] when the revision table has no rows.
	ErrVersionNotFound = errors.New("version not found")

	// ErrRevisionChanged is returned when a transition could not be recorded because another
	// runner recorded one first.
	ErrRevisionChanged = errors.New("revision changed by another runner")

	// ErrNotSupported is returned when the dialect cannot answer a question about the database.
	ErrNotSupported = errors.New("not supported")
)

// Store persists the current revision of a single database.
type Store interface {
	// Tablename is the revision table. Must not be empty.
	Tablename() string

	// CreateVersionTable creates the revision table and records the initial state: seq 0 at
	// base, not dirty.
	CreateVersionTable(ctx context.Context, db DBTxConn) error

	// TableExists reports whether the revision table exists. It returns [ErrNotSupported] if
	// the dialect cannot tell.
	TableExists(ctx context.Context, db DBTxConn) (bool, error)

	// Current returns the latest recorded state. If the query succeeds but the table is empty,
	// it must return [ErrVersionNotFound].
	Current(ctx context.Context, db DBTxConn) (*RevisionState, error)

	// Claim records a transition. req.Seq must be one greater than the seq returned by Current;
	// if another transition was recorded in between, Claim fails with [ErrRevisionChanged].
	Claim(ctx context.Context, db DBTxConn, req ClaimRequest) error

	// History returns every recorded state, most recent first.
	History(ctx context.Context, db DBTxConn) ([]*RevisionState, error)
}

// RevisionState is one row of the revision table.
type RevisionState struct {
	Seq int64
	// Revision is empty at base.
	Revision string
	// Dirty is set while a step runs on a dialect without transactional DDL. A dirty state
	// that outlives its runner means the step failed partway.
	Dirty     bool
	Timestamp time.Time
}

// Next returns the claim that moves from s to revision.
func (s *RevisionState) Next(revision string, dirty bool) ClaimRequest {
	return ClaimRequest{Seq: s.Seq + 1, Revision: revision, Dirty: dirty}
}

type ClaimRequest struct {
	Seq      int64
	Revision string
	Dirty    bool
}

// NewStore returns a new [Store] backed by the given dialect.
func NewStore(dialect Dialect, tablename string) (Store, error) {
	if tablename == "" {
		return nil, errors.New("tablename must not be empty")
	}
	querier, err := lookup(dialect)
	if err != nil {
		return nil, err
	}
	return &store{
		tablename: tablename,
		querier:   querier,
	}, nil
}

type store struct {
	tablename string
	querier   dialectquery.Querier
}

var _ Store = (*store)(nil)

func (s *store) Tablename() string {
	return s.tablename
}

func (s *store) CreateVersionTable(ctx context.Context, db DBTxConn) error {
	q := s.querier.CreateTable(s.tablename)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to create version table %q: %w", s.tablename, err)
	}
	if err := s.insert(ctx, db, ClaimRequest{}); err != nil {
		return fmt.Errorf("failed to insert initial state: %w", err)
	}
	return nil
}

func (s *store) TableExists(ctx context.Context, db DBTxConn) (bool, error) {
	q := s.querier.TableExists()
	if q == "" {
		return false, ErrNotSupported
	}
	var n int64
	if err := db.QueryRowContext(ctx, q, s.tablename).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check if table %q exists: %w", s.tablename, err)
	}
	return n > 0, nil
}

func (s *store) Current(ctx context.Context, db DBTxConn) (*RevisionState, error) {
	q := s.querier.LatestRevision(s.tablename)
	state, err := scanState(db.QueryRowContext(ctx, q))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: table %q is empty", ErrVersionNotFound, s.tablename)
		}
		return nil, fmt.Errorf("failed to get current revision: %w", err)
	}
	return state, nil
}

func (s *store) Claim(ctx context.Context, db DBTxConn, req ClaimRequest) error {
	if req.Seq <= 0 {
		return fmt.Errorf("invalid claim seq %d", req.Seq)
	}
	if err := s.insert(ctx, db, req); err != nil {
		return fmt.Errorf("failed to claim revision %q at seq %d: %w", req.Revision, req.Seq, err)
	}
	return nil
}

func (s *store) insert(ctx context.Context, db DBTxConn, req ClaimRequest) error {
	q := s.querier.InsertRevision(s.tablename)
	_, err := db.ExecContext(ctx, q, req.Seq, req.Revision, req.Dirty)
	return err
}

func (s *store) History(ctx context.Context, db DBTxConn) ([]*RevisionState, error) {
	q := s.querier.ListRevisions(s.tablename)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var states []*RevisionState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list revisions result: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return states, nil
}

// CheckClaim classifies an error returned by [Store.Claim]. It reads the current state on db,
// which must not be a failed transaction, and reports [ErrRevisionChanged] if another runner
// recorded a transition at or beyond req.Seq. Otherwise err is returned unchanged.
func CheckClaim(ctx context.Context, s Store, db DBTxConn, req ClaimRequest, err error) error {
	if err == nil {
		return nil
	}
	current, cerr := s.Current(ctx, db)
	if cerr != nil || current.Seq < req.Seq {
		return err
	}
	return fmt.Errorf("%w: seq %d is now %q", ErrRevisionChanged, current.Seq, current.Revision)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (*RevisionState, error) {
	var (
		state  RevisionState
		tstamp sql.NullTime
	)
	if err := row.Scan(&state.Seq, &state.Revision, &state.Dirty, &tstamp); err != nil {
		return nil, err
	}
	state.Timestamp = tstamp.Time
	return &state, nil
}
