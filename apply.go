package schemachain

import (
	"context"
	"time"

	"github.com/stockdesk/schemachain/schema"
)

// UpgradeTo applies the upgrade operations of every step after current, up to and including
// target, through exec. The caller owns the current revision: nothing is recorded here.
//
// If a step fails, the returned error is a [*PartialError] listing the steps applied before it,
// wrapping an [*OpError] that identifies the failing operation. Operations of the failed step that
// ran before the failure are not undone.
func (c *Chain) UpgradeTo(ctx context.Context, exec schema.Executor, target, current string) ([]*MigrationResult, error) {
	path, err := c.UpgradePath(target, current)
	if err != nil {
		return nil, err
	}
	return runPath(ctx, exec, path, DirectionUp)
}

// DowngradeTo applies the downgrade operations of every step from current back to, but not
// including, target through exec, most recent step first. Errors are reported as in
// [Chain.UpgradeTo].
func (c *Chain) DowngradeTo(ctx context.Context, exec schema.Executor, target, current string) ([]*MigrationResult, error) {
	path, err := c.DowngradePath(target, current)
	if err != nil {
		return nil, err
	}
	return runPath(ctx, exec, path, DirectionDown)
}

func runPath(ctx context.Context, exec schema.Executor, path []*Step, direction Direction) ([]*MigrationResult, error) {
	var results []*MigrationResult
	for _, s := range path {
		start := time.Now()
		result := &MigrationResult{
			Step:      s,
			Direction: direction,
			Empty:     len(s.operations(direction)) == 0,
		}
		err := applyStep(ctx, exec, s, direction)
		result.Duration = time.Since(start)
		if err != nil {
			result.Error = err
			return nil, &PartialError{
				Applied: results,
				Failed:  result,
				Err:     err,
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// applyStep applies the operations of s in the given direction, in literal order. It stops at the
// first failure and reports the operation index.
func applyStep(ctx context.Context, exec schema.Executor, s *Step, direction Direction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Cancellation is only honored between steps. Once the first operation runs, the step runs
	// to completion or fails on its own.
	return applyOps(context.WithoutCancel(ctx), exec, s, direction)
}

func applyOps(ctx context.Context, exec schema.Executor, s *Step, direction Direction) error {
	for i, op := range s.operations(direction) {
		if err := exec.Execute(ctx, op); err != nil {
			return &OpError{
				Revision:  s.Revision,
				Direction: direction,
				Index:     i,
				Op:        op,
				Err:       err,
			}
		}
	}
	return nil
}
