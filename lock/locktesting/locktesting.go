// Package locktesting holds reusable checks for session lockers.
package locktesting

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stockdesk/schemachain"
	"github.com/stockdesk/schemachain/lock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// TestProviderLocking runs Up on several providers at once and checks that exactly one of them
// applied the whole chain while the others found nothing to do.
//
// Every provider returned by newProvider must target the same database with the same locker
// configuration.
func TestProviderLocking(
	t *testing.T,
	newProvider func(*testing.T) *schemachain.Provider,
) {
	t.Helper()

	const count = 5

	providers := make([]*schemachain.Provider, count)
	for i := range count {
		providers[i] = newProvider(t)
	}
	revisions := providers[0].Chain().Revisions()
	require.NotEmpty(t, revisions)
	head := revisions[len(revisions)-1]
	for _, p := range providers {
		require.Equal(t, revisions, p.Chain().Revisions(), "providers have different chains")
	}

	var g errgroup.Group
	results := make([]int, count)
	for i := range count {
		g.Go(func() error {
			ctx := context.Background()
			applied, err := providers[i].Up(ctx)
			if err != nil {
				return err
			}
			results[i] = len(applied)
			current, err := providers[i].GetRevision(ctx)
			if err != nil {
				return err
			}
			if current != head {
				return fmt.Errorf("provider %d: expected revision %s, got %q", i, head, current)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var (
		withWork = 0
		winner   = -1
	)
	for i, n := range results {
		if n > 0 {
			withWork++
			if n == len(revisions) {
				winner = i
			}
		}
	}
	require.Equal(t, 1, withWork, "exactly one provider should apply steps")
	require.NotEqual(t, -1, winner, "one provider should have applied every step")
	for i, n := range results {
		if i != winner {
			require.Equal(t, 0, n, "provider %d should have applied nothing", i)
		}
	}
}

// TestConcurrentLocking starts several lockers against db at once and checks that exactly one of
// them acquires the lock within lockTimeout.
//
// newLocker must return lockers that compete for the same lock, for example the same lock table or
// the same advisory lock id.
func TestConcurrentLocking(
	t *testing.T,
	db *sql.DB,
	newLocker func(*testing.T) lock.SessionLocker,
	lockTimeout time.Duration,
) {
	t.Helper()
	ctx := context.Background()

	const count = 5

	lockers := make([]lock.SessionLocker, count)
	conns := make([]*sql.Conn, count)
	for i := range count {
		lockers[i] = newLocker(t)
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		conns[i] = conn
	}

	successCh := make(chan int, count)
	var wg sync.WaitGroup
	for i := range count {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, lockTimeout)
			defer cancel()
			if err := lockers[i].SessionLock(ctx, conns[i]); err != nil {
				return
			}
			successCh <- i
			// Outlast every other locker's retries.
			time.Sleep(lockTimeout * 2)
			if err := lockers[i].SessionUnlock(context.WithoutCancel(ctx), conns[i]); err != nil {
				t.Errorf("locker %d failed to release lock: %v", i, err)
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(lockTimeout*3 + 5*time.Second):
		t.Fatal("lockers took too long")
	}

	close(successCh)
	var successful []int
	for id := range successCh {
		successful = append(successful, id)
	}
	require.Len(t, successful, 1, "exactly one locker should acquire the lock")
}
