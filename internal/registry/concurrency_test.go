package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"

	"loopnerd/internal/loop"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Parallel mutators serialize on the file lock; none may be dropped.
func TestConcurrentStartsNeverDropRecords(t *testing.T) {
	const n = 16

	st := testStore(t)
	r := testRegistry(t, st, "sess-a")
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			resp := r.Execute(ctx, fmt.Sprintf("tc-%d", i), Params{
				Action: ActionStart,
				Topic:  fmt.Sprintf("parallel topic %d", i),
			})
			if resp.Status != StatusStarted {
				return fmt.Errorf("start %d failed: %s", i, resp.Error)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	resp := r.Execute(ctx, "tc-list", Params{Action: ActionList, Limit: floatPtr(100)})
	require.Equal(t, StatusOK, resp.Status)
	assert.Len(t, resp.Loops, n)
}

func TestConcurrentMutationsOnOneLoop(t *testing.T) {
	const n = 8

	st := testStore(t)
	r := testRegistry(t, st, "sess-a")
	ctx := context.Background()

	l := mustStart(t, r, "contended", Params{MaxRounds: floatPtr(1)})

	// All racers try to checkpoint the same active loop; exactly one can
	// win, the rest must see a clean state-machine rejection.
	var g errgroup.Group
	results := make([]string, n)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			resp := r.Execute(ctx, fmt.Sprintf("tc-%d", i), Params{
				Action:  ActionCheckpoint,
				LoopID:  l.LoopID,
				Summary: fmt.Sprintf("attempt %d", i),
			})
			results[i] = resp.Status
			return nil
		})
	}
	require.NoError(t, g.Wait())

	won := 0
	for _, status := range results {
		if status == StatusCheckpointed {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one checkpoint per round")

	status := r.Execute(ctx, "tc-status", Params{Action: ActionStatus, LoopID: l.LoopID})
	require.Equal(t, StatusOK, status.Status)
	assert.Equal(t, loop.StateAwaitingDecision, status.Loop.State)
	assert.Len(t, status.Loop.Checkpoints, 1)
}
