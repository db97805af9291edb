package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTracker_Lifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to running to complete", func(t *testing.T) {
		tracker := NewTracker(newTestStore(t), zap.NewNop())
		tracker.Begin("run-1")

		rec, err := tracker.Status("run-1")
		require.NoError(t, err)
		assert.Equal(t, models.RunPending, rec.Status)

		tracker.Accept("run-1")
		tracker.AddReceived("run-1", 10)
		tracker.AddResult("run-1", BatchResult{Inserted: 7, Unchanged: 2, Failed: 1})

		rec, err = tracker.Status("run-1")
		require.NoError(t, err)
		assert.Equal(t, models.RunRunning, rec.Status)
		assert.Equal(t, int64(10), rec.RowsReceived)
		assert.Equal(t, int64(7), rec.RowsUpserted)
		assert.Equal(t, int64(1), rec.RowsFailed)
		assert.Nil(t, rec.EndTime)

		tracker.Complete(ctx, "run-1", "done")
		rec, err = tracker.Status("run-1")
		require.NoError(t, err)
		assert.Equal(t, models.RunComplete, rec.Status)
		assert.Equal(t, "done", rec.Message)
		require.NotNil(t, rec.EndTime)
		assert.False(t, rec.EndTime.Before(rec.StartTime))
	})

	t.Run("unknown run id", func(t *testing.T) {
		tracker := NewTracker(newTestStore(t), zap.NewNop())
		_, err := tracker.Status("nope")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("terminal records are immutable", func(t *testing.T) {
		tracker := NewTracker(newTestStore(t), zap.NewNop())
		tracker.Begin("run-1")
		tracker.Accept("run-1")
		tracker.Fail(ctx, "run-1", "source down")

		tracker.AddReceived("run-1", 100)
		tracker.AddResult("run-1", BatchResult{Inserted: 5})
		tracker.Complete(ctx, "run-1", "should not apply")

		rec, err := tracker.Status("run-1")
		require.NoError(t, err)
		assert.Equal(t, models.RunFailed, rec.Status)
		assert.Equal(t, "source down", rec.Message)
		assert.Zero(t, rec.RowsReceived)
		assert.Zero(t, rec.RowsUpserted)
	})

	t.Run("old terminal runs are evicted, live runs never", func(t *testing.T) {
		store := newTestStore(t)
		tracker := NewTracker(store, zap.NewNop())

		tracker.Begin("run-live")

		total := maxTerminalRuns + 10
		for i := 0; i < total; i++ {
			id := fmt.Sprintf("run-%03d", i)
			tracker.Begin(id)
			tracker.Complete(ctx, id, "done")
		}

		// The oldest finished runs fall out of memory.
		_, err := tracker.Status("run-000")
		assert.ErrorIs(t, err, ErrRunNotFound)

		// The retained window and the live run stay queryable.
		_, err = tracker.Status(fmt.Sprintf("run-%03d", total-1))
		assert.NoError(t, err)
		_, err = tracker.Status("run-live")
		assert.NoError(t, err)

		// Evicted runs were persisted before eviction.
		rec, err := store.LatestRun(ctx)
		require.NoError(t, err)
		require.NotNil(t, rec)
	})

	t.Run("terminal runs persist to the store", func(t *testing.T) {
		store := newTestStore(t)
		tracker := NewTracker(store, zap.NewNop())
		tracker.Begin("run-1")
		tracker.Complete(ctx, "run-1", "done")

		rec, err := store.LatestRun(ctx)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "run-1", rec.ID)
		assert.Equal(t, models.RunComplete, rec.Status)
	})
}

func TestTracker_Latest(t *testing.T) {
	ctx := context.Background()

	t.Run("no runs anywhere", func(t *testing.T) {
		tracker := NewTracker(newTestStore(t), zap.NewNop())
		_, err := tracker.Latest(ctx)
		assert.ErrorIs(t, err, ErrRunNotFound)
	})

	t.Run("prefers the most recent in-memory run", func(t *testing.T) {
		tracker := NewTracker(newTestStore(t), zap.NewNop())
		tracker.Begin("run-1")
		tracker.Begin("run-2")
		tracker.Complete(ctx, "run-1", "older")

		rec, err := tracker.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-2", rec.ID)
	})

	t.Run("falls back to persisted runs after a restart", func(t *testing.T) {
		store := newTestStore(t)
		old := NewTracker(store, zap.NewNop())
		old.Begin("run-1")
		old.Complete(ctx, "run-1", "before restart")

		fresh := NewTracker(store, zap.NewNop())
		rec, err := fresh.Latest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "run-1", rec.ID)
		assert.Equal(t, "before restart", rec.Message)
	})
}
