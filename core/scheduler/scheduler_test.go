package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler(t *testing.T) {
	s, err := New(zap.NewNop())
	require.NoError(t, err)
	defer func() { _ = s.Shutdown() }()

	t.Run("AddJob", func(t *testing.T) {
		err := s.AddJob("sync", time.Hour, func() {})
		assert.NoError(t, err)

		// Duplicate names are rejected.
		err = s.AddJob("sync", time.Hour, func() {})
		assert.Error(t, err)
	})

	t.Run("Reschedule", func(t *testing.T) {
		err := s.Reschedule("sync", 30*time.Minute, func() {})
		assert.NoError(t, err)
	})

	t.Run("RemoveJob", func(t *testing.T) {
		s.RemoveJob("sync")
		assert.True(t, s.NextRun("sync").IsZero())

		// Removing an unknown job is a no-op.
		s.RemoveJob("missing")
	})
}
