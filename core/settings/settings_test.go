package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_config.json")

	t.Run("Creates defaults", func(t *testing.T) {
		m, err := NewManager(path)
		require.NoError(t, err)
		assert.Equal(t, Defaults, m.Get())
	})

	t.Run("Save and reload", func(t *testing.T) {
		m, err := NewManager(path)
		require.NoError(t, err)

		want := Settings{ChunkSize: 250, IntervalMinutes: 15}
		require.NoError(t, m.Save(want))
		assert.Equal(t, want, m.Get())

		// A fresh manager sees the persisted values.
		m2, err := NewManager(path)
		require.NoError(t, err)
		assert.Equal(t, want, m2.Get())
	})

	t.Run("Rejects invalid", func(t *testing.T) {
		m, err := NewManager(path)
		require.NoError(t, err)
		assert.Error(t, m.Save(Settings{ChunkSize: 0, IntervalMinutes: 10}))
		assert.Error(t, m.Save(Settings{ChunkSize: 10, IntervalMinutes: -1}))
	})
}
