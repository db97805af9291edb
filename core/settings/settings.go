package settings

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

// Settings are the runtime-mutable knobs of the pipeline. Unlike the static
// environment configuration they can be changed over the HTTP API and survive
// restarts in a JSON file.
type Settings struct {
	// ChunkSize is the maximum number of rows fetched per batch.
	ChunkSize int `json:"chunk_size" mapstructure:"chunk_size"`
	// IntervalMinutes is the scheduled sync cadence.
	IntervalMinutes int `json:"interval_minutes" mapstructure:"interval_minutes"`
}

// Defaults used when the settings file does not exist yet.
var Defaults = Settings{
	ChunkSize:       1000,
	IntervalMinutes: 60,
}

// Manager reads and writes the settings file.
type Manager struct {
	mu   sync.RWMutex
	v    *viper.Viper
	path string
	cur  Settings
}

// NewManager loads settings from the given JSON file, creating it with
// defaults if it does not exist.
func NewManager(path string) (*Manager, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("chunk_size", Defaults.ChunkSize)
	v.SetDefault("interval_minutes", Defaults.IntervalMinutes)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			if err := v.WriteConfigAs(path); err != nil {
				return nil, fmt.Errorf("failed to create settings file: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	m := &Manager{v: v, path: path}
	if err := v.Unmarshal(&m.cur); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}
	m.sanitize()
	return m, nil
}

// Get returns a snapshot of the current settings.
func (m *Manager) Get() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Save validates, persists and applies new settings.
func (m *Manager) Save(s Settings) error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", s.ChunkSize)
	}
	if s.IntervalMinutes <= 0 {
		return fmt.Errorf("interval_minutes must be positive, got %d", s.IntervalMinutes)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.v.Set("chunk_size", s.ChunkSize)
	m.v.Set("interval_minutes", s.IntervalMinutes)
	if err := m.v.WriteConfigAs(m.path); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	m.cur = s
	return nil
}

func (m *Manager) sanitize() {
	if m.cur.ChunkSize <= 0 {
		m.cur.ChunkSize = Defaults.ChunkSize
	}
	if m.cur.IntervalMinutes <= 0 {
		m.cur.IntervalMinutes = Defaults.IntervalMinutes
	}
}
