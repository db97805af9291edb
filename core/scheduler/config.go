package scheduler

// Config holds configuration for the background sync scheduler.
type Config struct {
	// Enabled toggles the scheduled sync cycle.
	Enabled bool `mapstructure:"enabled" default:"true"`
}
