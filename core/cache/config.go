package cache

// Config holds configuration for the local SQLite cache database.
type Config struct {
	// Path is the filesystem path of the SQLite database file.
	Path string `mapstructure:"path" default:"database/data_cache.db"`
	// TimeoutSeconds is the per-write timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
