package pipeline

// Config holds configuration for the extraction pipeline.
type Config struct {
	// Workers is the number of batches reconciled concurrently.
	Workers int `mapstructure:"workers" default:"4"`
	// SettingsPath is the JSON file holding runtime-mutable settings.
	SettingsPath string `mapstructure:"settings_path" default:"app_config.json"`
}
