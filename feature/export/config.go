package export

// Config holds configuration for the cache exporter.
type Config struct {
	// ObjectName is the fixed object key the export is delivered under.
	// Each export overwrites the previous one.
	ObjectName string `mapstructure:"object_name" default:"etl_master_export.csv"`
}
