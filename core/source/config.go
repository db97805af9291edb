package source

// Config holds configuration for the upstream SQL Server connection and
// the shape of the paginated extraction query.
//
// Table, Filter, OrderingColumn and StagingProc are configuration-time
// substitutions. They are never derived from runtime or user input, which is
// what keeps the query assembly in the reader injection-safe.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"1433"`
	// User is the database user.
	User string `mapstructure:"user" default:"sa"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name.
	Name string `mapstructure:"name" default:"reports"`
	// Table is the staging table (or view) the extraction reads from.
	Table string `mapstructure:"table" default:"report_staging"`
	// Filter is an optional WHERE clause body applied to every chunk query.
	Filter string `mapstructure:"filter" default:""`
	// OrderingColumn is the column the paginated walk is ordered by.
	OrderingColumn string `mapstructure:"ordering_column" default:"reg_no"`
	// KeyColumn is the primary key column of a source row.
	KeyColumn string `mapstructure:"key_column" default:"reg_no"`
	// Columns is the fixed, schema-ordered list of columns a source row carries.
	// Row signatures are computed over this order, never map iteration order.
	Columns []string `mapstructure:"columns" default:""`
	// StagingProc is the optional stored procedure executed before a scheduled
	// sync cycle to refresh the staging table. Opaque to this service.
	StagingProc string `mapstructure:"staging_proc" default:""`
	// SettleSeconds is how long to wait after StagingProc before reading.
	SettleSeconds int `mapstructure:"settle_seconds" default:"10"`
	// TimeoutSeconds is the per-query timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
