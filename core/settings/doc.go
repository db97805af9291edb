// Package settings manages the runtime-mutable application settings.
//
// Static configuration (credentials, table names, timeouts) comes from the
// environment via core/config and is fixed for the process lifetime. The two
// knobs operators actually tune while the service runs, chunk size and sync
// interval, live here instead: persisted as a small JSON file, readable and
// writable over the HTTP API, applied to the next run without a restart.
package settings
