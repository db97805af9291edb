// Package config loads the static application configuration.
//
// Configuration is assembled from environment variables (optionally seeded
// from a .env file) into nested partial config structs, one per subsystem.
// Defaults come from `default` struct tags, bound into Viper by reflection,
// so every key is registered for AutomaticEnv before unmarshalling.
//
// Keys map to environment variables by joining the nested path with
// underscores: source.ordering_column becomes SOURCE_ORDERING_COLUMN.
//
// Runtime-mutable settings (chunk size, sync interval) deliberately live
// elsewhere, in core/settings.
package config
