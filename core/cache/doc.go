// Package cache opens the local SQLite database that persists reconciled
// rows, run records and the extraction offset.
//
// The cache is the single store the pipeline's reconciler mutates. Schema
// migration is owned by the pipeline store (see feature/pipeline), this
// package only opens the connection with settings that are safe for SQLite's
// single-writer model.
package cache
