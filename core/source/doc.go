// Package source manages the connection to the upstream SQL Server database
// that stages the rows this service extracts.
//
// The upstream staging transformation itself (a stored procedure maintained
// outside this repository) is treated as a black box: this package only opens
// the connection the pipeline's chunked reader and the staging refresh use.
//
// Connections are pooled via database/sql underneath GORM, carry dial and
// query timeouts, and are verified with a ping at startup.
package source
