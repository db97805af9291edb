// Package server holds the HTTP server configuration.
//
// The Fiber application itself is assembled in the start command; this
// package only owns the configuration surface (listen port, API key) so it
// can be embedded in the top-level config struct.
package server
