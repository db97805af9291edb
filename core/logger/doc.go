// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and integrates with the Fiber web framework.
//
// # Context Awareness
//
// The logger is designed to be context-aware in two dimensions:
//
//   - RayIDs (Request IDs): WithRayID extracts the RayID from a Fiber context
//     and attaches it to the log entry, so all logs related to a specific HTTP
//     request can be correlated.
//   - Run IDs: WithRun attaches the extraction run identifier, so all logs of
//     one ETL run can be correlated across the reader, reconciler and tracker.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
