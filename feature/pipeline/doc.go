// Package pipeline implements the chunked extraction and reconciliation
// engine: the service periodically pulls a changed-data window from the
// upstream SQL Server staging table and reconciles it into the local SQLite
// cache using content-hash change detection.
//
// # Components
//
//   - Signer: computes a deterministic 64-bit content signature per row over
//     the fixed schema column order.
//   - Reader: ordered OFFSET/FETCH pagination over the source, one page in
//     memory at a time; a zero or short page signals end-of-data.
//   - Reconciler: per row, compares the incoming signature with the cached
//     one and inserts, updates or skips; compare-and-write happens under a
//     per-key lock so a key gets at most one write per batch even when
//     batches are reconciled concurrently.
//   - Tracker: per-run identity, monotonic counters and terminal status with
//     non-blocking lookups; terminal snapshots persist to the cache DB.
//   - Service: orchestrates runs (full sync, single chunk, scheduled cycle),
//     fanning batches out to a bounded worker pool.
//
// # Guarantees
//
// Reconciliation is idempotent: re-running an identical batch against an
// already-reconciled cache writes nothing and reports everything unchanged.
// Runs fail rather than hang: source reads and cache writes carry timeouts.
// Cancellation takes effect between batches; completed batches stay
// committed.
//
// # HTTP Endpoints
//
//   - POST /api/v1/trigger-etl        : process one chunk in the background
//   - POST /api/v1/trigger-full-sync  : walk and reconcile the whole source
//   - POST /api/v1/runs/:id/cancel    : stop a live run between batches
//   - GET  /api/v1/etl-status/:id     : run status snapshot
//   - GET  /api/v1/etl-status/latest  : most recent run
//   - GET  /api/v1/config             : runtime settings
//   - POST /api/v1/config             : update settings, reschedule sync job
package pipeline
