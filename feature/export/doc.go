// Package export delivers CSV snapshots of the reconciled cache to object
// storage. The snapshot is rewritten under a fixed object name after every
// successful full sync and on demand via POST /api/v1/export; an empty cache
// removes the stale object instead.
package export
