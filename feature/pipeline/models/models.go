package models

import "time"

// SourceRow is one logical record as returned by the upstream source,
// mapping column name to scalar value. Column order is NOT carried by the
// map; it is fixed by the configured schema (see pipeline.Signer), so
// signatures stay stable across runs regardless of iteration order.
type SourceRow map[string]any

// Batch is a bounded page of source rows, tagged with its row offset within
// the overall walk.
type Batch struct {
	// Offset is the position of the first row within the ordered result set.
	Offset int64
	// Rows are the rows of this page, at most the configured chunk size.
	Rows []SourceRow
}

// CachedRow is the persisted form of a reconciled source row.
// It is created on first sight of a key, overwritten only when the row's
// signature changes, and never deleted by the pipeline.
type CachedRow struct {
	// Key is the canonical primary key value of the source row.
	Key string `gorm:"column:key;primaryKey"`
	// Payload is the row's column values encoded as JSON.
	Payload string `gorm:"column:payload"`
	// Signature is the content hash the row carried when it was last written.
	Signature int64 `gorm:"column:signature"`
	// UpdatedAt is bumped on every insert or signature change.
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name for the cache table.
func (CachedRow) TableName() string {
	return "cache_data"
}

// RunStatus is the lifecycle state of one extraction run.
type RunStatus string

const (
	// RunPending means the run is created but no batch has been accepted yet.
	RunPending RunStatus = "pending"
	// RunRunning means at least one batch has been accepted.
	RunRunning RunStatus = "running"
	// RunComplete means end-of-data was reached without fatal error. Terminal.
	RunComplete RunStatus = "complete"
	// RunFailed means the run was aborted (source failure, store escalation,
	// or cancellation). Terminal.
	RunFailed RunStatus = "failed"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == RunComplete || s == RunFailed
}

// RunRecord tracks one end-to-end extraction-reconciliation execution.
// Counters are monotonically non-decreasing while the run is live and frozen
// once the status is terminal.
type RunRecord struct {
	// ID is the opaque run identifier.
	ID string `gorm:"column:id;primaryKey" json:"run_id"`
	// Status is the current lifecycle state.
	Status RunStatus `gorm:"column:status" json:"status"`
	// Message carries the completion summary or failure reason.
	Message string `gorm:"column:message" json:"message"`
	// RowsReceived counts rows read from the source.
	RowsReceived int64 `gorm:"column:rows_received" json:"total_rows_received"`
	// RowsUpserted counts rows inserted or updated in the cache.
	RowsUpserted int64 `gorm:"column:rows_upserted" json:"total_rows_updated_in_cache"`
	// RowsFailed counts rows skipped due to sign or write errors.
	RowsFailed int64 `gorm:"column:rows_failed" json:"total_rows_failed"`
	// StartTime is when the run was created.
	StartTime time.Time `gorm:"column:start_time" json:"start_time"`
	// EndTime is when the run reached a terminal status.
	EndTime *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`
}

// TableName overrides the table name for persisted run records.
func (RunRecord) TableName() string {
	return "run_records"
}

// SyncOffset persists the pagination position of the incremental walk so a
// single-chunk run can resume where the previous one stopped.
type SyncOffset struct {
	// Name identifies the walk (one row per source table).
	Name string `gorm:"column:name;primaryKey"`
	// Position is the row offset the next chunk starts at.
	Position int64 `gorm:"column:position"`
	// UpdatedAt is bumped on every save.
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName overrides the table name for the offset row.
func (SyncOffset) TableName() string {
	return "sync_offsets"
}
