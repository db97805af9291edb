package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"go.uber.org/zap"
)

// maxTerminalRuns bounds how many finished runs stay queryable in memory.
// Older terminal runs are evicted after persistence; their records remain in
// the run_records table.
const maxTerminalRuns = 32

// Tracker records per-run identity, progress counters and terminal status.
//
// Live runs are held in memory so status reads never block on the database.
// Terminal snapshots are additionally persisted through the store, which is
// what the latest-status endpoint falls back to after a restart. Memory stays
// bounded under the interval scheduler: only the most recent terminal runs
// are retained for by-id lookups.
type Tracker struct {
	mu     sync.RWMutex
	runs   map[string]*models.RunRecord
	store  *Store
	logger *zap.Logger
}

// NewTracker creates an empty tracker persisting terminal runs to the store.
func NewTracker(store *Store, logger *zap.Logger) *Tracker {
	return &Tracker{
		runs:   make(map[string]*models.RunRecord),
		store:  store,
		logger: logger,
	}
}

// Begin registers a new pending run.
func (t *Tracker) Begin(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.runs[runID] = &models.RunRecord{
		ID:        runID,
		Status:    models.RunPending,
		StartTime: time.Now(),
	}
}

// Accept transitions a pending run to running. Called when the first batch
// is accepted; later calls are no-ops.
func (t *Tracker) Accept(runID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.runs[runID]
	if !ok || rec.Status != models.RunPending {
		return
	}
	rec.Status = models.RunRunning
}

// AddReceived bumps the received-rows counter. Counters only move while the
// run is live; a terminal record is immutable.
func (t *Tracker) AddReceived(runID string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.runs[runID]
	if !ok || rec.Status.Terminal() {
		return
	}
	rec.RowsReceived += int64(n)
}

// AddResult folds a batch result into the run counters.
func (t *Tracker) AddResult(runID string, res BatchResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.runs[runID]
	if !ok || rec.Status.Terminal() {
		return
	}
	rec.RowsUpserted += int64(res.Inserted + res.Updated)
	rec.RowsFailed += int64(res.Failed)
}

// Complete marks a run complete. No-op if the run is already terminal.
func (t *Tracker) Complete(ctx context.Context, runID, message string) {
	t.finish(ctx, runID, models.RunComplete, message)
}

// Fail marks a run failed with the given reason. No-op if already terminal.
func (t *Tracker) Fail(ctx context.Context, runID, message string) {
	t.finish(ctx, runID, models.RunFailed, message)
}

func (t *Tracker) finish(ctx context.Context, runID string, status models.RunStatus, message string) {
	t.mu.Lock()
	rec, ok := t.runs[runID]
	if !ok || rec.Status.Terminal() {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	rec.Status = status
	rec.Message = message
	rec.EndTime = &now
	snapshot := *rec
	t.evictLocked()
	t.mu.Unlock()

	if err := t.store.SaveRun(ctx, &snapshot); err != nil {
		t.logger.Error("Failed to persist run record",
			zap.String("run_id", runID), zap.Error(err))
	}
}

// evictLocked drops the oldest terminal runs beyond the retained window.
// Live runs are never evicted. Caller holds t.mu.
func (t *Tracker) evictLocked() {
	var terminal []*models.RunRecord
	for _, rec := range t.runs {
		if rec.Status.Terminal() {
			terminal = append(terminal, rec)
		}
	}
	if len(terminal) <= maxTerminalRuns {
		return
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].StartTime.Before(terminal[j].StartTime)
	})
	for _, rec := range terminal[:len(terminal)-maxTerminalRuns] {
		delete(t.runs, rec.ID)
	}
}

// Status returns a snapshot of a run by id without blocking on any I/O.
// Unknown ids, including runs evicted from the retained window, yield
// ErrRunNotFound.
func (t *Tracker) Status(runID string) (models.RunRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.runs[runID]
	if !ok {
		return models.RunRecord{}, ErrRunNotFound
	}
	return *rec, nil
}

// Latest returns the most recently started run, preferring in-memory runs
// and falling back to the persisted records.
func (t *Tracker) Latest(ctx context.Context) (models.RunRecord, error) {
	t.mu.RLock()
	var latest *models.RunRecord
	for _, rec := range t.runs {
		if latest == nil || rec.StartTime.After(latest.StartTime) {
			latest = rec
		}
	}
	if latest != nil {
		snapshot := *latest
		t.mu.RUnlock()
		return snapshot, nil
	}
	t.mu.RUnlock()

	rec, err := t.store.LatestRun(ctx)
	if err != nil {
		return models.RunRecord{}, err
	}
	if rec == nil {
		return models.RunRecord{}, ErrRunNotFound
	}
	return *rec, nil
}
