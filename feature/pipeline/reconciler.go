package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DARKSNOUT/ETL-Pipeline/core/utils"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"go.uber.org/zap"
)

// BatchResult aggregates the outcome of reconciling one batch.
type BatchResult struct {
	// Inserted counts keys seen for the first time.
	Inserted int `json:"inserted"`
	// Updated counts keys whose signature changed.
	Updated int `json:"updated"`
	// Unchanged counts keys whose signature matched; no write happened.
	Unchanged int `json:"unchanged"`
	// Failed counts rows skipped due to sign or write errors.
	Failed int `json:"failed"`
}

// Reconciler applies batches of source rows to the cache store using
// signature-based change detection.
//
// Per key, the signature comparison and the write happen under a per-key
// lock, so a key receives at most one write per batch and concurrent batches
// touching the same key cannot interleave a stale read with a write.
// Reconciling an identical batch twice is a no-op the second time.
type Reconciler struct {
	store     *Store
	signer    *Signer
	keyColumn string
	locks     *keyLocks
	logger    *zap.Logger
}

// NewReconciler creates a reconciler writing through the given store.
func NewReconciler(store *Store, signer *Signer, keyColumn string, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		store:     store,
		signer:    signer,
		keyColumn: keyColumn,
		locks:     newKeyLocks(64),
		logger:    logger,
	}
}

// Reconcile classifies and applies every row of the batch. Row-level errors
// are absorbed into the Failed counter; only a batch where every single row
// failed escalates, returning ErrStoreWrite alongside the counts.
func (r *Reconciler) Reconcile(ctx context.Context, batch *models.Batch) (BatchResult, error) {
	var result BatchResult

	for _, row := range batch.Rows {
		if err := r.reconcileRow(ctx, row, &result); err != nil {
			result.Failed++
			r.logger.Warn("Row reconciliation failed",
				zap.Int64("batch_offset", batch.Offset),
				zap.Error(err))
		}
	}

	if result.Failed == len(batch.Rows) && len(batch.Rows) > 0 {
		return result, ErrStoreWrite
	}
	return result, nil
}

func (r *Reconciler) reconcileRow(ctx context.Context, row models.SourceRow, result *BatchResult) error {
	key, err := utils.Canonical(row[r.keyColumn])
	if err != nil || key == "" || key == "\x00" {
		return ErrRowSign
	}

	sig, err := r.signer.Sign(row)
	if err != nil {
		return err
	}

	// Compare and write as one step under the key's lock.
	mu := r.locks.lock(key)
	defer mu.Unlock()

	existing, err := r.store.Lookup(ctx, key)
	if err != nil {
		return err
	}

	if existing != nil && existing.Signature == sig {
		result.Unchanged++
		return nil
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return ErrRowSign
	}

	rec := &models.CachedRow{
		Key:       key,
		Payload:   string(payload),
		Signature: sig,
		UpdatedAt: time.Now(),
	}
	if err := r.store.Upsert(ctx, rec); err != nil {
		return err
	}

	if existing == nil {
		result.Inserted++
	} else {
		result.Updated++
	}
	return nil
}
