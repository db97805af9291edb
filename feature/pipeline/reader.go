package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/DARKSNOUT/ETL-Pipeline/core/source"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reader issues ordered, bounded-size paginated reads against the source
// staging table. Only one page is ever held in memory.
type Reader struct {
	db      *gorm.DB
	query   string
	refresh string
	settle  time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewReader builds a reader for the configured source table.
//
// The chunk query is assembled once, at configuration time. Table, filter and
// ordering column are fixed substitutions from the deployment config; offset
// and chunk size are the only per-call inputs and always travel as bind
// parameters.
func NewReader(db *gorm.DB, cfg source.Config, logger *zap.Logger) *Reader {
	query := "SELECT * FROM " + cfg.Table
	if cfg.Filter != "" {
		query += " WHERE " + cfg.Filter
	}
	query += fmt.Sprintf(" ORDER BY %s OFFSET ? ROWS FETCH NEXT ? ROWS ONLY", cfg.OrderingColumn)

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Reader{
		db:      db,
		query:   query,
		refresh: cfg.StagingProc,
		settle:  time.Duration(cfg.SettleSeconds) * time.Second,
		timeout: timeout,
		logger:  logger,
	}
}

// Walk starts a fresh cursor walk from the given row offset. A walk is not
// restartable and not safe for concurrent use; each sync starts a new one.
func (r *Reader) Walk(offset int64, chunkSize int) *Walk {
	return &Walk{reader: r, offset: offset, chunk: chunkSize}
}

// RefreshStaging executes the configured upstream staging procedure and
// waits for the configured settle delay. The procedure itself is an opaque
// upstream concern; a missing configuration is a no-op.
func (r *Reader) RefreshStaging(ctx context.Context) error {
	if r.refresh == "" {
		return nil
	}

	r.logger.Info("Executing staging refresh procedure")
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.WithContext(execCtx).Exec(r.refresh).Error; err != nil {
		return fmt.Errorf("%w: staging refresh: %v", ErrSourceUnavailable, err)
	}

	if r.settle > 0 {
		r.logger.Info("Waiting for staging data to settle", zap.Duration("settle", r.settle))
		select {
		case <-time.After(r.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Walk is one finite, ordered pass over the source result set.
type Walk struct {
	reader *Reader
	offset int64
	chunk  int
	done   bool
}

// Next fetches the next batch. It returns (nil, nil) once the walk is
// exhausted: a page with zero rows, or a short page, signals end-of-data.
// A read failure surfaces ErrSourceUnavailable and poisons the walk; no
// partial batch is ever yielded.
func (w *Walk) Next(ctx context.Context) (*models.Batch, error) {
	if w.done {
		return nil, nil
	}

	qctx, cancel := context.WithTimeout(ctx, w.reader.timeout)
	defer cancel()

	var rows []map[string]any
	err := w.reader.db.WithContext(qctx).
		Raw(w.reader.query, w.offset, w.chunk).
		Scan(&rows).Error
	if err != nil {
		w.done = true
		// A cancellation of the walk's own context is not a source failure;
		// surface it unwrapped so the run is classified as cancelled, not as
		// source-unavailable. A per-query timeout still maps to the latter.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: fetch chunk at offset %d: %v", ErrSourceUnavailable, w.offset, err)
	}

	if len(rows) < w.chunk {
		w.done = true
	}
	if len(rows) == 0 {
		return nil, nil
	}

	batch := &models.Batch{Offset: w.offset, Rows: make([]models.SourceRow, len(rows))}
	for i, row := range rows {
		batch.Rows[i] = models.SourceRow(row)
	}
	w.offset += int64(len(rows))

	w.reader.logger.Debug("Fetched chunk",
		zap.Int64("offset", batch.Offset),
		zap.Int("rows", len(batch.Rows)))
	return batch, nil
}

// Offset returns the row offset the next batch would start at.
func (w *Walk) Offset() int64 {
	return w.offset
}
