package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/DARKSNOUT/ETL-Pipeline/core/logger"
	"github.com/DARKSNOUT/ETL-Pipeline/core/settings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Exporter delivers a snapshot of the cache to the downstream consumer once
// a full sync completes. Implemented by feature/export; nil disables it.
type Exporter interface {
	Export(ctx context.Context) (string, error)
}

// Service orchestrates extraction runs: it drives the chunked reader, fans
// batches out to the reconciler, and reports progress to the run tracker.
type Service struct {
	reader   *Reader
	rec      *Reconciler
	tracker  *Tracker
	store    *Store
	settings *settings.Manager
	exporter Exporter
	workers  int
	logger   *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewService wires the pipeline together. exporter may be nil.
func NewService(reader *Reader, rec *Reconciler, tracker *Tracker, store *Store,
	st *settings.Manager, exporter Exporter, workers int, log *zap.Logger) *Service {
	if workers <= 0 {
		workers = 4
	}
	return &Service{
		reader:   reader,
		rec:      rec,
		tracker:  tracker,
		store:    store,
		settings: st,
		exporter: exporter,
		workers:  workers,
		logger:   log,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Tracker exposes the run tracker for status queries.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// StartFullSync launches a full sync in the background and returns
// immediately. The run can be cancelled between batches via Cancel.
func (s *Service) StartFullSync(runID string) {
	ctx := s.register(runID)
	go func() {
		defer s.unregister(runID)
		s.RunFullSync(ctx, runID)
	}()
}

// StartCycle launches a scheduled cycle (staging refresh, then full sync) in
// the background. Scheduled runs register for cancellation like
// operator-triggered ones, so the cancel endpoint covers them uniformly.
func (s *Service) StartCycle(runID string) {
	ctx := s.register(runID)
	go func() {
		defer s.unregister(runID)
		s.RunCycle(ctx, runID)
	}()
}

// StartOnce launches a single-chunk incremental run in the background.
func (s *Service) StartOnce(runID string) {
	ctx := s.register(runID)
	go func() {
		defer s.unregister(runID)
		s.RunOnce(ctx, runID)
	}()
}

// Cancel requests a running run to stop between batches. Batches already
// reconciled stay committed. Unknown or finished runs yield ErrRunNotFound.
func (s *Service) Cancel(runID string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[runID]
	s.mu.Unlock()
	if !ok {
		return ErrRunNotFound
	}
	cancel()
	return nil
}

// RunCycle is one scheduled cycle: refresh the upstream staging table, then
// run a full sync. Used by the interval scheduler.
func (s *Service) RunCycle(ctx context.Context, runID string) {
	l := logger.WithRun(s.logger, runID)

	if err := s.reader.RefreshStaging(ctx); err != nil {
		l.Error("Staging refresh failed, skipping sync cycle", zap.Error(err))
		s.tracker.Begin(runID)
		s.tracker.Fail(context.Background(), runID, "staging refresh failed: "+err.Error())
		return
	}
	s.RunFullSync(ctx, runID)
}

// RunFullSync walks the whole source from offset zero and reconciles every
// batch. Batches are reconciled concurrently by a bounded worker pool; the
// per-key locks inside the reconciler keep overlapping keys serialized.
func (s *Service) RunFullSync(ctx context.Context, runID string) {
	l := logger.WithRun(s.logger, runID)
	l.Info("Starting full sync")

	s.tracker.Begin(runID)
	chunk := s.settings.Get().ChunkSize
	walk := s.reader.Walk(0, chunk)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var walkErr error
	for {
		// Cancellation is honored between batches, never mid-batch.
		if err := ctx.Err(); err != nil {
			walkErr = err
			break
		}

		batch, err := walk.Next(ctx)
		if err != nil {
			walkErr = err
			break
		}
		if batch == nil {
			break
		}

		s.tracker.Accept(runID)
		s.tracker.AddReceived(runID, len(batch.Rows))

		b := batch
		g.Go(func() error {
			res, err := s.rec.Reconcile(gctx, b)
			s.tracker.AddResult(runID, res)
			if err != nil {
				return fmt.Errorf("batch at offset %d: %w", b.Offset, err)
			}
			l.Debug("Batch reconciled",
				zap.Int64("offset", b.Offset),
				zap.Int("inserted", res.Inserted),
				zap.Int("updated", res.Updated),
				zap.Int("unchanged", res.Unchanged),
				zap.Int("failed", res.Failed))
			return nil
		})
	}

	// Workers drain regardless of how the walk ended; completed batches
	// stay committed.
	groupErr := g.Wait()

	// Tracker persistence must not inherit a cancelled context.
	bg := context.Background()
	switch {
	case walkErr != nil && errors.Is(walkErr, context.Canceled):
		l.Warn("Full sync cancelled")
		s.tracker.Fail(bg, runID, "cancelled by operator")
	case walkErr != nil:
		l.Error("Full sync aborted", zap.Error(walkErr))
		s.tracker.Fail(bg, runID, walkErr.Error())
	case groupErr != nil:
		l.Error("Full sync failed", zap.Error(groupErr))
		s.tracker.Fail(bg, runID, groupErr.Error())
	default:
		if err := s.store.SaveOffset(bg, walk.Offset()); err != nil {
			l.Warn("Failed to persist walk offset", zap.Error(err))
		}
		message := "Full sync finished."
		if s.exporter != nil {
			if object, err := s.exporter.Export(bg); err != nil {
				l.Error("Export failed", zap.Error(err))
				message = "Full sync finished; export failed."
			} else if object != "" {
				message = "Full sync finished. Exported to " + object
			}
		}
		s.tracker.Complete(bg, runID, message)
		l.Info("Full sync complete")
	}
}

// RunOnce processes a single chunk starting at the persisted offset,
// advancing it on success. An empty chunk resets the offset so the next
// incremental run starts a fresh pass.
func (s *Service) RunOnce(ctx context.Context, runID string) {
	l := logger.WithRun(s.logger, runID)
	l.Info("Starting single ETL cycle")

	s.tracker.Begin(runID)
	bg := context.Background()

	offset, err := s.store.Offset(ctx)
	if err != nil {
		s.tracker.Fail(bg, runID, err.Error())
		return
	}

	chunk := s.settings.Get().ChunkSize
	walk := s.reader.Walk(offset, chunk)

	batch, err := walk.Next(ctx)
	if err != nil {
		l.Error("Chunk fetch failed", zap.Error(err))
		s.tracker.Fail(bg, runID, err.Error())
		return
	}
	if batch == nil {
		l.Info("No new data found, resetting offset")
		if err := s.store.SaveOffset(bg, 0); err != nil {
			l.Warn("Failed to reset offset", zap.Error(err))
		}
		s.tracker.Complete(bg, runID, "No new data. Offset reset.")
		return
	}

	s.tracker.Accept(runID)
	s.tracker.AddReceived(runID, len(batch.Rows))

	res, err := s.rec.Reconcile(ctx, batch)
	s.tracker.AddResult(runID, res)
	if err != nil {
		s.tracker.Fail(bg, runID, err.Error())
		return
	}

	if err := s.store.SaveOffset(bg, walk.Offset()); err != nil {
		l.Warn("Failed to persist walk offset", zap.Error(err))
	}
	s.tracker.Complete(bg, runID, "Chunk processed.")
	l.Info("Single ETL cycle complete",
		zap.Int("inserted", res.Inserted),
		zap.Int("updated", res.Updated),
		zap.Int("unchanged", res.Unchanged))
}

func (s *Service) register(runID string) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancels[runID] = cancel
	s.mu.Unlock()
	return ctx
}

func (s *Service) unregister(runID string) {
	s.mu.Lock()
	if cancel, ok := s.cancels[runID]; ok {
		cancel()
		delete(s.cancels, runID)
	}
	s.mu.Unlock()
}
