package cmd

import (
	"context"
	"fmt"

	"github.com/DARKSNOUT/ETL-Pipeline/core/cache"
	"github.com/DARKSNOUT/ETL-Pipeline/core/config"
	"github.com/DARKSNOUT/ETL-Pipeline/core/logger"
	"github.com/DARKSNOUT/ETL-Pipeline/core/settings"
	"github.com/DARKSNOUT/ETL-Pipeline/core/source"
	"github.com/DARKSNOUT/ETL-Pipeline/core/storage"

	"github.com/DARKSNOUT/ETL-Pipeline/feature/export"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline/models"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for sync command
	skipRefresh bool
	singleChunk bool
)

// syncCmd runs one synchronous extraction without starting the server.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one extraction cycle and exit",
	Long: `Runs one extraction cycle against the configured source and exits.

By default this refreshes the upstream staging table, then walks the whole
source and reconciles every chunk into the cache.

Examples:
  # Full cycle (staging refresh + full sync)
  sync

  # Full sync without refreshing the staging table
  sync --skip-refresh

  # Process a single chunk from the persisted offset
  sync --once`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&skipRefresh, "skip-refresh", false, "Skip the upstream staging refresh procedure")
	syncCmd.Flags().BoolVar(&singleChunk, "once", false, "Process a single chunk from the persisted offset")

	RootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	l.Info("Starting extraction cycle")

	// Connect to source and cache
	srcDB, err := source.Connect(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	cacheDB, err := cache.Open(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	st, err := settings.NewManager(cfg.ETL.SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to load runtime settings: %w", err)
	}

	store, err := pipeline.NewStore(cacheDB, cfg.Cache.TimeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to prepare cache schema: %w", err)
	}
	signer := pipeline.NewSigner(cfg.Source.Columns)
	reconciler := pipeline.NewReconciler(store, signer, cfg.Source.KeyColumn, l)
	tracker := pipeline.NewTracker(store, l)
	reader := pipeline.NewReader(srcDB, cfg.Source, l)

	var svcExporter pipeline.Exporter
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to create storage client: %w", err)
		}
		svcExporter = export.NewExporter(cacheDB, client, cfg.Storage.Bucket,
			cfg.Export, cfg.Source.Columns, l)
	}

	svc := pipeline.NewService(reader, reconciler, tracker, store, st,
		svcExporter, cfg.ETL.Workers, l)

	runID := uuid.NewString()
	switch {
	case singleChunk:
		svc.RunOnce(ctx, runID)
	case skipRefresh:
		svc.RunFullSync(ctx, runID)
	default:
		svc.RunCycle(ctx, runID)
	}

	rec, err := tracker.Status(runID)
	if err != nil {
		return fmt.Errorf("failed to read run status: %w", err)
	}
	printRunRecord(l, rec)

	if rec.Status == models.RunFailed {
		return fmt.Errorf("run %s failed: %s", rec.ID, rec.Message)
	}
	return nil
}

// printRunRecord logs a run summary using the structured logger.
func printRunRecord(l *zap.Logger, rec models.RunRecord) {
	fields := []zap.Field{
		zap.String("run_id", rec.ID),
		zap.String("status", string(rec.Status)),
		zap.String("message", rec.Message),
		zap.Int64("rows_received", rec.RowsReceived),
		zap.Int64("rows_upserted", rec.RowsUpserted),
		zap.Int64("rows_failed", rec.RowsFailed),
		zap.Time("start_time", rec.StartTime),
	}
	if rec.EndTime != nil {
		fields = append(fields, zap.Time("end_time", *rec.EndTime))
		fields = append(fields, zap.Duration("duration", rec.EndTime.Sub(rec.StartTime)))
	}
	l.Info("Run summary", fields...)
}
