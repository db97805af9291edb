package cmd

import (
	"context"
	"fmt"

	"github.com/DARKSNOUT/ETL-Pipeline/core/cache"
	"github.com/DARKSNOUT/ETL-Pipeline/core/config"
	"github.com/DARKSNOUT/ETL-Pipeline/core/logger"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline"

	"github.com/spf13/cobra"
)

// statusCmd prints the most recent run without starting the server.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent extraction run",
	Long:  `Reads the cache database and prints the most recent extraction run record.`,
	RunE:  runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	cacheDB, err := cache.Open(cfg.Cache)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	store, err := pipeline.NewStore(cacheDB, cfg.Cache.TimeoutSeconds)
	if err != nil {
		return fmt.Errorf("failed to prepare cache schema: %w", err)
	}

	rec, err := store.LatestRun(ctx)
	if err != nil {
		return fmt.Errorf("failed to read latest run: %w", err)
	}
	if rec == nil {
		l.Info("No runs have been recorded yet")
		return nil
	}

	printRunRecord(l, *rec)
	return nil
}
