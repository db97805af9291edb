package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DARKSNOUT/ETL-Pipeline/core/cache"
	"github.com/DARKSNOUT/ETL-Pipeline/core/config"
	"github.com/DARKSNOUT/ETL-Pipeline/core/loader"
	"github.com/DARKSNOUT/ETL-Pipeline/core/logger"
	"github.com/DARKSNOUT/ETL-Pipeline/core/middleware/auth"
	"github.com/DARKSNOUT/ETL-Pipeline/core/middleware/rayid"
	"github.com/DARKSNOUT/ETL-Pipeline/core/scheduler"
	"github.com/DARKSNOUT/ETL-Pipeline/core/settings"
	"github.com/DARKSNOUT/ETL-Pipeline/core/source"
	"github.com/DARKSNOUT/ETL-Pipeline/core/storage"

	"github.com/DARKSNOUT/ETL-Pipeline/feature/export"
	"github.com/DARKSNOUT/ETL-Pipeline/feature/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncJobName identifies the periodic sync cycle in the scheduler.
const syncJobName = "full-sync"

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ETL pipeline server",
	Long:  `Starts the HTTP server, the background sync scheduler and all enabled features.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Source and Cache Databases
		srcDB, err := source.Connect(cfg.Source)
		if err != nil {
			logg.Fatal("Failed to connect to source database", zap.Error(err))
		}
		cacheDB, err := cache.Open(cfg.Cache)
		if err != nil {
			logg.Fatal("Failed to open cache database", zap.Error(err))
		}

		// 4. Runtime Settings (chunk size, sync interval)
		st, err := settings.NewManager(cfg.ETL.SettingsPath)
		if err != nil {
			logg.Fatal("Failed to load runtime settings", zap.Error(err))
		}

		// 5. Assemble the Pipeline
		store, err := pipeline.NewStore(cacheDB, cfg.Cache.TimeoutSeconds)
		if err != nil {
			logg.Fatal("Failed to prepare cache schema", zap.Error(err))
		}
		signer := pipeline.NewSigner(cfg.Source.Columns)
		reconciler := pipeline.NewReconciler(store, signer, cfg.Source.KeyColumn, logg)
		tracker := pipeline.NewTracker(store, logg)
		reader := pipeline.NewReader(srcDB, cfg.Source, logg)

		// 6. Export Delivery (Optional)
		var exporter *export.Exporter
		var svcExporter pipeline.Exporter
		if cfg.Storage.Enabled {
			client, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			exporter = export.NewExporter(cacheDB, client, cfg.Storage.Bucket,
				cfg.Export, cfg.Source.Columns, logg)
			svcExporter = exporter
			logg.Info("Export delivery enabled", zap.String("bucket", cfg.Storage.Bucket))
		}

		svc := pipeline.NewService(reader, reconciler, tracker, store, st,
			svcExporter, cfg.ETL.Workers, logg)

		// 7. Background Sync Scheduler (Optional)
		var resched pipeline.Rescheduler
		var sched *scheduler.Scheduler
		if cfg.Scheduler.Enabled {
			sched, err = scheduler.New(logg)
			if err != nil {
				logg.Fatal("Failed to create scheduler", zap.Error(err))
			}
			syncTask := func() {
				svc.StartCycle(uuid.NewString())
			}
			interval := time.Duration(st.Get().IntervalMinutes) * time.Minute
			if err := sched.AddJob(syncJobName, interval, syncTask); err != nil {
				logg.Fatal("Failed to schedule sync job", zap.Error(err))
			}
			sched.Start()
			resched = func(minutes int) error {
				return sched.Reschedule(syncJobName, time.Duration(minutes)*time.Minute, syncTask)
			}
		}

		// 8. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Health Check (Public)
		app.Get("/", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})

		// 4. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 9. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(pipeline.NewFeature(svc, pipeline.NewHandler(svc, st, resched, logg)))
		mgr.Register(export.NewFeature(export.NewHandler(exporter, logg), exporter != nil))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 10. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 11. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		if sched != nil {
			_ = sched.Shutdown()
		}
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
