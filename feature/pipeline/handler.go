package pipeline

import (
	"errors"

	"github.com/DARKSNOUT/ETL-Pipeline/core/logger"
	"github.com/DARKSNOUT/ETL-Pipeline/core/settings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rescheduler updates the interval of the scheduled sync job after the
// operator changes it. Wired from the start command; nil when the scheduler
// is disabled.
type Rescheduler func(intervalMinutes int) error

// Handler handles HTTP requests for the extraction pipeline.
type Handler struct {
	service  *Service
	settings *settings.Manager
	resched  Rescheduler
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, st *settings.Manager, resched Rescheduler, log *zap.Logger) *Handler {
	return &Handler{service: service, settings: st, resched: resched, logger: log}
}

// RegisterRoutes registers the pipeline routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api/v1")
	group.Post("/trigger-etl", h.HandleTriggerETL)
	group.Post("/trigger-full-sync", h.HandleTriggerFullSync)
	group.Post("/runs/:id/cancel", h.HandleCancelRun)
	group.Get("/etl-status/latest", h.HandleLatestStatus)
	group.Get("/etl-status/:id", h.HandleRunStatus)
	group.Get("/config", h.HandleGetConfig)
	group.Post("/config", h.HandleUpdateConfig)
}

// HandleTriggerETL triggers a single-chunk incremental run.
// @Summary Trigger ETL chunk
// @Description Processes one chunk from the persisted offset in the background.
// @Tags etl
// @Produce json
// @Success 202 {object} map[string]string "Run accepted"
// @Router /api/v1/trigger-etl [post]
func (h *Handler) HandleTriggerETL(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	runID := uuid.NewString()
	h.service.StartOnce(runID)
	l.Info("ETL run triggered", zap.String("run_id", runID))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "ETL pipeline triggered successfully.",
		"task_id": runID,
	})
}

// HandleTriggerFullSync triggers a continuous sync that runs until no new
// data is found.
// @Summary Trigger full sync
// @Description Walks the whole source and reconciles every chunk in the background.
// @Tags etl
// @Produce json
// @Success 202 {object} map[string]string "Run accepted"
// @Router /api/v1/trigger-full-sync [post]
func (h *Handler) HandleTriggerFullSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	runID := uuid.NewString()
	h.service.StartFullSync(runID)
	l.Info("Full sync triggered", zap.String("run_id", runID))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Full ETL sync triggered successfully.",
		"task_id": runID,
	})
}

// HandleCancelRun asks a live run to stop between batches.
// @Summary Cancel run
// @Tags etl
// @Produce json
// @Param id path string true "Run ID"
// @Success 202 {object} map[string]string "Cancellation requested"
// @Failure 404 {object} map[string]string "Unknown run"
// @Router /api/v1/runs/{id}/cancel [post]
func (h *Handler) HandleCancelRun(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	runID := c.Params("id")

	if err := h.service.Cancel(runID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no live run with this id",
		})
	}
	l.Info("Run cancellation requested", zap.String("run_id", runID))

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Cancellation requested.",
		"task_id": runID,
	})
}

// HandleRunStatus returns the status snapshot of one run.
// @Summary Run status
// @Tags etl
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} models.RunRecord
// @Failure 404 {object} map[string]string "Unknown run"
// @Router /api/v1/etl-status/{id} [get]
func (h *Handler) HandleRunStatus(c *fiber.Ctx) error {
	rec, err := h.service.Tracker().Status(c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no run with this id",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rec)
}

// HandleLatestStatus returns the most recently started run.
// @Summary Latest run status
// @Tags etl
// @Produce json
// @Success 200 {object} models.RunRecord
// @Failure 404 {object} map[string]string "No runs recorded"
// @Router /api/v1/etl-status/latest [get]
func (h *Handler) HandleLatestStatus(c *fiber.Ctx) error {
	rec, err := h.service.Tracker().Latest(c.Context())
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "no runs have been recorded yet",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(rec)
}

// HandleGetConfig returns the runtime-mutable settings.
// @Summary Get runtime settings
// @Tags configuration
// @Produce json
// @Success 200 {object} settings.Settings
// @Router /api/v1/config [get]
func (h *Handler) HandleGetConfig(c *fiber.Ctx) error {
	return c.JSON(h.settings.Get())
}

// HandleUpdateConfig updates the runtime settings and reschedules the sync
// job when the interval changed.
// @Summary Update runtime settings
// @Tags configuration
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Settings applied"
// @Failure 400 {object} map[string]string "Invalid settings"
// @Router /api/v1/config [post]
func (h *Handler) HandleUpdateConfig(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	var s settings.Settings
	if err := c.BodyParser(&s); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.settings.Save(s); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	l.Info("Runtime settings updated",
		zap.Int("chunk_size", s.ChunkSize),
		zap.Int("interval_minutes", s.IntervalMinutes))

	if h.resched != nil {
		if err := h.resched(s.IntervalMinutes); err != nil {
			l.Error("Failed to reschedule sync job", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "settings saved but rescheduling failed",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message": "Configuration updated and scheduler rescheduled successfully.",
	})
}
