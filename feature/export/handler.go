package export

import (
	"github.com/DARKSNOUT/ETL-Pipeline/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for on-demand exports.
type Handler struct {
	exporter *Exporter
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(exporter *Exporter, log *zap.Logger) *Handler {
	return &Handler{exporter: exporter, logger: log}
}

// RegisterRoutes registers the export routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/api/v1")
	group.Post("/export", h.HandleExport)
}

// HandleExport renders and uploads a fresh cache snapshot.
// @Summary Export cache snapshot
// @Description Writes the full cache to CSV and delivers it to object storage.
// @Tags export
// @Produce json
// @Success 200 {object} map[string]string "Export delivered"
// @Failure 500 {object} map[string]string "Export failed"
// @Router /api/v1/export [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)

	object, err := h.exporter.Export(c.Context())
	if err != nil {
		l.Error("Export failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "export failed",
		})
	}
	if object == "" {
		return c.JSON(fiber.Map{"message": "Cache is empty, nothing exported."})
	}

	return c.JSON(fiber.Map{
		"message": "Export delivered successfully.",
		"object":  object,
	})
}
