package pipeline

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DARKSNOUT/ETL-Pipeline/core/settings"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, resched Rescheduler) (*fiber.App, *Service, *settings.Manager) {
	t.Helper()
	svc, _, _ := newTestService(t, nil)
	st := newTestSettings(t, 10)

	app := fiber.New()
	handler := NewHandler(svc, st, resched, zap.NewNop())
	handler.RegisterRoutes(app)
	return app, svc, st
}

func TestHandler_Triggers(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	t.Run("trigger etl accepts and returns a task id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/trigger-etl", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body["task_id"])
		assert.Contains(t, body["message"], "triggered")
	})

	t.Run("trigger full sync accepts", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/trigger-full-sync", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	})
}

func TestHandler_Status(t *testing.T) {
	app, svc, _ := newTestApp(t, nil)

	t.Run("unknown run id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/etl-status/unknown", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("no runs recorded yet", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/etl-status/latest", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("known run id", func(t *testing.T) {
		svc.Tracker().Begin("run-1")

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/etl-status/run-1", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "run-1", body["run_id"])
		assert.Equal(t, "pending", body["status"])
	})

	t.Run("latest prefers the newest run", func(t *testing.T) {
		svc.Tracker().Begin("run-2")

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/etl-status/latest", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "run-2", body["run_id"])
	})
}

func TestHandler_Cancel(t *testing.T) {
	t.Run("unknown run id", func(t *testing.T) {
		app, _, _ := newTestApp(t, nil)

		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/runs/unknown/cancel", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("live run accepts the cancellation", func(t *testing.T) {
		app, svc, _ := newTestApp(t, nil)
		_ = svc.register("run-live")
		defer svc.unregister("run-live")

		resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/runs/run-live/cancel", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "run-live", body["task_id"])
	})
}

func TestHandler_Config(t *testing.T) {
	t.Run("get returns the current settings", func(t *testing.T) {
		app, _, _ := newTestApp(t, nil)

		resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/config", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body settings.Settings
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 10, body.ChunkSize)
		assert.Equal(t, 60, body.IntervalMinutes)
	})

	t.Run("update applies settings and reschedules", func(t *testing.T) {
		rescheduled := 0
		app, _, st := newTestApp(t, func(minutes int) error {
			rescheduled = minutes
			return nil
		})

		req := httptest.NewRequest("POST", "/api/v1/config",
			strings.NewReader(`{"chunk_size": 500, "interval_minutes": 15}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, 15, rescheduled)
		assert.Equal(t, 500, st.Get().ChunkSize)
	})

	t.Run("rejects invalid settings", func(t *testing.T) {
		app, _, st := newTestApp(t, nil)

		req := httptest.NewRequest("POST", "/api/v1/config",
			strings.NewReader(`{"chunk_size": 0, "interval_minutes": 15}`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, 10, st.Get().ChunkSize)
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		app, _, _ := newTestApp(t, nil)

		req := httptest.NewRequest("POST", "/api/v1/config", strings.NewReader(`not json`))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}
