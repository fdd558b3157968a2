package metrics_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/legacy"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/infrastructure/metrics"
)

func sampleOutput() transition.TransitionCalcOutput {
	out := transition.TransitionCalcOutput{
		Weights: transition.WeightsForYear(2030),
		Items: []transition.PersistedItemComponents{
			{ItemID: "i1", Legacy: legacy.ItemResult{UnsupportedReasons: []string{legacy.ReasonDifalNotSupported}}},
			{ItemID: "i2"},
		},
	}
	out.Summary.Transition.EffectiveRate = decimal.RequireFromString("0.196")
	return out
}

func TestCollector_ObserveCalculation(t *testing.T) {
	c := metrics.NewCollector("test", prometheus.NewRegistry())
	c.ObserveCalculation("calculation", 15*time.Millisecond, sampleOutput())
	c.CalculationFailed("calculation", "missing_configuration")

	count, err := testutil.GatherAndCount(c.Registry(),
		"test_calculation_runs_total", "test_calculation_items_total",
		"test_legacy_unsupported_items_total", "test_calculation_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestCollector_MiddlewareYHandler(t *testing.T) {
	c := metrics.NewCollector("test", prometheus.NewRegistry())
	app := fiber.New()
	app.Use(c.Middleware())
	app.Get("/ping", func(ctx *fiber.Ctx) error { return ctx.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/ping",status="200"} 1`)
}
