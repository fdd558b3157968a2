// Package metrics expone métricas Prometheus del servicio: cálculos ejecutados,
// cobertura del régimen vigente y latencia HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/Arthurjsp/ibs-cbs-mvp-sub000/internal/domain/transition"
)

// Collector agrupa las métricas registradas en un registry propio.
type Collector struct {
	registry *prometheus.Registry

	calculationsTotal   *prometheus.CounterVec
	calculationDuration *prometheus.HistogramVec
	calculationFailures *prometheus.CounterVec
	itemsTotal          *prometheus.CounterVec
	unsupportedItems    *prometheus.CounterVec
	effectiveRate       *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector crea y registra las métricas. registry nil = registry nuevo con
// collectors de proceso y runtime de Go.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if namespace == "" {
		namespace = "ibscbs"
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	c := &Collector{
		registry: registry,
		calculationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "calculation",
				Name:      "runs_total",
				Help:      "Orquestaciones de transición completadas",
			},
			[]string{"kind", "year"},
		),
		calculationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "calculation",
				Name:      "duration_seconds",
				Help:      "Duración del pipeline de cálculo (carga, motores, persistencia)",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms a ~2s
			},
			[]string{"kind"},
		),
		calculationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "calculation",
				Name:      "failures_total",
				Help:      "Cálculos rechazados o fallidos por causa",
			},
			[]string{"kind", "reason"},
		),
		itemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "calculation",
				Name:      "items_total",
				Help:      "Ítems procesados",
			},
			[]string{"kind"},
		),
		unsupportedItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "legacy",
				Name:      "unsupported_items_total",
				Help:      "Ítems con cobertura incompleta del régimen vigente, por motivo",
			},
			[]string{"reason"},
		),
		effectiveRate: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "calculation",
				Name:      "effective_rate",
				Help:      "Tasa efectiva ponderada por documento",
				Buckets:   prometheus.LinearBuckets(0, 0.05, 11), // 0% a 50%
			},
			[]string{"kind"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Requests HTTP por ruta y status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Latencia HTTP por ruta",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.calculationsTotal, c.calculationDuration, c.calculationFailures,
		c.itemsTotal, c.unsupportedItems, c.effectiveRate,
		c.httpRequests, c.httpDuration,
	)
	return c
}

// Registry registry subyacente (tests y exposición).
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveCalculation registra una orquestación completada. kind = calculation | simulation.
func (c *Collector) ObserveCalculation(kind string, elapsed time.Duration, out transition.TransitionCalcOutput) {
	c.calculationsTotal.WithLabelValues(kind, strconv.Itoa(out.Weights.Year)).Inc()
	c.calculationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	c.itemsTotal.WithLabelValues(kind).Add(float64(len(out.Items)))
	c.effectiveRate.WithLabelValues(kind).Observe(toFloat(out.Summary.Transition.EffectiveRate))
	for _, it := range out.Items {
		for _, reason := range it.Legacy.UnsupportedReasons {
			c.unsupportedItems.WithLabelValues(reason).Inc()
		}
	}
}

// CalculationFailed registra un cálculo rechazado.
func (c *Collector) CalculationFailed(kind, reason string) {
	c.calculationFailures.WithLabelValues(kind, reason).Inc()
}

// Handler handler net/http del endpoint /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Middleware mide cada request HTTP. Usa la ruta registrada (no la URL) para acotar cardinalidad.
func (c *Collector) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		route := ctx.Route().Path
		status := ctx.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		c.httpRequests.WithLabelValues(ctx.Method(), route, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(ctx.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
