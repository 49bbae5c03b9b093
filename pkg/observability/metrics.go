package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/weft/pkg/cache"
	"github.com/aretw0/weft/pkg/domain"
)

// Metrics holds the engine collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	outputs        *prometheus.CounterVec
	outputDuration *prometheus.HistogramVec
	logs           *prometheus.CounterVec
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_runs_total",
				Help: "Total number of flow runs by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "weft_run_duration_seconds",
				Help:    "Duration of flow runs",
				Buckets: prometheus.DefBuckets,
			},
		),
		outputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_component_outputs_total",
				Help: "Total number of output method invocations",
			},
			[]string{"component", "output", "status"},
		),
		outputDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "weft_component_output_duration_seconds",
				Help:    "Duration of output method invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"component"},
		),
		logs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "weft_component_logs_total",
				Help: "Total number of log records emitted by components",
			},
			[]string{"type"},
		),
	}
	m.registry.MustRegister(m.runs, m.runDuration, m.outputs, m.outputDuration, m.logs)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the collected metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WatchCache exposes the size and hit counters of a cache under name.
func (m *Metrics) WatchCache(name string, c *cache.Cache) error {
	labels := prometheus.Labels{"cache": name}
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "weft_cache_entries",
			Help:        "Number of entries in a shared cache",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Len()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "weft_cache_hits_total",
			Help:        "Cache lookups that found an entry",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "weft_cache_misses_total",
			Help:        "Cache lookups that missed",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Stats().Misses) }),
	}
	for _, col := range collectors {
		if err := m.registry.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(statusOf(e.Err)).Inc()
			m.runDuration.Observe(e.Duration.Seconds())
		},
		OnComponentEnd: func(ctx context.Context, e *domain.ComponentEvent) {
			m.outputs.WithLabelValues(e.Component, e.Output, statusOf(e.Err)).Inc()
			m.outputDuration.WithLabelValues(e.Component).Observe(e.Duration.Seconds())
		},
		OnLog: func(ctx context.Context, e *domain.LogEvent) {
			m.logs.WithLabelValues(e.Log.Type).Inc()
		},
	}
}

func statusOf(err error) string {
	if err != nil {
		return string(domain.StatusError)
	}
	return string(domain.StatusOK)
}
