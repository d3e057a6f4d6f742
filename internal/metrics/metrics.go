// Package metrics collects per-command counters in a private Prometheus
// registry. pgrows is a short-lived CLI, so instead of serving /metrics the
// registry is written once in the text exposition format, ready for the
// node_exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vvka-141/pgrows/internal/cache"
)

const namespace = "pgrows"

// Metrics holds the collectors of one command run.
type Metrics struct {
	registry *prometheus.Registry

	// Retries counts attempts repeated after a transient failure.
	Retries prometheus.Counter

	// RowsStreamed counts rows handed to stream consumers.
	RowsStreamed prometheus.Counter

	// IngestRows counts CSV rows by outcome ("inserted" or "skipped").
	IngestRows *prometheus.CounterVec

	// CommandDuration observes wall time per command and outcome ("success" or "error").
	CommandDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retry_attempts_total",
			Help:      "Operation attempts repeated after a transient failure.",
		}),
		RowsStreamed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_streamed_total",
			Help:      "Rows delivered by row and batch streams.",
		}),
		IngestRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_rows_total",
			Help:      "CSV rows processed by seed, by outcome.",
		}, []string{"outcome"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall time of pgrows commands.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"command", "outcome"}),
	}
}

// TrackCache exposes the lookup counts of a query cache under the given name.
// Each name may be tracked once.
func (m *Metrics) TrackCache(name string, stats func() cache.Stats) error {
	labels := prometheus.Labels{"cache": name}
	hits := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "cache_hits_total",
		Help:        "Query results served from the cache.",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Hits) })
	misses := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "cache_misses_total",
		Help:        "Query results computed because the cache had no entry.",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Misses) })

	if err := m.registry.Register(hits); err != nil {
		return fmt.Errorf("register cache %s: %w", name, err)
	}
	if err := m.registry.Register(misses); err != nil {
		m.registry.Unregister(hits)
		return fmt.Errorf("register cache %s: %w", name, err)
	}
	return nil
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
