// Package metrics collects per-run Prometheus metrics for the plotting pipelines.
package metrics

import (
	"time"

	"github.com/huangsam/attrplot/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results.
const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// Metrics holds the counters of one run. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PlotsRendered  *prometheus.CounterVec   // charts written, by artifact kind
	PairsSkipped   *prometheus.CounterVec   // (model, dataset) pairs without output, by reason
	IDsSkipped     prometheus.Counter       // requested ids absent from a dataset
	CacheLookups   *prometheus.CounterVec   // attribution cache lookups, by result
	RenderDuration *prometheus.HistogramVec // time spent rendering one chart, by artifact kind
}

// New creates metrics on a fresh registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics registered on registry.
func NewWithRegistry(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		PlotsRendered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attrplot_plots_rendered_total",
			Help: "Number of charts written to disk",
		}, []string{"kind"}),
		PairsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attrplot_pairs_skipped_total",
			Help: "Number of model and dataset pairs that produced no output",
		}, []string{"reason"}),
		IDsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "attrplot_ids_skipped_total",
			Help: "Number of requested row identifiers absent from a dataset",
		}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "attrplot_cache_lookups_total",
			Help: "Number of attribution cache lookups",
		}, []string{"result"}),
		RenderDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "attrplot_render_duration_seconds",
			Help:    "Time spent rendering one chart",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// Registry returns the registry the metrics live in.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// PlotRendered records one written chart.
func (m *Metrics) PlotRendered(kind schema.ArtifactKind, d time.Duration) {
	if m == nil {
		return
	}
	m.PlotsRendered.WithLabelValues(string(kind)).Inc()
	m.RenderDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// PairSkipped records a pair that produced no output.
func (m *Metrics) PairSkipped(reason string) {
	if m == nil {
		return
	}
	m.PairsSkipped.WithLabelValues(reason).Inc()
}

// IDSkipped records a requested identifier that was not found.
func (m *Metrics) IDSkipped() {
	if m == nil {
		return
	}
	m.IDsSkipped.Inc()
}

// CacheLookup records an attribution cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := cacheMiss
	if hit {
		result = cacheHit
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// WriteFile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
