package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "visit_map"

// Metrics holds the Prometheus counters, histograms, and gauges for rendering runs.
type Metrics struct {
	Runs           *prometheus.CounterVec   // labels: kind={map,charts}, outcome={success,error}
	RenderDuration *prometheus.HistogramVec // labels: kind={map,charts}

	// Input decoding.
	RowsLoaded   prometheus.Counter
	CoercedCells *prometheus.CounterVec // labels: column

	MarkersPerMap    prometheus.Histogram
	ArtifactsWritten *prometheus.CounterVec // labels: kind={map,chart_image,chart_page,workbook}
	NotifyErrors     prometheus.Counter

	// Boundary geometry.
	BoundaryCache   *prometheus.CounterVec // labels: result={hit,miss}
	BoundaryRegions prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Render runs by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a complete load, render, and persist run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Total CSV rows decoded into visit records.",
		}),
		CoercedCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coerced_cells_total",
			Help:      "Cells that failed type coercion and were treated as missing.",
		}, []string{"column"}),
		MarkersPerMap: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "markers_per_map",
			Help:      "Number of markers placed on each rendered map.",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 40, 50, 60},
		}),
		ArtifactsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_written_total",
			Help:      "Output files written by kind.",
		}, []string{"kind"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_errors_total",
			Help:      "Artifact events that could not be published.",
		}),
		BoundaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_cache_total",
			Help:      "Boundary cache lookups by result.",
		}, []string{"result"}),
		BoundaryRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boundary_regions",
			Help:      "Regions in the most recently loaded boundary file.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.RenderDuration,
		m.RowsLoaded,
		m.CoercedCells,
		m.MarkersPerMap,
		m.ArtifactsWritten,
		m.NotifyErrors,
		m.BoundaryCache,
		m.BoundaryRegions,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
