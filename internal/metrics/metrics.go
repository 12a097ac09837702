// Package metrics provides Prometheus metrics for the traffic ranker.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the traffic ranker.
type Metrics struct {
	// Input metrics
	RecordsLoaded  prometheus.Counter
	RecordsSkipped *prometheus.CounterVec

	// Run metrics
	Runs          *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec

	// Distribution metrics
	ChunkSize      prometheus.Gauge
	PaddingSlots   prometheus.Gauge
	TuplesGathered *prometheus.GaugeVec
	HoursRanked    prometheus.Gauge

	registry *prometheus.Registry
}

// New registers all metrics on a fresh registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "traffic_ranker"
	}

	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		RecordsLoaded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_loaded_total",
				Help:      "Total number of validated records loaded from input",
			},
		),
		RecordsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_skipped_total",
				Help:      "Total number of input lines rejected by the validator",
			},
			[]string{"field"},
		),
		Runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of runs by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each pipeline stage",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100us to ~26s
			},
			[]string{"stage"},
		),
		ChunkSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "chunk_size_slots",
				Help:      "Slots per worker chunk in the last distributed run",
			},
		),
		PaddingSlots: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "padding_slots",
				Help:      "Padding slots in the last distributed run",
			},
		),
		TuplesGathered: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tuples_gathered",
				Help:      "Tuples reported by each rank in the last distributed run",
			},
			[]string{"rank"},
		),
		HoursRanked: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hours_ranked",
				Help:      "Hours present in the last ranking",
			},
		),
		registry: reg,
	}
}

// Handler returns the HTTP mux serving /metrics and /health.
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func (m *Metrics) StartServer(address string) error {
	return http.ListenAndServe(address, m.Handler())
}

// Methods below are no-ops on a nil *Metrics so callers can run without metrics.

// AddRecordsLoaded adds to the records loaded counter.
func (m *Metrics) AddRecordsLoaded(n int) {
	if m == nil {
		return
	}
	m.RecordsLoaded.Add(float64(n))
}

// IncRecordsSkipped increments the skipped counter for the failing field.
func (m *Metrics) IncRecordsSkipped(field string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(field).Inc()
}

// IncRuns increments the runs counter.
func (m *Metrics) IncRuns(mode, outcome string) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(mode, outcome).Inc()
}

// ObserveStage records the duration of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// SetDistribution records the chunk layout and per-rank tuple counts.
func (m *Metrics) SetDistribution(chunkSize, padding int, tuples []int) {
	if m == nil {
		return
	}
	m.ChunkSize.Set(float64(chunkSize))
	m.PaddingSlots.Set(float64(padding))
	m.TuplesGathered.Reset()
	for rank, n := range tuples {
		m.TuplesGathered.WithLabelValues(strconv.Itoa(rank)).Set(float64(n))
	}
}

// SetHoursRanked sets the number of ranked hours.
func (m *Metrics) SetHoursRanked(n int) {
	if m == nil {
		return
	}
	m.HoursRanked.Set(float64(n))
}
