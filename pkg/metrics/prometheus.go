package metrics

import (
	"FinSignal/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	recordErrors *prometheus.CounterVec
	signals      *prometheus.CounterVec
	rows         prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the recorder on reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_feed_fetches_total",
				Help: "Feed document fetches by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		fetchLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_feed_fetch_duration_seconds",
				Help:    "Duration of feed document fetches",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"kind"},
		),
		recordErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_record_errors_total",
				Help: "Per-record and per-feed errors reported beside the signal rows",
			},
			[]string{"component"},
		),
		signals: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finsignal_signals_total",
				Help: "Derived classifications by component and direction",
			},
			[]string{"component", "direction"},
		),
		rows: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "finsignal_last_table_rows",
				Help: "Rows in the most recent signal table",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finsignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one feed fetch.
func (r *Recorder) RecordFetch(kind string, seconds float64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetches.WithLabelValues(kind, outcome).Inc()
	r.fetchLatency.WithLabelValues(kind).Observe(seconds)
}

// RecordRecordError counts an error reported in a signal table.
func (r *Recorder) RecordRecordError(component string) {
	r.recordErrors.WithLabelValues(component).Inc()
}

// RecordRows sets the size of the last table.
func (r *Recorder) RecordRows(n int) {
	r.rows.Set(float64(n))
}

// RecordSignal counts a derived classification.
func (r *Recorder) RecordSignal(component string, direction models.Direction) {
	r.signals.WithLabelValues(component, string(direction)).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
