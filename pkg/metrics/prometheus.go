package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches *prometheus.CounterVec
	ticks   *prometheus.CounterVec
	bytes   prometheus.Counter
	latency *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickpull_fetches_total",
				Help: "Hourly file fetches by outcome (ok, nodata, retryable, decode_error)",
			},
			[]string{"outcome"},
		),
		ticks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tickpull_ticks_decoded_total",
				Help: "Total ticks decoded per symbol",
			},
			[]string{"symbol"},
		),
		bytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tickpull_bytes_downloaded_total",
				Help: "Compressed bytes downloaded from the datafeed",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tickpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one per-descriptor fetch outcome.
func (r *Recorder) RecordFetch(outcome string) {
	r.fetches.WithLabelValues(outcome).Inc()
}

// RecordTicks records decoded ticks for a symbol.
func (r *Recorder) RecordTicks(symbol string, n int) {
	r.ticks.WithLabelValues(symbol).Add(float64(n))
}

// RecordBytes records downloaded payload bytes.
func (r *Recorder) RecordBytes(n int) {
	r.bytes.Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
