package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scansTotal     *prometheus.CounterVec
	tickersTotal   *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	scanMatches    prometheus.Histogram
	tickerOutcomes *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	engine         *prometheus.GaugeVec
}

var (
	once     sync.Once
	recorder *Recorder
)

// New returns the process-wide Prometheus recorder. Collectors are
// registered with the default registry on first use only.
func New() *Recorder {
	once.Do(func() {
		recorder = &Recorder{
			scansTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "osloscan_scans_total",
					Help: "Total number of screener runs",
				},
				[]string{"source"},
			),
			tickersTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "osloscan_scanned_tickers_total",
					Help: "Total number of tickers submitted to the screener",
				},
				[]string{"source"},
			),
			scanDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "osloscan_scan_duration_seconds",
					Help:    "Duration of screener runs in seconds",
					Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
				},
				[]string{"source"},
			),
			scanMatches: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "osloscan_scan_matches",
					Help:    "Admitted tickers per screener run",
					Buckets: prometheus.LinearBuckets(0, 5, 10),
				},
			),
			tickerOutcomes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "osloscan_ticker_outcomes_total",
					Help: "Per-ticker screener outcomes",
				},
				[]string{"outcome"},
			),
			errorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "osloscan_errors_total",
					Help: "Total number of errors encountered",
				},
				[]string{"type"},
			),
			latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "osloscan_operation_duration_seconds",
					Help:    "Duration of operations in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"operation"},
			),
			engine: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "osloscan_indicator_engine",
					Help: "Active indicator engine (1 for the selected variant)",
				},
				[]string{"engine"},
			),
		}
	})
	return recorder
}

// RecordScan records a finished screener run.
func (r *Recorder) RecordScan(source string, tickers, matches int, d time.Duration) {
	r.scansTotal.WithLabelValues(source).Inc()
	r.scanDuration.WithLabelValues(source).Observe(d.Seconds())
	r.tickersTotal.WithLabelValues(source).Add(float64(tickers))
	r.scanMatches.Observe(float64(matches))
}

// RecordTicker records a per-ticker outcome (matched, rejected, skipped).
func (r *Recorder) RecordTicker(outcome string) {
	r.tickerOutcomes.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetEngine marks the active indicator engine.
func (r *Recorder) SetEngine(name string) {
	r.engine.Reset()
	r.engine.WithLabelValues(name).Set(1)
}
