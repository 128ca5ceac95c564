package kafka

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	publishedTotal *prometheus.CounterVec
	publishedBytes *prometheus.CounterVec
	publishSeconds *prometheus.HistogramVec

	consumedTotal *prometheus.CounterVec
	handleSeconds *prometheus.HistogramVec
	laneDepth     *prometheus.GaugeVec
)

func registerMetrics() {
	metricsOnce.Do(func() {
		publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "osloscan_kafka_published_total",
			Help: "Messages written to Kafka by result.",
		}, []string{"topic", "result"})
		publishedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "osloscan_kafka_published_bytes_total",
			Help: "Uncompressed payload bytes written to Kafka.",
		}, []string{"topic"})
		publishSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "osloscan_kafka_publish_seconds",
			Help:    "Time spent in WriteMessages.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})

		consumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "osloscan_kafka_consumed_total",
			Help: "Messages taken off Kafka by outcome (ok, failed, dlq, abandoned).",
		}, []string{"topic", "outcome"})
		handleSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "osloscan_kafka_handle_seconds",
			Help:    "Handler time per message, retries included.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"topic"})
		laneDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "osloscan_kafka_lane_depth",
			Help: "Messages queued in a partition lane.",
		}, []string{"topic", "lane"})
	})
}
