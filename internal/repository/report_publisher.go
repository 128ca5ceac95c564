package repository

import (
	"context"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	pkgkafka "OsloScan/pkg/kafka"
)

// KafkaReportPublisher publishes screener reports keyed by request id.
type KafkaReportPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaReportPublisher(producer *pkgkafka.Producer, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.ScreenerReport) error {
	return p.producer.Publish(ctx, p.topic, r.RequestID, r, map[string]string{
		"trace_id": r.RequestID,
		"engine":   r.Engine,
	})
}

// NoopReportPublisher drops reports. Used when Kafka is disabled.
type NoopReportPublisher struct{}

func (NoopReportPublisher) PublishReport(context.Context, *models.ScreenerReport) error { return nil }

var (
	_ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)
	_ domrepo.ReportPublisher = NoopReportPublisher{}
)
