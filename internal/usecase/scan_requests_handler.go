package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	xhttp "OsloScan/pkg/http"
	pkgkafka "OsloScan/pkg/kafka"
	"OsloScan/pkg/logger"
)

// ScanRequestsHandler runs one screener pass per message on the requests
// topic. The report goes out through the screener's publisher.
type ScanRequestsHandler struct {
	topic    string
	screener *ScreenerUseCase
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewScanRequestsHandler(topic string, screener *ScreenerUseCase, metrics domrepo.Metrics, log *logger.Logger) *ScanRequestsHandler {
	return &ScanRequestsHandler{topic: topic, screener: screener, metrics: metrics, logger: log}
}

func (h *ScanRequestsHandler) Topic() string { return h.topic }

// incoming message schema: {request_id, tickers, criteria, created_at}
func (h *ScanRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var m models.ScanRequestMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode scan request: %w", err)
	}
	if verr := xhttp.ValidateStruct(ctx, &m.ScreenerRequest); verr != nil {
		h.metrics.RecordError("consumer_validate")
		return fmt.Errorf("scan request %q: %s", m.RequestID, verr[0].Message)
	}
	if !m.CreatedAt.IsZero() {
		h.metrics.RecordLatency("scan_request_queue_seconds", time.Since(m.CreatedAt).Seconds())
	}

	_, err := h.screener.Scan(ctx, "kafka", &m.ScreenerRequest, nil)
	return err
}

var _ pkgkafka.MessageHandler = (*ScanRequestsHandler)(nil)
