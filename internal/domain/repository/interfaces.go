package repository

import (
	"context"
	"time"

	"OsloScan/internal/domain/models"
)

// SeriesProvider returns daily bars for a bare ticker. Implementations
// return models.ErrNoDataAvailable for unknown, delisted or empty histories.
type SeriesProvider interface {
	Name() string
	Series(ctx context.Context, ticker string, lookback models.Lookback) (*models.PriceSeries, error)
}

// ReportPublisher ships finished screener reports to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report *models.ScreenerReport) error
}

type Metrics interface {
	RecordScan(source string, tickers, matches int, d time.Duration)
	RecordTicker(outcome string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	SetEngine(name string)
}
