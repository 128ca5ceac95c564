package usecase

import (
	"context"
	"fmt"
	"time"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	"OsloScan/internal/indicator"
	"OsloScan/pkg/logger"
)

// IndicatorsUseCase serves the latest indicator values for one ticker.
type IndicatorsUseCase struct {
	provider domrepo.SeriesProvider
	engine   indicator.Engine
	params   indicator.Params
	metrics  domrepo.Metrics
	logger   *logger.Logger
}

func NewIndicatorsUseCase(provider domrepo.SeriesProvider, engine indicator.Engine, metrics domrepo.Metrics, log *logger.Logger) *IndicatorsUseCase {
	return &IndicatorsUseCase{
		provider: provider,
		engine:   engine,
		params:   indicator.DefaultParams(),
		metrics:  metrics,
		logger:   log,
	}
}

// Snapshot fetches six months of history and computes every indicator.
// Provider errors are returned as-is (ErrNoDataAvailable included); engine
// errors are wrapped in ErrComputationFailure.
func (u *IndicatorsUseCase) Snapshot(ctx context.Context, ticker string) (*models.IndicatorSnapshot, error) {
	start := time.Now()
	defer func() { u.metrics.RecordLatency("indicators_snapshot", time.Since(start).Seconds()) }()

	series, err := u.provider.Series(ctx, ticker, models.Lookback6Months)
	if err != nil {
		return nil, err
	}

	out, err := u.compute(series.Closes())
	if err != nil {
		u.metrics.RecordError("indicator_compute")
		u.logger.Error("indicator computation failed", logger.String("ticker", ticker), logger.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrComputationFailure, err)
	}

	return formatSnapshot(ticker, series, out, u.engine.Name()), nil
}

func (u *IndicatorsUseCase) compute(closes []float64) (indicatorOutputs, error) {
	p := u.params
	rsi, err := u.engine.RSI(closes, p.RSIPeriod)
	if err != nil {
		return indicatorOutputs{}, fmt.Errorf("rsi: %w", err)
	}
	macd, err := u.engine.MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	if err != nil {
		return indicatorOutputs{}, fmt.Errorf("macd: %w", err)
	}
	bb, err := u.engine.Bollinger(closes, p.BollingerPeriod, p.BollingerStdDev)
	if err != nil {
		return indicatorOutputs{}, fmt.Errorf("bollinger: %w", err)
	}
	return indicatorOutputs{rsi: rsi, macd: macd, bollinger: bb}, nil
}
