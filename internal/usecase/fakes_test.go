package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"OsloScan/internal/domain/models"
	"OsloScan/internal/indicator"
)

// tickerSpec drives fakeProvider and stubEngine: the first close of the
// series is the RSI the stub engine reports.
type tickerSpec struct {
	rsi     float64
	price   float64
	volumes []float64
	err     error
	panics  bool
	delay   time.Duration
}

type fakeProvider struct {
	mu    sync.Mutex
	specs map[string]tickerSpec
	calls map[string]models.Lookback
}

func newFakeProvider(specs map[string]tickerSpec) *fakeProvider {
	return &fakeProvider{specs: specs, calls: make(map[string]models.Lookback)}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Series(ctx context.Context, ticker string, lookback models.Lookback) (*models.PriceSeries, error) {
	p.mu.Lock()
	p.calls[ticker] = lookback
	spec, ok := p.specs[ticker]
	p.mu.Unlock()

	if !ok {
		return nil, models.ErrNoDataAvailable
	}
	if spec.delay > 0 {
		select {
		case <-time.After(spec.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if spec.panics {
		panic("provider exploded")
	}
	if spec.err != nil {
		return nil, spec.err
	}

	vols := spec.volumes
	if len(vols) == 0 {
		vols = []float64{1, 1, 1, 1}
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(vols))
	for i, v := range vols {
		c := spec.price
		if i == 0 {
			c = spec.rsi
		}
		bars[i] = models.Bar{Time: start.AddDate(0, 0, i), Close: c, Volume: v}
	}
	return models.NewPriceSeries(ticker, ticker+".OL", bars)
}

var errStubCompute = errors.New("stub compute failure")

// stubEngine reports closes[0] as the latest RSI. A negative first close
// yields an undefined RSI; -2 fails the computation.
type stubEngine struct{}

func (stubEngine) Name() string { return "stub" }

func (stubEngine) RSI(closes []float64, period int) (indicator.Series, error) {
	out := make(indicator.Series, len(closes))
	switch {
	case closes[0] == -2:
		return nil, errStubCompute
	case closes[0] >= 0:
		out[len(out)-1] = indicator.Some(closes[0])
	}
	return out, nil
}

func (stubEngine) MACD(closes []float64, fast, slow, signal int) (indicator.MACDResult, error) {
	n := len(closes)
	return indicator.MACDResult{MACD: make(indicator.Series, n), Signal: make(indicator.Series, n), Histogram: make(indicator.Series, n)}, nil
}

func (stubEngine) Bollinger(closes []float64, period int, stdDev float64) (indicator.BollingerResult, error) {
	n := len(closes)
	return indicator.BollingerResult{Upper: make(indicator.Series, n), Middle: make(indicator.Series, n), Lower: make(indicator.Series, n)}, nil
}

type recordingMetrics struct {
	mu      sync.Mutex
	tickers map[string]int
	errors  map[string]int
	scans   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{tickers: map[string]int{}, errors: map[string]int{}}
}

func (m *recordingMetrics) RecordScan(source string, tickers, matches int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
}

func (m *recordingMetrics) RecordTicker(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickers[outcome]++
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *recordingMetrics) RecordLatency(op string, seconds float64) {}
func (m *recordingMetrics) SetEngine(name string)                    {}

type capturePublisher struct {
	mu      sync.Mutex
	reports []*models.ScreenerReport
	err     error
}

func (p *capturePublisher) PublishReport(ctx context.Context, r *models.ScreenerReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports = append(p.reports, r)
	return p.err
}

