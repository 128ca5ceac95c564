package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	"OsloScan/internal/indicator"
	"OsloScan/pkg/logger"

	"github.com/google/uuid"
)

// ProgressFunc receives one event per finished ticker. Calls are serialized.
type ProgressFunc func(models.ScanEvent)

type ScreenerConfig struct {
	Workers int
}

// ScreenerUseCase filters a batch of tickers by RSI and volume spike and
// ranks the survivors.
type ScreenerUseCase struct {
	provider  domrepo.SeriesProvider
	engine    indicator.Engine
	params    indicator.Params
	publisher domrepo.ReportPublisher
	metrics   domrepo.Metrics
	logger    *logger.Logger
	workers   int
	now       func() time.Time
}

func NewScreenerUseCase(
	provider domrepo.SeriesProvider,
	engine indicator.Engine,
	publisher domrepo.ReportPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	cfg ScreenerConfig,
) *ScreenerUseCase {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &ScreenerUseCase{
		provider:  provider,
		engine:    engine,
		params:    indicator.DefaultParams(),
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
		workers:   workers,
		now:       time.Now,
	}
}

// Engine returns the name of the injected indicator engine.
func (u *ScreenerUseCase) Engine() string { return u.engine.Name() }

// Run screens tickers against criteria.
func (u *ScreenerUseCase) Run(ctx context.Context, tickers []string, criteria models.ScreenerCriteria) (*models.ScreenerReport, error) {
	return u.RunWithProgress(ctx, tickers, criteria, nil)
}

// RunWithProgress is Run with a per-ticker callback. Results depend only on
// score and input position, not on completion order.
func (u *ScreenerUseCase) RunWithProgress(ctx context.Context, tickers []string, criteria models.ScreenerCriteria, fn ProgressFunc) (*models.ScreenerReport, error) {
	if criteria.RSIMin > criteria.RSIMax {
		u.logger.Warn("screener criteria have rsi_min above rsi_max; nothing will match",
			logger.Float64("rsi_min", criteria.RSIMin),
			logger.Float64("rsi_max", criteria.RSIMax),
		)
	}

	outcomes := make([]tickerOutcome, len(tickers))
	events := make(chan int, len(tickers))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := u.workers
	if workers > len(tickers) {
		workers = len(tickers)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = u.evaluate(ctx, tickers[i], criteria)
				events <- i
			}
		}()
	}

	// single reader for progress so callbacks never run concurrently
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		done := 0
		for i := range events {
			done++
			o := outcomes[i]
			u.metrics.RecordTicker(o.status)
			if fn != nil {
				fn(o.event(tickers[i], i, done, len(tickers)))
			}
		}
	}()

	var cancelled error
dispatch:
	for i := range tickers {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	close(events)
	<-progressDone

	if cancelled != nil {
		return nil, cancelled
	}

	return u.buildReport(tickers, criteria, outcomes), nil
}

// Scan runs a full request: assigns a request id, screens, stamps the
// report and hands it to the publisher. Publish failures are only logged.
func (u *ScreenerUseCase) Scan(ctx context.Context, source string, req *models.ScreenerRequest, fn ProgressFunc) (*models.ScreenerReport, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	log := u.logger.With(logger.String("request_id", req.RequestID), logger.String("source", source))

	tickers := req.NormalizedTickers()
	criteria := req.ScreenerCriteria()

	start := u.now()
	report, err := u.RunWithProgress(ctx, tickers, criteria, fn)
	if err != nil {
		u.metrics.RecordError("screener_" + source)
		log.Error("screener run failed", logger.Error(err))
		return nil, err
	}
	elapsed := u.now().Sub(start)
	report.RequestID = req.RequestID
	u.metrics.RecordScan(source, report.TotalScanned, report.Matches, elapsed)

	log.Info("screener run finished",
		logger.Int("total_scanned", report.TotalScanned),
		logger.Int("matches", report.Matches),
		logger.Int("skipped", len(report.Skipped)),
		logger.Duration("duration_ms", elapsed),
	)

	if err := u.publisher.PublishReport(ctx, report); err != nil {
		u.metrics.RecordError("report_publish")
		log.Warn("failed to publish screener report", logger.Error(err))
	}
	return report, nil
}

type tickerOutcome struct {
	status string
	reason string
	rsi    indicator.Value
	spike  float64
	match  models.ScreenerMatch
}

func (o tickerOutcome) event(ticker string, index, done, total int) models.ScanEvent {
	ev := models.ScanEvent{
		Ticker: ticker,
		Index:  index,
		Status: o.status,
		Reason: o.reason,
		RSI:    o.rsi.Ptr(),
		Done:   done,
		Total:  total,
	}
	if o.status != models.StatusSkipped {
		spike := o.spike
		ev.VolumeSpike = &spike
	}
	if o.status == models.StatusMatched {
		score := o.match.Score
		ev.Score = &score
	}
	return ev
}

// evaluate never panics; any failure becomes a skipped outcome.
func (u *ScreenerUseCase) evaluate(ctx context.Context, ticker string, criteria models.ScreenerCriteria) (out tickerOutcome) {
	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("panic while screening ticker", logger.String("ticker", ticker), logger.Any("panic", r))
			out = tickerOutcome{status: models.StatusSkipped, reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	start := u.now()
	series, err := u.provider.Series(ctx, ticker, models.Lookback3Months)
	u.metrics.RecordLatency("series_fetch", u.now().Sub(start).Seconds())
	if err != nil {
		if !errors.Is(err, models.ErrNoDataAvailable) {
			u.logger.Warn("failed to fetch series", logger.String("ticker", ticker), logger.Error(err))
		} else {
			u.logger.Debug("no data for ticker", logger.String("ticker", ticker))
		}
		return tickerOutcome{status: models.StatusSkipped, reason: err.Error()}
	}

	rsi, err := u.engine.RSI(series.Closes(), u.params.RSIPeriod)
	if err != nil {
		err = fmt.Errorf("%w: %v", models.ErrComputationFailure, err)
		u.logger.Warn("rsi computation failed", logger.String("ticker", ticker), logger.Error(err))
		return tickerOutcome{status: models.StatusSkipped, reason: err.Error()}
	}

	spike := indicator.VolumeSpike(series.Volumes())
	latest := rsi.Last()
	value, ok := latest.Get()
	if !ok {
		return tickerOutcome{status: models.StatusRejected, reason: "insufficient history for rsi", spike: spike}
	}
	if !criteria.Admits(value, spike) {
		return tickerOutcome{status: models.StatusRejected, rsi: latest, spike: spike}
	}

	return tickerOutcome{
		status: models.StatusMatched,
		rsi:    latest,
		spike:  spike,
		match: models.ScreenerMatch{
			Ticker:      ticker,
			Price:       series.Latest().Close,
			RSI:         value,
			VolumeSpike: spike,
			Score:       models.Score(value, spike),
		},
	}
}

func (u *ScreenerUseCase) buildReport(tickers []string, criteria models.ScreenerCriteria, outcomes []tickerOutcome) *models.ScreenerReport {
	matches := make([]models.ScreenerMatch, 0)
	var skipped []models.SkippedTicker
	for i, o := range outcomes {
		switch o.status {
		case models.StatusMatched:
			matches = append(matches, o.match)
		case models.StatusSkipped:
			skipped = append(skipped, models.SkippedTicker{Ticker: tickers[i], Reason: o.reason})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	admitted := len(matches)
	if len(matches) > models.MaxScreenerResults {
		matches = matches[:models.MaxScreenerResults]
	}

	return &models.ScreenerReport{
		Results:      matches,
		TotalScanned: len(tickers),
		Matches:      admitted,
		Skipped:      skipped,
		Criteria:     criteria,
		Engine:       u.engine.Name(),
		GeneratedAt:  u.now().UTC(),
	}
}
