package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	pkgch "OsloScan/pkg/clickhouse"
	applogger "OsloScan/pkg/logger"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// CHSeriesProvider reads daily bars from a ClickHouse table with columns
// (symbol String, day Date|DateTime, close Float64, volume Float64).
type CHSeriesProvider struct {
	ch     *pkgch.Client
	table  string
	suffix string
	loc    *time.Location
	now    func() time.Time
	l      *applogger.Logger
}

func NewCHSeriesProvider(ch *pkgch.Client, table, suffix string, loc *time.Location, l *applogger.Logger) (*CHSeriesProvider, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid clickhouse table name %q", table)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CHSeriesProvider{ch: ch, table: table, suffix: suffix, loc: loc, now: time.Now, l: l}, nil
}

func (s *CHSeriesProvider) Name() string { return "clickhouse" }

func (s *CHSeriesProvider) Series(ctx context.Context, ticker string, lookback models.Lookback) (*models.PriceSeries, error) {
	start := time.Now()
	symbol := models.ExchangeSymbol(ticker, s.suffix)
	from := s.now().AddDate(0, 0, -lookback.Days())

	q := fmt.Sprintf(`
        SELECT day, close, volume
        FROM %s
        WHERE symbol = ? AND day >= ?
        ORDER BY day ASC
    `, s.table)
	rows, err := s.ch.Query(ctx, q, symbol, from)
	if err != nil {
		s.l.Error("clickhouse series query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%w: query series: %v", models.ErrUpstream, err)
	}
	defer rows.Close()

	bars := make([]models.Bar, 0, 128)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("%w: scan bar: %v", models.ErrUpstream, err)
		}
		b.Time = b.Time.In(s.loc)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", models.ErrUpstream, err)
	}

	s.l.Debug("clickhouse series ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewPriceSeries(strings.TrimSpace(ticker), symbol, bars)
}

var _ domrepo.SeriesProvider = (*CHSeriesProvider)(nil)
