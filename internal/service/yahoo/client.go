// Package yahoo fetches daily bars from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	pkghttp "OsloScan/pkg/http"
	"OsloScan/pkg/logger"
	"OsloScan/pkg/util"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

type Config struct {
	BaseURL      string
	Suffix       string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	UserAgent    string
	ProxyURL     string
	Timezone     string // used when the chart meta carries none
}

// Provider implements repository.SeriesProvider over the v8 chart endpoint.
type Provider struct {
	cfg    Config
	client *pkghttp.Client
	loc    *time.Location
	log    *logger.Logger
}

func NewProvider(cfg Config, log *logger.Logger) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0"
	}

	opts := []pkghttp.ClientOption{
		pkghttp.WithTimeout(cfg.Timeout),
		pkghttp.WithHeader("User-Agent", cfg.UserAgent),
		pkghttp.WithHeader("Accept", "application/json"),
	}
	if cfg.ProxyURL != "" {
		if u, err := url.Parse(cfg.ProxyURL); err == nil {
			opts = append(opts, pkghttp.WithTransport(&http.Transport{Proxy: http.ProxyURL(u)}))
		} else {
			log.Warn("ignoring invalid yahoo proxy url", logger.String("proxy_url", cfg.ProxyURL), logger.Error(err))
		}
	}

	return &Provider{
		cfg:    cfg,
		client: pkghttp.NewClient(opts...),
		loc:    util.InLocation(cfg.Timezone, time.UTC),
		log:    log,
	}
}

func (p *Provider) Name() string { return "yahoo" }

// Series returns daily bars for ticker. Unknown or delisted symbols and
// empty histories yield models.ErrNoDataAvailable; transport failures and
// 5xx responses are retried and then reported as models.ErrUpstream.
func (p *Provider) Series(ctx context.Context, ticker string, lookback models.Lookback) (*models.PriceSeries, error) {
	symbol := models.ExchangeSymbol(ticker, p.cfg.Suffix)
	if symbol == "" {
		return nil, models.ErrNoDataAvailable
	}
	if !lookback.Valid() {
		lookback = models.Lookback3Months
	}

	chart, err := p.fetchWithRetry(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}

	bars, loc, err := decodeBars(chart, p.loc)
	if err != nil {
		return nil, err
	}
	p.log.Debug("yahoo chart fetched",
		logger.String("symbol", symbol),
		logger.String("range", string(lookback)),
		logger.Int("bars", len(bars)),
		logger.String("tz", loc.String()),
	)
	return models.NewPriceSeries(strings.TrimSpace(ticker), symbol, bars)
}

func (p *Provider) fetchWithRetry(ctx context.Context, symbol string, lookback models.Lookback) (*chartResponse, error) {
	var err error
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * p.cfg.RetryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var chart *chartResponse
		chart, err = p.fetch(ctx, symbol, lookback)
		if err == nil {
			return chart, nil
		}
		if !retryable(err) {
			return nil, upstream(err)
		}
		p.log.Warn("yahoo fetch failed, retrying",
			logger.String("symbol", symbol),
			logger.Int("attempt", attempt+1),
			logger.Error(err),
		)
	}
	return nil, upstream(err)
}

// upstream tags transport and API failures with models.ErrUpstream.
func upstream(err error) error {
	if errors.Is(err, models.ErrNoDataAvailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrUpstream, err)
}

func (p *Provider) fetch(ctx context.Context, symbol string, lookback models.Lookback) (*chartResponse, error) {
	var chart chartResponse
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", p.cfg.BaseURL, url.PathEscape(symbol))
	err := p.client.GetJSON(ctx, endpoint, url.Values{
		"interval": {"1d"},
		"range":    {string(lookback)},
	}, &chart)
	if err != nil {
		var se *pkghttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, models.ErrNoDataAvailable
		}
		return nil, err
	}
	if chart.Chart.Error != nil {
		if strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			return nil, models.ErrNoDataAvailable
		}
		return nil, fmt.Errorf("yahoo api error: %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	return &chart, nil
}

func retryable(err error) bool {
	if errors.Is(err, models.ErrNoDataAvailable) || errors.Is(err, context.Canceled) {
		return false
	}
	var se *pkghttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

var _ domrepo.SeriesProvider = (*Provider)(nil)
