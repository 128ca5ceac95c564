// Package cache decorates a series provider with a read-through cache.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"OsloScan/internal/domain/models"
	domrepo "OsloScan/internal/domain/repository"
	pkgcache "OsloScan/pkg/cache"
	"OsloScan/pkg/logger"
)

// SeriesProvider serves series from cache and falls through to the wrapped
// provider on a miss. Errors, no-data results included, are never cached.
type SeriesProvider struct {
	next    domrepo.SeriesProvider
	cache   pkgcache.Service
	ttl     time.Duration
	metrics domrepo.Metrics
	log     *logger.Logger
}

func NewSeriesProvider(next domrepo.SeriesProvider, c pkgcache.Service, ttl time.Duration, metrics domrepo.Metrics, log *logger.Logger) *SeriesProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SeriesProvider{next: next, cache: c, ttl: ttl, metrics: metrics, log: log}
}

func (p *SeriesProvider) Name() string { return p.next.Name() }

func (p *SeriesProvider) Series(ctx context.Context, ticker string, lookback models.Lookback) (*models.PriceSeries, error) {
	key := pkgcache.Key("series", p.next.Name(), strings.ToUpper(strings.TrimSpace(ticker)), string(lookback))

	var cached models.PriceSeries
	err := p.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && len(cached.Bars) > 0:
		p.log.Debug("series cache hit", logger.String("key", key))
		cached.Ticker = strings.TrimSpace(ticker)
		return &cached, nil
	case err != nil && !errors.Is(err, pkgcache.ErrCacheMiss):
		p.metrics.RecordError("cache_get")
		p.log.Warn("series cache read failed", logger.String("key", key), logger.Error(err))
	}

	series, err := p.next.Series(ctx, ticker, lookback)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, series, p.ttl); err != nil {
		p.metrics.RecordError("cache_set")
		p.log.Warn("series cache write failed", logger.String("key", key), logger.Error(err))
	}
	return series, nil
}

var _ domrepo.SeriesProvider = (*SeriesProvider)(nil)
