package di

import (
	"context"
	"fmt"
	"strings"

	"OsloScan/internal/domain/repository"
	"OsloScan/internal/handler/api"
	"OsloScan/internal/indicator"
	internalrepo "OsloScan/internal/repository"
	icache "OsloScan/internal/service/cache"
	"OsloScan/internal/service/ratelimit"
	"OsloScan/internal/service/yahoo"
	"OsloScan/internal/usecase"
	pkgcache "OsloScan/pkg/cache"
	pkgch "OsloScan/pkg/clickhouse"
	"OsloScan/pkg/config"
	xhttp "OsloScan/pkg/http"
	pkgkafka "OsloScan/pkg/kafka"
	"OsloScan/pkg/logger"
	"OsloScan/pkg/metrics"
	"OsloScan/pkg/server"
	"OsloScan/pkg/util"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCapability resolves the indicator engine once at startup.
func ProvideCapability(cfg *config.Config, m repository.Metrics, l *logger.Logger) (indicator.Capability, error) {
	mode, err := indicator.ParseMode(cfg.Indicators.Engine)
	if err != nil {
		return indicator.Capability{}, err
	}
	c, err := indicator.Resolve(mode)
	if err != nil {
		return indicator.Capability{}, err
	}
	m.SetEngine(c.EngineName())
	l.Info("indicator engine resolved",
		logger.String("mode", string(mode)),
		logger.String("engine", c.EngineName()),
		logger.String("reason", c.Reason),
	)
	return c, nil
}

// ProvideEngine builds the engine variant matching the capability.
func ProvideEngine(c indicator.Capability) indicator.Engine {
	return indicator.NewEngine(c)
}

// ProvideClickHouseClient creates a read-only ClickHouse client. It returns
// nil when another series provider is configured.
func ProvideClickHouseClient(cfg *config.Config, l *logger.Logger) (*pkgch.Client, func(), error) {
	if cfg.Provider != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(context.Background(), pkgch.Options{
		Host:             cfg.ClickHouse.Host,
		Port:             cfg.ClickHouse.Port,
		Database:         cfg.ClickHouse.Database,
		User:             cfg.ClickHouse.User,
		Password:         cfg.ClickHouse.Password,
		MaxOpenConns:     cfg.ClickHouse.MaxConnections,
		MaxIdleConns:     cfg.ClickHouse.MaxConnections / 2,
		DialTimeout:      cfg.ClickHouse.DialTimeout,
		ReadTimeout:      cfg.ClickHouse.ReadTimeout,
		MaxExecutionTime: cfg.ClickHouse.MaxExecutionTime,
		HTTP:             cfg.ClickHouse.UseHTTP,
		ReadOnly:         true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", logger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideCacheService creates the series cache backend, nil when disabled.
func ProvideCacheService(cfg *config.Config, l *logger.Logger) (pkgcache.Service, func(), error) {
	c := cfg.Cache
	newRedis := func() (*pkgcache.RedisCache, error) {
		return pkgcache.NewRedisCache(context.Background(), pkgcache.RedisOptions{
			Host:         c.Redis.Host,
			Port:         c.Redis.Port,
			Password:     c.Redis.Password,
			DB:           c.Redis.DB,
			PoolSize:     c.Redis.PoolSize,
			MinIdleConns: c.Redis.MinIdleConns,
			PoolTimeout:  c.Redis.PoolTimeout,
			Namespace:    c.Redis.Prefix,
		})
	}

	var svc pkgcache.Service
	switch c.Type {
	case "none", "":
		return nil, func() {}, nil
	case "memory":
		svc = pkgcache.NewMemoryCache(pkgcache.MemoryOptions{
			MaxEntries: c.MaxSize,
			DefaultTTL: c.TTL,
			Sweep:      c.CleanupInterval,
		})
	case "redis":
		rc, err := newRedis()
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
	case "layered":
		rc, err := newRedis()
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = pkgcache.NewLayeredCache(rc, pkgcache.LayeredOptions{
			MaxEntries: c.MaxSize,
			LocalTTL:   c.MemoryTTL,
		})
	default:
		return nil, nil, fmt.Errorf("unknown cache type %q", c.Type)
	}

	l.Info("series cache enabled", logger.String("type", c.Type), logger.Duration("ttl_ms", c.TTL))
	cleanup := func() {
		if err := svc.Close(); err != nil {
			l.Warn("cache close error", logger.Error(err))
		}
	}
	return svc, cleanup, nil
}

// ProvideSeriesProvider builds the configured provider and wraps it with
// the cache when one is enabled.
func ProvideSeriesProvider(
	cfg *config.Config,
	ch *pkgch.Client,
	c pkgcache.Service,
	m repository.Metrics,
	l *logger.Logger,
) (repository.SeriesProvider, error) {
	var base repository.SeriesProvider
	switch cfg.Provider {
	case "clickhouse":
		loc := util.InLocation(cfg.ClickHouse.Timezone, nil)
		p, err := internalrepo.NewCHSeriesProvider(ch, cfg.ClickHouse.Table, cfg.ClickHouse.Suffix, loc, l)
		if err != nil {
			return nil, fmt.Errorf("clickhouse series provider: %w", err)
		}
		base = p
	default:
		y := cfg.Yahoo
		base = yahoo.NewProvider(yahoo.Config{
			BaseURL:      y.BaseURL,
			Suffix:       y.Suffix,
			Timeout:      y.Timeout,
			Retries:      y.Retries,
			RetryBackoff: y.RetryBackoff,
			UserAgent:    y.UserAgent,
			ProxyURL:     y.ProxyURL,
			Timezone:     y.Timezone,
		}, l)
	}

	if c == nil {
		return base, nil
	}
	return icache.NewSeriesProvider(base, c, cfg.Cache.TTL, m, l), nil
}

// ProvideKafkaProducer creates a Kafka producer, nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, l *logger.Logger) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerOptions{
		Brokers:         cfg.Kafka.Brokers,
		RequiredAcks:    cfg.Kafka.RequiredAcks,
		Compression:     cfg.Kafka.Compression,
		MaxAttempts:     cfg.Kafka.Producer.MaxAttempts,
		BatchTimeout:    cfg.Kafka.Producer.BatchTimeout,
		WriteTimeout:    cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:     cfg.Kafka.Producer.ReadTimeout,
		AutoCreateTopic: cfg.Kafka.Producer.AutoCreateTopic,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", logger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideReportPublisher publishes reports to Kafka, or drops them when Kafka is off.
func ProvideReportPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.ReportPublisher {
	if producer == nil {
		return internalrepo.NoopReportPublisher{}
	}
	return internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.ReportsTopic)
}

// ProvideScreenerUseCase creates the screener use case.
func ProvideScreenerUseCase(
	cfg *config.Config,
	provider repository.SeriesProvider,
	engine indicator.Engine,
	pub repository.ReportPublisher,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ScreenerUseCase {
	return usecase.NewScreenerUseCase(provider, engine, pub, m, l.With(logger.String("component", "screener")),
		usecase.ScreenerConfig{Workers: cfg.Screener.Workers})
}

// ProvideIndicatorsUseCase creates the indicator snapshot use case.
func ProvideIndicatorsUseCase(
	provider repository.SeriesProvider,
	engine indicator.Engine,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.IndicatorsUseCase {
	return usecase.NewIndicatorsUseCase(provider, engine, m, l.With(logger.String("component", "indicators")))
}

// ProvideRateLimiter creates the per-IP limiter for screener routes, nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.Screener.RateLimit
	if !rl.Enabled {
		return nil
	}
	return ratelimit.New(rl.Capacity, rl.RefillPerSecond)
}

// ProvideHTTPHandler creates the API handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *logger.Logger,
	screener *usecase.ScreenerUseCase,
	indicators *usecase.IndicatorsUseCase,
	c indicator.Capability,
	limiter *ratelimit.Limiter,
) *api.Handler {
	return api.NewHandler(l, screener, indicators, api.HealthInfo{
		TalibAvailable: c.Accelerated,
		Engine:         c.EngineName(),
		Provider:       strings.ToLower(cfg.Provider),
	}, limiter)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.Handler, l *logger.Logger) *xhttp.Server {
	return xhttp.NewServer(h, l,
		xhttp.WithAddr(cfg.Server.Host, cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
	)
}

// ProvideScanRequestsHandler handles screener requests from Kafka.
func ProvideScanRequestsHandler(
	cfg *config.Config,
	screener *usecase.ScreenerUseCase,
	m repository.Metrics,
	l *logger.Logger,
) *usecase.ScanRequestsHandler {
	return usecase.NewScanRequestsHandler(cfg.Kafka.RequestsTopic, screener, m, l)
}

// ProvideKafkaConsumer binds the scan requests handler to a consumer, nil
// when Kafka is disabled. The App stops it; there is no DI cleanup.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger, kh *usecase.ScanRequestsHandler) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	kc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(pkgkafka.ConsumerOptions{
		Brokers:    cfg.Kafka.Brokers,
		GroupID:    kc.GroupID,
		Workers:    kc.Workers,
		QueueSize:  kc.BufferSize,
		Retries:    kc.RetryMax,
		BackoffMin: kc.BackoffMin,
		BackoffMax: kc.BackoffMax,
		DLQTopic:   kc.DLQTopic,
	}, kh, l.With(logger.String("component", "kafka_consumer")))
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.Use(pkgkafka.NewLoggingHook(l))
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *logger.Logger, srv *xhttp.Server, consumer *pkgkafka.Consumer) *server.App {
	return server.New(cfg, l, srv, consumer)
}
