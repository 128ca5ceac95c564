//go:build wireinject
// +build wireinject

package di

import (
	"OsloScan/internal/usecase"
	"OsloScan/pkg/config"
	"OsloScan/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Observability
	ProvideLogger,
	ProvideMetrics,

	// Indicator engine
	ProvideCapability,
	ProvideEngine,

	// Infrastructure clients
	ProvideClickHouseClient,
	ProvideCacheService,
	ProvideKafkaProducer,

	// Repositories
	ProvideSeriesProvider,
	ProvideReportPublisher,

	// Use cases
	ProvideScreenerUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		coreSet,
		ProvideIndicatorsUseCase,
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,
		ProvideScanRequestsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil, nil
}

// InitializeScreener wires the screener alone, for one-shot CLI runs.
func InitializeScreener(cfg *config.Config) (*usecase.ScreenerUseCase, func(), error) {
	wire.Build(coreSet)
	return &usecase.ScreenerUseCase{}, nil, nil
}
