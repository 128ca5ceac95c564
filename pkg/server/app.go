package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"OsloScan/pkg/config"
	xhttp "OsloScan/pkg/http"
	pkgkafka "OsloScan/pkg/kafka"
	applogger "OsloScan/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
}

// New creates a new App. consumer is nil when Kafka is disabled.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server, consumer *pkgkafka.Consumer) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		consumer:   consumer,
	}
}

// Run starts the application and blocks until interrupted or the HTTP
// server fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.String("topic", a.consumer.Topic()), applogger.Error(err))
			return err
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		a.stopConsumer(context.Background())
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
		a.log.Error("http server stopped unexpectedly", applogger.Error(runErr))
	}

	a.shutdown()
	return runErr
}

// shutdown gracefully stops all services. Infrastructure clients are
// closed by the DI cleanup after Run returns.
func (a *App) shutdown() {
	a.log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// stop intake first so no scan starts after the server is gone
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	a.stopConsumer(ctx)

	a.log.Info("shutdown complete")
}

func (a *App) stopConsumer(ctx context.Context) {
	if a.consumer == nil {
		return
	}
	if err := a.consumer.Stop(ctx); err != nil {
		a.log.Warn("kafka consumer stop error", applogger.Error(err))
	}
}
