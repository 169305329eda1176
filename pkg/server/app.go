package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mid "TradePilot/internal/middleware"
	"TradePilot/internal/usecase"
	"TradePilot/pkg/cache"
	pkgch "TradePilot/pkg/clickhouse"
	"TradePilot/pkg/config"
	xhttp "TradePilot/pkg/http"
	pkgkafka "TradePilot/pkg/kafka"
	applogger "TradePilot/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	session    *usecase.Session
	httpServer *xhttp.Server
	pipeline   *mid.TradePipeline
	producer   *pkgkafka.Producer
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	store      cache.Store
}

// New creates a new App. pipeline, producer, consumer, kh and chClient are nil when Kafka
// or ClickHouse are disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	session *usecase.Session,
	httpServer *xhttp.Server,
	pipeline *mid.TradePipeline,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	store cache.Store,
) *App {
	return &App{
		cfg:        cfg,
		log:        log.Component("app"),
		session:    session,
		httpServer: httpServer,
		pipeline:   pipeline,
		producer:   producer,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
		store:      store,
	}
}

// Run starts every component and blocks until ctx is cancelled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.pipeline != nil {
		a.pipeline.Start()
		a.log.Info("trade pipeline started", applogger.String("topic", a.cfg.Kafka.Topic))
	}

	if err := a.session.Start(ctx); err != nil {
		return fmt.Errorf("session start: %w", err)
	}
	a.log.Info("session started", applogger.Strings("watchlist", a.session.Watchlist()))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return errors.Join(err, a.shutdown(context.Background()))
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown(context.Background())
}

// shutdown stops the inbound edge first so no trade is accepted after the ledger is saved.
func (a *App) shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if err := a.session.Stop(ctx); err != nil {
		a.log.Warn("session stop error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.pipeline != nil {
		if err := a.pipeline.Close(); err != nil {
			a.log.Warn("trade pipeline close error", applogger.Error(err))
		}
	}
	// Flushes pending error logs through the producer before it closes.
	a.log.RemoveCollector()
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("state store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
