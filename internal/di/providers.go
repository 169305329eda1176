package di

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"TradePilot/internal/domain/repository"
	"TradePilot/internal/handler/api"
	"TradePilot/internal/handler/ws"
	mid "TradePilot/internal/middleware"
	internalrepo "TradePilot/internal/repository"
	"TradePilot/internal/service/yahoo"
	"TradePilot/internal/services/calendar"
	"TradePilot/internal/services/planner"
	"TradePilot/internal/services/tax"
	"TradePilot/internal/usecase"
	"TradePilot/pkg/cache"
	pkgch "TradePilot/pkg/clickhouse"
	"TradePilot/pkg/config"
	xhttp "TradePilot/pkg/http"
	pkgkafka "TradePilot/pkg/kafka"
	"TradePilot/pkg/logger"
	"TradePilot/pkg/metrics"
	"TradePilot/pkg/scheduler"
	"TradePilot/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger builds the root logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideRegistry creates the Prometheus registry served on the metrics path.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideCalendar builds the exchange calendar from the market section.
func ProvideCalendar(cfg *config.Config) (*calendar.MarketCalendar, error) {
	loc := calendar.IST
	if cfg.Market.Timezone != "" && cfg.Market.Timezone != "Asia/Kolkata" {
		l, err := time.LoadLocation(cfg.Market.Timezone)
		if err != nil {
			return nil, fmt.Errorf("market timezone: %w", err)
		}
		loc = l
	}
	holidays := cfg.Market.Holidays
	if len(holidays) == 0 {
		holidays = calendar.NSEHolidays2025
	}
	cal, err := calendar.New(
		calendar.WithLocation(loc),
		calendar.WithHolidays(holidays),
		calendar.WithSessionMinutes(cfg.Market.OpenMinute, cfg.Market.CloseMinute),
	)
	if err != nil {
		return nil, fmt.Errorf("market calendar: %w", err)
	}
	return cal, nil
}

// ProvideQuoteSource creates the rate-limited Yahoo Finance client.
func ProvideQuoteSource(cfg *config.Config) repository.QuoteSource {
	return yahoo.NewClient(
		yahoo.WithBaseURL(cfg.Yahoo.BaseURL),
		yahoo.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(cfg.Yahoo.Timeout),
			xhttp.WithUserAgent(cfg.Yahoo.UserAgent),
		)),
		yahoo.WithRateLimit(cfg.Yahoo.RateCapacity, cfg.Yahoo.RatePerSec),
		yahoo.WithCacheTTL(cfg.Yahoo.CacheTTL),
	)
}

// ProvideKeyValueStore selects the memory or Redis backend.
func ProvideKeyValueStore(cfg *config.Config) (cache.Store, error) {
	if cfg.Storage.Backend != "redis" {
		return cache.NewMemoryStore(cache.WithMemoryPrefix(cfg.Storage.Prefix)), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx,
		cache.WithRedisHost(cfg.Storage.Redis.Host),
		cache.WithRedisPort(cfg.Storage.Redis.Port),
		cache.WithRedisPassword(cfg.Storage.Redis.Password),
		cache.WithRedisDB(cfg.Storage.Redis.DB),
		cache.WithRedisPool(cfg.Storage.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Storage.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return store, nil
}

// ProvideStateStore persists the session into the key-value backend.
func ProvideStateStore(kv cache.Store) repository.StateStore {
	return internalrepo.NewKVStateStore(kv)
}

// ProvidePriceFeed creates the simulated price feed gated by the calendar.
func ProvidePriceFeed(
	cfg *config.Config,
	quotes repository.QuoteSource,
	cal *calendar.MarketCalendar,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.PriceFeed {
	return usecase.NewPriceFeed(quotes, cal,
		usecase.WithFeedRand(newRand(cfg.Feed.Seed)),
		usecase.WithFeedVolatility(cfg.Feed.DefaultVolatility),
		usecase.WithQuoteTimeout(cfg.Feed.QuoteTimeout),
		usecase.WithResyncConcurrency(cfg.Feed.ResyncConcurrency),
		usecase.WithResyncBudget(cfg.Feed.ResyncInterval*4/5),
		usecase.WithFeedMetrics(m),
		usecase.WithFeedLogger(log),
	)
}

// ProvideLedger creates the portfolio ledger with the configured starting cash.
func ProvideLedger(cfg *config.Config) *usecase.PortfolioLedger {
	return usecase.NewPortfolioLedger(tax.NewEngine(),
		usecase.WithStartingCash(cfg.Ledger.StartingCash),
		usecase.WithRapidTradeWindow(cfg.Ledger.RapidTradeWindow),
	)
}

// ProvidePlanner creates the advisory planner with a source separate from the feed's.
func ProvidePlanner(cfg *config.Config) *planner.Planner {
	seed := cfg.Feed.Seed
	if seed != 0 {
		seed++
	}
	return planner.New(planner.WithRand(newRand(seed)))
}

// ProvideScheduler creates the job scheduler that drives ticks, resyncs and snapshots.
func ProvideScheduler(log *logger.Logger) *scheduler.Scheduler {
	return scheduler.New(log)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled. Error logs
// are aggregated and shipped to the log topic through the same producer.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Kafka.LogTopic != "" {
		log.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvideTradePipeline buffers trade events in front of Kafka. Nil when Kafka is disabled.
func ProvideTradePipeline(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	m repository.Metrics,
	log *logger.Logger,
) *mid.TradePipeline {
	if producer == nil {
		return nil
	}
	return mid.NewTradePipeline(
		internalrepo.NewKafkaTradePublisher(producer, cfg.Kafka.Topic), m, log,
		mid.WithBufferSize(1000),
		mid.WithBackoff(cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		mid.WithAttemptTimeout(cfg.Kafka.Producer.WriteTimeout),
	)
}

// ProvideTradePublisher exposes the pipeline to the session, or nil when events are off.
func ProvideTradePublisher(pipe *mid.TradePipeline) repository.TradePublisher {
	if pipe == nil {
		return nil
	}
	return pipe
}

// ProvideClickHouseClient connects and prepares the trade journal schema. Nil when the
// journal is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.TradeJournalSchema(journalTable(cfg))...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideTradeJournal reads and writes the ClickHouse journal, or nil when disabled.
func ProvideTradeJournal(client *pkgch.Client, cfg *config.Config) repository.TradeJournal {
	if client == nil {
		return nil
	}
	return internalrepo.NewClickHouseJournal(client.DB(), journalTable(cfg))
}

// ProvideKafkaConsumer creates the journal consumer. It only runs when both Kafka and
// ClickHouse are enabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NoopHook{})
	return consumer, nil
}

// ProvideTradeJournalHandler stores consumed trade events, or nil without a journal.
func ProvideTradeJournalHandler(cfg *config.Config, journal repository.TradeJournal, m repository.Metrics) pkgkafka.MessageHandler {
	if journal == nil {
		return nil
	}
	return usecase.NewTradeJournalHandler(cfg.Kafka.Topic, journal, m)
}

// ProvideSession assembles the trading session.
func ProvideSession(
	cfg *config.Config,
	cal *calendar.MarketCalendar,
	feed *usecase.PriceFeed,
	ledger *usecase.PortfolioLedger,
	advisor *planner.Planner,
	quotes repository.QuoteSource,
	store repository.StateStore,
	sched *scheduler.Scheduler,
	publisher repository.TradePublisher,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.Session {
	return usecase.NewSession(usecase.SessionConfig{
		PIN:              cfg.Ledger.PIN,
		Watchlist:        cfg.Ledger.Watchlist,
		HistoryLimit:     cfg.Ledger.HistoryLimit,
		TickInterval:     cfg.Feed.TickInterval,
		ResyncInterval:   cfg.Feed.ResyncInterval,
		SnapshotInterval: cfg.Ledger.SnapshotInterval,
	}, cal, feed, ledger, advisor, quotes, store, sched, publisher, m, log)
}

// ProvideHTTPServer registers the REST API and the price stream on one Echo server.
func ProvideHTTPServer(
	cfg *config.Config,
	session *usecase.Session,
	journal repository.TradeJournal,
	cal *calendar.MarketCalendar,
	reg *prometheus.Registry,
	log *logger.Logger,
) *xhttp.Server {
	handlers := xhttp.Handlers{
		api.NewTradingEchoHandler(log, session, journal, cal.Location()),
		ws.NewPriceStreamHandler(log, session, cfg.Feed.TickInterval),
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers, log,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(metricsPath, reg),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	session *usecase.Session,
	httpServer *xhttp.Server,
	pipe *mid.TradePipeline,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	store cache.Store,
) *server.App {
	return server.New(cfg, log, session, httpServer, pipe, producer, consumer, kh, chClient, store)
}

func journalTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
}

// newRand seeds from the clock when seed is zero.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
