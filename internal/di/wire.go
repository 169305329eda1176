//go:build wireinject
// +build wireinject

package di

import (
	"TradePilot/pkg/config"
	"TradePilot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKeyValueStore,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideClickHouseClient,
		ProvideQuoteSource,

		// Repositories
		ProvideStateStore,
		ProvideTradePipeline,
		ProvideTradePublisher,
		ProvideTradeJournal,

		// Domain services and use cases
		ProvideCalendar,
		ProvidePriceFeed,
		ProvideLedger,
		ProvidePlanner,
		ProvideScheduler,
		ProvideSession,
		ProvideTradeJournalHandler,

		// Application server
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
