package repository

import (
	"context"
	"time"

	"TradePilot/internal/domain/models"
)

// QuoteSource provides authoritative market data.
type QuoteSource interface {
	GetQuote(ctx context.Context, symbol string) (models.Quote, error)
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	History(ctx context.Context, symbol, rng string) ([]models.HistoryPoint, error)
}

// KeyValueStore is durable storage, agnostic to encoding.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// StateStore loads and saves the session across restarts.
type StateStore interface {
	LoadLedger(ctx context.Context) (models.LedgerState, bool, error)
	SaveLedger(ctx context.Context, s models.LedgerState) error
	LoadWatchlist(ctx context.Context) ([]string, bool, error)
	SaveWatchlist(ctx context.Context, symbols []string) error
	LoadHistory(ctx context.Context) ([]models.ValuePoint, bool, error)
	SaveHistory(ctx context.Context, points []models.ValuePoint) error
}

// TradePublisher ships executed trades to downstream consumers.
type TradePublisher interface {
	Publish(ctx context.Context, t models.Trade) error
	Close() error
}

// TradeJournal is the append-only audit store of executed trades.
type TradeJournal interface {
	Store(ctx context.Context, t models.Trade) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Trade, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordTick(symbol string, price float64)
	RecordResync(symbol string, ok bool)
	RecordTrade(action, symbol string)
	RecordTradeRejected(reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordQueueDepth(queue string, depth int)
}
