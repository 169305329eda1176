package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TradePilot/internal/domain/models"
	pkgkafka "TradePilot/pkg/kafka"
)

// TradeJournalSchema creates the journal table.
func TradeJournalSchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	trade_id String,
	ts DateTime64(3, 'Asia/Kolkata'),
	action LowCardinality(String),
	symbol LowCardinality(String),
	qty UInt32,
	price Float64,
	tax Float64,
	turnover Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, ts, trade_id)`, table)}
}

// ClickHouseJournal stores executed trades in ClickHouse. Inserts are keyed by trade ID,
// so redelivered events collapse on merge.
type ClickHouseJournal struct {
	db    *sql.DB
	table string
}

func NewClickHouseJournal(db *sql.DB, table string) *ClickHouseJournal {
	return &ClickHouseJournal{db: db, table: table}
}

func (s *ClickHouseJournal) Store(ctx context.Context, t models.Trade) error {
	return s.StoreBatch(ctx, []models.Trade{t})
}

// StoreBatch inserts trades with a single multi-row VALUES statement per chunk.
func (s *ClickHouseJournal) StoreBatch(ctx context.Context, trades []models.Trade) error {
	const chunkSize = 2000
	for start := 0; start < len(trades); start += chunkSize {
		end := start + chunkSize
		if end > len(trades) {
			end = len(trades)
		}
		q, args := buildInsert(s.table, trades[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert trades: %w", err)
		}
	}
	return nil
}

func buildInsert(table string, trades []models.Trade) (string, []interface{}) {
	values := make([]string, 0, len(trades))
	args := make([]interface{}, 0, len(trades)*8)
	for _, t := range trades {
		if t.ID == "" || t.Symbol == "" || t.Timestamp.IsZero() {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			t.ID,
			t.Timestamp,
			string(t.Action),
			t.Symbol,
			uint32(t.Qty),
			t.Price,
			t.Tax,
			t.Turnover(),
		)
	}
	q := fmt.Sprintf("INSERT INTO %s (trade_id, ts, action, symbol, qty, price, tax, turnover) VALUES %s",
		table, strings.Join(values, ","))
	return q, args
}

func buildQuery(table string) string {
	return fmt.Sprintf("SELECT trade_id, ts, action, symbol, qty, price, tax FROM %s FINAL "+
		"WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", table)
}

// Query returns trades for symbol in [from, to], newest first.
func (s *ClickHouseJournal) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Trade, error) {
	rows, err := s.db.QueryContext(ctx, buildQuery(s.table), symbol, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.Trade{}
	for rows.Next() {
		var (
			t      models.Trade
			action string
			qty    uint32
		)
		if err := rows.Scan(&t.ID, &t.Timestamp, &action, &t.Symbol, &qty, &t.Price, &t.Tax); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Action = models.Action(action)
		t.Qty = int(qty)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *ClickHouseJournal) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the connection pool belongs to pkg/clickhouse.
func (s *ClickHouseJournal) Close() error { return nil }

// KafkaTradePublisher publishes trades as JSON keyed by symbol, keeping per-symbol order.
type KafkaTradePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaTradePublisher(producer *pkgkafka.Producer, topic string) *KafkaTradePublisher {
	return &KafkaTradePublisher{producer: producer, topic: topic}
}

func (p *KafkaTradePublisher) Publish(ctx context.Context, t models.Trade) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.Symbol), t)
}

// Close is a no-op; the producer also carries the error-log stream and is closed by the app.
func (p *KafkaTradePublisher) Close() error { return nil }
