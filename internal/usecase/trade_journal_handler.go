package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	pkgkafka "TradePilot/pkg/kafka"
)

// TradeJournalHandler consumes trade events from Kafka and appends them to the journal.
type TradeJournalHandler struct {
	topic   string
	journal domrepo.TradeJournal
	metrics domrepo.Metrics
}

func NewTradeJournalHandler(topic string, journal domrepo.TradeJournal, metrics domrepo.Metrics) *TradeJournalHandler {
	return &TradeJournalHandler{topic: topic, journal: journal, metrics: metrics}
}

func (h *TradeJournalHandler) Topic() string { return h.topic }

// Handle decodes one trade event. Malformed events are returned as errors so the consumer
// can route them to the DLQ.
func (h *TradeJournalHandler) Handle(ctx context.Context, b []byte) error {
	var t models.Trade
	if err := json.Unmarshal(b, &t); err != nil {
		h.metrics.RecordError("journal_unmarshal")
		return fmt.Errorf("decode trade event: %w", err)
	}
	if t.ID == "" || t.Symbol == "" || !t.Action.Valid() || t.Timestamp.IsZero() {
		h.metrics.RecordError("journal_invalid")
		return fmt.Errorf("incomplete trade event %q", t.ID)
	}

	h.metrics.RecordLatency("journal_e2e", time.Since(t.Timestamp).Seconds())

	start := time.Now()
	err := h.journal.Store(ctx, t)
	h.metrics.RecordLatency("journal_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("journal_store")
		return fmt.Errorf("journal trade %s: %w", t.ID, err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*TradeJournalHandler)(nil)
