package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
	"TradePilot/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJournal struct {
	trades []models.Trade
	err    error
}

func (j *memJournal) Store(_ context.Context, t models.Trade) error {
	if j.err != nil {
		return j.err
	}
	j.trades = append(j.trades, t)
	return nil
}

func (j *memJournal) Query(context.Context, string, time.Time, time.Time, int) ([]models.Trade, error) {
	return j.trades, nil
}
func (j *memJournal) Health(context.Context) error { return nil }
func (j *memJournal) Close() error                 { return nil }

func TestJournalHandlerStoresTrade(t *testing.T) {
	j := &memJournal{}
	h := NewTradeJournalHandler("tradepilot.trades", j, metrics.Nop{})
	assert.Equal(t, "tradepilot.trades", h.Topic())

	in := models.Trade{ID: "x", Action: models.ActionSell, Symbol: "TCS.NS", Qty: 2, Price: 10, Tax: 0.1, Timestamp: time.Now().UTC()}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), b))
	require.Len(t, j.trades, 1)
	assert.Equal(t, in.ID, j.trades[0].ID)
	assert.True(t, in.Timestamp.Equal(j.trades[0].Timestamp))
}

func TestJournalHandlerRejectsBadEvents(t *testing.T) {
	h := NewTradeJournalHandler("t", &memJournal{}, metrics.Nop{})

	assert.Error(t, h.Handle(context.Background(), []byte("{")))
	assert.Error(t, h.Handle(context.Background(), []byte(`{"id":"x","symbol":"TCS.NS","action":"HOLD","timestamp":"2025-01-01T00:00:00Z"}`)))
}

func TestJournalHandlerStoreFailure(t *testing.T) {
	h := NewTradeJournalHandler("t", &memJournal{err: errors.New("down")}, metrics.Nop{})
	b := []byte(`{"id":"x","symbol":"TCS.NS","action":"BUY","qty":1,"price":1,"timestamp":"2025-01-01T00:00:00Z"}`)
	assert.Error(t, h.Handle(context.Background(), b))
}
