package repository

import (
	"strings"
	"testing"
	"time"

	"TradePilot/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInsertSkipsIncompleteTrades(t *testing.T) {
	ts := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	q, args := buildInsert("trades", []models.Trade{
		{ID: "a", Action: models.ActionBuy, Symbol: "TCS.NS", Qty: 2, Price: 100, Tax: 0.2, Timestamp: ts},
		{ID: "", Symbol: "TCS.NS", Timestamp: ts},
		{ID: "b", Symbol: "INFY.NS"},
	})

	assert.True(t, strings.HasPrefix(q, "INSERT INTO trades (trade_id, ts, action, symbol, qty, price, tax, turnover) VALUES "))
	assert.Equal(t, 1, strings.Count(q, "(?, ?, ?, ?, ?, ?, ?, ?)"))
	require.Len(t, args, 8)
	assert.Equal(t, "a", args[0])
	assert.Equal(t, "BUY", args[2])
	assert.Equal(t, uint32(2), args[4])
	assert.Equal(t, 200.0, args[7])
}

func TestBuildQueryUsesFinal(t *testing.T) {
	q := buildQuery("journal")
	assert.Contains(t, q, "FROM journal FINAL")
	assert.Contains(t, q, "ORDER BY ts DESC LIMIT ?")
}

func TestTradeJournalSchema(t *testing.T) {
	stmts := TradeJournalSchema("trades")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS trades")
	assert.Contains(t, stmts[0], "ReplacingMergeTree")
}
