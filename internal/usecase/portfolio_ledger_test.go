package usecase

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/services/tax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(clock *fakeClock, opts ...LedgerOption) *PortfolioLedger {
	n := 0
	base := []LedgerOption{
		WithLedgerClock(clock.Now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("t-%d", n) }),
	}
	return NewPortfolioLedger(tax.NewEngine(), append(base, opts...)...)
}

func TestBuyDebitsCashAndCreatesPosition(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)))

	res, err := l.ExecuteTrade(models.ActionBuy, "tcs.ns", 10, 100)
	require.NoError(t, err)

	assert.InDelta(t, 100000-1000-1.190828, res.Cash, 1e-6)
	assert.InDelta(t, 1.190828, res.Trade.Tax, 1e-9)
	assert.Equal(t, "TCS.NS", res.Trade.Symbol)
	assert.Equal(t, "t-1", res.Trade.ID)
	assert.False(t, res.RapidTrading)

	s := l.Snapshot()
	assert.Equal(t, models.Position{Symbol: "TCS.NS", Qty: 10, AvgCost: 100}, s.Positions["TCS.NS"])
	require.Len(t, s.Trades, 1)
}

func TestBuyWeightedAverageCost(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)))

	_, err := l.ExecuteTrade(models.ActionBuy, "INFY.NS", 10, 100)
	require.NoError(t, err)
	_, err = l.ExecuteTrade(models.ActionBuy, "INFY.NS", 10, 200)
	require.NoError(t, err)

	p := l.Snapshot().Positions["INFY.NS"]
	assert.Equal(t, 20, p.Qty)
	assert.InDelta(t, 150, p.AvgCost, 1e-9)
}

func TestSellKeepsAverageCostAndCreditsProceeds(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)))
	_, err := l.ExecuteTrade(models.ActionBuy, "INFY.NS", 20, 100)
	require.NoError(t, err)
	before := l.Snapshot().Cash

	res, err := l.ExecuteTrade(models.ActionSell, "INFY.NS", 10, 120)
	require.NoError(t, err)

	sellTax := tax.Calculate(models.ActionSell, 120, 10).Total
	assert.InDelta(t, before+1200-sellTax, res.Cash, 1e-9)
	p := l.Snapshot().Positions["INFY.NS"]
	assert.Equal(t, 10, p.Qty)
	assert.Equal(t, 100.0, p.AvgCost)
}

func TestSellToZeroRemovesPosition(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)))
	_, err := l.ExecuteTrade(models.ActionBuy, "TCS.NS", 5, 100)
	require.NoError(t, err)
	_, err = l.ExecuteTrade(models.ActionSell, "TCS.NS", 5, 100)
	require.NoError(t, err)

	_, ok := l.Snapshot().Positions["TCS.NS"]
	assert.False(t, ok)
}

func TestTradeErrorsLeaveStateUntouched(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)), WithStartingCash(1000))
	_, err := l.ExecuteTrade(models.ActionBuy, "TCS.NS", 5, 100)
	require.NoError(t, err)
	before := l.Snapshot()

	cases := []struct {
		action models.Action
		qty    int
		price  float64
		symbol string
		want   error
	}{
		{models.ActionBuy, 0, 100, "TCS.NS", models.ErrInvalidQuantity},
		{models.ActionSell, -1, 100, "TCS.NS", models.ErrInvalidQuantity},
		{models.ActionBuy, 1, 0, "TCS.NS", models.ErrInvalidPrice},
		{models.Action("HOLD"), 1, 100, "TCS.NS", models.ErrInvalidAction},
		{models.ActionBuy, 1, 100, "", models.ErrInvalidSymbol},
		{models.ActionBuy, 5, 100, "TCS.NS", models.ErrInsufficientBalance},
		{models.ActionSell, 6, 100, "TCS.NS", models.ErrInsufficientShares},
		{models.ActionSell, 1, 100, "INFY.NS", models.ErrInsufficientShares},
	}
	for _, tc := range cases {
		_, err := l.ExecuteTrade(tc.action, tc.symbol, tc.qty, tc.price)
		assert.ErrorIs(t, err, tc.want)
	}
	assert.Equal(t, before, l.Snapshot())
}

func TestBuyExactBalanceIncludingTax(t *testing.T) {
	cost := 1000 + tax.Calculate(models.ActionBuy, 100, 10).Total
	l := newTestLedger(newFakeClock(time.Unix(0, 0)), WithStartingCash(cost))

	res, err := l.ExecuteTrade(models.ActionBuy, "TCS.NS", 10, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Cash, 1e-9)
	assert.GreaterOrEqual(t, res.Cash, 0.0)
}

func TestRapidTradingIsAdvisory(t *testing.T) {
	clock := newFakeClock(time.Unix(1000, 0))
	l := newTestLedger(clock)

	res, err := l.ExecuteTrade(models.ActionBuy, "TCS.NS", 1, 100)
	require.NoError(t, err)
	assert.False(t, res.RapidTrading)

	clock.Advance(10 * time.Second)
	res, err = l.ExecuteTrade(models.ActionBuy, "TCS.NS", 1, 100)
	require.NoError(t, err)
	assert.True(t, res.RapidTrading)

	clock.Advance(30 * time.Second)
	res, err = l.ExecuteTrade(models.ActionSell, "TCS.NS", 1, 100)
	require.NoError(t, err)
	assert.False(t, res.RapidTrading)
}

func TestRandomTradesPreserveInvariants(t *testing.T) {
	clock := newFakeClock(time.Unix(0, 0))
	l := newTestLedger(clock)
	rnd := rand.New(rand.NewSource(1))
	symbols := []string{"A.NS", "B.NS", "C.NS"}

	prevTrades := 0
	for i := 0; i < 2000; i++ {
		clock.Advance(time.Second)
		action := models.ActionBuy
		if rnd.Intn(2) == 0 {
			action = models.ActionSell
		}
		_, _ = l.ExecuteTrade(action, symbols[rnd.Intn(3)], 1+rnd.Intn(50), 50+rnd.Float64()*500)

		s := l.Snapshot()
		require.GreaterOrEqual(t, s.Cash, 0.0)
		for _, p := range s.Positions {
			require.Greater(t, p.Qty, 0)
			require.Greater(t, p.AvgCost, 0.0)
		}
		require.GreaterOrEqual(t, len(s.Trades), prevTrades)
		prevTrades = len(s.Trades)
	}
}

func TestConcurrentTradesAreSerialized(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)), WithStartingCash(10000))

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.ExecuteTrade(models.ActionBuy, "TCS.NS", 1, 100)
		}()
	}
	wg.Wait()

	s := l.Snapshot()
	assert.GreaterOrEqual(t, s.Cash, 0.0)
	assert.Equal(t, len(s.Trades), s.Positions["TCS.NS"].Qty)
	// each buy costs just over 100, so 10000 affords 99
	assert.Equal(t, 99, len(s.Trades))
}

func TestRestoreValidatesInvariants(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)))

	assert.Error(t, l.Restore(models.LedgerState{Cash: -1}))
	assert.Error(t, l.Restore(models.LedgerState{Cash: 1, Positions: map[string]models.Position{"X": {Qty: 0, AvgCost: 1}}}))
	assert.Error(t, l.Restore(models.LedgerState{Cash: 1, Trades: []models.Trade{
		{Timestamp: time.Unix(10, 0)}, {Timestamp: time.Unix(5, 0)},
	}}))

	require.NoError(t, l.Restore(models.LedgerState{
		Cash:      500,
		Positions: map[string]models.Position{"TCS.NS": {Qty: 2, AvgCost: 10}},
	}))
	s := l.Snapshot()
	assert.Equal(t, 500.0, s.Cash)
	assert.Equal(t, "TCS.NS", s.Positions["TCS.NS"].Symbol)
}

func TestValuation(t *testing.T) {
	l := newTestLedger(newFakeClock(time.Unix(0, 0)))
	require.NoError(t, l.Restore(models.LedgerState{
		Cash: 1000,
		Positions: map[string]models.Position{
			"TCS.NS":  {Qty: 10, AvgCost: 100},
			"INFY.NS": {Qty: 5, AvgCost: 200},
		},
	}))

	v := l.Valuation(map[string]models.Instrument{
		"TCS.NS": {Symbol: "TCS.NS", Price: 100, DisplayPrice: 110},
	})

	assert.Equal(t, 1000.0, v.Cash)
	assert.InDelta(t, 1100+1000, v.Invested, 1e-9)
	assert.InDelta(t, 2000, v.CostBasis, 1e-9)
	assert.InDelta(t, 3100, v.Total, 1e-9)
	assert.InDelta(t, 100, v.PnL, 1e-9)
	assert.InDelta(t, 5, v.PnLPct, 1e-9)
	require.Len(t, v.Holdings, 2)
	assert.Equal(t, "INFY.NS", v.Holdings[0].Symbol)
	assert.Equal(t, 200.0, v.Holdings[0].CurrentPrice, "no live price falls back to cost")
}

func TestValuationEmptyPortfolio(t *testing.T) {
	v := newTestLedger(newFakeClock(time.Unix(0, 0))).Valuation(nil)
	assert.Equal(t, DefaultStartingCash, v.Total)
	assert.Zero(t, v.PnLPct)
}
