package usecase

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"TradePilot/internal/domain/models"

	"github.com/google/uuid"
)

// DefaultStartingCash is the paper balance of a fresh session.
const DefaultStartingCash = 100000.0

// DefaultRapidTradeWindow flags trades placed sooner than this after the previous one.
const DefaultRapidTradeWindow = 30 * time.Second

// TaxCalculator computes regulatory costs for a trade.
type TaxCalculator interface {
	Calculate(action models.Action, price float64, qty int) models.TaxBreakdown
}

type LedgerOption func(*PortfolioLedger)

func WithStartingCash(cash float64) LedgerOption {
	return func(l *PortfolioLedger) {
		if cash >= 0 {
			l.state.Cash = cash
		}
	}
}

func WithRapidTradeWindow(d time.Duration) LedgerOption {
	return func(l *PortfolioLedger) {
		if d > 0 {
			l.rapidWindow = d
		}
	}
}

func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *PortfolioLedger) {
		if now != nil {
			l.now = now
		}
	}
}

func WithIDGenerator(gen func() string) LedgerOption {
	return func(l *PortfolioLedger) {
		if gen != nil {
			l.newID = gen
		}
	}
}

// PortfolioLedger owns cash, positions and trade history. Every mutation is serialized by mu,
// so two ExecuteTrade calls never interleave.
type PortfolioLedger struct {
	mu          sync.Mutex
	state       models.LedgerState
	taxes       TaxCalculator
	rapidWindow time.Duration
	now         func() time.Time
	newID       func() string
}

func NewPortfolioLedger(taxes TaxCalculator, opts ...LedgerOption) *PortfolioLedger {
	l := &PortfolioLedger{
		state: models.LedgerState{
			Cash:      DefaultStartingCash,
			Positions: make(map[string]models.Position),
		},
		taxes:       taxes,
		rapidWindow: DefaultRapidTradeWindow,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ExecuteTrade fills qty shares of symbol at price. Market hours are the caller's concern.
// RapidTrading in the result is advisory only and never blocks the trade.
func (l *PortfolioLedger) ExecuteTrade(action models.Action, symbol string, qty int, price float64) (models.TradeResult, error) {
	if !action.Valid() {
		return models.TradeResult{}, fmt.Errorf("%w: %q", models.ErrInvalidAction, action)
	}
	if qty <= 0 {
		return models.TradeResult{}, fmt.Errorf("%w: %d", models.ErrInvalidQuantity, qty)
	}
	if price <= 0 {
		return models.TradeResult{}, fmt.Errorf("%w: %.2f", models.ErrInvalidPrice, price)
	}
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return models.TradeResult{}, models.ErrInvalidSymbol
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	taxes := l.taxes.Calculate(action, price, qty)
	turnover := price * float64(qty)

	switch action {
	case models.ActionBuy:
		cost := turnover + taxes.Total
		if l.state.Cash < cost {
			return models.TradeResult{}, fmt.Errorf("%w: need %.2f, have %.2f", models.ErrInsufficientBalance, cost, l.state.Cash)
		}
		l.state.Cash -= cost
		pos := l.state.Positions[sym]
		pos.Symbol = sym
		pos.AvgCost = (float64(pos.Qty)*pos.AvgCost + turnover) / float64(pos.Qty+qty)
		pos.Qty += qty
		l.state.Positions[sym] = pos

	case models.ActionSell:
		pos, ok := l.state.Positions[sym]
		if !ok || pos.Qty < qty {
			return models.TradeResult{}, fmt.Errorf("%w: hold %d %s, selling %d", models.ErrInsufficientShares, pos.Qty, sym, qty)
		}
		l.state.Cash += turnover - taxes.Total
		pos.Qty -= qty
		if pos.Qty == 0 {
			delete(l.state.Positions, sym)
		} else {
			l.state.Positions[sym] = pos
		}
	}

	now := l.now()
	rapid := false
	if n := len(l.state.Trades); n > 0 {
		rapid = now.Sub(l.state.Trades[n-1].Timestamp) < l.rapidWindow
	}

	trade := models.Trade{
		ID:        l.newID(),
		Action:    action,
		Symbol:    sym,
		Qty:       qty,
		Price:     price,
		Tax:       taxes.Total,
		Timestamp: now,
	}
	l.state.Trades = append(l.state.Trades, trade)

	return models.TradeResult{
		Trade:        trade,
		Taxes:        taxes,
		Cash:         l.state.Cash,
		RapidTrading: rapid,
	}, nil
}

// Snapshot returns a deep copy of the ledger state.
func (l *PortfolioLedger) Snapshot() models.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Trades returns the trade history, newest last.
func (l *PortfolioLedger) Trades() []models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Trade{}, l.state.Trades...)
}

// Restore replaces the ledger with a persisted state after checking its invariants.
func (l *PortfolioLedger) Restore(s models.LedgerState) error {
	if s.Cash < 0 {
		return fmt.Errorf("restore ledger: negative cash %.2f", s.Cash)
	}
	for sym, p := range s.Positions {
		if p.Qty <= 0 || p.AvgCost <= 0 {
			return fmt.Errorf("restore ledger: invalid position %s qty=%d avg=%.2f", sym, p.Qty, p.AvgCost)
		}
	}
	for i := 1; i < len(s.Trades); i++ {
		if s.Trades[i].Timestamp.Before(s.Trades[i-1].Timestamp) {
			return fmt.Errorf("restore ledger: trade %d out of order", i)
		}
	}

	c := s.Clone()
	for sym, p := range c.Positions {
		p.Symbol = sym
		c.Positions[sym] = p
	}

	l.mu.Lock()
	l.state = c
	l.mu.Unlock()
	return nil
}

// Valuation marks positions to prices. Holdings without a live price are valued at cost.
func (l *PortfolioLedger) Valuation(prices map[string]models.Instrument) models.Valuation {
	s := l.Snapshot()

	v := models.Valuation{Cash: s.Cash, Holdings: make([]models.Holding, 0, len(s.Positions))}
	for sym, p := range s.Positions {
		current := p.AvgCost
		if inst, ok := prices[sym]; ok && inst.LivePrice() > 0 {
			current = inst.LivePrice()
		}
		value := current * float64(p.Qty)
		cost := p.AvgCost * float64(p.Qty)
		v.Invested += value
		v.CostBasis += cost
		v.Holdings = append(v.Holdings, models.Holding{
			Symbol:       sym,
			Qty:          p.Qty,
			AvgCost:      p.AvgCost,
			CurrentPrice: current,
			Value:        value,
			PnL:          value - cost,
		})
	}
	sort.Slice(v.Holdings, func(i, j int) bool { return v.Holdings[i].Symbol < v.Holdings[j].Symbol })

	v.Total = v.Cash + v.Invested
	v.PnL = v.Invested - v.CostBasis
	if v.CostBasis > 0 {
		v.PnLPct = v.PnL / v.CostBasis * 100
	}
	return v
}
