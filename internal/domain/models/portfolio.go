package models

import "time"

// Action is the side of a trade.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Valid reports whether a is BUY or SELL.
func (a Action) Valid() bool { return a == ActionBuy || a == ActionSell }

// TaxBreakdown holds the regulatory costs of a single trade.
type TaxBreakdown struct {
	STT       float64 `json:"stt"`
	StampDuty float64 `json:"stampDuty"`
	GST       float64 `json:"gst"`
	Other     float64 `json:"other"`
	Total     float64 `json:"total"`
}

// Position is a held quantity of one symbol. It only exists while Qty > 0.
type Position struct {
	Symbol  string  `json:"symbol" msgpack:"symbol"`
	Qty     int     `json:"qty" msgpack:"qty"`
	AvgCost float64 `json:"avgCost" msgpack:"avg_cost"`
}

// Trade is an immutable record of an executed order.
type Trade struct {
	ID        string    `json:"id" msgpack:"id"`
	Action    Action    `json:"action" msgpack:"action"`
	Symbol    string    `json:"symbol" msgpack:"symbol"`
	Qty       int       `json:"qty" msgpack:"qty"`
	Price     float64   `json:"price" msgpack:"price"`
	Tax       float64   `json:"tax" msgpack:"tax"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
}

// Turnover is price times quantity.
func (t Trade) Turnover() float64 { return t.Price * float64(t.Qty) }

// LedgerState is the cash, holdings and trade history of one session.
type LedgerState struct {
	Cash      float64             `json:"cash" msgpack:"cash"`
	Positions map[string]Position `json:"positions" msgpack:"positions"`
	Trades    []Trade             `json:"trades" msgpack:"trades"`
}

// Clone returns a deep copy so callers never share maps or slices with the ledger.
func (s LedgerState) Clone() LedgerState {
	out := LedgerState{
		Cash:      s.Cash,
		Positions: make(map[string]Position, len(s.Positions)),
		Trades:    make([]Trade, len(s.Trades)),
	}
	for k, v := range s.Positions {
		out.Positions[k] = v
	}
	copy(out.Trades, s.Trades)
	return out
}

// TradeResult is returned for every executed trade.
type TradeResult struct {
	Trade        Trade        `json:"trade"`
	Taxes        TaxBreakdown `json:"taxes"`
	Cash         float64      `json:"cash"`
	RapidTrading bool         `json:"rapidTrading"`
}

// TradePreview estimates the cost of a trade before it is placed.
type TradePreview struct {
	Action        Action       `json:"action"`
	Symbol        string       `json:"symbol"`
	Qty           int          `json:"qty"`
	Price         float64      `json:"price"`
	OrderValue    float64      `json:"orderValue"`
	Taxes         TaxBreakdown `json:"taxes"`
	TotalEstimate float64      `json:"totalEstimate"`
}

// Holding is a valued position.
type Holding struct {
	Symbol       string  `json:"symbol"`
	Qty          int     `json:"qty"`
	AvgCost      float64 `json:"avgCost"`
	CurrentPrice float64 `json:"currentPrice"`
	Value        float64 `json:"value"`
	PnL          float64 `json:"pnl"`
}

// Valuation marks the ledger to the current simulated prices.
type Valuation struct {
	Cash      float64   `json:"cash"`
	Invested  float64   `json:"invested"`
	CostBasis float64   `json:"costBasis"`
	Total     float64   `json:"total"`
	PnL       float64   `json:"pnl"`
	PnLPct    float64   `json:"pnlPct"`
	Holdings  []Holding `json:"holdings"`
}

// ValuePoint is one sample of total portfolio value.
type ValuePoint struct {
	Time  time.Time `json:"time" msgpack:"time"`
	Value float64   `json:"value" msgpack:"value"`
}

// PortfolioView is everything the presentation layer needs for the overview screen.
type PortfolioView struct {
	Valuation Valuation    `json:"valuation"`
	Trades    []Trade      `json:"trades"`
	History   []ValuePoint `json:"history"`
}

// TradeReceipt is the confirmation returned to the trader.
// Warning is set when the trade followed the previous one too quickly.
type TradeReceipt struct {
	TradeResult
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}
