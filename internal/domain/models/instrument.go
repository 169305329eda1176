package models

import "time"

// DefaultVolatility is the per-tick relative jitter bound applied after every resync.
const DefaultVolatility = 0.0005

// Instrument is the live simulated state of a tracked symbol.
// Price is the last authoritative quote; DisplayPrice is the simulated value used for
// trading and display.
type Instrument struct {
	Symbol       string    `json:"symbol" msgpack:"symbol"`
	Price        float64   `json:"price" msgpack:"price"`
	DisplayPrice float64   `json:"displayPrice" msgpack:"display_price"`
	ChangePct    float64   `json:"changePct" msgpack:"change_pct"`
	Volatility   float64   `json:"volatility" msgpack:"volatility"`
	Currency     string    `json:"currency,omitempty" msgpack:"currency"`
	UpdatedAt    time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// LivePrice returns DisplayPrice, falling back to Price when no simulated value exists.
func (i Instrument) LivePrice() float64 {
	if i.DisplayPrice > 0 {
		return i.DisplayPrice
	}
	return i.Price
}

// Quote is an authoritative price returned by the quote source.
type Quote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
	Currency  string  `json:"currency"`
}

// SearchResult is a single instrument match from the quote source.
type SearchResult struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortname"`
	Exchange  string `json:"exchange"`
	Type      string `json:"type"`
}

// HistoryPoint is one close of a historical price series.
type HistoryPoint struct {
	Time  int64   `json:"time"` // unix seconds
	Price float64 `json:"price"`
}
