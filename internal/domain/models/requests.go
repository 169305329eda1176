package models

// Requests for the trading HTTP endpoints. Defined in domain for consistency and reuse.

type SymbolRequest struct {
	Symbol string `param:"symbol" query:"symbol" json:"symbol" validate:"required,symbol"`
}

type TrackRequest struct {
	Symbol string `json:"symbol" validate:"required,symbol"`
}

type SearchRequest struct {
	Q string `query:"q" json:"q" validate:"max=64"`
}

type HistoryRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	Range  string `query:"range" json:"range" default:"1d" validate:"oneof=1d 5d 1mo 1y"`
}

type TradeRequest struct {
	Action string `json:"action" validate:"required,oneof=BUY SELL"`
	Symbol string `json:"symbol" validate:"required,symbol"`
	Qty    int    `json:"qty" validate:"gte=1"`
	PIN    string `json:"pin" validate:"required"`
}

type PreviewRequest struct {
	Action string `query:"action" json:"action" default:"BUY" validate:"oneof=BUY SELL"`
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	Qty    int    `query:"qty" json:"qty" default:"1" validate:"gte=1,lte=1000000"`
}

type AdviceRequest struct {
	Query  string `json:"query" validate:"required,max=500"`
	Symbol string `json:"symbol" validate:"omitempty,symbol"`
}

type JournalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,symbol"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=5000"`
}
