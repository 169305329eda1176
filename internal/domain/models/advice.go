package models

// AdviceKind identifies which branch of the planner produced the advice.
type AdviceKind string

const (
	AdviceDeescalation AdviceKind = "DEESCALATION"
	AdviceMention      AdviceKind = "MENTION"
	AdviceGeneral      AdviceKind = "GENERAL"
	AdviceStrategy     AdviceKind = "STRATEGY"
)

// Horizon is the holding period inferred from a query.
type Horizon string

const (
	HorizonIntraday Horizon = "INTRADAY"
	HorizonSwing    Horizon = "SWING"
	HorizonLongTerm Horizon = "LONG-TERM"
)

// StrategyAction is the suggested course of action.
type StrategyAction string

const (
	StrategyBookProfitExit StrategyAction = "BOOK_PROFIT_EXIT"
	StrategyAccumulate     StrategyAction = "ACCUMULATE"
	StrategyBuyOnDip       StrategyAction = "BUY_ON_DIP"
	StrategyBullishScalp   StrategyAction = "BULLISH_SCALP"
	StrategyBearishScalp   StrategyAction = "BEARISH_SCALP"
	StrategyHold           StrategyAction = "HOLD"
)

// Risk grades a strategy.
type Risk string

const (
	RiskLow      Risk = "LOW"
	RiskMedium   Risk = "MEDIUM"
	RiskModerate Risk = "MODERATE"
	RiskHigh     Risk = "HIGH"
)

// Zone is a target price band.
type Zone struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
	Text string  `json:"text"`
}

// Advice is the planner output for a single query.
// General advice only carries Paragraphs and FollowUp; strategy advice fills the rest.
type Advice struct {
	Kind         AdviceKind     `json:"kind"`
	General      bool           `json:"general"`
	Paragraphs   []string       `json:"paragraphs,omitempty"`
	Symbol       string         `json:"symbol,omitempty"`
	Horizon      Horizon        `json:"horizon,omitempty"`
	SellStrategy bool           `json:"sellStrategy"`
	Action       StrategyAction `json:"action,omitempty"`
	Risk         Risk           `json:"risk,omitempty"`
	Zone         *Zone          `json:"zone,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
	FollowUp     string         `json:"followUp,omitempty"`
}

// MarketSentiment is the overall mood across tracked instruments.
type MarketSentiment string

const (
	SentimentBullish  MarketSentiment = "BULLISH"
	SentimentCautious MarketSentiment = "CAUTIOUS"
)

// MarketAdvice summarizes momentum across all tracked instruments.
type MarketAdvice struct {
	Sentiment        MarketSentiment `json:"sentiment,omitempty"`
	Bullish          []string        `json:"bullish"`
	Bearish          []string        `json:"bearish"`
	AverageChangePct float64         `json:"averageChangePct"`
	Lines            []string        `json:"lines"`
}

// Sentiment is the bull/bear gauge for a single instrument.
type Sentiment struct {
	Symbol    string  `json:"symbol"`
	BullScore float64 `json:"bullScore"`
	BearScore float64 `json:"bearScore"`
	Label     string  `json:"label"`
}
