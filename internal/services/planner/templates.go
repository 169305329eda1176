package planner

var openings = []string{
	"That's a thoughtful question regarding the markets.",
	"Navigating current market conditions requires a strategic perspective.",
	"Interesting angle. Let's look at that from a market intelligence lens.",
	"I've analyzed the current sentiment to help frame this for you.",
	"Market shifts are constant; here's how to view your query.",
}

var followUps = []string{
	"What is your target time horizon? (Intraday / Swing / Long-term)",
	"How much capital are you allocating for this specific paper trade?",
	"Are you looking for a quick scalp or a steady wealth-building entry?",
	"What is your risk tolerance for this simulated position?",
	"Is capital protection your primary goal right now?",
}

// uncertainty lines soften general answers when no instrument is in focus.
var uncertainty = []string{
	"Market opportunities are highly dependent on individual context.",
	"The 'right' move is often tied to your specific time horizon.",
	"Current volatility makes a fixed answer difficult without deeper context.",
	"Financial decisions should always align with your broader entry strategy.",
}

var deescalation = []string{
	"I sense some urgency/emotion in your request.",
	"Trading is best done with a calm, disciplined mind. Let's slow down. Before we simulate any trade, what is the core reason for this rush? Strategic entries require waiting for the right setup, not chasing movements.",
}

const deescalationFollowUp = "Would you like to review a lower-risk strategy for a few days first?"

const (
	generalBuyList  = "The \"Buy\" list is always dynamic. Currently, we look for stocks with high relative volume and proximity to 20-day moving averages."
	generalScanTips = "Rather than chasing tips, consider scanning for quality mid-caps if you have a 6-month view, or sticking to Blue-chips for stability."

	mentionSelect = "I noticed you mentioned %s. To provide a high-level strategy including support/resistance zones and momentum signals, please select it from the watchlist."
	mentionSector = "Generally, %s follows its sector momentum. Are you planning a delivery or a quick intraday scalp?"

	reasonBookProfit = "Based on a %s view, %s is nearing a historical resistance zone. Locking in gains here aligns with disciplined risk-reward ratios."
	reasonAccumulate = "%s is in a steady uptrend. For wealth-building, partial entries at current levels are strategically sound."
	reasonBuyOnDip   = "The recent correction in %s looks like an opportunity for swing traders. Support is expected near current levels."
	reasonScalp      = "Intraday volatility for %s is high. High-speed execution with strict stop-losses is recommended. No overnight positions."
	reasonHold       = "Current setup for %s is neutral. Waiting for a breakout above recent highs would be a more prudent entry."

	marketSilent   = "Markets are currently silent. Build your watchlist to get AI-driven insights."
	marketHeadline = "Market Sentiment: %s"
	marketMomentum = "Momentum: %s are moving up."
	marketDipWatch = "Dip Watch: %s cooling off."
	marketClosing  = "Select a stock for a deep-dive execution strategy."
)

var (
	urgencyTriggers = []string{"panic", "scared", "help", "quick money", "profit fast", "recover"}
	generalPhrases  = []string{"what to buy", "good stock", "invest in"}
	sellKeywords    = []string{"sell", "exit", "profit", "booking"}
	intradayWords   = []string{"intraday", "short"}
	longTermWords   = []string{"long", "year", "investment"}
)
