package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"TradePilot/internal/domain/models"
	drepo "TradePilot/internal/domain/repository"
	"TradePilot/pkg/logger"
	"TradePilot/pkg/metrics"
	"TradePilot/pkg/scheduler"
)

// DefaultWatchlist seeds a session with no saved watchlist.
var DefaultWatchlist = []string{"RELIANCE.NS", "TCS.NS", "INFY.NS", "HDFCBANK.NS"}

const rapidTradingWarning = "AI Warning: Rapid trading detected. Take a breath and review your strategy."

// Calendar decides when trading is allowed.
type Calendar interface {
	Status(t time.Time) models.SessionStatus
	IsOpen(t time.Time) bool
	Describe(t time.Time) models.MarketStatus
}

// Advisor produces rule-based advice.
type Advisor interface {
	Generate(query string, inst *models.Instrument, known []string) models.Advice
	GenerateMarketAdvice(instruments []models.Instrument) models.MarketAdvice
	Sentiment(inst models.Instrument) models.Sentiment
}

// SessionConfig holds the tunables of a trading session.
type SessionConfig struct {
	PIN              string
	Watchlist        []string
	HistoryLimit     int
	TickInterval     time.Duration
	ResyncInterval   time.Duration
	SnapshotInterval time.Duration
	Clock            func() time.Time
}

func (c *SessionConfig) applyDefaults() {
	if c.PIN == "" {
		c.PIN = "1234"
	}
	if len(c.Watchlist) == 0 {
		c.Watchlist = DefaultWatchlist
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 50
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.ResyncInterval <= 0 {
		c.ResyncInterval = 10 * time.Second
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = time.Minute
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// TradeCommand is a trade request from the presentation layer.
type TradeCommand struct {
	Action models.Action
	Symbol string
	Qty    int
	PIN    string
}

// Session is the single owner of every engine component for one trader.
type Session struct {
	cfg       SessionConfig
	calendar  Calendar
	feed      *PriceFeed
	ledger    *PortfolioLedger
	advisor   Advisor
	quotes    drepo.QuoteSource
	store     drepo.StateStore
	sched     *scheduler.Scheduler
	publisher drepo.TradePublisher
	metrics   drepo.Metrics
	log       *logger.Logger
	now       func() time.Time

	watch   *watchlist
	history *valueHistory
}

// NewSession wires the engine. publisher may be nil when trade events are disabled.
func NewSession(
	cfg SessionConfig,
	calendar Calendar,
	feed *PriceFeed,
	ledger *PortfolioLedger,
	advisor Advisor,
	quotes drepo.QuoteSource,
	store drepo.StateStore,
	sched *scheduler.Scheduler,
	publisher drepo.TradePublisher,
	m drepo.Metrics,
	log *logger.Logger,
) *Session {
	cfg.applyDefaults()
	if m == nil {
		m = metrics.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		cfg:       cfg,
		calendar:  calendar,
		feed:      feed,
		ledger:    ledger,
		advisor:   advisor,
		quotes:    quotes,
		store:     store,
		sched:     sched,
		publisher: publisher,
		metrics:   m,
		log:       log.Component("session"),
		now:       cfg.Clock,
		watch:     newWatchlist(cfg.Watchlist),
		history:   newValueHistory(cfg.HistoryLimit),
	}
}

// Start restores persisted state, tracks the watchlist and every held symbol, and starts
// the tick, resync and snapshot jobs.
func (s *Session) Start(ctx context.Context) error {
	s.restore(ctx)

	report := s.feed.TrackAll(ctx, s.feedSymbols())
	s.log.Info("watchlist tracked",
		logger.Strings("symbols", s.feed.Tracked()),
		logger.Int("failed", len(report.Failed)),
	)

	jobs := []struct {
		every time.Duration
		job   scheduler.Job
	}{
		{s.cfg.TickInterval, scheduler.JobFunc{JobName: "tick", Fn: func(context.Context) error {
			s.feed.Tick()
			return nil
		}}},
		{s.cfg.ResyncInterval, scheduler.JobFunc{JobName: "resync", Fn: func(ctx context.Context) error {
			if r := s.feed.Resync(ctx); len(r.Failed) > 0 {
				s.log.Debug("resync finished with stale symbols", logger.Int("stale", len(r.Failed)))
			}
			return nil
		}}},
		{s.cfg.SnapshotInterval, scheduler.JobFunc{JobName: "portfolio-snapshot", Fn: s.SnapshotPortfolio}},
	}
	for _, j := range jobs {
		if err := s.sched.Every(j.every, j.job); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}
	s.sched.Start()
	return nil
}

// Stop halts the timers and persists the ledger one last time.
func (s *Session) Stop(ctx context.Context) error {
	s.sched.Stop()
	if err := s.persistLedger(ctx); err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	return nil
}

func (s *Session) restore(ctx context.Context) {
	if st, ok, err := s.store.LoadLedger(ctx); err != nil {
		s.log.Warn("load ledger failed, starting fresh", logger.Error(err))
	} else if ok {
		if err := s.ledger.Restore(st); err != nil {
			s.log.Warn("saved ledger rejected, starting fresh", logger.Error(err))
		}
	}

	if symbols, ok, err := s.store.LoadWatchlist(ctx); err != nil {
		s.log.Warn("load watchlist failed, using defaults", logger.Error(err))
	} else if ok && len(symbols) > 0 {
		s.watch = newWatchlist(symbols)
	}

	if points, ok, err := s.store.LoadHistory(ctx); err != nil {
		s.log.Warn("load portfolio history failed", logger.Error(err))
	} else if ok {
		s.history.replace(points)
	}
}

// Status describes the market session right now.
func (s *Session) Status() models.MarketStatus {
	return s.calendar.Describe(s.now())
}

// Quotes returns the live instruments in watchlist order.
func (s *Session) Quotes() []models.Instrument {
	return s.feed.Instruments()
}

// Watchlist returns the saved symbols.
func (s *Session) Watchlist() []string {
	return s.watch.list()
}

// Track starts following symbol and saves it to the watchlist. Symbols the quote source
// cannot price are not added.
func (s *Session) Track(ctx context.Context, symbol string) (models.Instrument, error) {
	sym := NormalizeSymbol(symbol)
	if err := s.feed.Track(ctx, sym); err != nil {
		if !s.watch.contains(sym) && !s.holds(sym) {
			s.feed.Untrack(sym)
		}
		return models.Instrument{}, fmt.Errorf("track %s: %w", sym, err)
	}

	if s.watch.add(sym) {
		if err := s.store.SaveWatchlist(ctx, s.watch.list()); err != nil {
			s.log.Warn("save watchlist failed", logger.String("symbol", sym), logger.Error(err))
		}
	}
	inst, _ := s.feed.Instrument(sym)
	return inst, nil
}

// Untrack removes symbol from the watchlist. The feed keeps pricing it while a position
// is held so it can still be valued and sold.
func (s *Session) Untrack(ctx context.Context, symbol string) error {
	sym := NormalizeSymbol(symbol)
	if !s.holds(sym) {
		s.feed.Untrack(sym)
	}
	if !s.watch.remove(sym) {
		return nil
	}
	if err := s.store.SaveWatchlist(ctx, s.watch.list()); err != nil {
		return fmt.Errorf("untrack %s: %w", sym, err)
	}
	return nil
}

func (s *Session) holds(sym string) bool {
	_, ok := s.ledger.Snapshot().Positions[sym]
	return ok
}

// feedSymbols is the watchlist followed by held symbols outside it, in sorted order.
func (s *Session) feedSymbols() []string {
	symbols := s.watch.list()
	var extra []string
	for sym := range s.ledger.Snapshot().Positions {
		if !s.watch.contains(sym) {
			extra = append(extra, sym)
		}
	}
	sort.Strings(extra)
	return append(symbols, extra...)
}

func (s *Session) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	return s.quotes.Search(ctx, query)
}

func (s *Session) History(ctx context.Context, symbol, rng string) ([]models.HistoryPoint, error) {
	return s.quotes.History(ctx, NormalizeSymbol(symbol), rng)
}

// Preview estimates a trade at the current simulated price.
func (s *Session) Preview(action models.Action, symbol string, qty int) (models.TradePreview, error) {
	if !action.Valid() {
		return models.TradePreview{}, models.ErrInvalidAction
	}
	if qty <= 0 {
		return models.TradePreview{}, models.ErrInvalidQuantity
	}
	price, err := s.livePrice(symbol)
	if err != nil {
		return models.TradePreview{}, err
	}

	taxes := s.ledger.taxes.Calculate(action, price, qty)
	orderValue := price * float64(qty)
	return models.TradePreview{
		Action:        action,
		Symbol:        NormalizeSymbol(symbol),
		Qty:           qty,
		Price:         price,
		OrderValue:    orderValue,
		Taxes:         taxes,
		TotalEstimate: orderValue + taxes.Total,
	}, nil
}

// ExecuteTrade gates a trade on market hours, quantity and PIN, fills it at the live
// simulated price, persists the ledger and publishes the trade.
func (s *Session) ExecuteTrade(ctx context.Context, cmd TradeCommand) (models.TradeReceipt, error) {
	receipt, err := s.executeTrade(ctx, cmd)
	if err != nil {
		s.metrics.RecordTradeRejected(rejectReason(err))
		s.log.Info("trade rejected",
			logger.String("action", string(cmd.Action)),
			logger.String("symbol", cmd.Symbol),
			logger.Int("qty", cmd.Qty),
			logger.Error(err),
		)
	}
	return receipt, err
}

func (s *Session) executeTrade(ctx context.Context, cmd TradeCommand) (models.TradeReceipt, error) {
	if !s.calendar.IsOpen(s.now()) {
		return models.TradeReceipt{}, models.ErrMarketClosed
	}
	if cmd.Qty <= 0 {
		return models.TradeReceipt{}, fmt.Errorf("%w: %d", models.ErrInvalidQuantity, cmd.Qty)
	}
	if cmd.PIN != s.cfg.PIN {
		return models.TradeReceipt{}, models.ErrInvalidPIN
	}
	price, err := s.livePrice(cmd.Symbol)
	if err != nil {
		return models.TradeReceipt{}, err
	}

	res, err := s.ledger.ExecuteTrade(cmd.Action, cmd.Symbol, cmd.Qty, price)
	if err != nil {
		return models.TradeReceipt{}, err
	}
	t := res.Trade

	s.metrics.RecordTrade(string(t.Action), t.Symbol)
	s.log.Info("trade executed",
		logger.String("id", t.ID),
		logger.String("action", string(t.Action)),
		logger.String("symbol", t.Symbol),
		logger.Int("qty", t.Qty),
		logger.Float64("price", t.Price),
		logger.Float64("tax", t.Tax),
		logger.Float64("cash", res.Cash),
	)

	if err := s.persistLedger(ctx); err != nil {
		s.log.Error("persist ledger failed", logger.String("trade_id", t.ID), logger.Error(err))
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, t); err != nil {
			s.metrics.RecordError("publish_trade")
			s.log.Warn("publish trade failed", logger.String("trade_id", t.ID), logger.Error(err))
		}
	}

	verb := "Bought"
	if t.Action == models.ActionSell {
		verb = "Sold"
	}
	receipt := models.TradeReceipt{
		TradeResult: res,
		Message:     fmt.Sprintf("%s %d shares of %s successful.", verb, t.Qty, t.Symbol),
	}
	if res.RapidTrading {
		receipt.Warning = rapidTradingWarning
		s.log.Warn("rapid trading detected", logger.String("symbol", t.Symbol))
	}
	return receipt, nil
}

func (s *Session) livePrice(symbol string) (float64, error) {
	inst, ok := s.feed.Instrument(symbol)
	if !ok || inst.LivePrice() <= 0 {
		return 0, fmt.Errorf("%w: %s", models.ErrQuoteUnavailable, NormalizeSymbol(symbol))
	}
	return inst.LivePrice(), nil
}

// Advice answers a free-text question, focused on symbol when one is selected and priced.
func (s *Session) Advice(query, symbol string) models.Advice {
	var focus *models.Instrument
	if symbol != "" {
		if inst, ok := s.feed.Instrument(symbol); ok {
			focus = &inst
		}
	}
	return s.advisor.Generate(query, focus, s.knownSymbols())
}

func (s *Session) knownSymbols() []string {
	known := s.feed.Tracked()
	seen := make(map[string]struct{}, len(known))
	for _, k := range known {
		seen[k] = struct{}{}
	}
	for _, w := range s.watch.list() {
		if _, ok := seen[w]; !ok {
			known = append(known, w)
		}
	}
	return known
}

func (s *Session) MarketAdvice() models.MarketAdvice {
	return s.advisor.GenerateMarketAdvice(s.feed.Instruments())
}

// Sentiment is the bull/bear gauge of a tracked symbol.
func (s *Session) Sentiment(symbol string) (models.Sentiment, error) {
	inst, ok := s.feed.Instrument(symbol)
	if !ok {
		return models.Sentiment{}, fmt.Errorf("%w: %s", models.ErrQuoteUnavailable, NormalizeSymbol(symbol))
	}
	return s.advisor.Sentiment(inst), nil
}

// Portfolio values the ledger at live prices.
func (s *Session) Portfolio() models.PortfolioView {
	return models.PortfolioView{
		Valuation: s.ledger.Valuation(s.feed.Snapshot()),
		Trades:    s.ledger.Trades(),
		History:   s.history.points(),
	}
}

// SnapshotPortfolio appends the current total value to the capped history and persists it.
func (s *Session) SnapshotPortfolio(ctx context.Context) error {
	v := s.ledger.Valuation(s.feed.Snapshot())
	points := s.history.add(models.ValuePoint{Time: s.now(), Value: v.Total})

	if err := s.store.SaveHistory(ctx, points); err != nil {
		return fmt.Errorf("save portfolio history: %w", err)
	}
	return s.persistLedger(ctx)
}

func (s *Session) persistLedger(ctx context.Context) error {
	if err := s.store.SaveLedger(ctx, s.ledger.Snapshot()); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func rejectReason(err error) string {
	for _, r := range []struct {
		err    error
		reason string
	}{
		{models.ErrMarketClosed, "market_closed"},
		{models.ErrInvalidPIN, "invalid_pin"},
		{models.ErrInvalidQuantity, "invalid_quantity"},
		{models.ErrInsufficientBalance, "insufficient_balance"},
		{models.ErrInsufficientShares, "insufficient_shares"},
		{models.ErrQuoteUnavailable, "quote_unavailable"},
	} {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
