package usecase

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"TradePilot/internal/domain/models"
	drepo "TradePilot/internal/domain/repository"
	"TradePilot/pkg/logger"
	"TradePilot/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// SessionGate reports whether ticks may move prices at t.
type SessionGate interface {
	IsOpen(t time.Time) bool
}

// RandSource is the uniform [0,1) draw behind the tick walk.
type RandSource interface {
	Float64() float64
}

// FeedOption configures a PriceFeed.
type FeedOption func(*PriceFeed)

func WithFeedRand(r RandSource) FeedOption {
	return func(f *PriceFeed) {
		if r != nil {
			f.rnd = r
		}
	}
}

func WithFeedClock(now func() time.Time) FeedOption {
	return func(f *PriceFeed) {
		if now != nil {
			f.now = now
		}
	}
}

func WithFeedVolatility(v float64) FeedOption {
	return func(f *PriceFeed) {
		if v > 0 {
			f.volatility = v
		}
	}
}

func WithQuoteTimeout(d time.Duration) FeedOption {
	return func(f *PriceFeed) {
		if d > 0 {
			f.quoteTimeout = d
		}
	}
}

func WithResyncConcurrency(n int) FeedOption {
	return func(f *PriceFeed) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithResyncBudget bounds a whole resync pass. Symbols still waiting for a slot when it
// runs out are reported failed and keep their last state. Zero disables the bound.
func WithResyncBudget(d time.Duration) FeedOption {
	return func(f *PriceFeed) {
		if d >= 0 {
			f.resyncBudget = d
		}
	}
}

func WithFeedMetrics(m drepo.Metrics) FeedOption {
	return func(f *PriceFeed) {
		if m != nil {
			f.metrics = m
		}
	}
}

func WithFeedLogger(l *logger.Logger) FeedOption {
	return func(f *PriceFeed) {
		if l != nil {
			f.log = l
		}
	}
}

// ResyncReport summarizes one resync pass.
type ResyncReport struct {
	Updated []string
	Failed  map[string]error
}

// PriceFeed holds the simulated price of every tracked symbol.
// All reads and writes of the instrument map go through mu; quote I/O happens outside it.
type PriceFeed struct {
	mu          sync.RWMutex
	instruments map[string]models.Instrument
	tracked     map[string]struct{}
	order       []string

	quotes drepo.QuoteSource
	gate   SessionGate
	rnd    RandSource // only used under mu

	now          func() time.Time
	volatility   float64
	quoteTimeout time.Duration
	concurrency  int
	resyncBudget time.Duration
	metrics      drepo.Metrics
	log          *logger.Logger
}

// NewPriceFeed creates a feed reading authoritative prices from quotes and moving
// simulated prices only while gate is open.
func NewPriceFeed(quotes drepo.QuoteSource, gate SessionGate, opts ...FeedOption) *PriceFeed {
	f := &PriceFeed{
		instruments:  make(map[string]models.Instrument),
		tracked:      make(map[string]struct{}),
		quotes:       quotes,
		gate:         gate,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		now:          time.Now,
		volatility:   models.DefaultVolatility,
		quoteTimeout: 5 * time.Second,
		concurrency:  4,
		resyncBudget: 8 * time.Second,
		metrics:      metrics.Nop{},
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NormalizeSymbol trims and upper-cases a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Track adds symbol to the tracked set and resyncs it immediately. Tracking is idempotent.
// A failed first quote leaves the symbol tracked without an instrument; the error is returned
// so callers can report it, and the next resync pass retries.
func (f *PriceFeed) Track(ctx context.Context, symbol string) error {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return models.ErrInvalidSymbol
	}

	f.mu.Lock()
	if _, ok := f.tracked[sym]; !ok {
		f.tracked[sym] = struct{}{}
		f.order = append(f.order, sym)
	}
	f.mu.Unlock()

	return f.resyncOne(ctx, sym)
}

// TrackAll tracks every symbol, resyncing them concurrently.
func (f *PriceFeed) TrackAll(ctx context.Context, symbols []string) ResyncReport {
	f.mu.Lock()
	for _, s := range symbols {
		sym := NormalizeSymbol(s)
		if sym == "" {
			continue
		}
		if _, ok := f.tracked[sym]; !ok {
			f.tracked[sym] = struct{}{}
			f.order = append(f.order, sym)
		}
	}
	f.mu.Unlock()

	return f.Resync(ctx)
}

// Untrack stops tracking symbol and drops its instrument.
func (f *PriceFeed) Untrack(symbol string) {
	sym := NormalizeSymbol(symbol)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tracked[sym]; !ok {
		return
	}
	delete(f.tracked, sym)
	delete(f.instruments, sym)
	for i, s := range f.order {
		if s == sym {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Tick advances every tracked instrument by one bounded random step:
// displayPrice += U(-0.5, 0.5) * displayPrice * volatility. It is a no-op while the
// market is closed and returns whether prices moved.
func (f *PriceFeed) Tick() bool {
	if !f.gate.IsOpen(f.now()) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	for _, sym := range f.order {
		inst, ok := f.instruments[sym]
		if !ok {
			continue
		}
		inst.DisplayPrice += (f.rnd.Float64() - 0.5) * inst.DisplayPrice * inst.Volatility
		inst.UpdatedAt = now
		f.instruments[sym] = inst
		f.metrics.RecordTick(sym, inst.DisplayPrice)
	}
	return true
}

// Resync fetches an authoritative quote for every tracked symbol. Each symbol gets its own
// timeout; a failure leaves that instrument's last good state untouched and never affects
// the others.
func (f *PriceFeed) Resync(ctx context.Context) ResyncReport {
	symbols := f.Tracked()
	report := ResyncReport{Failed: make(map[string]error)}

	if f.resyncBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.resyncBudget)
		defer cancel()
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(f.concurrency)

	for _, sym := range symbols {
		sym := sym
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				f.metrics.RecordResync(sym, false)
				err = errors.Join(models.ErrQuoteUnavailable, err)
			} else {
				err = f.resyncOne(ctx, sym)
			}
			mu.Lock()
			if err != nil {
				report.Failed[sym] = err
			} else {
				report.Updated = append(report.Updated, sym)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Updated)
	return report
}

func (f *PriceFeed) resyncOne(ctx context.Context, sym string) error {
	qctx, cancel := context.WithTimeout(ctx, f.quoteTimeout)
	defer cancel()

	start := time.Now()
	q, err := f.quotes.GetQuote(qctx, sym)
	f.metrics.RecordLatency("quote", time.Since(start).Seconds())
	if err == nil && q.Price <= 0 {
		err = models.ErrInvalidPrice
	}
	if err != nil {
		f.metrics.RecordResync(sym, false)
		f.log.Warn("resync failed, keeping last price",
			logger.String("symbol", sym),
			logger.Error(err),
		)
		if errors.Is(err, models.ErrQuoteUnavailable) {
			return err
		}
		return errors.Join(models.ErrQuoteUnavailable, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// untracked while the quote was in flight
	if _, ok := f.tracked[sym]; !ok {
		return nil
	}
	f.instruments[sym] = models.Instrument{
		Symbol:       sym,
		Price:        q.Price,
		DisplayPrice: q.Price,
		ChangePct:    q.ChangePct,
		Volatility:   f.volatility,
		Currency:     q.Currency,
		UpdatedAt:    f.now(),
	}
	f.metrics.RecordResync(sym, true)
	return nil
}

// Snapshot returns a copy of every instrument with a quote.
func (f *PriceFeed) Snapshot() map[string]models.Instrument {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]models.Instrument, len(f.instruments))
	for k, v := range f.instruments {
		out[k] = v
	}
	return out
}

// Instruments returns the snapshot as a slice in tracking order.
func (f *PriceFeed) Instruments() []models.Instrument {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]models.Instrument, 0, len(f.instruments))
	for _, sym := range f.order {
		if inst, ok := f.instruments[sym]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// Instrument returns the current state of one symbol.
func (f *PriceFeed) Instrument(symbol string) (models.Instrument, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	inst, ok := f.instruments[NormalizeSymbol(symbol)]
	return inst, ok
}

// Tracked returns tracked symbols in the order they were added.
func (f *PriceFeed) Tracked() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.order...)
}
