package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"TradePilot/internal/domain/models"
)

type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]models.Quote
	fail   map[string]error
	block  map[string]bool
	calls  map[string]int
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		prices: make(map[string]models.Quote),
		fail:   make(map[string]error),
		block:  make(map[string]bool),
		calls:  make(map[string]int),
	}
}

func (f *fakeQuotes) set(sym string, price, changePct float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[sym] = models.Quote{Symbol: sym, Price: price, ChangePct: changePct, Currency: "INR"}
	delete(f.fail, sym)
}

func (f *fakeQuotes) failWith(sym string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[sym] = err
}

func (f *fakeQuotes) hang(sym string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block[sym] = true
}

func (f *fakeQuotes) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	f.calls[symbol]++
	block := f.block[symbol]
	err := f.fail[symbol]
	q, ok := f.prices[symbol]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return models.Quote{}, ctx.Err()
	}
	if err != nil {
		return models.Quote{}, err
	}
	if !ok {
		return models.Quote{}, errors.New("no data")
	}
	return q, nil
}

func (f *fakeQuotes) Search(_ context.Context, query string) ([]models.SearchResult, error) {
	return []models.SearchResult{{Symbol: query + ".NS", ShortName: query, Exchange: "NSI"}}, nil
}

func (f *fakeQuotes) History(_ context.Context, symbol, _ string) ([]models.HistoryPoint, error) {
	return []models.HistoryPoint{{Time: 1, Price: 10}, {Time: 2, Price: 11}}, nil
}

type gate struct{ open bool }

func (g *gate) IsOpen(time.Time) bool { return g.open }

// seq returns the configured draws in order, repeating the last one.
type seq struct {
	vals []float64
	i    int
}

func (s *seq) Float64() float64 {
	v := s.vals[s.i]
	if s.i < len(s.vals)-1 {
		s.i++
	}
	return v
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
