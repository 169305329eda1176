package usecase

import (
	"sync"

	"TradePilot/internal/domain/models"
)

// watchlist is the ordered, de-duplicated set of saved symbols.
type watchlist struct {
	mu      sync.RWMutex
	symbols []string
}

func newWatchlist(symbols []string) *watchlist {
	w := &watchlist{}
	for _, s := range symbols {
		w.add(s)
	}
	return w
}

func (w *watchlist) add(symbol string) bool {
	sym := NormalizeSymbol(symbol)
	if sym == "" {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.symbols {
		if s == sym {
			return false
		}
	}
	w.symbols = append(w.symbols, sym)
	return true
}

func (w *watchlist) remove(symbol string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.symbols {
		if s == symbol {
			w.symbols = append(w.symbols[:i:i], w.symbols[i+1:]...)
			return true
		}
	}
	return false
}

func (w *watchlist) contains(symbol string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, s := range w.symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

func (w *watchlist) list() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]string(nil), w.symbols...)
}

// valueHistory keeps the most recent limit portfolio values.
type valueHistory struct {
	mu     sync.Mutex
	limit  int
	values []models.ValuePoint
}

func newValueHistory(limit int) *valueHistory {
	return &valueHistory{limit: limit}
}

// add appends p, drops the oldest points beyond the limit and returns a copy.
func (h *valueHistory) add(p models.ValuePoint) []models.ValuePoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, p)
	if over := len(h.values) - h.limit; over > 0 {
		h.values = append([]models.ValuePoint(nil), h.values[over:]...)
	}
	return append([]models.ValuePoint(nil), h.values...)
}

func (h *valueHistory) replace(points []models.ValuePoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if over := len(points) - h.limit; over > 0 {
		points = points[over:]
	}
	h.values = append([]models.ValuePoint(nil), points...)
}

func (h *valueHistory) points() []models.ValuePoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.ValuePoint{}, h.values...)
}
