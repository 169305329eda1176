package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"TradePilot/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFeed(q *fakeQuotes, g *gate, opts ...FeedOption) *PriceFeed {
	return NewPriceFeed(q, g, append([]FeedOption{WithQuoteTimeout(50 * time.Millisecond)}, opts...)...)
}

func TestTrackIsIdempotentAndResyncsImmediately(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 4000, 1.2)
	f := newTestFeed(q, &gate{open: true})

	require.NoError(t, f.Track(context.Background(), "tcs.ns"))
	require.NoError(t, f.Track(context.Background(), " TCS.NS "))

	assert.Equal(t, []string{"TCS.NS"}, f.Tracked())
	inst, ok := f.Instrument("TCS.NS")
	require.True(t, ok)
	assert.Equal(t, 4000.0, inst.Price)
	assert.Equal(t, 4000.0, inst.DisplayPrice)
	assert.Equal(t, 1.2, inst.ChangePct)
	assert.Equal(t, models.DefaultVolatility, inst.Volatility)
	assert.Equal(t, 2, q.calls["TCS.NS"])
}

func TestTrackFailureKeepsSymbolTracked(t *testing.T) {
	q := newFakeQuotes()
	f := newTestFeed(q, &gate{open: true})

	err := f.Track(context.Background(), "XYZ.NS")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
	assert.Equal(t, []string{"XYZ.NS"}, f.Tracked())
	_, ok := f.Instrument("XYZ.NS")
	assert.False(t, ok)

	q.set("XYZ.NS", 10, 0)
	report := f.Resync(context.Background())
	assert.Equal(t, []string{"XYZ.NS"}, report.Updated)
}

func TestTrackRejectsEmptySymbol(t *testing.T) {
	f := newTestFeed(newFakeQuotes(), &gate{})
	assert.ErrorIs(t, f.Track(context.Background(), "  "), models.ErrInvalidSymbol)
}

func TestTickRandomWalk(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 1000, 0)
	g := &gate{open: true}
	f := newTestFeed(q, g, WithFeedRand(&seq{vals: []float64{1.0, 0.0}}))
	require.NoError(t, f.Track(context.Background(), "TCS.NS"))

	require.True(t, f.Tick())
	inst, _ := f.Instrument("TCS.NS")
	assert.InDelta(t, 1000*(1+0.5*models.DefaultVolatility), inst.DisplayPrice, 1e-9)
	assert.Equal(t, 1000.0, inst.Price, "authoritative price is not touched by ticks")

	prev := inst.DisplayPrice
	require.True(t, f.Tick())
	inst, _ = f.Instrument("TCS.NS")
	assert.InDelta(t, prev*(1-0.5*models.DefaultVolatility), inst.DisplayPrice, 1e-9)
}

func TestTickBoundedPerStep(t *testing.T) {
	q := newFakeQuotes()
	q.set("INFY.NS", 1500, 0)
	f := newTestFeed(q, &gate{open: true})
	require.NoError(t, f.Track(context.Background(), "INFY.NS"))

	for i := 0; i < 200; i++ {
		before, _ := f.Instrument("INFY.NS")
		f.Tick()
		after, _ := f.Instrument("INFY.NS")
		bound := before.DisplayPrice * before.Volatility * 0.5
		assert.LessOrEqual(t, abs(after.DisplayPrice-before.DisplayPrice), bound+1e-12)
	}
}

func TestTickNoopWhenClosed(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 1000, 0)
	f := newTestFeed(q, &gate{open: false}, WithFeedRand(&seq{vals: []float64{1.0}}))
	require.NoError(t, f.Track(context.Background(), "TCS.NS"))

	assert.False(t, f.Tick())
	inst, _ := f.Instrument("TCS.NS")
	assert.Equal(t, 1000.0, inst.DisplayPrice)
}

func TestResyncResetsDisplayPrice(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 1000, 0)
	f := newTestFeed(q, &gate{open: true}, WithFeedRand(&seq{vals: []float64{1.0}}))
	require.NoError(t, f.Track(context.Background(), "TCS.NS"))
	f.Tick()

	q.set("TCS.NS", 1010, 1.0)
	report := f.Resync(context.Background())
	assert.Empty(t, report.Failed)

	inst, _ := f.Instrument("TCS.NS")
	assert.Equal(t, 1010.0, inst.Price)
	assert.Equal(t, 1010.0, inst.DisplayPrice)
	assert.Equal(t, 1.0, inst.ChangePct)
}

func TestResyncIsolatesFailures(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 1000, 0)
	q.set("INFY.NS", 1500, 0)
	q.set("HDFCBANK.NS", 1600, 0)
	f := newTestFeed(q, &gate{open: true})
	f.TrackAll(context.Background(), []string{"TCS.NS", "INFY.NS", "HDFCBANK.NS"})

	q.failWith("TCS.NS", errors.New("boom"))
	q.hang("INFY.NS")
	q.set("HDFCBANK.NS", 1650, 3.1)

	start := time.Now()
	report := f.Resync(context.Background())
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, []string{"HDFCBANK.NS"}, report.Updated)
	require.Len(t, report.Failed, 2)
	assert.ErrorIs(t, report.Failed["TCS.NS"], models.ErrQuoteUnavailable)
	assert.ErrorIs(t, report.Failed["INFY.NS"], models.ErrQuoteUnavailable)

	snap := f.Snapshot()
	assert.Equal(t, 1000.0, snap["TCS.NS"].Price, "stale but present")
	assert.Equal(t, 1500.0, snap["INFY.NS"].Price)
	assert.Equal(t, 1650.0, snap["HDFCBANK.NS"].Price)
}

func TestSnapshotIsACopy(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 1000, 0)
	f := newTestFeed(q, &gate{open: true})
	require.NoError(t, f.Track(context.Background(), "TCS.NS"))

	snap := f.Snapshot()
	inst := snap["TCS.NS"]
	inst.DisplayPrice = 1
	snap["TCS.NS"] = inst
	delete(snap, "TCS.NS")

	got, ok := f.Instrument("TCS.NS")
	require.True(t, ok)
	assert.Equal(t, 1000.0, got.DisplayPrice)
}

func TestUntrack(t *testing.T) {
	q := newFakeQuotes()
	q.set("TCS.NS", 1000, 0)
	q.set("INFY.NS", 1500, 0)
	f := newTestFeed(q, &gate{open: true})
	f.TrackAll(context.Background(), []string{"TCS.NS", "INFY.NS"})

	f.Untrack("tcs.ns")
	assert.Equal(t, []string{"INFY.NS"}, f.Tracked())
	assert.Len(t, f.Instruments(), 1)
}

func TestConcurrentTickResyncSnapshot(t *testing.T) {
	q := newFakeQuotes()
	for _, s := range []string{"A.NS", "B.NS", "C.NS"} {
		q.set(s, 100, 0)
	}
	f := newTestFeed(q, &gate{open: true})
	f.TrackAll(context.Background(), []string{"A.NS", "B.NS", "C.NS"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			f.Tick()
		}
	}()
	for i := 0; i < 20; i++ {
		f.Resync(context.Background())
		for _, inst := range f.Snapshot() {
			assert.Greater(t, inst.DisplayPrice, 0.0)
		}
	}
	<-done
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestResyncPassIsBounded(t *testing.T) {
	q := newFakeQuotes()
	symbols := []string{"A.NS", "B.NS", "C.NS", "TCS.NS"}
	for _, s := range symbols {
		q.set(s, 100, 0)
	}
	f := newTestFeed(q, &gate{open: true},
		WithQuoteTimeout(time.Second),
		WithResyncConcurrency(1),
		WithResyncBudget(150*time.Millisecond),
	)
	f.TrackAll(context.Background(), symbols)

	q.hang("A.NS")
	q.hang("B.NS")
	q.hang("C.NS")

	start := time.Now()
	report := f.Resync(context.Background())
	assert.Less(t, time.Since(start), 900*time.Millisecond)

	assert.Len(t, report.Failed, 4)
	for _, s := range symbols {
		assert.ErrorIs(t, report.Failed[s], models.ErrQuoteUnavailable, s)
	}
	assert.Equal(t, 100.0, f.Snapshot()["TCS.NS"].Price, "last good state kept")
}
