package logger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, _ string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func (p *capturePublisher) entries() []AggregatedLogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AggregatedLogEntry
	for _, b := range p.batches {
		out = append(out, b...)
	}
	return out
}

func TestCollectorDeduplicatesErrors(t *testing.T) {
	pub := &capturePublisher{}
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("resync failed", String("symbol", "TCS.NS"), Error(errors.New("timeout")))
	}
	l.RemoveCollector()

	got := pub.entries()
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Count)
	assert.Equal(t, "resync failed", got[0].Message)
	assert.Equal(t, "TCS.NS", got[0].Fields["symbol"])
}

func TestComponentLoggerTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.InfoLevel).Component("feed")
	l.Info("tick", Float64("price", 101.5))
	l.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"component":"feed"`)
	assert.Contains(t, out, `"price":101.5`)
	assert.NotContains(t, out, "hidden")
}

func TestComponentCreatedBeforeCollectorPublishes(t *testing.T) {
	pub := &capturePublisher{}
	root := NewWithWriter(&bytes.Buffer{}, zerolog.DebugLevel)
	early := root.Component("scheduler")

	root.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	early.Error("job failed", String("job", "resync"))
	root.RemoveCollector()

	got := pub.entries()
	require.Len(t, got, 1)
	assert.Equal(t, "job failed", got[0].Message)
}

func TestRemoveCollectorOnChildDetachesAll(t *testing.T) {
	pub := &capturePublisher{}
	root := NewWithWriter(&bytes.Buffer{}, zerolog.DebugLevel)
	sibling := root.Component("pipeline")
	app := root.Component("app")

	root.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	sibling.Error("dropping undelivered trade")
	app.RemoveCollector()

	assert.Nil(t, root.ref.get())
	assert.Nil(t, sibling.ref.get())
	require.Len(t, pub.entries(), 1)

	sibling.Error("after removal")
	assert.Len(t, pub.entries(), 1)
}
