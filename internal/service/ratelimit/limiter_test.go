package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowRefills(t *testing.T) {
	now := time.Date(2025, 1, 28, 10, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("yahoo"))
	assert.True(t, l.Allow("yahoo"))
	assert.False(t, l.Allow("yahoo"))
	// buckets are per key
	assert.True(t, l.Allow("other"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("yahoo"))
	assert.False(t, l.Allow("yahoo"))
}

func TestWaitHonoursContext(t *testing.T) {
	l := New(1, 0.001)
	assert.True(t, l.Allow("k"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx, "k"), context.DeadlineExceeded)
}

func TestWaitReturnsWhenTokenAvailable(t *testing.T) {
	l := New(1, 1000)
	assert.NoError(t, l.Wait(context.Background(), "k"))
	assert.NoError(t, l.Wait(context.Background(), "k"))
}
