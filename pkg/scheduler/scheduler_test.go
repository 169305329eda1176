package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePilot/pkg/logger"
)

func TestEveryRunsJob(t *testing.T) {
	s := New(logger.Nop())
	var n atomic.Int32
	require.NoError(t, s.Every(time.Second, JobFunc{JobName: "count", Fn: func(context.Context) error {
		n.Add(1)
		return nil
	}}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return n.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestStopCancelsJobContext(t *testing.T) {
	s := New(logger.Nop())
	started := make(chan struct{})
	var cancelled atomic.Bool

	require.NoError(t, s.Every(time.Second, JobFunc{JobName: "block", Fn: func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}}))
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}
	s.Stop()
	assert.True(t, cancelled.Load())
}

func TestRunNowReturnsError(t *testing.T) {
	s := New(logger.Nop())
	want := errors.New("boom")
	err := s.RunNow(JobFunc{JobName: "fail", Fn: func(context.Context) error { return want }})
	assert.ErrorIs(t, err, want)
}

func TestRejectsBadSchedules(t *testing.T) {
	s := New(logger.Nop())
	job := JobFunc{JobName: "noop", Fn: func(context.Context) error { return nil }}
	assert.Error(t, s.AddJob("not a schedule", job))
	assert.Error(t, s.Every(0, job))
}
