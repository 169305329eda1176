package middleware

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/pkg/logger"
)

// TradePipeline sits between the session and the trade event sink. It validates trades
// and, when the sink is unavailable, buffers them and retries in order with exponential backoff.
type TradePipeline struct {
	next    domrepo.TradePublisher
	metrics domrepo.Metrics
	log     *logger.Logger

	bufSize        int
	bufCh          chan models.Trade
	pending        atomic.Int64
	backoffMin     time.Duration
	backoffMax     time.Duration
	attemptTimeout time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

type PipelineOption func(*TradePipeline)

// WithBufferSize sets how many trades are held while the sink is down.
func WithBufferSize(n int) PipelineOption {
	return func(p *TradePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithBackoff bounds the delay between redelivery attempts.
func WithBackoff(min, max time.Duration) PipelineOption {
	return func(p *TradePipeline) {
		if min > 0 && max >= min {
			p.backoffMin, p.backoffMax = min, max
		}
	}
}

func WithAttemptTimeout(d time.Duration) PipelineOption {
	return func(p *TradePipeline) {
		if d > 0 {
			p.attemptTimeout = d
		}
	}
}

func NewTradePipeline(next domrepo.TradePublisher, metrics domrepo.Metrics, log *logger.Logger, opts ...PipelineOption) *TradePipeline {
	p := &TradePipeline{
		next:           next,
		metrics:        metrics,
		log:            log.Component("trade_pipeline"),
		bufSize:        1000,
		backoffMin:     50 * time.Millisecond,
		backoffMax:     2 * time.Second,
		attemptTimeout: 5 * time.Second,
		stopCh:         make(chan struct{}),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan models.Trade, p.bufSize)
	return p
}

// Start launches redelivery of buffered trades.
func (p *TradePipeline) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	go p.redeliver()
}

func (p *TradePipeline) redeliver() {
	defer close(p.done)
	for {
		select {
		case <-p.stopCh:
			return
		case t := <-p.bufCh:
			backoff := p.backoffMin
			for {
				if err := p.send(t); err == nil {
					p.pending.Add(-1)
					p.recordDepth()
					p.log.Info("buffered trade delivered", logger.String("trade_id", t.ID))
					break
				}
				p.metrics.RecordError("pipeline_redeliver")
				select {
				case <-p.stopCh:
					p.requeue(t)
					return
				case <-time.After(backoff):
				}
				if backoff *= 2; backoff > p.backoffMax {
					backoff = p.backoffMax
				}
			}
		}
	}
}

func (p *TradePipeline) send(t models.Trade) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.attemptTimeout)
	defer cancel()
	return p.next.Publish(ctx, t)
}

func (p *TradePipeline) requeue(t models.Trade) {
	select {
	case p.bufCh <- t:
	default:
		p.pending.Add(-1)
		p.recordDepth()
		p.metrics.RecordError("pipeline_buffer_drop")
	}
}

func (p *TradePipeline) recordDepth() {
	p.metrics.RecordQueueDepth("trade_pipeline", int(p.pending.Load()))
}

// Publish validates t and forwards it. A failed send is buffered for redelivery and is not
// reported as an error; only a full buffer is.
func (p *TradePipeline) Publish(ctx context.Context, t models.Trade) error {
	start := time.Now()
	if err := validateTrade(t); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	// keep order behind anything already waiting
	if p.pending.Load() == 0 {
		err := p.next.Publish(ctx, t)
		if err == nil {
			p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
			return nil
		}
		p.metrics.RecordError("pipeline_publish")
		p.log.Warn("trade sink unavailable, buffering", logger.String("trade_id", t.ID), logger.Error(err))
	}

	p.pending.Add(1)
	select {
	case p.bufCh <- t:
		p.recordDepth()
		return nil
	default:
		p.pending.Add(-1)
		p.metrics.RecordError("pipeline_buffer_full")
		return fmt.Errorf("trade pipeline: buffer full, dropped %s", t.ID)
	}
}

// Pending is the number of trades waiting for redelivery.
func (p *TradePipeline) Pending() int { return int(p.pending.Load()) }

// Close stops redelivery, makes one last attempt to flush the buffer and closes the sink.
func (p *TradePipeline) Close() error {
	p.mu.Lock()
	started := p.started
	p.started = false
	p.mu.Unlock()

	if started {
		close(p.stopCh)
		<-p.done
	}

	for n := len(p.bufCh); n > 0; n-- {
		t := <-p.bufCh
		p.pending.Add(-1)
		p.recordDepth()
		if err := p.send(t); err != nil {
			p.log.Error("dropping undelivered trade", logger.String("trade_id", t.ID), logger.Error(err))
		}
	}
	return p.next.Close()
}

func validateTrade(t models.Trade) error {
	switch {
	case t.ID == "":
		return fmt.Errorf("trade id empty")
	case t.Symbol == "":
		return fmt.Errorf("symbol empty")
	case !t.Action.Valid():
		return fmt.Errorf("invalid action %q", t.Action)
	case t.Qty <= 0:
		return fmt.Errorf("invalid qty %d", t.Qty)
	case t.Price <= 0:
		return fmt.Errorf("invalid price %.2f", t.Price)
	case t.Timestamp.IsZero():
		return fmt.Errorf("timestamp missing")
	}
	return nil
}
