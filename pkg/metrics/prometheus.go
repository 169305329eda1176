package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	ticks         *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	resyncs       *prometheus.CounterVec
	trades        *prometheus.CounterVec
	tradeRejected *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	queueDepth    *prometheus.GaugeVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_ticks_total",
				Help: "Simulated price ticks applied per symbol",
			},
			[]string{"symbol"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepilot_display_price",
				Help: "Last simulated display price for a symbol",
			},
			[]string{"symbol"},
		),
		resyncs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_resyncs_total",
				Help: "Authoritative quote resyncs by outcome",
			},
			[]string{"symbol", "ok"},
		),
		trades: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_trades_total",
				Help: "Executed paper trades",
			},
			[]string{"action", "symbol"},
		),
		tradeRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_trades_rejected_total",
				Help: "Rejected trades by reason",
			},
			[]string{"reason"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepilot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepilot_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		queueDepth: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradepilot_queue_depth",
				Help: "Items waiting in an internal buffer",
			},
			[]string{"queue"},
		),
	}
}

func (r *Recorder) RecordTick(symbol string, price float64) {
	r.ticks.WithLabelValues(symbol).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordResync(symbol string, ok bool) {
	r.resyncs.WithLabelValues(symbol, strconv.FormatBool(ok)).Inc()
}

func (r *Recorder) RecordTrade(action, symbol string) {
	r.trades.WithLabelValues(action, symbol).Inc()
}

func (r *Recorder) RecordTradeRejected(reason string) {
	r.tradeRejected.WithLabelValues(reason).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordQueueDepth(queue string, depth int) {
	r.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) RecordTick(string, float64)    {}
func (Nop) RecordResync(string, bool)     {}
func (Nop) RecordTrade(string, string)    {}
func (Nop) RecordTradeRejected(string)    {}
func (Nop) RecordError(string)            {}
func (Nop) RecordLatency(string, float64) {}
func (Nop) RecordQueueDepth(string, int)  {}
