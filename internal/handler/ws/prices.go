// Package ws streams live simulated prices over WebSocket.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"TradePilot/internal/domain/models"
	xlogger "TradePilot/pkg/logger"
	"TradePilot/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	minInterval    = 250 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// PriceSource is the read side of the session the stream needs.
type PriceSource interface {
	Quotes() []models.Instrument
	Status() models.MarketStatus
}

// PriceFrame is one push to the client.
type PriceFrame struct {
	Type        string              `json:"type"`
	Market      models.MarketStatus `json:"market"`
	Instruments []models.Instrument `json:"instruments"`
	Timestamp   int64               `json:"ts"`
}

// controlMessage narrows the stream: {"action":"subscribe","symbols":["TCS.NS"]}.
// An empty subscribe or "unsubscribe" restores the full watchlist.
type controlMessage struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols,omitempty"`
}

type PriceStreamHandler struct {
	log      *xlogger.Logger
	source   PriceSource
	interval time.Duration
	clients  atomic.Int64
}

func NewPriceStreamHandler(log *xlogger.Logger, source PriceSource, interval time.Duration) *PriceStreamHandler {
	if interval <= 0 {
		interval = time.Second
	}
	return &PriceStreamHandler{log: log.Component("ws"), source: source, interval: interval}
}

func (h *PriceStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/prices", h.Stream)
}

// Clients is the number of connected streams.
func (h *PriceStreamHandler) Clients() int { return int(h.clients.Load()) }

// Stream serves GET /ws/prices. symbols=A,B narrows the stream and interval_ms overrides
// the push interval.
func (h *PriceStreamHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}

	interval := h.interval
	if ms := util.ParseIntDefault(c.QueryParam("interval_ms"), 0); ms > 0 {
		interval = max(time.Duration(ms)*time.Millisecond, minInterval)
	}

	cl := &client{conn: conn, interval: interval, done: make(chan struct{})}
	if symbols := c.QueryParam("symbols"); symbols != "" {
		cl.subscribe(strings.Split(symbols, ","))
	}
	h.clients.Add(1)
	h.log.Debug("price stream opened", xlogger.String("remote", c.RealIP()))

	go h.readPump(cl)
	h.writePump(cl)

	h.clients.Add(-1)
	h.log.Debug("price stream closed", xlogger.String("remote", c.RealIP()))
	return nil
}

type client struct {
	conn      *websocket.Conn
	interval  time.Duration
	mu        sync.RWMutex
	symbols   map[string]bool
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) subscribe(symbols []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(symbols) == 0 {
		c.symbols = nil
		return
	}
	c.symbols = make(map[string]bool, len(symbols))
	for _, s := range symbols {
		c.symbols[strings.ToUpper(strings.TrimSpace(s))] = true
	}
}

func (c *client) filter(in []models.Instrument) []models.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.symbols == nil {
		return in
	}
	out := make([]models.Instrument, 0, len(c.symbols))
	for _, inst := range in {
		if c.symbols[inst.Symbol] {
			out = append(out, inst)
		}
	}
	return out
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (h *PriceStreamHandler) readPump(c *client) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("price stream read error", xlogger.Error(err))
			}
			return
		}

		var ctrl controlMessage
		if err := json.Unmarshal(message, &ctrl); err != nil {
			h.log.Debug("invalid control message", xlogger.Error(err))
			continue
		}
		switch ctrl.Action {
		case "subscribe":
			c.subscribe(ctrl.Symbols)
		case "unsubscribe":
			c.subscribe(nil)
		}
	}
}

func (h *PriceStreamHandler) writePump(c *client) {
	push := time.NewTicker(c.interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		push.Stop()
		ping.Stop()
		c.close()
	}()

	if err := h.send(c); err != nil {
		return
	}
	for {
		select {
		case <-push.C:
			if err := h.send(c); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (h *PriceStreamHandler) send(c *client) error {
	frame := PriceFrame{
		Type:        "prices",
		Market:      h.source.Status(),
		Instruments: c.filter(h.source.Quotes()),
		Timestamp:   time.Now().Unix(),
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}
