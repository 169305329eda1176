package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"TradePilot/internal/domain/models"
	"TradePilot/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct{}

func (staticSource) Quotes() []models.Instrument {
	return []models.Instrument{
		{Symbol: "TCS.NS", DisplayPrice: 4000},
		{Symbol: "INFY.NS", DisplayPrice: 1500},
	}
}

func (staticSource) Status() models.MarketStatus {
	return models.MarketStatus{Status: models.StatusClosedWeekend, Text: models.StatusClosedWeekend.Text()}
}

func dial(t *testing.T, h *PriceStreamHandler) *websocket.Conn {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/prices"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) PriceFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f PriceFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestStreamPushesSnapshot(t *testing.T) {
	conn := dial(t, NewPriceStreamHandler(logger.Nop(), staticSource{}, 20*time.Millisecond))

	f := readFrame(t, conn)
	assert.Equal(t, "prices", f.Type)
	assert.Equal(t, "MARKET CLOSED (Weekend)", f.Market.Text)
	assert.Len(t, f.Instruments, 2)
}

// waitFrame reads frames until match holds; earlier frames may predate a control message.
func waitFrame(t *testing.T, conn *websocket.Conn, match func(PriceFrame) bool) PriceFrame {
	t.Helper()
	for i := 0; i < 50; i++ {
		if f := readFrame(t, conn); match(f) {
			return f
		}
	}
	t.Fatal("no matching frame")
	return PriceFrame{}
}

func TestStreamSubscribeFilters(t *testing.T) {
	conn := dial(t, NewPriceStreamHandler(logger.Nop(), staticSource{}, 20*time.Millisecond))
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "subscribe", Symbols: []string{"infy.ns"}}))
	f := waitFrame(t, conn, func(f PriceFrame) bool { return len(f.Instruments) == 1 })
	assert.Equal(t, "INFY.NS", f.Instruments[0].Symbol)

	require.NoError(t, conn.WriteJSON(controlMessage{Action: "unsubscribe"}))
	waitFrame(t, conn, func(f PriceFrame) bool { return len(f.Instruments) == 2 })
}

func TestStreamCountsClients(t *testing.T) {
	h := NewPriceStreamHandler(logger.Nop(), staticSource{}, 20*time.Millisecond)
	conn := dial(t, h)
	readFrame(t, conn)
	assert.Equal(t, 1, h.Clients())

	conn.Close()
	require.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamInitialSymbolsFromQuery(t *testing.T) {
	e := echo.New()
	NewPriceStreamHandler(logger.Nop(), staticSource{}, time.Second).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/prices?symbols=tcs.ns&interval_ms=300"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	f := readFrame(t, conn)
	require.Len(t, f.Instruments, 1)
	assert.Equal(t, "TCS.NS", f.Instruments[0].Symbol)
}
