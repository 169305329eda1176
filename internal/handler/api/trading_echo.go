package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"TradePilot/internal/domain/models"
	domrepo "TradePilot/internal/domain/repository"
	"TradePilot/internal/usecase"
	xhttp "TradePilot/pkg/http"
	xlogger "TradePilot/pkg/logger"
	"TradePilot/pkg/util"

	"github.com/labstack/echo/v4"
)

// TradingService is the session API the handlers drive. *usecase.Session implements it.
type TradingService interface {
	Status() models.MarketStatus
	Quotes() []models.Instrument
	Watchlist() []string
	Track(ctx context.Context, symbol string) (models.Instrument, error)
	Untrack(ctx context.Context, symbol string) error
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	History(ctx context.Context, symbol, rng string) ([]models.HistoryPoint, error)
	Preview(action models.Action, symbol string, qty int) (models.TradePreview, error)
	ExecuteTrade(ctx context.Context, cmd usecase.TradeCommand) (models.TradeReceipt, error)
	Portfolio() models.PortfolioView
	Advice(query, symbol string) models.Advice
	MarketAdvice() models.MarketAdvice
	Sentiment(symbol string) (models.Sentiment, error)
}

// TradingEchoHandler serves the paper-trading REST API.
type TradingEchoHandler struct {
	logger  *xlogger.Logger
	svc     TradingService
	journal domrepo.TradeJournal
	loc     *time.Location
}

// NewTradingEchoHandler builds the handler. journal may be nil when the ClickHouse journal is disabled.
func NewTradingEchoHandler(logger *xlogger.Logger, svc TradingService, journal domrepo.TradeJournal, loc *time.Location) *TradingEchoHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TradingEchoHandler{logger: logger.Component("api"), svc: svc, journal: journal, loc: loc}
}

func (h *TradingEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market/status", h.MarketStatus)
	g.GET("/quotes", h.Quotes)
	g.GET("/watchlist", h.Watchlist)
	g.POST("/watchlist", h.Track)
	g.DELETE("/watchlist/:symbol", h.Untrack)
	g.GET("/search", h.Search)
	g.GET("/history", h.History)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/trades/preview", h.Preview)
	g.POST("/trades", h.ExecuteTrade)
	g.GET("/portfolio", h.Portfolio)
	g.POST("/advice", h.Advice)
	g.GET("/advice/market", h.MarketAdvice)
	g.GET("/journal", h.Journal)
}

func (h *TradingEchoHandler) MarketStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Status())
}

func (h *TradingEchoHandler) Quotes(c echo.Context) error {
	rows := h.svc.Quotes()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *TradingEchoHandler) Watchlist(c echo.Context) error {
	rows := h.svc.Watchlist()
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *TradingEchoHandler) Track(c echo.Context) error {
	req := &models.TrackRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	inst, err := h.svc.Track(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Warn("track failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.CreatedResponse(c, inst)
}

func (h *TradingEchoHandler) Untrack(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.svc.Untrack(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("untrack failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, h.svc.Watchlist())
}

func (h *TradingEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.Search(c.Request().Context(), req.Q)
	if err != nil {
		h.logger.Warn("search failed", xlogger.String("q", req.Q), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("search is unavailable").WithError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *TradingEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.History(c.Request().Context(), req.Symbol, req.Range)
	if err != nil {
		h.logger.Warn("history failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("history is unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *TradingEchoHandler) Sentiment(c echo.Context) error {
	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Sentiment(req.Symbol)
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *TradingEchoHandler) Preview(c echo.Context) error {
	req := &models.PreviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Preview(models.Action(req.Action), req.Symbol, req.Qty)
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *TradingEchoHandler) ExecuteTrade(c echo.Context) error {
	req := &models.TradeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	receipt, err := h.svc.ExecuteTrade(c.Request().Context(), usecase.TradeCommand{
		Action: models.Action(req.Action),
		Symbol: req.Symbol,
		Qty:    req.Qty,
		PIN:    req.PIN,
	})
	if err != nil {
		return xhttp.AppErrorResponse(c, mapError(err))
	}
	return xhttp.CreatedResponse(c, receipt)
}

func (h *TradingEchoHandler) Portfolio(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Portfolio())
}

func (h *TradingEchoHandler) Advice(c echo.Context) error {
	req := &models.AdviceRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.svc.Advice(req.Query, req.Symbol))
}

func (h *TradingEchoHandler) MarketAdvice(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.MarketAdvice())
}

// Journal lists trades from the ClickHouse journal. The range defaults to the last 7 days.
func (h *TradingEchoHandler) Journal(c echo.Context) error {
	if h.journal == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("trade journal is disabled"))
	}
	req := &models.JournalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	to := util.ParseTimeDefault(req.To, h.loc, now)
	from := util.ParseTimeDefault(req.From, h.loc, to.Add(-7*24*time.Hour))
	if from.After(to) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_INVALID_RANGE", "from", "from must not be after to", http.StatusBadRequest))
	}

	rows, err := h.journal.Query(c.Request().Context(), usecase.NormalizeSymbol(req.Symbol), from, to, req.Limit)
	if err != nil {
		h.logger.Error("journal query failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("trade journal is unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// mapError turns domain errors into API errors; anything unknown becomes a 500.
func mapError(err error) error {
	for _, m := range []struct {
		err    error
		code   string
		field  string
		status int
	}{
		{models.ErrMarketClosed, "ERR_MARKET_CLOSED", "", http.StatusConflict},
		{models.ErrInsufficientBalance, "ERR_INSUFFICIENT_BALANCE", "qty", http.StatusUnprocessableEntity},
		{models.ErrInsufficientShares, "ERR_INSUFFICIENT_SHARES", "qty", http.StatusUnprocessableEntity},
		{models.ErrInvalidQuantity, "ERR_INVALID_QUANTITY", "qty", http.StatusBadRequest},
		{models.ErrInvalidAction, "ERR_INVALID_ACTION", "action", http.StatusBadRequest},
		{models.ErrInvalidSymbol, "ERR_INVALID_SYMBOL", "symbol", http.StatusBadRequest},
		{models.ErrInvalidPIN, "ERR_INVALID_PIN", "pin", http.StatusUnauthorized},
		{models.ErrQuoteUnavailable, "ERR_QUOTE_UNAVAILABLE", "symbol", http.StatusServiceUnavailable},
	} {
		if errors.Is(err, m.err) {
			return xhttp.NewAppError(m.code, m.field, userMessage(m.err), m.status).WithError(err)
		}
	}
	return err
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrMarketClosed):
		return "Cannot trade while market is closed."
	case errors.Is(err, models.ErrInsufficientBalance):
		return "Insufficient Balance!"
	case errors.Is(err, models.ErrInsufficientShares):
		return "Insufficient Shares!"
	case errors.Is(err, models.ErrInvalidQuantity):
		return "Enter a valid quantity first!"
	case errors.Is(err, models.ErrInvalidPIN):
		return "Invalid Security PIN!"
	case errors.Is(err, models.ErrQuoteUnavailable):
		return "No live price for this symbol yet."
	default:
		return err.Error()
	}
}
