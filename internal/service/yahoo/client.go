package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TradePilot/internal/domain/models"
	"TradePilot/internal/service/cache"
	"TradePilot/internal/service/ratelimit"
	xhttp "TradePilot/pkg/http"
	"TradePilot/pkg/util"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	rateKey        = "yahoo"
	searchQuotes   = "6"
)

// intervals maps a history range to the candle interval requested from Yahoo.
var intervals = map[string]string{
	"1d":  "5m",
	"5d":  "30m",
	"1mo": "1d",
	"1y":  "1wk",
}

// exchanges accepted by Search. Yahoo reports NSE as NSI and BSE as BOM.
var exchanges = map[string]bool{"NSI": true, "NSE": true, "BSE": true, "BOM": true}

// Option configures Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit bounds outbound requests with a shared token bucket.
func WithRateLimit(capacity int, perSec float64) Option {
	return func(c *Client) { c.limiter = ratelimit.New(capacity, perSec) }
}

// WithCacheTTL caches search and history responses. Quotes are never cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.cacheTTL = ttl }
}

// Client implements repository.QuoteSource against the public Yahoo Finance endpoints.
type Client struct {
	http     *xhttp.Client
	baseURL  string
	limiter  *ratelimit.Limiter
	cacheTTL time.Duration
	searches *cache.TTLCache[[]models.SearchResult]
	history  *cache.TTLCache[[]models.HistoryPoint]
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		cacheTTL: 5 * time.Second,
		searches: cache.NewTTLCache[[]models.SearchResult](),
		history:  cache.NewTTLCache[[]models.HistoryPoint](),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(5*time.Second), xhttp.WithUserAgent("Mozilla/5.0"))
	}
	return c
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// GetQuote returns the latest regular-market price. Failures wrap models.ErrQuoteUnavailable.
func (c *Client) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	res, err := c.chart(ctx, symbol, "1d", "1d")
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: %s: %v", models.ErrQuoteUnavailable, symbol, err)
	}
	if res.Meta.RegularMarketPrice == nil {
		return models.Quote{}, fmt.Errorf("%w: %s: no price data found", models.ErrQuoteUnavailable, symbol)
	}

	price := *res.Meta.RegularMarketPrice
	q := models.Quote{
		Symbol:   strings.ToUpper(symbol),
		Price:    price,
		Currency: res.Meta.Currency,
	}
	if prev := res.Meta.ChartPreviousClose; prev != nil && *prev > 0 {
		change := price - *prev
		q.Change = util.Round2(change)
		q.ChangePct = util.Round2(change / *prev * 100)
	}
	return q, nil
}

// Search returns NSE/BSE listed matches for query. Queries shorter than two characters match nothing.
func (c *Client) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []models.SearchResult{}, nil
	}
	key := strings.ToLower(query)
	if v, ok := c.searches.Get(key); ok {
		return v, nil
	}

	var resp searchResponse
	err := c.get(ctx, "/v1/finance/search", map[string][]string{
		"q":           {query},
		"quotesCount": {searchQuotes},
		"newsCount":   {"0"},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	results := make([]models.SearchResult, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if !exchanges[q.Exchange] && !strings.HasSuffix(q.Symbol, ".NS") && !strings.HasSuffix(q.Symbol, ".BO") {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		if name == "" {
			name = q.Symbol
		}
		results = append(results, models.SearchResult{
			Symbol:    q.Symbol,
			ShortName: name,
			Exchange:  q.Exchange,
			Type:      q.QuoteType,
		})
	}

	c.searches.Set(key, results, c.cacheTTL)
	return results, nil
}

// History returns closes for rng (1d, 5d, 1mo, 1y) oldest first. Gaps in the series are dropped.
func (c *Client) History(ctx context.Context, symbol, rng string) ([]models.HistoryPoint, error) {
	if rng == "" {
		rng = "1d"
	}
	interval, ok := intervals[rng]
	if !ok {
		interval = "1d"
	}
	key := strings.ToUpper(symbol) + "|" + rng
	if v, ok := c.history.Get(key); ok {
		return v, nil
	}

	res, err := c.chart(ctx, symbol, rng, interval)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}

	var closes []*float64
	if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}
	points := make([]models.HistoryPoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, models.HistoryPoint{Time: ts, Price: util.Round2(*closes[i])})
	}

	c.history.Set(key, points, c.cacheTTL)
	return points, nil
}

func (c *Client) chart(ctx context.Context, symbol, rng, interval string) (*chartResult, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, models.ErrInvalidSymbol
	}

	var resp chartResponse
	err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), map[string][]string{
		"range":    {rng},
		"interval": {interval},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: empty chart result")
	}
	return &resp.Chart.Result[0], nil
}

func (c *Client) get(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rateKey); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	return c.http.GetJSON(ctx, c.baseURL+path, query, dest)
}
