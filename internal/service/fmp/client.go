package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"MarketRadar/internal/domain/models"
	drepo "MarketRadar/internal/domain/repository"
	"MarketRadar/internal/service/ratelimit"
	xhttp "MarketRadar/pkg/http"
	applogger "MarketRadar/pkg/logger"
	"MarketRadar/pkg/util"
)

// Client is a thin REST client for Financial Modeling Prep. It injects the
// API key and gates every call through a shared sliding-window rate limiter.
type Client struct {
	apiKey  string
	baseURL string
	limiter *ratelimit.SlidingWindow
	http    *xhttp.Client
	l       *applogger.Logger
}

// New creates a Client. The limiter is shared across all ingestion workers.
func New(apiKey, baseURL string, limiter *ratelimit.SlidingWindow, timeout time.Duration, l *applogger.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("fmp: api key is not set (config fmp.api_key or env FMP_API_KEY)")
	}
	if baseURL == "" {
		baseURL = "https://financialmodelingprep.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		limiter: limiter,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		l:       l,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params map[string][]string, dest interface{}) error {
	if err := c.limiter.Acquire(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	query := map[string][]string{"apikey": {c.apiKey}}
	for k, v := range params {
		query[k] = v
	}

	return c.http.GetJSON(ctx, c.baseURL+path, query, dest)
}

type constituent struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sector    string `json:"sector"`
	SubSector string `json:"subSector"`
}

// Constituents returns the current S&P 500 universe.
func (c *Client) Constituents(ctx context.Context) ([]models.UniverseMember, error) {
	var raw []constituent
	if err := c.get(ctx, "/stable/sp500-constituent", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}

	out := make([]models.UniverseMember, 0, len(raw))
	for _, r := range raw {
		if r.Symbol == "" {
			continue
		}
		out = append(out, models.UniverseMember{
			Symbol:    r.Symbol,
			Name:      r.Name,
			Sector:    r.Sector,
			SubSector: r.SubSector,
			IsActive:  true,
		})
	}
	return out, nil
}

// eodBar is one upstream daily bar. Close and Date are pointers so a missing
// field is distinguishable from zero; such records are dropped.
type eodBar struct {
	Date     *string  `json:"date"`
	Open     float64  `json:"open"`
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Close    *float64 `json:"close"`
	AdjClose *float64 `json:"adjClose"`
	Volume   float64  `json:"volume"`
}

// historyReply normalizes the two shapes the EOD endpoint is known to return:
// a bare list of bars, or {"symbol": ..., "historical": [...]}.
type historyReply struct {
	bars []eodBar
}

func (h *historyReply) UnmarshalJSON(b []byte) error {
	var list []eodBar
	if err := json.Unmarshal(b, &list); err == nil {
		h.bars = list
		return nil
	}

	var wrapped struct {
		Historical []eodBar `json:"historical"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return fmt.Errorf("unexpected history response shape: %w", err)
	}
	h.bars = wrapped.Historical
	return nil
}

// DailyHistory returns the full EOD history for one symbol, oldest first.
// Records missing a date or close are dropped; adjClose falls back to close.
func (c *Client) DailyHistory(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	var reply historyReply
	if err := c.get(ctx, "/stable/historical-price-eod/full", map[string][]string{"symbol": {symbol}}, &reply); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}

	bars := make([]models.PriceBar, 0, len(reply.bars))
	for _, b := range reply.bars {
		if b.Date == nil || b.Close == nil {
			if c.l != nil {
				c.l.Warn("dropping bar with missing date/close", applogger.String("symbol", symbol))
			}
			continue
		}
		d, ok := util.ParseDay(*b.Date)
		if !ok {
			continue
		}
		adj := *b.Close
		if b.AdjClose != nil {
			adj = *b.AdjClose
		}
		bars = append(bars, models.PriceBar{
			Symbol:   symbol,
			Date:     d,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    *b.Close,
			AdjClose: adj,
			Volume:   b.Volume,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no historical data for %s", symbol)
	}

	// Upstream returns newest first; the pipeline wants chronological order.
	if bars[0].Date.After(bars[len(bars)-1].Date) {
		for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
			bars[i], bars[j] = bars[j], bars[i]
		}
	}
	return bars, nil
}

// News returns recent news items for one symbol.
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]models.NewsArticle, error) {
	var raw []models.NewsArticle
	params := map[string][]string{
		"symbols": {symbol},
		"limit":   {strconv.Itoa(limit)},
	}
	if err := c.get(ctx, "/stable/news/stock", params, &raw); err != nil {
		return nil, fmt.Errorf("fetch news %s: %w", symbol, err)
	}
	return raw, nil
}

var _ drepo.MarketData = (*Client)(nil)
