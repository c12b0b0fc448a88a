// Package fetch retrieves candle history from the upstream market data
// collector and fans refreshed windows out to subscribers.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kanzen/strata/shared"
	"github.com/tidwall/gjson"
)

// BaseURL is the default candle history endpoint of the collector.
const BaseURL = "https://api.structdata.io/v1"

// ClientConfig represents the configuration for the collector client.
type ClientConfig struct {
	// APIKey is the collector service API key.
	APIKey string
	// BaseURL is the collector service base URL.
	BaseURL string
}

// Client represents the market data collector API client. The fetch manager
// issues requests from concurrent workers, so the client holds no mutable
// request state.
type Client struct {
	cfg   *ClientConfig
	httpc http.Client
}

// Ensure the client implements the CandleFetcher interface.
var _ shared.CandleFetcher = (*Client)(nil)

// NewClient instantiates a new collector client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url cannot be an empty string")
	}

	return &Client{
		cfg:   cfg,
		httpc: http.Client{Timeout: time.Second * 5},
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *Client) formURL(path string, params string) string {
	var b strings.Builder
	b.Grow(len(c.cfg.BaseURL) + len(path) + 1 + len(params))
	b.WriteString(c.cfg.BaseURL)
	b.WriteString(path)
	b.WriteString("?")
	b.WriteString(params)

	return b.String()
}

// ParseCandlesticks parses candlesticks from the provided json data.
func (c *Client) ParseCandlesticks(data []gjson.Result, pair string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, 0, len(data))

	for idx := range data {
		var candle shared.Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()
		if candle.Volume == 0 {
			candle.Volume = shared.DefaultVolume
		}

		candle.Pair = pair
		candle.Timeframe = timeframe

		dt, err := time.Parse(shared.DateLayout, data[idx].Get("date").String())
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick date: %w", err)
		}

		candle.Date = dt
		candles = append(candles, candle)
	}

	return candles, nil
}

// timeframePath resolves the history path of the provided timeframe.
func timeframePath(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.OneMinute:
		return "/history/1min", nil
	case shared.FiveMinute:
		return "/history/5min", nil
	case shared.FifteenMinute:
		return "/history/15min", nil
	case shared.OneHour:
		return "/history/1hour", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// FetchCandles fetches historical candle data for the provided pair and timeframe.
func (c *Client) FetchCandles(ctx context.Context, pair string, timeframe shared.Timeframe, start time.Time, end time.Time) ([]shared.Candlestick, error) {
	path, err := timeframePath(timeframe)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("symbol", pair)
	params.Add("apikey", c.cfg.APIKey)
	params.Add("from", start.Format(shared.DateLayout))
	if !end.IsZero() {
		params.Add("to", end.Format(shared.DateLayout))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formURL(path, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating history request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s history for %s: %w", timeframe.String(), pair, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s history for %s: status %d", timeframe.String(), pair, resp.StatusCode)
	}

	data := gjson.GetBytes(body, "candles").Array()

	return c.ParseCandlesticks(data, pair, timeframe)
}
