package shared

import (
	"context"
	"time"
)

// CandleFetcher defines the requirements for fetching candle history from
// the upstream market data collector.
type CandleFetcher interface {
	// FetchCandles fetches historical candle data for the provided pair and
	// timeframe, chronological and most recent last.
	FetchCandles(ctx context.Context, pair string, timeframe Timeframe, start time.Time, end time.Time) ([]Candlestick, error)
}

// WindowUpdate represents a refreshed candle window for a pair.
type WindowUpdate struct {
	// Pair is the pair the window belongs to.
	Pair string
	// Timeframe is the window's candle period.
	Timeframe Timeframe
	// Candles is the refreshed window, chronological and most recent last.
	Candles []Candlestick
}
