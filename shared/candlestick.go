package shared

import (
	"math"
	"time"
)

const (
	// MinWindowSize is the minimum number of candles required for meaningful analysis.
	MinWindowSize = 20
	// DefaultVolume is the volume assigned to candles reported without one.
	DefaultVolume = float64(1)
)

// Sentiment represents the candlestick sentiment.
type Sentiment int

const (
	Neutral Sentiment = iota
	Bullish
	Bearish
)

// String stringifies the provided sentiment.
func (s Sentiment) String() string {
	switch s {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Candlestick represents a unit candlestick for a pair.
type Candlestick struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata fields.
	Pair      string
	Timeframe Timeframe
}

// FetchSentiment returns the provided candlestick's sentiment.
func (c *Candlestick) FetchSentiment() Sentiment {
	sentiment := c.Close - c.Open
	switch {
	case sentiment < 0:
		return Bearish
	case sentiment > 0:
		return Bullish
	default:
		return Neutral
	}
}

// Body returns the absolute size of the candlestick body.
func (c *Candlestick) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// TrueRange returns the true range of the candlestick relative to the provided
// preceding candlestick. A nil predecessor yields the plain high-low range.
func (c *Candlestick) TrueRange(prev *Candlestick) float64 {
	highLow := c.High - c.Low
	if prev == nil {
		return highLow
	}

	highPrevClose := math.Abs(c.High - prev.Close)
	lowPrevClose := math.Abs(c.Low - prev.Close)

	return math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
}

// CurrentPrice returns the close of the most recent candle in the provided window.
func CurrentPrice(candles []Candlestick) float64 {
	if len(candles) == 0 {
		return 0
	}

	return candles[len(candles)-1].Close
}

// MeanClose returns the average close of the provided candles.
func MeanClose(candles []Candlestick) float64 {
	if len(candles) == 0 {
		return 0
	}

	var sum float64
	for idx := range candles {
		sum += candles[idx].Close
	}

	return sum / float64(len(candles))
}

// MeanVolume returns the average volume of the provided candles. Candles
// reported without volume contribute the default volume.
func MeanVolume(candles []Candlestick) float64 {
	if len(candles) == 0 {
		return 0
	}

	var sum float64
	for idx := range candles {
		volume := candles[idx].Volume
		if volume == 0 {
			volume = DefaultVolume
		}
		sum += volume
	}

	return sum / float64(len(candles))
}

// MeanTrueRange returns the average true range of the provided candles.
func MeanTrueRange(candles []Candlestick) float64 {
	if len(candles) == 0 {
		return 0
	}

	var sum float64
	for idx := range candles {
		var prev *Candlestick
		if idx > 0 {
			prev = &candles[idx-1]
		}
		sum += candles[idx].TrueRange(prev)
	}

	return sum / float64(len(candles))
}
