package shared

// DefaultTrendPeriod is the default lookback for trend analysis.
const DefaultTrendPeriod = 14

// flatTrendFactor scales mean close into the slope threshold under which a
// trend is considered flat.
const flatTrendFactor = 0.0001

// Trend represents the market trend over a lookback period.
type Trend int

const (
	FlatTrend Trend = iota
	UpTrend
	DownTrend
)

// String stringifies the provided trend.
func (t Trend) String() string {
	switch t {
	case UpTrend:
		return "uptrend"
	case DownTrend:
		return "downtrend"
	default:
		return "flat"
	}
}

// TrendSlope computes the ordinary least squares slope of the closes of the
// most recent period candles.
func TrendSlope(candles []Candlestick, period int) float64 {
	if period < 2 || len(candles) < period {
		return 0
	}

	closes := candles[len(candles)-period:]

	// Least squares fit of close against candle offset.
	var sumX, sumY, sumXY, sumXX float64
	for idx := range closes {
		x := float64(idx)
		y := closes[idx].Close
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	n := float64(period)
	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0
	}

	return (n*sumXY - sumX*sumY) / denominator
}

// AnalyzeTrend classifies the trend of the most recent period candles. Slopes
// within the flat threshold of the mean close classify as flat.
func AnalyzeTrend(candles []Candlestick, period int) Trend {
	if period < 2 || len(candles) < period {
		return FlatTrend
	}

	slope := TrendSlope(candles, period)
	threshold := flatTrendFactor * MeanClose(candles[len(candles)-period:])

	switch {
	case slope > threshold:
		return UpTrend
	case slope < -threshold:
		return DownTrend
	default:
		return FlatTrend
	}
}
