package duration

import (
	"math"

	"github.com/kanzen/strata/shared"
	"github.com/kanzen/strata/structure"
)

// Regime represents the prevailing market condition of a window.
type Regime int

const (
	Normal Regime = iota
	Trending
	Ranging
	Volatile
	Stable
	SupportResistance
)

// String stringifies the provided regime.
func (r Regime) String() string {
	switch r {
	case Trending:
		return "trending"
	case Ranging:
		return "ranging"
	case Volatile:
		return "volatile"
	case Stable:
		return "stable"
	case SupportResistance:
		return "support_resistance"
	default:
		return "normal"
	}
}

// regimeProfile carries the duration adjustment characteristics of a regime.
type regimeProfile struct {
	// weight is the multiplicative pull applied to the duration.
	weight float64
	// preferLonger marks regimes that favour longer holds.
	preferLonger bool
}

// regimeProfiles maps each regime to its adjustment characteristics. Calm
// regimes pull durations longer, unstable ones pull them shorter.
var regimeProfiles = map[Regime]regimeProfile{
	Trending:          {weight: 1.3, preferLonger: true},
	Ranging:           {weight: 0.9, preferLonger: false},
	Volatile:          {weight: 0.7, preferLonger: false},
	Stable:            {weight: 1.2, preferLonger: true},
	SupportResistance: {weight: 0.8, preferLonger: false},
	Normal:            {weight: 1, preferLonger: false},
}

const (
	// volatilityLookback is the number of recent candles scoring volatility.
	volatilityLookback = 10
	// volatilityScale converts relative true range into the 0-1 score.
	volatilityScale = 500
	// highVolatilityScore marks a window as volatile.
	highVolatilityScore = 0.7
	// lowVolatilityScore marks a window as stable.
	lowVolatilityScore = 0.2
	// rangingVolatilityScore marks a non trending window as ranging.
	rangingVolatilityScore = 0.4
	// structureProximity is the relative distance to a level under which the
	// regime is dominated by structure.
	structureProximity = 0.002
	// shortMAPeriod and longMAPeriod are the moving average periods ordering
	// a trending window.
	shortMAPeriod = 5
	longMAPeriod  = 10
)

// volatilityScore scores the recent volatility of the window from 0 to 1.
func volatilityScore(candles []shared.Candlestick) float64 {
	if len(candles) == 0 {
		return 0
	}

	recent := candles
	if len(recent) > volatilityLookback {
		recent = recent[len(recent)-volatilityLookback:]
	}

	meanClose := shared.MeanClose(recent)
	if meanClose == 0 {
		return 0
	}

	return math.Min(1, (shared.MeanTrueRange(recent)/meanClose)*volatilityScale)
}

// movingAverage averages the closes of the most recent period candles.
func movingAverage(candles []shared.Candlestick, period int) float64 {
	if period <= 0 || len(candles) < period {
		return 0
	}

	return shared.MeanClose(candles[len(candles)-period:])
}

// isTrending reports whether price and its short and long moving averages are
// strictly ordered in either direction.
func isTrending(candles []shared.Candlestick) bool {
	if len(candles) < longMAPeriod {
		return false
	}

	price := shared.CurrentPrice(candles)
	shortMA := movingAverage(candles, shortMAPeriod)
	longMA := movingAverage(candles, longMAPeriod)

	return (price > shortMA && shortMA > longMA) || (price < shortMA && shortMA < longMA)
}

// nearStructure reports whether price sits within the structure proximity of
// any level in the provided summary.
func nearStructure(summary structure.Levels, price float64) bool {
	if price == 0 {
		return false
	}

	for idx := range summary.Supports {
		if math.Abs(summary.Supports[idx].Price-price)/price < structureProximity {
			return true
		}
	}
	for idx := range summary.Resistances {
		if math.Abs(summary.Resistances[idx].Price-price)/price < structureProximity {
			return true
		}
	}

	return false
}

// ClassifyRegime classifies the market condition of the provided window
// against the structural summary. Proximity to structure dominates, then
// volatility extremes, then trend.
func ClassifyRegime(candles []shared.Candlestick, summary structure.Levels) Regime {
	if len(candles) == 0 {
		return Normal
	}

	if nearStructure(summary, shared.CurrentPrice(candles)) {
		return SupportResistance
	}

	score := volatilityScore(candles)
	switch {
	case score > highVolatilityScore:
		return Volatile
	case isTrending(candles):
		return Trending
	case score < lowVolatilityScore:
		return Stable
	case score > rangingVolatilityScore:
		return Ranging
	default:
		return Normal
	}
}
