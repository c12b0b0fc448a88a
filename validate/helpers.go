package validate

import (
	"math"

	"github.com/kanzen/strata/shared"
	"github.com/kanzen/strata/structure"
)

const (
	// brokenLevelLookback is the number of recent closes inspected for a break.
	brokenLevelLookback = 3
	// brokenLevelCloses is the number of lookback closes across a level that
	// confirm it broken.
	brokenLevelCloses = 2
	// strongBodyPercent is the relative body size marking a strong candle.
	strongBodyPercent = 0.0015
	// breakoutVolumeRatio is the multiple of recent average volume that
	// confirms a breakout without a strong body.
	breakoutVolumeRatio = 1.2
	// breakoutVolumeLookback is the number of prior candles averaged for
	// breakout volume confirmation.
	breakoutVolumeLookback = 10
)

// nearestLevel returns the level closest to price within the provided
// relative proximity.
func nearestLevel(levels []shared.PriceLevel, price float64, proximity float64) (shared.PriceLevel, bool) {
	var nearest shared.PriceLevel
	var found bool
	best := math.MaxFloat64

	for idx := range levels {
		distance := math.Abs(levels[idx].Price-price) / price
		if distance < proximity && distance < best {
			nearest = levels[idx]
			best = distance
			found = true
		}
	}

	return nearest, found
}

// isSupportBroken reports whether enough recent closes fell below the level
// to consider it broken.
func isSupportBroken(candles []shared.Candlestick, level float64) bool {
	return brokenCloses(candles, func(close float64) bool { return close < level })
}

// isResistanceBroken reports whether enough recent closes rose above the
// level to consider it broken.
func isResistanceBroken(candles []shared.Candlestick, level float64) bool {
	return brokenCloses(candles, func(close float64) bool { return close > level })
}

// brokenCloses counts lookback closes across a level per the provided predicate.
func brokenCloses(candles []shared.Candlestick, across func(close float64) bool) bool {
	lookback := brokenLevelLookback
	if len(candles) < lookback {
		lookback = len(candles)
	}

	var count int
	for idx := len(candles) - lookback; idx < len(candles); idx++ {
		if across(candles[idx].Close) {
			count++
		}
	}

	return count >= brokenLevelCloses
}

// confirmBreakout reports whether the last candle confirms a breakout of the
// provided level: a close beyond the level together with either a strong body
// or elevated volume.
func confirmBreakout(candles []shared.Candlestick, level float64, direction shared.Direction) bool {
	if len(candles) == 0 {
		return false
	}

	last := candles[len(candles)-1]

	switch direction {
	case shared.Buy:
		if last.Close <= level {
			return false
		}
	default:
		if last.Close >= level {
			return false
		}
	}

	if last.Close > 0 && last.Body()/last.Close >= strongBodyPercent {
		return true
	}

	lookback := breakoutVolumeLookback
	if len(candles)-1 < lookback {
		lookback = len(candles) - 1
	}
	if lookback == 0 {
		return false
	}

	prior := candles[len(candles)-1-lookback : len(candles)-1]
	averageVolume := shared.MeanVolume(prior)

	return averageVolume > 0 && last.Volume > breakoutVolumeRatio*averageVolume
}

// evaluateRiskReward computes the reward to risk ratio of the trade using the
// nearest support below and resistance above price. It reports false when
// structure is missing on either side, no risk/reward judgement is possible
// then.
func evaluateRiskReward(levels structure.Levels, price float64, direction shared.Direction) (float64, bool) {
	var supportBelow, resistanceAbove float64
	var haveSupport, haveResistance bool

	for idx := range levels.Supports {
		candidate := levels.Supports[idx].Price
		if candidate < price && (!haveSupport || candidate > supportBelow) {
			supportBelow = candidate
			haveSupport = true
		}
	}
	for idx := range levels.Resistances {
		candidate := levels.Resistances[idx].Price
		if candidate > price && (!haveResistance || candidate < resistanceAbove) {
			resistanceAbove = candidate
			haveResistance = true
		}
	}

	if !haveSupport || !haveResistance {
		return 0, false
	}

	var risk, reward float64
	switch direction {
	case shared.Sell:
		risk = resistanceAbove - price
		reward = price - supportBelow
	default:
		risk = price - supportBelow
		reward = resistanceAbove - price
	}

	if risk <= 0 {
		return 0, false
	}

	return reward / risk, true
}

// memberZone returns the strongest zone of the provided kind that price is a
// member of.
func memberZone(zones []shared.Zone, price float64, kind shared.ZoneKind) (shared.Zone, bool) {
	var member shared.Zone
	var found bool

	for idx := range zones {
		if zones[idx].Kind != kind || zones[idx].Price == 0 {
			continue
		}

		distance := math.Abs(zones[idx].Price-price) / zones[idx].Price
		if distance > zoneMembership {
			continue
		}

		if !found || zones[idx].Strength > member.Strength {
			member = zones[idx]
			found = true
		}
	}

	return member, found
}

// breakoutCandidate returns the nearest breakout point matching the provided
// direction and level kind.
func breakoutCandidate(points []shared.BreakoutPoint, direction shared.BreakoutDirection,
	kind shared.LevelKind) (shared.BreakoutPoint, bool) {
	for idx := range points {
		if points[idx].Direction == direction && points[idx].Kind == kind {
			return points[idx], true
		}
	}

	return shared.BreakoutPoint{}, false
}
