// Package structure detects structurally significant price points from a
// window of candlestick data: support and resistance levels, accumulation
// and volatility zones, and levels price is imminently testing.
package structure

import (
	"math"
	"sort"

	"github.com/kanzen/strata/shared"
	"github.com/rs/zerolog"
)

const (
	// extremumSpan is the number of neighbours on each side a candle must
	// strictly exceed to qualify as a local extremum.
	extremumSpan = 2
	// maxLevelsPerSide caps the number of retained levels per side of price.
	maxLevelsPerSide = 5
	// touchStrengthWeight scores each touch of a level.
	touchStrengthWeight = 10
	// bounceStrengthWeight scores the bounce rate of a level.
	bounceStrengthWeight = 50
	// recencyWeight scales how much level recency amplifies strength.
	recencyWeight = 0.5
	// untouchedStrengthFloor is the minimum strength of a level with no touches.
	untouchedStrengthFloor = 20
	// untouchedRecencyWeight scales recency into the strength of an untouched level.
	untouchedRecencyWeight = 30
)

// Levels holds detected support and resistance levels.
type Levels struct {
	Supports    []shared.PriceLevel
	Resistances []shared.PriceLevel
}

// DetectorConfig represents the structure detector configuration.
type DetectorConfig struct {
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Detector finds and scores price structure from candlestick windows. All
// detection methods are pure functions of their inputs, a detector may be
// shared freely across concurrent calls.
type Detector struct {
	cfg *DetectorConfig
}

// NewDetector initializes a new structure detector.
func NewDetector(cfg *DetectorConfig) *Detector {
	return &Detector{
		cfg: cfg,
	}
}

// extremum is a raw local extremum candidate prior to clustering.
type extremum struct {
	price float64
	index int
}

// DetectLevels finds support and resistance levels from the provided window.
// Windows shorter than the analysis minimum yield empty collections.
func (d *Detector) DetectLevels(candles []shared.Candlestick, profile shared.ThresholdProfile) (levels Levels) {
	defer func() {
		if r := recover(); r != nil {
			d.cfg.Logger.Error().Msgf("recovered detecting levels: %v", r)
			levels = Levels{}
		}
	}()

	if len(candles) < shared.MinWindowSize {
		return Levels{}
	}

	window := trimWindow(candles, profile.TimeWindow)
	currentPrice := shared.CurrentPrice(window)

	supports, resistances := scanExtrema(window)

	levels.Supports = clusterExtrema(supports, shared.Support, profile)
	levels.Resistances = clusterExtrema(resistances, shared.Resistance, profile)

	// Discard levels on the wrong side of price, they carry no structural
	// meaning as support or resistance.
	levels.Supports = filterSide(levels.Supports, func(price float64) bool {
		return price <= currentPrice*(1+profile.PriceSensitivity)
	})
	levels.Resistances = filterSide(levels.Resistances, func(price float64) bool {
		return price >= currentPrice*(1-profile.PriceSensitivity)
	})

	levels.Supports = rankByProximity(levels.Supports, currentPrice)
	levels.Resistances = rankByProximity(levels.Resistances, currentPrice)

	d.evaluateStrength(window, levels.Supports, profile)
	d.evaluateStrength(window, levels.Resistances, profile)

	sortByStrength(levels.Supports)
	sortByStrength(levels.Resistances)

	return levels
}

// trimWindow restricts the provided window to its most recent limit candles.
func trimWindow(candles []shared.Candlestick, limit int) []shared.Candlestick {
	if limit <= 0 || len(candles) <= limit {
		return candles
	}

	return candles[len(candles)-limit:]
}

// scanExtrema collects local extremum candidates using a strict five candle
// comparator.
func scanExtrema(window []shared.Candlestick) ([]extremum, []extremum) {
	supports := make([]extremum, 0, len(window)/4)
	resistances := make([]extremum, 0, len(window)/4)

	for idx := extremumSpan; idx < len(window)-extremumSpan; idx++ {
		low := window[idx].Low
		high := window[idx].High

		isSupport := true
		isResistance := true
		for offset := 1; offset <= extremumSpan; offset++ {
			if low >= window[idx-offset].Low || low >= window[idx+offset].Low {
				isSupport = false
			}
			if high <= window[idx-offset].High || high <= window[idx+offset].High {
				isResistance = false
			}
		}

		if isSupport {
			supports = append(supports, extremum{price: low, index: idx})
		}
		if isResistance {
			resistances = append(resistances, extremum{price: high, index: idx})
		}
	}

	return supports, resistances
}

// clusterExtrema groups neighbouring extremum candidates into price levels.
// Candidates are walked in ascending price order, consecutive candidates
// whose relative gap falls below the merge threshold collapse into one level.
func clusterExtrema(candidates []extremum, kind shared.LevelKind, profile shared.ThresholdProfile) []shared.PriceLevel {
	if len(candidates) == 0 {
		return nil
	}

	sorted := make([]extremum, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].price == sorted[j].price {
			return sorted[i].index < sorted[j].index
		}
		return sorted[i].price < sorted[j].price
	})

	mergeThreshold := profile.ClusteringThreshold * profile.ClusterMergeTighten

	levels := make([]shared.PriceLevel, 0, len(sorted))
	cluster := []extremum{sorted[0]}

	flush := func() {
		var sum float64
		origin := cluster[0].index
		for idx := range cluster {
			sum += cluster[idx].price
			if cluster[idx].index > origin {
				origin = cluster[idx].index
			}
		}

		levels = append(levels, shared.PriceLevel{
			Price:       sum / float64(len(cluster)),
			OriginIndex: origin,
			Touches:     len(cluster),
			Kind:        kind,
			OTCAdjusted: profile.Class == shared.OTC,
		})
	}

	for idx := 1; idx < len(sorted); idx++ {
		prev := cluster[len(cluster)-1].price
		gap := (sorted[idx].price - prev) / prev
		if gap < mergeThreshold {
			cluster = append(cluster, sorted[idx])
			continue
		}

		flush()
		cluster = []extremum{sorted[idx]}
	}
	flush()

	return levels
}

// filterSide retains levels whose price satisfies the provided side predicate.
func filterSide(levels []shared.PriceLevel, keep func(price float64) bool) []shared.PriceLevel {
	filtered := levels[:0]
	for idx := range levels {
		if keep(levels[idx].Price) {
			filtered = append(filtered, levels[idx])
		}
	}

	return filtered
}

// rankByProximity orders levels by absolute distance to current price and
// caps them at the per side maximum.
func rankByProximity(levels []shared.PriceLevel, currentPrice float64) []shared.PriceLevel {
	sort.Slice(levels, func(i, j int) bool {
		di := math.Abs(levels[i].Price - currentPrice)
		dj := math.Abs(levels[j].Price - currentPrice)
		if di == dj {
			return levels[i].Price < levels[j].Price
		}
		return di < dj
	})

	if len(levels) > maxLevelsPerSide {
		levels = levels[:maxLevelsPerSide]
	}

	return levels
}

// evaluateStrength scores each retained level from its touch and bounce
// history across the full window.
func (d *Detector) evaluateStrength(window []shared.Candlestick, levels []shared.PriceLevel, profile shared.ThresholdProfile) {
	windowLen := len(window)
	if windowLen == 0 {
		return
	}

	for idx := range levels {
		level := &levels[idx]
		band := level.Price * profile.ClusteringThreshold

		var touches, bounces int
		for cdx := range window {
			var wick float64
			switch level.Kind {
			case shared.Support:
				wick = window[cdx].Low
			default:
				wick = window[cdx].High
			}

			if math.Abs(wick-level.Price) > band {
				continue
			}

			touches++

			// A touch bounces when the subsequent close reverses away from
			// the level.
			if cdx+1 >= windowLen {
				continue
			}
			next := window[cdx+1].Close
			switch level.Kind {
			case shared.Support:
				if next > level.Price {
					bounces++
				}
			default:
				if next < level.Price {
					bounces++
				}
			}
		}

		level.Touches = touches
		level.Bounces = bounces

		recency := 1 + (float64(level.OriginIndex)/float64(windowLen))*recencyWeight

		var strength float64
		switch touches {
		case 0:
			// Brand new levels keep a floor strength rather than scoring zero.
			strength = math.Max(untouchedStrengthFloor,
				math.Round(untouchedRecencyWeight*float64(level.OriginIndex)/float64(windowLen)))
		default:
			bounceRate := float64(bounces) / float64(touches)
			strength = math.Round((float64(touches)*touchStrengthWeight +
				bounceRate*bounceStrengthWeight) * recency)
		}

		strength = math.Round(strength * profile.StrengthMultiplier)
		level.Strength = int(math.Min(100, strength))
	}
}

// sortByStrength orders levels descending by strength with price as a
// deterministic tie break.
func sortByStrength(levels []shared.PriceLevel) {
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].Strength == levels[j].Strength {
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Strength > levels[j].Strength
	})
}
