// Package duration calibrates the holding duration of a validated signal
// from pair behaviour, market regime, time of day and structural proximity.
package duration

import (
	"math"
	"strings"

	"github.com/kanzen/strata/shared"
	"github.com/kanzen/strata/structure"
	"github.com/rs/zerolog"
)

const (
	// fallbackDuration is the base duration of an unmatched pair, in minutes.
	fallbackDuration = float64(3)
	// sessionWeightTotal is the combined weight of the session and market
	// sides of the time of day blend.
	sessionWeightTotal = 10
	// maxStructureShrink is the largest fraction a level ahead can shrink a
	// duration by.
	maxStructureShrink = 0.5
	// onLevelProximity is the relative distance under which price sits
	// directly on a level.
	onLevelProximity = 0.005
	// onLevelExtension is the duration extension applied on a backing level.
	onLevelExtension = 1.1
	// baseSymbolLength is the length of the leading base symbol of a pair.
	baseSymbolLength = 6
)

// allowedDurations is the ascending set of permitted holding durations in
// minutes.
var allowedDurations = []float64{1, 2, 3}

// pairDurations carries the behavioural base durations of a pair.
type pairDurations struct {
	// base is the duration for normal conditions, in minutes.
	base float64
	// volatile is the duration when the pair trades in a volatile regime.
	volatile float64
	// stable is the duration when the pair trades in a stable regime.
	stable float64
}

// pairDurationTable maps pairs to their behavioural base durations.
var pairDurationTable = map[string]pairDurations{
	"EURUSD": {base: 2, volatile: 1, stable: 3},
	"GBPUSD": {base: 2, volatile: 1, stable: 3},
	"USDJPY": {base: 2, volatile: 1, stable: 3},
	"AUDUSD": {base: 3, volatile: 2, stable: 3},
	"USDCAD": {base: 3, volatile: 2, stable: 3},
	"USDCHF": {base: 3, volatile: 2, stable: 3},
	"NZDUSD": {base: 3, volatile: 2, stable: 3},
	"EURGBP": {base: 3, volatile: 2, stable: 3},
	"EURJPY": {base: 2, volatile: 1, stable: 2},
	"GBPJPY": {base: 1, volatile: 1, stable: 2},
	"AUDJPY": {base: 2, volatile: 1, stable: 2},
	"AUDCAD": {base: 3, volatile: 2, stable: 3},
}

// CalibratorConfig represents the duration calibrator configuration.
type CalibratorConfig struct {
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Calibrator calibrates holding durations for validated signals. Calibration
// is a pure function of its inputs, a calibrator may be shared freely across
// concurrent calls.
type Calibrator struct {
	cfg *CalibratorConfig
}

// NewCalibrator initializes a new duration calibrator.
func NewCalibrator(cfg *CalibratorConfig) *Calibrator {
	return &Calibrator{
		cfg: cfg,
	}
}

// lookupPair resolves the behavioural durations of a pair: exact match first,
// then with any OTC suffix stripped, then by leading base symbol.
func lookupPair(pair string) (pairDurations, bool) {
	if durations, ok := pairDurationTable[pair]; ok {
		return durations, true
	}

	stripped := strings.ToUpper(pair)
	for _, suffix := range []string{"_OTC", "-OTC", " OTC", "OTC"} {
		stripped = strings.TrimSuffix(stripped, suffix)
	}
	if durations, ok := pairDurationTable[stripped]; ok {
		return durations, true
	}

	if len(stripped) >= baseSymbolLength {
		if durations, ok := pairDurationTable[stripped[:baseSymbolLength]]; ok {
			return durations, true
		}
	}

	return pairDurations{}, false
}

// applyStage runs a calibration stage with fault isolation: a panicking stage
// is logged and skipped, passing its input duration through unchanged.
func (c *Calibrator) applyStage(name string, input float64, stage func(duration float64) float64) (output float64) {
	output = input
	defer func() {
		if r := recover(); r != nil {
			c.cfg.Logger.Error().Msgf("recovered in %s calibration stage: %v", name, r)
			output = input
		}
	}()

	output = stage(input)
	return output
}

// Calibrate picks the holding duration in minutes for the provided signal.
// The candle window and structural summary are optional, stages that need
// missing inputs pass the duration through unchanged. The result is always a
// member of the allowed duration set.
func (c *Calibrator) Calibrate(signal shared.Signal, candles []shared.Candlestick, summary structure.Levels) int {
	regime := Normal
	if len(candles) > 0 {
		regime = ClassifyRegime(candles, summary)
	}

	duration := c.applyStage("pair base", fallbackDuration, func(float64) float64 {
		return c.pairBase(signal.Pair, regime)
	})

	if len(candles) > 0 {
		duration = c.applyStage("market condition", duration, func(d float64) float64 {
			return adjustForRegime(d, regime, volatilityScore(candles))
		})
	}

	duration = c.applyStage("time of day", duration, func(d float64) float64 {
		return c.adjustForSession(d, signal.EntryTime)
	})

	if len(candles) > 0 {
		duration = c.applyStage("structural proximity", duration, func(d float64) float64 {
			return adjustForStructure(d, signal.Direction, shared.CurrentPrice(candles), summary)
		})
	}

	return snapDuration(duration)
}

// pairBase resolves the base duration of the pair under the provided regime.
func (c *Calibrator) pairBase(pair string, regime Regime) float64 {
	durations, ok := lookupPair(pair)
	if !ok {
		return fallbackDuration
	}

	switch regime {
	case Volatile:
		return durations.volatile
	case Stable:
		return durations.stable
	default:
		return durations.base
	}
}

// adjustForRegime pulls the duration toward the regime weight. Regimes that
// prefer longer holds pull harder when volatility is low, the rest pull
// shorter as volatility rises.
func adjustForRegime(duration float64, regime Regime, volatility float64) float64 {
	profile, ok := regimeProfiles[regime]
	if !ok {
		return duration
	}

	var factor float64
	switch {
	case profile.preferLonger:
		factor = 1 + (profile.weight-1)*(1-volatility)
	default:
		factor = 1 - (1-profile.weight)*volatility
	}

	return duration * factor
}

// adjustForSession blends the regime adjusted duration with the favoured
// duration of the entry session, weighted by session priority.
func (c *Calibrator) adjustForSession(duration float64, entryTime string) float64 {
	session, err := shared.CurrentSession(entryTime)
	if err != nil {
		c.cfg.Logger.Debug().Msgf("bucketing entry time %q: %v", entryTime, err)
		return duration
	}

	timeWeight := float64(session.Priority)
	marketWeight := float64(sessionWeightTotal - session.Priority)

	return (session.DefaultDuration*timeWeight + duration*marketWeight) / sessionWeightTotal
}

// adjustForStructure shrinks the duration when a level lies ahead of the
// trade and extends it slightly when price sits directly on a backing level.
func adjustForStructure(duration float64, direction shared.Direction, price float64, summary structure.Levels) float64 {
	if price == 0 {
		return duration
	}

	var ahead, backing []shared.PriceLevel
	switch direction {
	case shared.Sell:
		ahead = summary.Supports
		backing = summary.Resistances
	default:
		ahead = summary.Resistances
		backing = summary.Supports
	}

	// The nearer the level ahead, the sooner price is expected to stall, so
	// the shorter the hold.
	if distance, ok := nearestAheadDistance(ahead, price, direction); ok {
		shrink := math.Max(0, maxStructureShrink-distance*100)
		duration *= 1 - shrink
	}

	if distance, ok := nearestBackingDistance(backing, price, direction); ok && distance < onLevelProximity {
		duration *= onLevelExtension
	}

	return duration
}

// nearestAheadDistance returns the relative distance to the nearest level in
// the direction of the trade.
func nearestAheadDistance(levels []shared.PriceLevel, price float64, direction shared.Direction) (float64, bool) {
	best := math.MaxFloat64
	var found bool

	for idx := range levels {
		level := levels[idx].Price
		inPath := (direction == shared.Sell && level < price) || (direction != shared.Sell && level > price)
		if !inPath {
			continue
		}

		distance := math.Abs(level-price) / price
		if distance < best {
			best = distance
			found = true
		}
	}

	return best, found
}

// nearestBackingDistance returns the relative distance to the nearest level
// behind the trade.
func nearestBackingDistance(levels []shared.PriceLevel, price float64, direction shared.Direction) (float64, bool) {
	best := math.MaxFloat64
	var found bool

	for idx := range levels {
		level := levels[idx].Price
		behind := (direction == shared.Sell && level > price) || (direction != shared.Sell && level < price)
		// A level within the on-level band counts regardless of side.
		if !behind && math.Abs(level-price)/price >= onLevelProximity {
			continue
		}

		distance := math.Abs(level-price) / price
		if distance < best {
			best = distance
			found = true
		}
	}

	return best, found
}

// snapDuration rounds the duration to the nearest member of the allowed set.
func snapDuration(duration float64) int {
	best := allowedDurations[0]
	for _, allowed := range allowedDurations[1:] {
		if math.Abs(duration-allowed) < math.Abs(duration-best) {
			best = allowed
		}
	}

	return int(best)
}
