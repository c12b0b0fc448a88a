package structure

import (
	"github.com/kanzen/strata/shared"
)

// Summary aggregates the full structural picture of a window: levels, zones
// and breakout candidates produced by a single analysis pass.
type Summary struct {
	Levels    Levels
	Zones     Zones
	Breakouts []shared.BreakoutPoint
}

// Analyze runs the full structural pass over the provided window. Windows
// shorter than the analysis minimum yield an empty summary.
func (d *Detector) Analyze(candles []shared.Candlestick, profile shared.ThresholdProfile) Summary {
	levels := d.DetectLevels(candles, profile)

	return Summary{
		Levels:    levels,
		Zones:     d.DetectZones(candles, profile),
		Breakouts: d.DetectBreakouts(candles, levels),
	}
}

// Summarize composes level detection across the provided timeframe windows
// into one structural summary, for callers calibrating against structure at
// multiple timeframes.
func (d *Detector) Summarize(windows map[shared.Timeframe][]shared.Candlestick, profile shared.ThresholdProfile) Levels {
	var merged Levels
	for _, window := range windows {
		levels := d.DetectLevels(window, profile)
		merged.Supports = append(merged.Supports, levels.Supports...)
		merged.Resistances = append(merged.Resistances, levels.Resistances...)
	}

	sortByStrength(merged.Supports)
	sortByStrength(merged.Resistances)

	return merged
}
