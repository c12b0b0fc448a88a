package structure

import (
	"math"
	"sort"

	"github.com/kanzen/strata/shared"
)

const (
	// maxZones caps the number of retained zones per category.
	maxZones = 3
	// maxAccumulationRange is the relative close range under which a high
	// volume window still counts as accumulation rather than a move.
	maxAccumulationRange = 0.015
	// zoneStrengthWeight scales the volume or range ratio into zone strength.
	zoneStrengthWeight = 50
)

// Zones holds detected accumulation and volatility zones. The accumulation
// collection carries both accumulation and distribution zones.
type Zones struct {
	Accumulation []shared.Zone
	Volatility   []shared.Zone
}

// DetectZones scans rolling windows of the provided candles for volume driven
// accumulation or distribution zones and for volatility spikes. Windows
// shorter than the analysis minimum yield empty collections.
func (d *Detector) DetectZones(candles []shared.Candlestick, profile shared.ThresholdProfile) (zones Zones) {
	defer func() {
		if r := recover(); r != nil {
			d.cfg.Logger.Error().Msgf("recovered detecting zones: %v", r)
			zones = Zones{}
		}
	}()

	if len(candles) < shared.MinWindowSize {
		return Zones{}
	}

	window := trimWindow(candles, profile.TimeWindow)

	zones.Accumulation = detectAccumulation(window, profile)
	zones.Volatility = detectVolatility(window, profile)

	return zones
}

// detectAccumulation flags rolling windows with elevated volume and a
// compressed close range.
func detectAccumulation(window []shared.Candlestick, profile shared.ThresholdProfile) []shared.Zone {
	span := profile.AccumulationWindow
	if span <= 0 || len(window) < span {
		return nil
	}

	overallVolume := shared.MeanVolume(window)
	if overallVolume == 0 {
		return nil
	}

	zones := make([]shared.Zone, 0, maxZones)
	for start := 0; start+span <= len(window); start++ {
		sub := window[start : start+span]

		volumeRatio := shared.MeanVolume(sub) / overallVolume
		if volumeRatio <= profile.VolumeThreshold {
			continue
		}

		minClose, maxClose := closeRange(sub)
		if minClose == 0 || (maxClose-minClose)/minClose >= maxAccumulationRange {
			continue
		}

		kind := shared.Distribution
		if sub[len(sub)-1].Close > sub[0].Close {
			kind = shared.Accumulation
		}

		zones = append(zones, shared.Zone{
			StartIndex: start,
			EndIndex:   start + span - 1,
			Price:      shared.MeanClose(sub),
			Strength:   int(math.Min(100, math.Round(volumeRatio*zoneStrengthWeight))),
			Kind:       kind,
		})
	}

	return topZones(zones)
}

// detectVolatility flags rolling windows whose mean true range runs well
// above the overall mean true range.
func detectVolatility(window []shared.Candlestick, profile shared.ThresholdProfile) []shared.Zone {
	span := profile.VolatilityWindow
	if span <= 0 || len(window) < span {
		return nil
	}

	overallRange := shared.MeanTrueRange(window)
	if overallRange == 0 {
		return nil
	}

	zones := make([]shared.Zone, 0, maxZones)
	for start := 0; start+span <= len(window); start++ {
		sub := window[start : start+span]

		rangeRatio := shared.MeanTrueRange(sub) / overallRange
		if rangeRatio <= profile.VolatilityThreshold {
			continue
		}

		zones = append(zones, shared.Zone{
			StartIndex: start,
			EndIndex:   start + span - 1,
			Price:      shared.MeanClose(sub),
			Strength:   int(math.Min(100, math.Round(rangeRatio*zoneStrengthWeight))),
			Kind:       shared.Volatility,
		})
	}

	return topZones(zones)
}

// closeRange returns the minimum and maximum close of the provided candles.
func closeRange(candles []shared.Candlestick) (float64, float64) {
	minClose := candles[0].Close
	maxClose := candles[0].Close
	for idx := range candles {
		if candles[idx].Close < minClose {
			minClose = candles[idx].Close
		}
		if candles[idx].Close > maxClose {
			maxClose = candles[idx].Close
		}
	}

	return minClose, maxClose
}

// topZones orders zones descending by strength, earliest first on ties, and
// caps them at the per category maximum.
func topZones(zones []shared.Zone) []shared.Zone {
	sort.SliceStable(zones, func(i, j int) bool {
		return zones[i].Strength > zones[j].Strength
	})

	if len(zones) > maxZones {
		zones = zones[:maxZones]
	}

	return zones
}
