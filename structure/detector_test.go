package structure

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kanzen/strata/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

// newTestDetector initializes a detector for tests.
func newTestDetector() *Detector {
	return NewDetector(&DetectorConfig{Logger: &log.Logger})
}

// flatWindow builds a window of uniform candles around the provided price.
func flatWindow(price float64, size int) []shared.Candlestick {
	candles := make([]shared.Candlestick, size)
	for idx := range candles {
		candles[idx] = shared.Candlestick{
			Open:   price,
			High:   price + 0.0005,
			Low:    price - 0.0005,
			Close:  price,
			Volume: 1,
		}
	}

	return candles
}

// withDip carves a swing low into the window at the provided index.
func withDip(candles []shared.Candlestick, idx int, low float64) {
	candles[idx].Low = low
}

// withSpike carves a swing high into the window at the provided index.
func withSpike(candles []shared.Candlestick, idx int, high float64) {
	candles[idx].High = high
}

func TestDetectLevelsInsufficientData(t *testing.T) {
	detector := newTestDetector()
	profile := shared.NewThresholdProfile(shared.Regular)

	levels := detector.DetectLevels(flatWindow(1.1, shared.MinWindowSize-1), profile)
	assert.Equal(t, len(levels.Supports), 0)
	assert.Equal(t, len(levels.Resistances), 0)
}

func TestDetectLevelsTwiceTouchedSupport(t *testing.T) {
	detector := newTestDetector()
	profile := shared.NewThresholdProfile(shared.Regular)

	// A flat window with a swing low twice touched at 1.1000 and price
	// closing at 1.1050.
	window := flatWindow(1.1040, 200)
	withDip(window, 100, 1.1000)
	withDip(window, 110, 1.1000)
	window[len(window)-1].Close = 1.1050
	window[len(window)-1].High = 1.1055

	levels := detector.DetectLevels(window, profile)

	assert.Equal(t, len(levels.Supports), 1)
	support := levels.Supports[0]
	assert.Equal(t, support.Kind, shared.Support)
	assert.True(t, math.Abs(support.Price-1.1000) < 1e-9)
	assert.Equal(t, support.Touches, 2)
	assert.Equal(t, support.Bounces, 2)
	assert.Equal(t, support.OriginIndex, 110)
	assert.True(t, support.Strength > 60)
	assert.True(t, support.Strength <= 100)
	assert.False(t, support.OTCAdjusted)
}

func TestDetectLevelsOTCAdjustment(t *testing.T) {
	detector := newTestDetector()

	window := flatWindow(1.1040, 200)
	withDip(window, 100, 1.1000)
	withDip(window, 110, 1.1000)

	regular := detector.DetectLevels(window, shared.NewThresholdProfile(shared.Regular))
	otc := detector.DetectLevels(window, shared.NewThresholdProfile(shared.OTC))

	assert.Equal(t, len(regular.Supports), 1)
	assert.Equal(t, len(otc.Supports), 1)
	assert.True(t, otc.Supports[0].OTCAdjusted)
	assert.True(t, otc.Supports[0].Strength >= regular.Supports[0].Strength)
}

func TestDetectLevelsSideFilter(t *testing.T) {
	detector := newTestDetector()
	profile := shared.NewThresholdProfile(shared.Regular)

	// A swing low left far above current price carries no meaning as support.
	window := flatWindow(1.1040, 200)
	withDip(window, 50, 1.1000)
	last := &window[len(window)-1]
	last.Open = 1.1035
	last.Close = 1.0900
	last.Low = 1.0895
	last.High = 1.1040

	levels := detector.DetectLevels(window, profile)

	currentPrice := shared.CurrentPrice(window)
	for idx := range levels.Supports {
		assert.True(t, levels.Supports[idx].Price <= currentPrice*(1+profile.PriceSensitivity))
	}
	for idx := range levels.Resistances {
		assert.True(t, levels.Resistances[idx].Price >= currentPrice*(1-profile.PriceSensitivity))
	}
	assert.Equal(t, len(levels.Supports), 0)
}

func TestDetectLevelsResistance(t *testing.T) {
	detector := newTestDetector()
	profile := shared.NewThresholdProfile(shared.Regular)

	window := flatWindow(1.1060, 200)
	withSpike(window, 120, 1.1100)
	withSpike(window, 130, 1.1100)

	levels := detector.DetectLevels(window, profile)

	assert.Equal(t, len(levels.Resistances), 1)
	resistance := levels.Resistances[0]
	assert.Equal(t, resistance.Kind, shared.Resistance)
	assert.True(t, math.Abs(resistance.Price-1.1100) < 1e-9)
	assert.Equal(t, resistance.Touches, 2)
	assert.Equal(t, resistance.OriginIndex, 130)
}

func TestClusterExtremaIdempotent(t *testing.T) {
	profile := shared.NewThresholdProfile(shared.Regular)

	candidates := []extremum{
		{price: 1.1000, index: 10},
		{price: 1.1001, index: 40},
		{price: 1.1050, index: 80},
		{price: 1.1100, index: 120},
	}

	clustered := clusterExtrema(candidates, shared.Support, profile)

	// Reclustering the collapsed levels with the same threshold must yield
	// the same prices and origins.
	recandidates := make([]extremum, 0, len(clustered))
	for idx := range clustered {
		recandidates = append(recandidates, extremum{
			price: clustered[idx].Price,
			index: clustered[idx].OriginIndex,
		})
	}
	reclustered := clusterExtrema(recandidates, shared.Support, profile)

	project := func(levels []shared.PriceLevel) []extremum {
		projected := make([]extremum, 0, len(levels))
		for idx := range levels {
			projected = append(projected, extremum{
				price: levels[idx].Price,
				index: levels[idx].OriginIndex,
			})
		}
		return projected
	}

	diff := cmp.Diff(project(clustered), project(reclustered),
		cmp.AllowUnexported(extremum{}))
	if diff != "" {
		t.Errorf("reclustering changed the level set (-first +second):\n%s", diff)
	}
}

func TestEvaluateStrengthBounds(t *testing.T) {
	detector := newTestDetector()
	profile := shared.NewThresholdProfile(shared.Regular)
	window := flatWindow(1.1, 200)

	// A level no candle touched keeps a floor strength.
	untouched := []shared.PriceLevel{{Price: 2, OriginIndex: 150, Kind: shared.Support}}
	detector.evaluateStrength(window, untouched, profile)
	assert.Equal(t, untouched[0].Touches, 0)
	assert.True(t, untouched[0].Strength >= 20)

	// A level every candle touched caps at 100.
	saturated := []shared.PriceLevel{{Price: 1.1 - 0.0005, OriginIndex: 150, Kind: shared.Support}}
	detector.evaluateStrength(window, saturated, profile)
	assert.Equal(t, saturated[0].Strength, 100)
}
