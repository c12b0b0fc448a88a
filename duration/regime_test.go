package duration

import (
	"testing"

	"github.com/kanzen/strata/shared"
	"github.com/kanzen/strata/structure"
	"github.com/peterldowns/testy/assert"
)

// risingWindow builds a window with closes climbing by step per candle.
func risingWindow(start, step float64, size int) []shared.Candlestick {
	candles := make([]shared.Candlestick, size)
	price := start
	for idx := range candles {
		next := price + step
		candles[idx] = shared.Candlestick{
			Open:   price,
			High:   max(price, next) + 0.0001,
			Low:    min(price, next) - 0.0001,
			Close:  next,
			Volume: 1,
		}
		price = next
	}

	return candles
}

func TestClassifyRegime(t *testing.T) {
	tests := []struct {
		name    string
		candles []shared.Candlestick
		summary structure.Levels
		want    Regime
	}{
		{
			name: "no candles",
			want: Normal,
		},
		{
			name:    "wide ranges classify volatile",
			candles: uniformWindow(100, 0.5, 30),
			want:    Volatile,
		},
		{
			name:    "tight ranges classify stable",
			candles: uniformWindow(1.1, 0.0001, 30),
			want:    Stable,
		},
		{
			name:    "ordered price and averages classify trending",
			candles: risingWindow(100, 0.01, 30),
			want:    Trending,
		},
		{
			name:    "middling ranges classify ranging",
			candles: uniformWindow(100, 0.05, 30),
			want:    Ranging,
		},
		{
			name:    "price on a level dominates",
			candles: uniformWindow(100, 0.5, 30),
			summary: structure.Levels{
				Resistances: []shared.PriceLevel{{Price: 100.1, Kind: shared.Resistance}},
			},
			want: SupportResistance,
		},
	}

	for _, test := range tests {
		got := ClassifyRegime(test.candles, test.summary)
		if got != test.want {
			t.Errorf("%s: ClassifyRegime = %v, want %v", test.name, got, test.want)
		}
	}
}

func TestVolatilityScore(t *testing.T) {
	assert.Equal(t, volatilityScore(nil), float64(0))

	// Score saturates at one on wide ranges.
	assert.Equal(t, volatilityScore(uniformWindow(100, 0.5, 30)), float64(1))

	quiet := volatilityScore(uniformWindow(1.1, 0.0001, 30))
	assert.True(t, quiet > 0 && quiet < lowVolatilityScore)
}

func TestIsTrending(t *testing.T) {
	assert.True(t, isTrending(risingWindow(100, 0.01, 30)))
	assert.True(t, isTrending(risingWindow(100, -0.01, 30)))
	assert.False(t, isTrending(uniformWindow(100, 0.05, 30)))
	assert.False(t, isTrending(uniformWindow(100, 0.05, longMAPeriod-1)))
}

func TestNearStructure(t *testing.T) {
	summary := structure.Levels{
		Supports: []shared.PriceLevel{{Price: 99.9, Kind: shared.Support}},
	}

	assert.True(t, nearStructure(summary, 100))
	assert.False(t, nearStructure(summary, 101))
	assert.False(t, nearStructure(structure.Levels{}, 100))
	assert.False(t, nearStructure(summary, 0))
}
