package shared

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

func TestNewThresholdProfile(t *testing.T) {
	regular := NewThresholdProfile(Regular)
	assert.Equal(t, regular.Class, Regular)
	assert.Equal(t, regular.ClusteringThreshold, 0.002)
	assert.Equal(t, regular.VolumeThreshold, 1.5)
	assert.Equal(t, regular.VolatilityThreshold, float64(2))
	assert.Equal(t, regular.AccumulationWindow, 5)
	assert.Equal(t, regular.VolatilityWindow, 10)
	assert.Equal(t, regular.StrengthMultiplier, float64(1))
	assert.Equal(t, regular.ConfidenceBoost, float64(0))

	otc := NewThresholdProfile(OTC)
	assert.Equal(t, otc.Class, OTC)
	assert.Equal(t, otc.ClusteringThreshold, 0.0015)
	assert.Equal(t, otc.VolumeThreshold, 1.3)
	assert.Equal(t, otc.VolatilityThreshold, 1.8)
	assert.Equal(t, otc.AccumulationWindow, 4)
	assert.Equal(t, otc.VolatilityWindow, 8)
	assert.Equal(t, otc.StrengthMultiplier, 1.15)
	assert.Equal(t, otc.ConfidenceBoost, float64(10))
}

func TestThresholdProfileIsolation(t *testing.T) {
	// Profiles are per call values, selecting and mutating one class must
	// never leak into subsequent selections of either class.
	before := NewThresholdProfile(Regular)

	otc := NewThresholdProfile(OTC)
	otc.ClusteringThreshold = 99
	otc.VolumeThreshold = 99

	after := NewThresholdProfile(Regular)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("regular profile changed across calls (-before +after):\n%s", diff)
	}

	fresh := NewThresholdProfile(OTC)
	assert.Equal(t, fresh.ClusteringThreshold, 0.0015)
	assert.Equal(t, fresh.VolumeThreshold, 1.3)
}

func TestMarketClassString(t *testing.T) {
	tests := []struct {
		name  string
		class MarketClass
		want  string
	}{
		{
			"regular class",
			Regular,
			"regular",
		},
		{
			"otc class",
			OTC,
			"otc",
		},
		{
			"unknown class",
			MarketClass(999),
			"unknown",
		},
	}

	for _, test := range tests {
		str := test.class.String()
		if str != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, str)
		}
	}
}
