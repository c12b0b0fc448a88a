package shared

// MarketClass represents the class of a traded pair.
type MarketClass int

const (
	Regular MarketClass = iota
	OTC
)

// String stringifies the provided market class.
func (m MarketClass) String() string {
	switch m {
	case Regular:
		return "regular"
	case OTC:
		return "otc"
	default:
		return "unknown"
	}
}

// ThresholdProfile is the set of detection thresholds active for an analysis
// call. Profiles are immutable values selected per call, they are never
// mutated or shared across calls.
type ThresholdProfile struct {
	// Class is the market class the profile applies to.
	Class MarketClass
	// PriceSensitivity bounds how far beyond current price a level may sit
	// and still count as structure on the right side of price.
	PriceSensitivity float64
	// PriceProximity is the relative distance under which price is
	// considered to be at a level.
	PriceProximity float64
	// ClusteringThreshold is the relative price gap under which neighbouring
	// extrema merge into one level.
	ClusteringThreshold float64
	// ClusterMergeTighten scales the clustering threshold at merge time.
	ClusterMergeTighten float64
	// VolumeThreshold is the multiple of average volume marking accumulation.
	VolumeThreshold float64
	// VolatilityThreshold is the multiple of average true range marking a
	// volatility spike.
	VolatilityThreshold float64
	// AccumulationWindow is the sliding window size for accumulation scans.
	AccumulationWindow int
	// VolatilityWindow is the sliding window size for volatility scans.
	VolatilityWindow int
	// TimeWindow caps how many recent candles an analysis call considers.
	TimeWindow int
	// StrengthMultiplier scales level strength for the class.
	StrengthMultiplier float64
	// ConfidenceBoost is a flat confidence addition for the class.
	ConfidenceBoost float64
}

// Tuning constants for synthetic (OTC) pairs. These bias corrections
// compensate for the sparser data of broker synthetic feeds.
const (
	otcStrengthMultiplier = 1.15
	otcConfidenceBoost    = float64(10)
)

// NewThresholdProfile returns the threshold profile for the provided market class.
func NewThresholdProfile(class MarketClass) ThresholdProfile {
	switch class {
	case OTC:
		return ThresholdProfile{
			Class:               OTC,
			PriceSensitivity:    0.004,
			PriceProximity:      0.004,
			ClusteringThreshold: 0.0015,
			ClusterMergeTighten: 0.8,
			VolumeThreshold:     1.3,
			VolatilityThreshold: 1.8,
			AccumulationWindow:  4,
			VolatilityWindow:    8,
			TimeWindow:          200,
			StrengthMultiplier:  otcStrengthMultiplier,
			ConfidenceBoost:     otcConfidenceBoost,
		}
	default:
		return ThresholdProfile{
			Class:               Regular,
			PriceSensitivity:    0.005,
			PriceProximity:      0.005,
			ClusteringThreshold: 0.002,
			ClusterMergeTighten: 1,
			VolumeThreshold:     1.5,
			VolatilityThreshold: 2,
			AccumulationWindow:  5,
			VolatilityWindow:    10,
			TimeWindow:          200,
			StrengthMultiplier:  1,
			ConfidenceBoost:     0,
		}
	}
}
