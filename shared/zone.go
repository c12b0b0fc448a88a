package shared

// ZoneKind represents the type of zone.
type ZoneKind int

const (
	Accumulation ZoneKind = iota
	Distribution
	Volatility
)

// String stringifies the provided zone kind.
func (z ZoneKind) String() string {
	switch z {
	case Accumulation:
		return "accumulation"
	case Distribution:
		return "distribution"
	case Volatility:
		return "volatility"
	default:
		return "unknown"
	}
}

// Zone represents a price range flagged by rolling window statistics.
type Zone struct {
	// StartIndex and EndIndex bound the zone within the analyzed window.
	StartIndex int
	EndIndex   int
	// Price is the representative price of the zone.
	Price float64
	// Strength scores the zone from 0 to 100.
	Strength int
	// Kind classifies the zone.
	Kind ZoneKind
}
