package shared

// LevelKind represents the type of level.
type LevelKind int

const (
	Support LevelKind = iota
	Resistance
)

// String stringifies the provided level kind.
func (l LevelKind) String() string {
	switch l {
	case Support:
		return "support"
	case Resistance:
		return "resistance"
	default:
		return "unknown"
	}
}

// PriceLevel represents a clustered support or resistance level.
type PriceLevel struct {
	// Price is the cluster averaged level price.
	Price float64
	// OriginIndex is the window index of the representative extremum.
	OriginIndex int
	// Touches is the count of candles whose wick touched the level.
	Touches int
	// Bounces is the count of touches followed by a reversal candle.
	Bounces int
	// Strength scores the level from 0 to 100.
	Strength int
	// Kind marks the level as support or resistance.
	Kind LevelKind
	// OTCAdjusted marks levels whose strength carries the synthetic pair bias.
	OTCAdjusted bool
}

// BreakoutDirection represents the direction of an anticipated level test.
type BreakoutDirection int

const (
	Up BreakoutDirection = iota
	Down
)

// String stringifies the provided breakout direction.
func (b BreakoutDirection) String() string {
	switch b {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// BreakoutPoint represents a level currently being tested by price.
type BreakoutPoint struct {
	Price           float64
	Kind            LevelKind
	Direction       BreakoutDirection
	DistancePercent float64
	Strength        int
}
