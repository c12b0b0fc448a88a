package shared

// Direction represents the direction of a proposed trade.
type Direction int

const (
	Buy Direction = iota
	Sell
	UnknownDirection
)

// String stringifies the provided direction.
func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// ParseDirection parses a direction from its textual form.
func ParseDirection(direction string) Direction {
	switch direction {
	case "buy", "BUY", "call", "CALL":
		return Buy
	case "sell", "SELL", "put", "PUT":
		return Sell
	default:
		return UnknownDirection
	}
}

// Signal represents a proposed directional trade produced upstream.
type Signal struct {
	// Pair is the traded pair identifier.
	Pair string
	// Direction is the proposed trade direction.
	Direction Direction
	// EntryTime is the proposed entry time of day (HH:MM).
	EntryTime string
	// Duration is the proposed holding duration in minutes.
	Duration int
	// Probability is the upstream producer's probability estimate.
	Probability float64
}

// ValidationResult represents the outcome of validating a proposed signal.
type ValidationResult struct {
	// Accepted reports the go/no-go decision.
	Accepted bool
	// Confidence scores the decision from 0 to 100.
	Confidence float64
	// Reason describes the decisive branch in human readable form.
	Reason string
}
