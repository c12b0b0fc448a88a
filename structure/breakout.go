package structure

import (
	"math"
	"sort"

	"github.com/kanzen/strata/shared"
)

const (
	// breakoutProximity is the relative distance within which a level counts
	// as imminently tested by price.
	breakoutProximity = 0.005
	// maxBreakouts caps the number of retained breakout candidates.
	maxBreakouts = 3
)

// DetectBreakouts flags levels the current price is imminently testing. The
// direction anticipates the test: up when price sits below the level, down
// when it sits above.
func (d *Detector) DetectBreakouts(candles []shared.Candlestick, levels Levels) (points []shared.BreakoutPoint) {
	defer func() {
		if r := recover(); r != nil {
			d.cfg.Logger.Error().Msgf("recovered detecting breakouts: %v", r)
			points = nil
		}
	}()

	if len(candles) < shared.MinWindowSize {
		return nil
	}

	currentPrice := shared.CurrentPrice(candles)
	if currentPrice == 0 {
		return nil
	}

	all := make([]shared.PriceLevel, 0, len(levels.Supports)+len(levels.Resistances))
	all = append(all, levels.Supports...)
	all = append(all, levels.Resistances...)

	points = make([]shared.BreakoutPoint, 0, maxBreakouts)
	for idx := range all {
		distance := (all[idx].Price - currentPrice) / currentPrice
		if math.Abs(distance) > breakoutProximity {
			continue
		}

		direction := shared.Down
		if currentPrice < all[idx].Price {
			direction = shared.Up
		}

		points = append(points, shared.BreakoutPoint{
			Price:           all[idx].Price,
			Kind:            all[idx].Kind,
			Direction:       direction,
			DistancePercent: math.Abs(distance) * 100,
			Strength:        all[idx].Strength,
		})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].DistancePercent == points[j].DistancePercent {
			return points[i].Price < points[j].Price
		}
		return points[i].DistancePercent < points[j].DistancePercent
	})

	if len(points) > maxBreakouts {
		points = points[:maxBreakouts]
	}

	return points
}
