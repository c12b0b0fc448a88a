// Package validate accepts or rejects a proposed directional trade against
// detected price structure, trend and risk/reward, producing a confidence
// scored decision with a human readable reason.
package validate

import (
	"fmt"
	"math"

	"github.com/kanzen/strata/shared"
	"github.com/kanzen/strata/structure"
	"github.com/rs/zerolog"
)

const (
	// minActionableStrength is the level strength above which proximity to a
	// level drives the decision.
	minActionableStrength = 60
	// zoneMembership is the relative distance within which price belongs to a zone.
	zoneMembership = 0.01
	// reboundBonus is the confidence added on top of level strength for a
	// confirmed rebound.
	reboundBonus = 20
	// retestConfidence is the base confidence of an unbroken level retest.
	retestConfidence = 70
	// brokenLevelConfidence is the base confidence of a rejection at a broken level.
	brokenLevelConfidence = 20
	// confirmedBreakoutConfidence is the base confidence of a confirmed breakout.
	confirmedBreakoutConfidence = 90
	// unconfirmedBreakoutConfidence is the base confidence of an unconfirmed breakout.
	unconfirmedBreakoutConfidence = 60
	// wrongSideConfidence is the base confidence of a rejection against a
	// level price has not yet cleared.
	wrongSideConfidence = 30
	// zoneConfidence is the base confidence of a zone membership acceptance.
	zoneConfidence = 60
	// breakoutCandidateConfidence is the base confidence of a breakout
	// candidate acceptance.
	breakoutCandidateConfidence = 50
	// goodRiskRewardConfidence is the base confidence of a favourable risk/reward.
	goodRiskRewardConfidence = 80
	// poorRiskRewardConfidence is the base confidence of a rejection on poor
	// risk/reward.
	poorRiskRewardConfidence = 40
	// trendConfidence is the base confidence of a trend aligned acceptance.
	trendConfidence = 75
	// counterTrendConfidence is the base confidence of a counter trend rejection.
	counterTrendConfidence = 40
	// neutralConfidence is the base confidence when no structure or trend applies.
	neutralConfidence = 60
	// minRiskRewardRatio is the ratio under which risk/reward rejects a trade.
	minRiskRewardRatio = 1
	// goodRiskRewardRatio is the ratio above which risk/reward accepts a trade.
	goodRiskRewardRatio = 2
)

// ValidatorConfig represents the signal validator configuration.
type ValidatorConfig struct {
	// ClassifyPair returns the market class of the provided pair, sourced
	// from the pair classification lookup.
	ClassifyPair func(pair string) shared.MarketClass
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validator validates proposed signals against detected price structure.
// Validation is a pure function of its inputs, a validator may be shared
// freely across concurrent calls.
type Validator struct {
	cfg      *ValidatorConfig
	detector *structure.Detector
}

// NewValidator initializes a new signal validator.
func NewValidator(cfg *ValidatorConfig) *Validator {
	return &Validator{
		cfg:      cfg,
		detector: structure.NewDetector(&structure.DetectorConfig{Logger: cfg.Logger}),
	}
}

// accept builds an accepting validation result with the confidence clamped.
func accept(confidence float64, format string, args ...interface{}) shared.ValidationResult {
	return shared.ValidationResult{
		Accepted:   true,
		Confidence: clampConfidence(confidence),
		Reason:     fmt.Sprintf(format, args...),
	}
}

// reject builds a rejecting validation result with the confidence clamped.
func reject(confidence float64, format string, args ...interface{}) shared.ValidationResult {
	return shared.ValidationResult{
		Accepted:   false,
		Confidence: clampConfidence(confidence),
		Reason:     fmt.Sprintf(format, args...),
	}
}

// clampConfidence bounds the provided confidence to the 0-100 range.
func clampConfidence(confidence float64) float64 {
	return math.Max(0, math.Min(100, confidence))
}

// Validate decides whether the proposed signal should be taken given the
// provided candle window. The validator fails open: insufficient data,
// unclassifiable input or an internal fault all default to acceptance so an
// upstream signal is never blocked on missing information.
func (v *Validator) Validate(signal shared.Signal, candles []shared.Candlestick) (result shared.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			v.cfg.Logger.Error().Msgf("recovered validating %s signal for %s: %v",
				signal.Direction.String(), signal.Pair, r)
			result = accept(90, "validation fault, defaulting to acceptance")
		}
	}()

	if len(candles) < shared.MinWindowSize {
		return accept(100, "insufficient candle data (%d), accepting by default", len(candles))
	}

	if signal.Direction != shared.Buy && signal.Direction != shared.Sell {
		return accept(90, "unrecognized direction, accepting by default")
	}

	profile := shared.NewThresholdProfile(v.cfg.ClassifyPair(signal.Pair))
	summary := v.detector.Analyze(candles, profile)
	currentPrice := shared.CurrentPrice(candles)

	switch signal.Direction {
	case shared.Buy:
		return v.validateBuy(candles, summary, currentPrice, profile)
	default:
		return v.validateSell(candles, summary, currentPrice, profile)
	}
}

// validateBuy applies the buy side decision cascade.
func (v *Validator) validateBuy(candles []shared.Candlestick, summary structure.Summary,
	currentPrice float64, profile shared.ThresholdProfile) shared.ValidationResult {
	boost := profile.ConfidenceBoost

	// A strong support nearby decides the trade before anything else.
	support, ok := nearestLevel(summary.Levels.Supports, currentPrice, profile.PriceProximity)
	if ok && support.Strength > minActionableStrength {
		switch {
		case currentPrice > support.Price:
			return accept(float64(support.Strength)+reboundBonus+boost,
				"price rebounded above support at %.5f (strength %d)", support.Price, support.Strength)
		case isSupportBroken(candles, support.Price):
			return reject(brokenLevelConfidence+boost,
				"support at %.5f broken on recent closes", support.Price)
		default:
			return accept(retestConfidence+boost,
				"price retesting support at %.5f", support.Price)
		}
	}

	// A strong resistance nearby accepts only on a breakout.
	resistance, ok := nearestLevel(summary.Levels.Resistances, currentPrice, profile.PriceProximity)
	if ok && resistance.Strength > minActionableStrength {
		switch {
		case currentPrice > resistance.Price && confirmBreakout(candles, resistance.Price, shared.Buy):
			return accept(confirmedBreakoutConfidence+boost,
				"confirmed breakout above resistance at %.5f", resistance.Price)
		case currentPrice > resistance.Price:
			return accept(unconfirmedBreakoutConfidence+boost,
				"unconfirmed breakout above resistance at %.5f", resistance.Price)
		default:
			return reject(wrongSideConfidence+boost/2,
				"price below resistance at %.5f", resistance.Price)
		}
	}

	// Membership of an accumulation zone favours the long side.
	if zone, ok := memberZone(summary.Zones.Accumulation, currentPrice, shared.Accumulation); ok {
		return accept(zoneConfidence+float64(zone.Strength)+boost,
			"price inside accumulation zone at %.5f (strength %d)", zone.Price, zone.Strength)
	}

	// An upward breakout candidate at resistance favours the long side.
	if point, ok := breakoutCandidate(summary.Breakouts, shared.Up, shared.Resistance); ok {
		return accept(breakoutCandidateConfidence+float64(point.Strength)+boost,
			"price testing resistance at %.5f for an upward break", point.Price)
	}

	// With structure on both sides of price the risk/reward ratio decides.
	if ratio, ok := evaluateRiskReward(summary.Levels, currentPrice, shared.Buy); ok {
		switch {
		case ratio > goodRiskRewardRatio:
			return accept(goodRiskRewardConfidence+boost,
				"favourable risk/reward ratio %.2f", ratio)
		case ratio < minRiskRewardRatio:
			return reject(poorRiskRewardConfidence+boost/2,
				"poor risk/reward ratio %.2f", ratio)
		}
	}

	// Price is not near any structure, fall back to the regression trend.
	switch shared.AnalyzeTrend(candles, shared.DefaultTrendPeriod) {
	case shared.UpTrend:
		return accept(trendConfidence+boost, "price trending up away from structure")
	case shared.DownTrend:
		return reject(counterTrendConfidence+boost/2, "price trending down against a buy")
	case shared.FlatTrend:
		return accept(neutralConfidence+boost, "no structure or trend against a buy")
	}

	return accept(neutralConfidence+boost/2, "no decisive structure for a buy")
}

// validateSell applies the sell side decision cascade, mirroring the buy
// cascade with support and resistance roles swapped.
func (v *Validator) validateSell(candles []shared.Candlestick, summary structure.Summary,
	currentPrice float64, profile shared.ThresholdProfile) shared.ValidationResult {
	boost := profile.ConfidenceBoost

	resistance, ok := nearestLevel(summary.Levels.Resistances, currentPrice, profile.PriceProximity)
	if ok && resistance.Strength > minActionableStrength {
		switch {
		case currentPrice < resistance.Price:
			return accept(float64(resistance.Strength)+reboundBonus+boost,
				"price rebounded below resistance at %.5f (strength %d)", resistance.Price, resistance.Strength)
		case isResistanceBroken(candles, resistance.Price):
			return reject(brokenLevelConfidence+boost,
				"resistance at %.5f broken on recent closes", resistance.Price)
		default:
			return accept(retestConfidence+boost,
				"price retesting resistance at %.5f", resistance.Price)
		}
	}

	support, ok := nearestLevel(summary.Levels.Supports, currentPrice, profile.PriceProximity)
	if ok && support.Strength > minActionableStrength {
		switch {
		case currentPrice < support.Price && confirmBreakout(candles, support.Price, shared.Sell):
			return accept(confirmedBreakoutConfidence+boost,
				"confirmed breakdown below support at %.5f", support.Price)
		case currentPrice < support.Price:
			return accept(unconfirmedBreakoutConfidence+boost,
				"unconfirmed breakdown below support at %.5f", support.Price)
		default:
			return reject(wrongSideConfidence+boost/2,
				"price above support at %.5f", support.Price)
		}
	}

	if zone, ok := memberZone(summary.Zones.Accumulation, currentPrice, shared.Distribution); ok {
		return accept(zoneConfidence+float64(zone.Strength)+boost,
			"price inside distribution zone at %.5f (strength %d)", zone.Price, zone.Strength)
	}

	if point, ok := breakoutCandidate(summary.Breakouts, shared.Down, shared.Support); ok {
		return accept(breakoutCandidateConfidence+float64(point.Strength)+boost,
			"price testing support at %.5f for a downward break", point.Price)
	}

	if ratio, ok := evaluateRiskReward(summary.Levels, currentPrice, shared.Sell); ok {
		switch {
		case ratio > goodRiskRewardRatio:
			return accept(goodRiskRewardConfidence+boost,
				"favourable risk/reward ratio %.2f", ratio)
		case ratio < minRiskRewardRatio:
			return reject(poorRiskRewardConfidence+boost/2,
				"poor risk/reward ratio %.2f", ratio)
		}
	}

	switch shared.AnalyzeTrend(candles, shared.DefaultTrendPeriod) {
	case shared.DownTrend:
		return accept(trendConfidence+boost, "price trending down away from structure")
	case shared.UpTrend:
		return reject(counterTrendConfidence+boost/2, "price trending up against a sell")
	case shared.FlatTrend:
		return accept(neutralConfidence+boost, "no structure or trend against a sell")
	}

	return accept(neutralConfidence+boost/2, "no decisive structure for a sell")
}
