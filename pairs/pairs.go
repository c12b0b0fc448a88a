// Package pairs provides the static pair classification lookup. It is the
// single place in the repository that derives a market class from a pair
// name, every analysis call receives the classification from here.
package pairs

import (
	"strings"

	"github.com/kanzen/strata/shared"
)

// otcSuffixes are the broker naming conventions marking synthetic pairs.
var otcSuffixes = []string{"_OTC", "-OTC", " OTC"}

// knownOTCPairs lists synthetic pairs that carry no OTC suffix.
var knownOTCPairs = map[string]bool{
	"EURUSD_OTC": true,
	"GBPUSD_OTC": true,
	"USDJPY_OTC": true,
	"AUDUSD_OTC": true,
	"USDCHF_OTC": true,
	"NZDUSD_OTC": true,
	"EURGBP_OTC": true,
	"AUDCAD_OTC": true,
}

// Classify returns the market class of the provided pair.
func Classify(pair string) shared.MarketClass {
	normalized := strings.ToUpper(strings.TrimSpace(pair))

	if knownOTCPairs[normalized] {
		return shared.OTC
	}

	for _, suffix := range otcSuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return shared.OTC
		}
	}

	return shared.Regular
}

// BaseSymbol strips any OTC suffix from the provided pair, yielding the
// exchange symbol the synthetic pair follows.
func BaseSymbol(pair string) string {
	normalized := strings.ToUpper(strings.TrimSpace(pair))

	for _, suffix := range otcSuffixes {
		normalized = strings.TrimSuffix(normalized, suffix)
	}

	return normalized
}
