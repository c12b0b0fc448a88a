package pairs

import (
	"testing"

	"github.com/kanzen/strata/shared"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		pair string
		want shared.MarketClass
	}{
		{
			name: "exchange pair",
			pair: "EURUSD",
			want: shared.Regular,
		},
		{
			name: "underscore otc suffix",
			pair: "EURUSD_OTC",
			want: shared.OTC,
		},
		{
			name: "dash otc suffix",
			pair: "GBPJPY-OTC",
			want: shared.OTC,
		},
		{
			name: "space otc suffix",
			pair: "USDJPY OTC",
			want: shared.OTC,
		},
		{
			name: "lowercase otc pair",
			pair: "eurusd_otc",
			want: shared.OTC,
		},
		{
			name: "padded pair",
			pair: " EURUSD ",
			want: shared.Regular,
		},
		{
			name: "empty pair",
			pair: "",
			want: shared.Regular,
		},
	}

	for _, test := range tests {
		got := Classify(test.pair)
		if got != test.want {
			t.Errorf("%s: Classify(%q) = %v, want %v", test.name, test.pair, got, test.want)
		}
	}
}

func TestBaseSymbol(t *testing.T) {
	tests := []struct {
		name string
		pair string
		want string
	}{
		{
			name: "exchange pair unchanged",
			pair: "EURUSD",
			want: "EURUSD",
		},
		{
			name: "underscore otc suffix stripped",
			pair: "EURUSD_OTC",
			want: "EURUSD",
		},
		{
			name: "dash otc suffix stripped",
			pair: "gbpjpy-otc",
			want: "GBPJPY",
		},
		{
			name: "space otc suffix stripped",
			pair: "USDJPY OTC",
			want: "USDJPY",
		},
	}

	for _, test := range tests {
		got := BaseSymbol(test.pair)
		if got != test.want {
			t.Errorf("%s: BaseSymbol(%q) = %q, want %q", test.name, test.pair, got, test.want)
		}
	}
}
