package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kanzen/strata/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

// stubFetcher serves a canned candle window or error.
type stubFetcher struct {
	candles []shared.Candlestick
	err     error
}

func (s *stubFetcher) FetchCandles(ctx context.Context, pair string, timeframe shared.Timeframe,
	start time.Time, end time.Time) ([]shared.Candlestick, error) {
	return s.candles, s.err
}

func newTestManager(t *testing.T, fetcher shared.CandleFetcher) *Manager {
	t.Helper()

	mgr, err := NewManager(&ManagerConfig{
		Pairs:           []string{"EURUSD"},
		Timeframe:       shared.OneMinute,
		ExchangeClient:  fetcher,
		RefreshInterval: time.Minute,
		Logger:          &log.Logger,
	})
	assert.NoError(t, err)

	return mgr
}

func TestHandleRefreshSignal(t *testing.T) {
	candles := []shared.Candlestick{{Pair: "EURUSD", Close: 1.1020, Volume: 1}}
	mgr := newTestManager(t, &stubFetcher{candles: candles})

	sub := make(chan shared.WindowUpdate, 1)
	mgr.Subscribe(&sub)

	mgr.handleRefreshSignal(RefreshSignal{Pair: "EURUSD", Timeframe: shared.OneMinute})

	window := mgr.FetchWindow("EURUSD")
	assert.Equal(t, len(window), 1)
	assert.Equal(t, window[0].Close, 1.1020)

	select {
	case update := <-sub:
		assert.Equal(t, update.Pair, "EURUSD")
		assert.Equal(t, len(update.Candles), 1)
	default:
		t.Error("expected a window update for the subscriber")
	}

	// The returned window is a snapshot, mutating it leaves the managed
	// window untouched.
	window[0].Close = 0
	assert.Equal(t, mgr.FetchWindow("EURUSD")[0].Close, 1.1020)
}

func TestHandleRefreshSignalSkipsOverlap(t *testing.T) {
	candles := []shared.Candlestick{{Pair: "EURUSD", Close: 1.1020, Volume: 1}}
	mgr := newTestManager(t, &stubFetcher{candles: candles})

	// A refresh already in flight for the pair wins the flag, the
	// overlapping refresh is skipped.
	mgr.refreshing["EURUSD"].Store(true)
	mgr.handleRefreshSignal(RefreshSignal{Pair: "EURUSD", Timeframe: shared.OneMinute})
	assert.Equal(t, len(mgr.FetchWindow("EURUSD")), 0)

	mgr.refreshing["EURUSD"].Store(false)
	mgr.handleRefreshSignal(RefreshSignal{Pair: "EURUSD", Timeframe: shared.OneMinute})
	assert.Equal(t, len(mgr.FetchWindow("EURUSD")), 1)
}

func TestHandleRefreshSignalUntrackedPair(t *testing.T) {
	mgr := newTestManager(t, &stubFetcher{})

	mgr.handleRefreshSignal(RefreshSignal{Pair: "GBPUSD", Timeframe: shared.OneMinute})
	assert.Equal(t, len(mgr.FetchWindow("GBPUSD")), 0)
}

func TestHandleRefreshSignalFetchError(t *testing.T) {
	mgr := newTestManager(t, &stubFetcher{err: errors.New("collector unavailable")})

	mgr.handleRefreshSignal(RefreshSignal{Pair: "EURUSD", Timeframe: shared.OneMinute})
	assert.Equal(t, len(mgr.FetchWindow("EURUSD")), 0)
}

func TestSendRefreshSignalAtCapacity(t *testing.T) {
	mgr := newTestManager(t, &stubFetcher{})

	// Filling the channel past capacity drops signals instead of blocking.
	for idx := 0; idx < bufferSize+4; idx++ {
		mgr.SendRefreshSignal(RefreshSignal{Pair: "EURUSD", Timeframe: shared.OneMinute})
	}
	assert.Equal(t, len(mgr.refreshSignals), bufferSize)
}
