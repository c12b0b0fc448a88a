package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/kanzen/strata/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 8
	// minSubscriberBuffer is the minimum buffer size for subscribers.
	minSubscriberBuffer = 24
	// defaultWindowSpan is how far back a window refresh reaches.
	defaultWindowSpan = time.Hour * 6
)

// RefreshSignal represents a signal to refresh the candle window of a pair.
type RefreshSignal struct {
	// Pair is the pair to refresh.
	Pair string
	// Timeframe is the candle period to refresh.
	Timeframe shared.Timeframe
}

// ManagerConfig represents the configuration for the fetch manager.
type ManagerConfig struct {
	// Pairs represents the tracked pairs.
	Pairs []string
	// Timeframe is the candle period tracked for every pair.
	Timeframe shared.Timeframe
	// ExchangeClient represents the market data collector client.
	ExchangeClient shared.CandleFetcher
	// RefreshInterval is the period between scheduled window refreshes.
	RefreshInterval time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Manager keeps candle windows for all tracked pairs fresh and fans updates
// out to subscribers.
type Manager struct {
	cfg            *ManagerConfig
	jobScheduler   gocron.Scheduler
	refreshSignals chan RefreshSignal
	subscribers    []*chan shared.WindowUpdate
	windows        map[string][]shared.Candlestick
	windowsMtx     sync.RWMutex
	refreshing     map[string]*atomic.Bool
	workers        chan struct{}
}

// NewManager initializes the fetch manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating job scheduler: %w", err)
	}

	refreshing := make(map[string]*atomic.Bool, len(cfg.Pairs))
	for idx := range cfg.Pairs {
		refreshing[cfg.Pairs[idx]] = atomic.NewBool(false)
	}

	mgr := &Manager{
		cfg:            cfg,
		jobScheduler:   scheduler,
		refreshSignals: make(chan RefreshSignal, bufferSize),
		subscribers:    make([]*chan shared.WindowUpdate, 0, minSubscriberBuffer),
		windows:        make(map[string][]shared.Candlestick, len(cfg.Pairs)),
		refreshing:     refreshing,
		workers:        make(chan struct{}, maxWorkers),
	}

	return mgr, nil
}

// Subscribe registers the provided subscriber for window updates.
func (m *Manager) Subscribe(sub *chan shared.WindowUpdate) {
	m.subscribers = append(m.subscribers, sub)
}

// notifySubscribers notifies subscribers of the refreshed window.
func (m *Manager) notifySubscribers(update shared.WindowUpdate) {
	for k := range m.subscribers {
		*m.subscribers[k] <- update
	}
}

// FetchWindow returns the current candle window of the provided pair.
func (m *Manager) FetchWindow(pair string) []shared.Candlestick {
	m.windowsMtx.RLock()
	defer m.windowsMtx.RUnlock()

	window := m.windows[pair]
	snapshot := make([]shared.Candlestick, len(window))
	copy(snapshot, window)

	return snapshot
}

// SendRefreshSignal relays the provided refresh signal for processing.
func (m *Manager) SendRefreshSignal(signal RefreshSignal) {
	select {
	case m.refreshSignals <- signal:
		// do nothing.
	default:
		m.cfg.Logger.Error().Msgf("refresh signal channel at capacity: %d/%d",
			len(m.refreshSignals), bufferSize)
	}
}

// handleRefreshSignal processes the provided refresh signal.
func (m *Manager) handleRefreshSignal(signal RefreshSignal) {
	flag, ok := m.refreshing[signal.Pair]
	if !ok {
		m.cfg.Logger.Error().Msgf("no tracked pair found with name %s for refresh", signal.Pair)
		return
	}

	// Skip overlapping refreshes of the same pair.
	if !flag.CompareAndSwap(false, true) {
		return
	}
	defer flag.Store(false)

	start := time.Now().UTC().Add(-defaultWindowSpan)
	candles, err := m.cfg.ExchangeClient.FetchCandles(context.Background(), signal.Pair,
		signal.Timeframe, start, time.Time{})
	if err != nil {
		m.cfg.Logger.Error().Msgf("refreshing window for %s: %v", signal.Pair, err)
		return
	}

	if len(candles) == 0 {
		m.cfg.Logger.Warn().Msgf("no candles returned refreshing window for %s", signal.Pair)
		return
	}

	m.windowsMtx.Lock()
	m.windows[signal.Pair] = candles
	m.windowsMtx.Unlock()

	m.notifySubscribers(shared.WindowUpdate{
		Pair:      signal.Pair,
		Timeframe: signal.Timeframe,
		Candles:   candles,
	})
}

// scheduleRefreshes registers periodic window refresh jobs for all tracked pairs.
func (m *Manager) scheduleRefreshes() error {
	for idx := range m.cfg.Pairs {
		pair := m.cfg.Pairs[idx]
		_, err := m.jobScheduler.NewJob(
			gocron.DurationJob(m.cfg.RefreshInterval),
			gocron.NewTask(func() {
				m.SendRefreshSignal(RefreshSignal{Pair: pair, Timeframe: m.cfg.Timeframe})
			}),
		)
		if err != nil {
			return fmt.Errorf("scheduling refresh job for %s: %w", pair, err)
		}
	}

	m.jobScheduler.Start()

	return nil
}

// Run manages the lifecycle processes of the fetch manager.
func (m *Manager) Run(ctx context.Context) {
	err := m.scheduleRefreshes()
	if err != nil {
		m.cfg.Logger.Error().Msgf("scheduling refreshes: %v", err)
		return
	}

	// Prime windows for all tracked pairs immediately.
	for idx := range m.cfg.Pairs {
		m.SendRefreshSignal(RefreshSignal{Pair: m.cfg.Pairs[idx], Timeframe: m.cfg.Timeframe})
	}

	for {
		select {
		case <-ctx.Done():
			err := m.jobScheduler.Shutdown()
			if err != nil {
				m.cfg.Logger.Error().Msgf("shutting down job scheduler: %v", err)
			}
			return
		case signal := <-m.refreshSignals:
			m.workers <- struct{}{}
			go func(signal RefreshSignal) {
				m.handleRefreshSignal(signal)
				<-m.workers
			}(signal)
		}
	}
}
