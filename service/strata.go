// Package service wires candle fetching, structure analysis, signal
// validation, duration calibration and outcome persistence into one running
// service.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kanzen/strata/database"
	"github.com/kanzen/strata/duration"
	"github.com/kanzen/strata/fetch"
	"github.com/kanzen/strata/pairs"
	"github.com/kanzen/strata/shared"
	"github.com/kanzen/strata/structure"
	"github.com/kanzen/strata/validate"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxWorkers is the maximum number of concurrent workers.
	maxWorkers = 16
)

// ValidationResponse represents the outcome of validating and calibrating a
// proposed signal.
type ValidationResponse struct {
	// Result is the validation decision.
	Result shared.ValidationResult
	// Duration is the calibrated holding duration in minutes, zero for
	// rejected signals.
	Duration int
}

// ValidationRequest represents a request to validate and calibrate a
// proposed signal.
type ValidationRequest struct {
	// Signal is the proposed signal.
	Signal shared.Signal
	// Response receives the validation response.
	Response chan ValidationResponse
}

// NewValidationRequest initializes a new validation request.
func NewValidationRequest(signal shared.Signal) *ValidationRequest {
	return &ValidationRequest{
		Signal:   signal,
		Response: make(chan ValidationResponse, 1),
	}
}

// StrataConfig represents the configuration struct for the strata service.
type StrataConfig struct {
	// Pairs represents the tracked pairs.
	Pairs []string
	// APIKey is the market data collector API key.
	APIKey string
	// RefreshInterval is the period between candle window refreshes.
	RefreshInterval time.Duration
	// DatabaseEndpoint is the rqlite endpoint, empty disables persistence.
	DatabaseEndpoint string
	// DatabaseUser is the rqlite user.
	DatabaseUser string
	// DatabasePass is the rqlite user pass.
	DatabasePass string
	// Cancel is the context cancellation function.
	Cancel context.CancelFunc
}

// Validate asserts the config sane inputs.
func (cfg *StrataConfig) Validate() error {
	var errs error

	if len(cfg.Pairs) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no pairs provided for strata service"))
	}
	if cfg.APIKey == "" {
		errs = errors.Join(errs, fmt.Errorf("collector api key cannot be an empty string"))
	}
	if cfg.RefreshInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("refresh interval must be positive"))
	}
	if cfg.Cancel == nil {
		errs = errors.Join(errs, fmt.Errorf("context cancellation function cannot be nil"))
	}

	return errs
}

// Strata represents the price structure analysis service.
type Strata struct {
	cfg          *StrataConfig
	fetchManager *fetch.Manager
	detector     *structure.Detector
	validator    *validate.Validator
	calibrator   *duration.Calibrator
	storer       database.OutcomeStorer
	requests     chan *ValidationRequest
	updates      chan shared.WindowUpdate
	workers      chan struct{}
	logger       *zerolog.Logger
	wg           sync.WaitGroup
}

// NewStrata initializes a new strata service.
func NewStrata(ctx context.Context, cfg *StrataConfig) (*Strata, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating strata config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "strata").Logger()

	client, err := fetch.NewClient(&fetch.ClientConfig{APIKey: cfg.APIKey, BaseURL: fetch.BaseURL})
	if err != nil {
		return nil, fmt.Errorf("creating collector client: %w", err)
	}

	fetchMgrLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Pairs:           cfg.Pairs,
		Timeframe:       shared.OneMinute,
		ExchangeClient:  client,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          &fetchMgrLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating fetch manager: %w", err)
	}

	detectorLogger := logger.With().Str("component", "detector").Logger()
	detector := structure.NewDetector(&structure.DetectorConfig{Logger: &detectorLogger})

	validatorLogger := logger.With().Str("component", "validator").Logger()
	validator := validate.NewValidator(&validate.ValidatorConfig{
		ClassifyPair: pairs.Classify,
		Logger:       &validatorLogger,
	})

	calibratorLogger := logger.With().Str("component", "calibrator").Logger()
	calibrator := duration.NewCalibrator(&duration.CalibratorConfig{Logger: &calibratorLogger})

	var storer database.OutcomeStorer
	if cfg.DatabaseEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.DatabaseEndpoint,
			User:     cfg.DatabaseUser,
			Pass:     cfg.DatabasePass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating database: %w", err)
		}
		storer = db
	}

	service := &Strata{
		cfg:          cfg,
		fetchManager: fetchMgr,
		detector:     detector,
		validator:    validator,
		calibrator:   calibrator,
		storer:       storer,
		requests:     make(chan *ValidationRequest, bufferSize),
		updates:      make(chan shared.WindowUpdate, bufferSize),
		workers:      make(chan struct{}, maxWorkers),
		logger:       &logger,
	}

	fetchMgr.Subscribe(&service.updates)

	return service, nil
}

// SendValidationRequest relays the provided validation request for processing.
func (s *Strata) SendValidationRequest(req *ValidationRequest) {
	select {
	case s.requests <- req:
		// do nothing.
	default:
		s.logger.Error().Msgf("validation request channel at capacity: %d/%d",
			len(s.requests), bufferSize)
	}
}

// handleValidationRequest validates and calibrates the provided proposed signal.
func (s *Strata) handleValidationRequest(ctx context.Context, req *ValidationRequest) {
	window := s.fetchManager.FetchWindow(req.Signal.Pair)
	result := s.validator.Validate(req.Signal, window)

	var minutes int
	if result.Accepted {
		profile := shared.NewThresholdProfile(pairs.Classify(req.Signal.Pair))
		summary := s.detector.DetectLevels(window, profile)
		minutes = s.calibrator.Calibrate(req.Signal, window, summary)
	}

	s.logger.Info().
		Str("pair", req.Signal.Pair).
		Str("direction", req.Signal.Direction.String()).
		Bool("accepted", result.Accepted).
		Float64("confidence", result.Confidence).
		Int("duration", minutes).
		Msg(result.Reason)

	req.Response <- ValidationResponse{Result: result, Duration: minutes}

	if s.storer == nil {
		return
	}

	outcome := &database.Outcome{
		ID:        uuid.NewString(),
		Pair:      req.Signal.Pair,
		Direction: req.Signal.Direction,
		Result:    result,
		Duration:  minutes,
		CreatedOn: time.Now().UTC(),
	}
	err := s.storer.PersistOutcome(ctx, outcome)
	if err != nil {
		s.logger.Error().Msgf("persisting outcome for %s: %v", req.Signal.Pair, err)
	}
}

// handleWindowUpdate logs the structural picture of a refreshed window.
func (s *Strata) handleWindowUpdate(update shared.WindowUpdate) {
	profile := shared.NewThresholdProfile(pairs.Classify(update.Pair))
	summary := s.detector.Analyze(update.Candles, profile)

	s.logger.Debug().
		Str("pair", update.Pair).
		Int("supports", len(summary.Levels.Supports)).
		Int("resistances", len(summary.Levels.Resistances)).
		Int("zones", len(summary.Zones.Accumulation)+len(summary.Zones.Volatility)).
		Int("breakouts", len(summary.Breakouts)).
		Msg("window refreshed")
}

// Run handles the lifecycle processes of the strata service.
func (s *Strata) Run(ctx context.Context) {
	s.wg.Add(2)

	go func() {
		s.fetchManager.Run(ctx)
		s.wg.Done()
	}()

	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case req := <-s.requests:
				s.workers <- struct{}{}
				go func(req *ValidationRequest) {
					s.handleValidationRequest(ctx, req)
					<-s.workers
				}(req)
			case update := <-s.updates:
				s.handleWindowUpdate(update)
			}
		}
	}()

	s.wg.Wait()
}
