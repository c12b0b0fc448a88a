package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kanzen/strata/shared"
	"github.com/peterldowns/testy/assert"
)

func testConfig(cancel context.CancelFunc) *StrataConfig {
	return &StrataConfig{
		Pairs:           []string{"EURUSD"},
		APIKey:          "apikey",
		RefreshInterval: time.Minute,
		Cancel:          cancel,
	}
}

func TestStrataConfigValidate(t *testing.T) {
	cancel := context.CancelFunc(func() {})

	tests := []struct {
		name    string
		cfg     StrataConfig
		wantErr []string
	}{
		{
			name: "valid config",
			cfg: StrataConfig{
				Pairs:           []string{"EURUSD"},
				APIKey:          "apikey",
				RefreshInterval: time.Minute,
				Cancel:          cancel,
			},
			wantErr: nil,
		},
		{
			name: "missing pairs",
			cfg: StrataConfig{
				APIKey:          "apikey",
				RefreshInterval: time.Minute,
				Cancel:          cancel,
			},
			wantErr: []string{"no pairs provided for strata service"},
		},
		{
			name: "missing api key",
			cfg: StrataConfig{
				Pairs:           []string{"EURUSD"},
				RefreshInterval: time.Minute,
				Cancel:          cancel,
			},
			wantErr: []string{"collector api key cannot be an empty string"},
		},
		{
			name: "non positive refresh interval",
			cfg: StrataConfig{
				Pairs:  []string{"EURUSD"},
				APIKey: "apikey",
				Cancel: cancel,
			},
			wantErr: []string{"refresh interval must be positive"},
		},
		{
			name: "missing cancel func",
			cfg: StrataConfig{
				Pairs:           []string{"EURUSD"},
				APIKey:          "apikey",
				RefreshInterval: time.Minute,
			},
			wantErr: []string{"context cancellation function cannot be nil"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("expected error(s) %v, got none", tt.wantErr)
				return
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("expected error to contain %q, got %v", want, err)
				}
			}
		})
	}
}

func TestNewStrata(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, err := NewStrata(ctx, testConfig(cancel))
	assert.NoError(t, err)
	assert.NotNil(t, service)

	// An invalid config fails construction.
	_, err = NewStrata(ctx, &StrataConfig{})
	assert.Error(t, err)
}

func TestHandleValidationRequestWithoutWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, err := NewStrata(ctx, testConfig(cancel))
	assert.NoError(t, err)

	// With no candle window fetched yet validation fails open.
	req := NewValidationRequest(shared.Signal{
		Pair:      "EURUSD",
		Direction: shared.Buy,
		EntryTime: "03:00",
	})
	service.handleValidationRequest(ctx, req)

	resp := <-req.Response
	assert.True(t, resp.Result.Accepted)
	assert.Equal(t, resp.Result.Confidence, float64(100))
	assert.Equal(t, resp.Duration, 2)
}

func TestSendValidationRequestAtCapacity(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service, err := NewStrata(ctx, testConfig(cancel))
	assert.NoError(t, err)

	for idx := 0; idx < bufferSize+4; idx++ {
		service.SendValidationRequest(NewValidationRequest(shared.Signal{Pair: "EURUSD"}))
	}
	assert.Equal(t, len(service.requests), bufferSize)
}
