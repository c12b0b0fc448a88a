package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/kanzen/strata/service"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		log.Printf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	strataCfg := service.StrataConfig{
		Pairs:            cfg.Pairs,
		APIKey:           cfg.APIKey,
		RefreshInterval:  time.Duration(cfg.RefreshIntervalSeconds) * time.Second,
		DatabaseEndpoint: cfg.DatabaseEndpoint,
		DatabaseUser:     cfg.DatabaseUser,
		DatabasePass:     cfg.DatabasePass,
		Cancel:           cancel,
	}
	strata, err := service.NewStrata(ctx, &strataCfg)
	if err != nil {
		log.Printf("creating strata service: %v", err)
		return
	}

	go handleTermination(ctx, cancel)
	strata.Run(ctx)
}
