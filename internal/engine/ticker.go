// Package engine - ticker.go
// Wall-clock driver for servers that advance the city on their own.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

// Ticker calls Orchestrator.Tick on a fixed wall-clock interval.
// Simulation time never depends on the interval.
type Ticker struct {
	orch     *Orchestrator
	interval time.Duration
	logger   *logger.Logger
	onTick   func(TickReport)

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTicker creates a ticker. onTick may be nil.
func NewTicker(orch *Orchestrator, interval time.Duration, log *logger.Logger, onTick func(TickReport)) *Ticker {
	return &Ticker{
		orch:     orch,
		interval: interval,
		logger:   log,
		onTick:   onTick,
		stopChan: make(chan struct{}),
	}
}

// Start runs the loop until ctx is done or Stop is called. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) {
	t.logger.Info(fmt.Sprintf("Ticker started, interval %s", t.interval))

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Ticker stopped by context.")
			return
		case <-t.stopChan:
			t.logger.Info("Ticker stopped manually.")
			return
		case <-ticker.C:
			t.step(ctx)
		}
	}
}

// Stop ends the loop. Safe to call more than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}

func (t *Ticker) step(ctx context.Context) {
	report, err := t.orch.Tick(ctx)
	if err != nil {
		if errors.Is(err, ErrTickAborted) {
			t.logger.Warn(fmt.Sprintf("tick skipped: %v", err))
			return
		}
		t.logger.Error(fmt.Sprintf("tick failed: %v", err))
		return
	}
	if t.onTick != nil {
		t.onTick(report)
	}
}
