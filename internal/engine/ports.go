// Package engine - ports.go
// Interfaces the orchestrator needs from the outside world.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// WorldRepository persists whole-world checkpoints.
type WorldRepository interface {
	Load(ctx context.Context) (*world.State, error)
	Save(ctx context.Context, w *world.State) error
}

// SizedRepository is implemented by repositories that can report the size
// of their last successful save.
type SizedRepository interface {
	LastSaveSize() int64
}

// EventSink observes what each tick resolved. Sink errors never affect the
// simulation.
type EventSink interface {
	Record(ctx context.Context, envs []events.Envelope, draws []rng.Draw) error
}

// Clock supplies wall time for telemetry only. Simulation time lives in world.Time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MultiSink fans a tick out to several sinks and joins their errors.
type MultiSink []EventSink

func (m MultiSink) Record(ctx context.Context, envs []events.Envelope, draws []rng.Draw) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, envs, draws); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
