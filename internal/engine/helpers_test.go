package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

func newTestOrchestrator(t *testing.T, w *world.State, mutate func(*Options)) *Orchestrator {
	t.Helper()
	opts := Options{
		World:   w,
		Content: content.MustDefaultCatalog(),
		Balance: config.DefaultBalance(),
		Logger:  logger.Discard(),
		Metrics: metrics.New(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func maskedAt(w *world.State, loc ids.LocationID) *world.State {
	stack := w.Personas.Actors[world.PlayerActor]
	stack.Active = world.PersonaMask
	stack.Location = loc
	w.Personas.Actors[world.PlayerActor] = stack
	return w
}

// memRepo records checkpoints and can be told to fail.
type memRepo struct {
	mu     sync.Mutex
	saves  []uint64
	failOn map[uint64]bool
	last   *world.State
}

func (r *memRepo) Load(context.Context) (*world.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil, errors.New("nothing saved")
	}
	return r.last.Clone(), nil
}

func (r *memRepo) Save(_ context.Context, w *world.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[w.Time.Tick] {
		return errors.New("disk full")
	}
	r.saves = append(r.saves, w.Time.Tick)
	r.last = w
	return nil
}

func (r *memRepo) LastSaveSize() int64 { return 2048 }

type recordingSink struct {
	ticks int
	envs  []events.Envelope
	draws []rng.Draw
}

func (s *recordingSink) Record(_ context.Context, envs []events.Envelope, draws []rng.Draw) error {
	s.ticks++
	s.envs = append(s.envs, envs...)
	s.draws = append(s.draws, draws...)
	return nil
}

type panicSystem struct{}

func (panicSystem) Name() string              { return "boom" }
func (panicSystem) Streams() []rng.StreamName { return nil }
func (panicSystem) Run(*world.State, content.Repository, Streams) ([]events.Event, error) {
	panic("boom")
}

// greedySystem declares no streams but draws from the nemesis stream.
type greedySystem struct{}

func (greedySystem) Name() string              { return "greedy" }
func (greedySystem) Streams() []rng.StreamName { return nil }
func (greedySystem) Run(_ *world.State, _ content.Repository, rs Streams) ([]events.Event, error) {
	rs.Stream(rng.Nemesis).IntN(10)
	return nil, nil
}

type failingSystem struct{}

func (failingSystem) Name() string              { return "failing" }
func (failingSystem) Streams() []rng.StreamName { return nil }
func (failingSystem) Run(*world.State, content.Repository, Streams) ([]events.Event, error) {
	return nil, errors.New("sensor offline")
}
