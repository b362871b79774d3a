// Package engine - system.go
package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// Phase is one step of the tick state machine.
type Phase string

const (
	PhaseDecay     Phase = "Decay"
	PhaseWorldGen  Phase = "WorldGen"
	PhaseFaction   Phase = "Faction"
	PhaseNemesis   Phase = "Nemesis"
	PhaseNarrative Phase = "NarrativePressure"
	PhaseResolve   Phase = "Resolve"
	PhaseCommit    Phase = "Commit"
)

// Streams hands out the tick's named random streams. *rng.Registry satisfies it.
type Streams interface {
	Stream(name rng.StreamName) *rng.Handle
}

// ErrUndeclaredStream marks a system drawing from a stream it did not list.
var ErrUndeclaredStream = errors.New("undeclared random stream")

// scopedStreams limits a system to the streams it declared. Two systems in
// one phase never share a handle.
type scopedStreams struct {
	system   string
	declared []rng.StreamName
	reg      *rng.Registry
}

func scopeStreams(sys System, reg *rng.Registry) scopedStreams {
	return scopedStreams{system: sys.Name(), declared: sys.Streams(), reg: reg}
}

// Stream panics on an undeclared name; runPhase turns the panic into a tick abort.
func (s scopedStreams) Stream(name rng.StreamName) *rng.Handle {
	if !slices.Contains(s.declared, name) {
		panic(fmt.Errorf("%w: %s asked for %q", ErrUndeclaredStream, s.system, name))
	}
	return s.reg.Stream(name)
}

// System reads a snapshot and proposes events. It never mutates the snapshot.
type System interface {
	Name() string
	// Streams lists the random streams the system draws from.
	Streams() []rng.StreamName
	Run(snap *world.State, c content.Repository, rs Streams) ([]events.Event, error)
}

// phasePlan binds a phase to the systems evaluated in it.
type phasePlan struct {
	phase   Phase
	systems []System
}

// simTick is the tick a snapshot is being advanced into.
func simTick(snap *world.State) uint64 {
	return snap.Time.Tick + 1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
