// Package rng provides named, independently seeded random streams.
//
// A stream's state is derived from (world seed, stream name, tick), so the
// same inputs always yield the same draws and drawing from one stream never
// perturbs another. Every draw is recorded for the audit log.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"sort"
	"sync"
)

// StreamName identifies a random stream.
type StreamName string

// Standard streams.
const (
	Factions  StreamName = "rng_factions"
	Incidents StreamName = "rng_incidents"
	Names     StreamName = "rng_names"
	Nemesis   StreamName = "rng_nemesis"
	Narrative StreamName = "rng_narrative"
	Rules     StreamName = "rng_rules"
)

// Draw is one recorded random outcome.
type Draw struct {
	Stream StreamName `json:"stream"`
	Tick   uint64     `json:"tick"`
	Seq    int        `json:"seq"`
	Op     string     `json:"op"`
	Value  int64      `json:"value"`
}

// Registry hands out the streams for one tick.
type Registry struct {
	seed int64
	tick uint64

	mu      sync.Mutex
	handles map[StreamName]*Handle
}

// New creates the registry for a tick.
func New(seed int64, tick uint64) *Registry {
	return &Registry{
		seed:    seed,
		tick:    tick,
		handles: make(map[StreamName]*Handle),
	}
}

// Tick returns the tick this registry seeds streams for.
func (r *Registry) Tick() uint64 {
	return r.tick
}

// Stream returns the handle for name. Calling it again in the same registry
// continues the same sequence.
func (r *Registry) Stream(name StreamName) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[name]; ok {
		return h
	}
	hi, lo := deriveSeed(r.seed, name, r.tick)
	h := &Handle{
		name: name,
		tick: r.tick,
		src:  rand.New(rand.NewPCG(hi, lo)),
	}
	r.handles[name] = h
	return h
}

// Draws returns every draw made so far, ordered by stream name then sequence.
func (r *Registry) Draws() []Draw {
	r.mu.Lock()
	names := make([]StreamName, 0, len(r.handles))
	for name := range r.handles {
		names = append(names, name)
	}
	r.mu.Unlock()

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	var out []Draw
	for _, name := range names {
		out = append(out, r.Stream(name).Draws()...)
	}
	return out
}

func deriveSeed(seed int64, name StreamName, tick uint64) (uint64, uint64) {
	buf := make([]byte, 0, 16+len(name))
	buf = binary.BigEndian.AppendUint64(buf, uint64(seed))
	buf = append(buf, name...)
	buf = binary.BigEndian.AppendUint64(buf, tick)
	sum := sha256.Sum256(buf)
	return binary.BigEndian.Uint64(sum[0:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Handle is one stream. It is not safe for concurrent use; each system owns its handle.
type Handle struct {
	name  StreamName
	tick  uint64
	src   *rand.Rand
	draws []Draw
}

func (h *Handle) Name() StreamName {
	return h.name
}

// IntN returns a value in [0, n). n must be positive.
func (h *Handle) IntN(n int) int {
	v := h.src.IntN(n)
	h.record("intn", int64(v))
	return v
}

// Percent returns a value in [0, 100).
func (h *Handle) Percent() int {
	v := h.src.IntN(100)
	h.record("percent", int64(v))
	return v
}

// Chance reports whether a percent roll lands under pct.
func (h *Handle) Chance(pct int) bool {
	return h.Percent() < pct
}

// Weighted picks an index with probability proportional to its weight.
// Non-positive weights are never picked; -1 is returned when all are.
func (h *Handle) Weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	roll := h.src.IntN(total)
	h.record("weighted", int64(roll))
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}

// Draws returns a copy of the recorded draws.
func (h *Handle) Draws() []Draw {
	return append([]Draw(nil), h.draws...)
}

func (h *Handle) record(op string, v int64) {
	h.draws = append(h.draws, Draw{
		Stream: h.name,
		Tick:   h.tick,
		Seq:    len(h.draws),
		Op:     op,
		Value:  v,
	})
}
