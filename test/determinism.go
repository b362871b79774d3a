// Package test - determinism.go
// Determinism harness: replays scripted sessions and checks that the city
// evolves identically across runs and across a checkpoint restart.
package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/rules"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/infra/storage"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
)

// Script submits player input before a tick runs.
type Script func(nextTick uint64, o *engine.Orchestrator)

// PatrolScript puts the player in the mask on the first tick and throws a
// kinetic shove every fifth tick after that.
func PatrolScript(nextTick uint64, o *engine.Orchestrator) {
	switch {
	case nextTick == 1:
		o.SwitchPersona(world.PlayerActor, world.PersonaMask)
	case nextTick%5 == 0:
		o.UsePower(world.PersonaMask, content.PowerKinetic, rules.UseContext{Contact: true})
	}
}

// Trace is everything a run produced that must be reproducible.
type Trace struct {
	Digests []string
	Log     []byte // JSON of every resolved envelope
	Final   string
}

// TestResult captures the outcome of each scenario.
type TestResult struct {
	ScenarioName string
	Passed       bool
	Reason       string
}

// Harness runs the determinism scenarios for one seed.
type Harness struct {
	Seed    int64
	Ticks   int
	Script  Script
	Balance config.Balance
	WorkDir string // checkpoint files; required by CheckpointResume

	logger  *logger.Logger
	results []TestResult
}

// NewHarness creates a harness with the default balance and patrol script.
func NewHarness(seed int64, ticks int, workDir string, log *logger.Logger) *Harness {
	if log == nil {
		log = logger.Discard()
	}
	return &Harness{
		Seed:    seed,
		Ticks:   ticks,
		Script:  PatrolScript,
		Balance: config.DefaultBalance(),
		WorkDir: workDir,
		logger:  log,
	}
}

func (h *Harness) orchestrator(w *world.State, repo engine.WorldRepository) *engine.Orchestrator {
	return engine.New(engine.Options{
		World:   w,
		Content: content.MustDefaultCatalog(),
		Balance: h.Balance,
		Repo:    repo,
		Logger:  logger.Discard(),
		Metrics: metrics.New(),
	})
}

// advance ticks o until the world reaches tick `until`.
func (h *Harness) advance(ctx context.Context, o *engine.Orchestrator, until uint64, trace *Trace, all *[]events.Envelope) error {
	for o.Snapshot().Time.Tick < until {
		next := o.Snapshot().Time.Tick + 1
		if h.Script != nil {
			h.Script(next, o)
		}
		report, err := o.Tick(ctx)
		if err != nil {
			return fmt.Errorf("tick %d: %w", next, err)
		}
		trace.Digests = append(trace.Digests, report.Digest)
		*all = append(*all, report.Events...)
	}
	return nil
}

// Run plays the script from a fresh city.
func (h *Harness) Run(ctx context.Context) (Trace, error) {
	var trace Trace
	var all []events.Envelope
	o := h.orchestrator(world.NewCity(h.Seed), nil)
	if err := h.advance(ctx, o, uint64(h.Ticks), &trace, &all); err != nil {
		return Trace{}, err
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return Trace{}, fmt.Errorf("encode event log: %w", err)
	}
	trace.Log = raw
	trace.Final = o.Snapshot().Digest()
	return trace, nil
}

// RunWithRestart plays the script, saves halfway, and finishes on a world
// loaded back from the file store.
func (h *Harness) RunWithRestart(ctx context.Context) (Trace, error) {
	repo := storage.NewFileWorldRepository(filepath.Join(h.WorkDir, fmt.Sprintf("world-%d.json", h.Seed)))
	var trace Trace
	var all []events.Envelope

	first := h.orchestrator(world.NewCity(h.Seed), repo)
	half := uint64(h.Ticks / 2)
	if err := h.advance(ctx, first, half, &trace, &all); err != nil {
		return Trace{}, err
	}
	if err := repo.Save(ctx, first.Snapshot()); err != nil {
		return Trace{}, fmt.Errorf("checkpoint: %w", err)
	}

	restored, err := repo.Load(ctx)
	if err != nil {
		return Trace{}, fmt.Errorf("restore: %w", err)
	}
	second := h.orchestrator(restored, repo)
	if err := h.advance(ctx, second, uint64(h.Ticks), &trace, &all); err != nil {
		return Trace{}, err
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return Trace{}, fmt.Errorf("encode event log: %w", err)
	}
	trace.Log = raw
	trace.Final = second.Snapshot().Digest()
	return trace, nil
}

// SameInputsSameWorld runs the script twice and compares every tick.
func (h *Harness) SameInputsSameWorld(ctx context.Context) TestResult {
	res := TestResult{ScenarioName: "same seed, same inputs"}
	a, err := h.Run(ctx)
	if err != nil {
		res.Reason = err.Error()
		return h.record(res)
	}
	b, err := h.Run(ctx)
	if err != nil {
		res.Reason = err.Error()
		return h.record(res)
	}
	if i := firstDivergence(a.Digests, b.Digests); i >= 0 {
		res.Reason = fmt.Sprintf("digests diverge at tick %d", i+1)
		return h.record(res)
	}
	if !bytes.Equal(a.Log, b.Log) {
		res.Reason = "event logs differ"
		return h.record(res)
	}
	res.Passed = true
	res.Reason = fmt.Sprintf("%d ticks identical, final %.12s", len(a.Digests), a.Final)
	return h.record(res)
}

// CheckpointResume compares an uninterrupted run with one restarted from disk.
func (h *Harness) CheckpointResume(ctx context.Context) TestResult {
	res := TestResult{ScenarioName: "resume from checkpoint"}
	straight, err := h.Run(ctx)
	if err != nil {
		res.Reason = err.Error()
		return h.record(res)
	}
	resumed, err := h.RunWithRestart(ctx)
	if err != nil {
		res.Reason = err.Error()
		return h.record(res)
	}
	if i := firstDivergence(straight.Digests, resumed.Digests); i >= 0 {
		res.Reason = fmt.Sprintf("digests diverge at tick %d", i+1)
		return h.record(res)
	}
	res.Passed = true
	res.Reason = fmt.Sprintf("restart at tick %d changed nothing", h.Ticks/2)
	return h.record(res)
}

// OpeningTick checks the first tick with no input: one incident, answered by
// the faction covering its location, and heat raised by exactly that
// faction's response.
func (h *Harness) OpeningTick(ctx context.Context) TestResult {
	res := TestResult{ScenarioName: fmt.Sprintf("seed %d opening tick", h.Seed)}
	initial := world.NewCity(h.Seed)
	o := h.orchestrator(world.NewCity(h.Seed), nil)
	report, err := o.Tick(ctx)
	if err != nil {
		res.Reason = err.Error()
		return h.record(res)
	}

	var opened []events.IncidentEvent
	var responses []events.FactionEvent
	for _, env := range report.Events {
		switch e := env.Event.(type) {
		case events.IncidentEvent:
			if e.Action == events.IncidentOpen {
				opened = append(opened, e)
			}
		case events.FactionEvent:
			if e.Action == events.FactionRespond {
				responses = append(responses, e)
			}
		}
	}
	if len(opened) != 1 || len(responses) != 1 {
		res.Reason = fmt.Sprintf("expected one incident and one response, got %d and %d", len(opened), len(responses))
		return h.record(res)
	}
	loc := opened[0].LocationID
	responder, ok := engine.Responder(initial, loc)
	if !ok || responder.ID != responses[0].FactionID {
		res.Reason = fmt.Sprintf("%s answered at %s, expected the covering faction", responses[0].FactionID, loc)
		return h.record(res)
	}
	want := initial.Heat.Locations[loc] + responses[0].HeatDelta
	if got := o.Snapshot().Heat.Locations[loc]; got != want {
		res.Reason = fmt.Sprintf("heat at %s is %d, expected %d", loc, got, want)
		return h.record(res)
	}
	res.Passed = true
	res.Reason = fmt.Sprintf("incident at %s, %s raised heat by %d", loc, responder.ID, responses[0].HeatDelta)
	return h.record(res)
}

// RunAll executes every scenario.
func (h *Harness) RunAll(ctx context.Context) []TestResult {
	h.OpeningTick(ctx)
	h.SameInputsSameWorld(ctx)
	if h.WorkDir != "" {
		h.CheckpointResume(ctx)
	}
	return h.results
}

// GetResults returns all test results.
func (h *Harness) GetResults() []TestResult {
	return h.results
}

func (h *Harness) record(res TestResult) TestResult {
	if res.Passed {
		h.logger.Info("PASS " + res.ScenarioName + ": " + res.Reason)
	} else {
		h.logger.Warn("FAIL " + res.ScenarioName + ": " + res.Reason)
	}
	h.results = append(h.results, res)
	return res
}

func firstDivergence(a, b []string) int {
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			return i
		}
	}
	if len(b) > len(a) {
		return len(a)
	}
	return -1
}
