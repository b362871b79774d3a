// Package engine - orchestrator.go
// The tick state machine: Decay → WorldGen → Faction → Nemesis →
// NarrativePressure → Resolve → Commit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/rules"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// ErrTickAborted wraps every error that made a tick roll back.
var ErrTickAborted = errors.New("tick aborted")

// TickReport is everything one completed tick produced.
type TickReport struct {
	Tick            uint64            `json:"tick"`
	Time            world.Time        `json:"time"`
	Events          []events.Envelope `json:"events"`
	Faults          []Fault           `json:"faults,omitempty"`
	Draws           []rng.Draw        `json:"draws,omitempty"`
	Checkpointed    bool              `json:"checkpointed"`
	CheckpointErr   error             `json:"-"`
	CheckpointError string            `json:"checkpoint_error,omitempty"`
	Digest          string            `json:"digest"`
	Duration        time.Duration     `json:"duration"`
}

// Options wires an Orchestrator. World and Content are required.
type Options struct {
	World   *world.State
	Content content.Repository
	Balance config.Balance
	Repo    WorldRepository
	Sink    EventSink
	Clock   Clock
	Logger  *logger.Logger
	Metrics *metrics.Collector
}

// Orchestrator owns the authoritative world and advances it one tick at a time.
// It is safe for concurrent use; ticks and player actions are serialized.
type Orchestrator struct {
	mu sync.Mutex

	world    *world.State
	content  content.Repository
	balance  config.Balance
	resolver *Resolver
	phases   []phasePlan

	repo    WorldRepository
	sink    EventSink
	clock   Clock
	logger  *logger.Logger
	metrics *metrics.Collector

	queue   []Emission
	actions *rng.Registry // rng_rules for actions submitted before the next tick

	lastCheckpoint      uint64
	checkpointRequested bool
	checkpointRetry     bool
}

// New builds an orchestrator with the standard phase plan.
func New(opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	opts.World.Normalize()

	b := opts.Balance
	o := &Orchestrator{
		world:          opts.World,
		content:        opts.Content,
		balance:        b,
		resolver:       NewResolver(b, opts.Logger),
		repo:           opts.Repo,
		sink:           opts.Sink,
		clock:          opts.Clock,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		lastCheckpoint: opts.World.Time.Tick,
		phases: []phasePlan{
			{phase: PhaseDecay, systems: []System{NewHeatSystem(b.Heat), NewRecoverySystem(b.Recovery)}},
			{phase: PhaseWorldGen, systems: []System{NewWorldGenSystem(b.Incidents)}},
			{phase: PhaseFaction, systems: []System{NewFactionSystem(b.Factions)}},
			{phase: PhaseNemesis, systems: []System{NewNemesisSystem(b.Nemesis)}},
			{phase: PhaseNarrative, systems: []System{NewNarrativeSystem(b.Narrative)}},
		},
	}
	o.actions = rng.New(o.world.Seed, o.world.Time.Tick+1)
	return o
}

// Tick runs one full pass of the state machine. On error the world is left
// exactly as it was before the call and queued actions stay queued.
func (o *Orchestrator) Tick(ctx context.Context) (TickReport, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	start := o.clock.Now()
	tick := o.world.Time.Tick + 1
	pre := o.world.Clone()
	streams := rng.New(o.world.Seed, tick)

	report := TickReport{Tick: tick}
	seq := 0
	for _, p := range o.phases {
		envs, faults, err := o.runPhase(ctx, p, streams, tick, &seq)
		if err != nil {
			o.world = pre
			o.metrics.RecordTickAbort()
			o.logger.Error(fmt.Sprintf("tick %d aborted in %s: %v", tick, p.phase, err))
			return TickReport{}, fmt.Errorf("%w: tick %d phase %s: %w", ErrTickAborted, tick, p.phase, err)
		}
		report.Events = append(report.Events, envs...)
		report.Faults = append(report.Faults, faults...)
	}

	envs, faults := o.resolver.ApplyGroups(o.world, tick, PhaseResolve, o.queue, &seq)
	report.Events = append(report.Events, envs...)
	report.Faults = append(report.Faults, faults...)
	o.resolver.AdvanceTime(o.world)
	o.queue = nil

	report.Draws = append(streams.Draws(), o.actions.Draws()...)
	o.actions = rng.New(o.world.Seed, o.world.Time.Tick+1)
	for _, d := range report.Draws {
		o.logger.Draw(string(d.Stream), d.Tick, d.Seq, d.Value)
	}

	o.commit(ctx, &report)

	report.Time = o.world.Time
	report.Digest = o.world.Digest()
	report.Duration = o.clock.Now().Sub(start)

	o.metrics.RecordTick(report.Duration)
	o.metrics.RecordResolution(len(report.Events), len(report.Faults))
	o.metrics.RecordDraws(len(report.Draws))

	if o.sink != nil {
		if err := o.sink.Record(ctx, report.Events, report.Draws); err != nil {
			o.logger.Warn(fmt.Sprintf("event sink failed for tick %d: %v", tick, err))
		}
	}
	o.logger.Event("TICK", "ORCHESTRATOR", fmt.Sprintf("tick=%d events=%d faults=%d digest=%.12s",
		tick, len(report.Events), len(report.Faults), report.Digest))
	return report, nil
}

// runPhase evaluates a phase's systems on one snapshot and resolves their events.
func (o *Orchestrator) runPhase(ctx context.Context, p phasePlan, streams *rng.Registry, tick uint64, seq *int) ([]events.Envelope, []Fault, error) {
	snap := o.world.Clone()
	batches := make([]Emission, len(p.systems))

	g, _ := errgroup.WithContext(ctx)
	for i, sys := range p.systems {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					if perr, ok := r.(error); ok && errors.Is(perr, ErrUndeclaredStream) {
						err = perr
						return
					}
					err = fmt.Errorf("system %s panicked: %v\n%s", sys.Name(), r, debug.Stack())
				}
			}()
			evs, err := sys.Run(snap, o.content, scopeStreams(sys, streams))
			if err != nil {
				return fmt.Errorf("system %s: %w", sys.Name(), err)
			}
			batches[i] = Emission{Source: sys.Name(), Events: evs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	envs, faults := o.resolver.ApplyPhase(o.world, tick, p.phase, batches, seq)
	return envs, faults, nil
}

// commit checkpoints when the interval elapsed, a checkpoint was requested,
// or the previous attempt failed. Failures are reported, never rolled back.
func (o *Orchestrator) commit(ctx context.Context, report *TickReport) {
	if o.repo == nil {
		return
	}
	tick := o.world.Time.Tick
	interval := o.balance.Checkpoint.Interval
	due := interval > 0 && tick-o.lastCheckpoint >= uint64(interval)
	if !due && !o.checkpointRequested && !o.checkpointRetry {
		return
	}

	start := o.clock.Now()
	err := o.repo.Save(ctx, o.world.Clone())
	latency := o.clock.Now().Sub(start)

	var size int64
	if s, ok := o.repo.(SizedRepository); ok && err == nil {
		size = s.LastSaveSize()
	}
	o.metrics.RecordCheckpoint(latency, size, err)

	if err != nil {
		o.checkpointRetry = true
		report.CheckpointErr = err
		report.CheckpointError = err.Error()
		o.logger.Error(fmt.Sprintf("checkpoint at tick %d failed: %v", tick, err))
		return
	}
	o.lastCheckpoint = tick
	o.checkpointRequested = false
	o.checkpointRetry = false
	report.Checkpointed = true
	o.logger.Info(fmt.Sprintf("checkpoint at tick %d: %s in %s", tick, humanize.Bytes(uint64(size)), latency))
}

// RequestCheckpoint forces a checkpoint at the next Commit.
func (o *Orchestrator) RequestCheckpoint() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checkpointRequested = true
}

// Snapshot returns a copy of the current world.
func (o *Orchestrator) Snapshot() *world.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.world.Clone()
}

// Content returns the content repository the orchestrator resolves against.
func (o *Orchestrator) Content() content.Repository {
	return o.content
}

// Pending is the number of queued submissions waiting for the next Resolve.
func (o *Orchestrator) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

// CanUse asks the rules gateway without queuing anything.
func (o *Orchestrator) CanUse(persona ids.PersonaID, power ids.PowerID, uctx rules.UseContext) rules.Decision {
	o.mu.Lock()
	defer o.mu.Unlock()
	d := rules.CanUse(o.world, o.content, persona, power, uctx)
	if !d.Allowed {
		o.deny("CAN_USE", string(persona), d)
	}
	return d
}

// UsePower validates a power use and queues its events for the next Resolve.
func (o *Orchestrator) UsePower(persona ids.PersonaID, power ids.PowerID, uctx rules.UseContext) rules.Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := rules.UsePower(o.world, o.content, persona, power, uctx, o.actions.Stream(rng.Rules))
	if !out.Allowed {
		o.deny("USE_POWER", string(persona), out.Decision)
		return out
	}
	o.queue = append(o.queue, Emission{Source: "use_power", Events: out.Events})
	return out
}

// SwitchPersona validates a persona change and queues it.
func (o *Orchestrator) SwitchPersona(actor ids.ActorID, persona ids.PersonaID) rules.Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := rules.SwitchPersona(o.world, actor, persona)
	if !out.Allowed {
		o.deny("SWITCH_PERSONA", string(actor), out.Decision)
		return out
	}
	o.queue = append(o.queue, Emission{Source: "switch_persona", Events: out.Events})
	return out
}

// Inject queues a raw event. Only development surfaces call this; the
// resolver still validates it like any other event.
func (o *Orchestrator) Inject(source string, ev events.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, Emission{Source: "inject:" + source, Events: []events.Event{ev}})
}

func (o *Orchestrator) deny(action, subject string, d rules.Decision) {
	o.metrics.RecordDenial()
	o.logger.Denial(action, subject, string(d.Reason), d.Detail)
}
