package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/rules"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

func TestFirstTickOpensOneIncidentAnsweredByCoveringFaction(t *testing.T) {
	// Setup
	initial := world.NewCity(42)
	o := newTestOrchestrator(t, world.NewCity(42), nil)

	// Act
	report, err := o.Tick(context.Background())
	require.NoError(t, err)

	// Assert: exactly one incident, heat at its location is the responder's delta
	var incidents []events.IncidentEvent
	for _, env := range report.Events {
		if ie, ok := env.Event.(events.IncidentEvent); ok {
			incidents = append(incidents, ie)
		}
	}
	require.Len(t, incidents, 1)
	assert.Equal(t, events.IncidentOpen, incidents[0].Action)

	loc := incidents[0].LocationID
	responder, ok := Responder(initial, loc)
	require.True(t, ok, "every location is covered by some faction")

	snap := o.Snapshot()
	assert.Equal(t, initial.Heat.Locations[loc]+responder.ResponseHeat, snap.Heat.Locations[loc])
	assert.Equal(t, uint64(1), snap.Time.Tick)

	responses := 0
	for _, f := range snap.Factions.Roster {
		responses += len(f.Responded)
	}
	assert.Equal(t, 1, responses)
}

func TestSameSeedSameInputsSameWorld(t *testing.T) {
	run := func() ([]string, []byte) {
		o := newTestOrchestrator(t, maskedAt(world.NewCity(7), world.LocDocks), nil)
		var digests []string
		var all []events.Envelope
		for i := 0; i < 40; i++ {
			if i%5 == 0 {
				o.UsePower(world.PersonaMask, content.PowerKinetic, rules.UseContext{Contact: true})
			}
			report, err := o.Tick(context.Background())
			require.NoError(t, err)
			digests = append(digests, report.Digest)
			all = append(all, report.Events...)
		}
		raw, err := json.Marshal(all)
		require.NoError(t, err)
		return digests, raw
	}

	d1, log1 := run()
	d2, log2 := run()
	assert.Equal(t, d1, d2)
	assert.JSONEq(t, string(log1), string(log2))
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := newTestOrchestrator(t, world.NewCity(1), nil)
	b := newTestOrchestrator(t, world.NewCity(2), nil)
	diverged := false
	for i := 0; i < 20 && !diverged; i++ {
		ra, err := a.Tick(context.Background())
		require.NoError(t, err)
		rb, err := b.Tick(context.Background())
		require.NoError(t, err)
		diverged = ra.Digest != rb.Digest
	}
	assert.True(t, diverged)
}

func TestPhaseOrderChangesOutcome(t *testing.T) {
	// Setup: a second orchestrator runs Faction before WorldGen.
	normal := newTestOrchestrator(t, world.NewCity(42), nil)
	swapped := newTestOrchestrator(t, world.NewCity(42), nil)
	swapped.phases[1], swapped.phases[2] = swapped.phases[2], swapped.phases[1]

	// Act
	rn, err := normal.Tick(context.Background())
	require.NoError(t, err)
	rs, err := swapped.Tick(context.Background())
	require.NoError(t, err)

	// Assert: the new case goes unanswered when factions run first.
	assert.NotEqual(t, rn.Digest, rs.Digest)
	assert.Zero(t, swapped.Snapshot().Heat.Max())
}

func TestQueuedActionResolvesAndSecondUseFaults(t *testing.T) {
	// Setup
	o := newTestOrchestrator(t, maskedAt(world.NewCity(42), world.LocDocks), nil)
	ctx := rules.UseContext{Contact: true}

	first := o.UsePower(world.PersonaMask, content.PowerKinetic, ctx)
	second := o.UsePower(world.PersonaMask, content.PowerKinetic, ctx)
	require.True(t, first.Allowed)
	require.True(t, second.Allowed, "both validated against the same world")
	require.Equal(t, 2, o.Pending())

	// Act
	report, err := o.Tick(context.Background())
	require.NoError(t, err)

	// Assert: first use applied, second dropped whole by the cooldown fault.
	assert.Zero(t, o.Pending())
	snap := o.Snapshot()
	stack := snap.Personas.Actors[world.PlayerActor]
	assert.Less(t, stack.Stamina, stack.MaxStamina)
	assert.Equal(t, 1, stack.Powers[content.PowerKinetic].Uses)

	created := 0
	for _, recs := range snap.Evidence.Records {
		for _, r := range recs {
			if r.PersonaID == world.PersonaMask {
				created++
			}
		}
	}
	shove, _ := content.MustDefaultCatalog().GetExpression(content.ExprKineticShove)
	assert.Equal(t, len(shove.Signatures), created)

	var resolveFaults int
	for _, f := range report.Faults {
		if f.Phase == PhaseResolve {
			resolveFaults++
		}
	}
	assert.Equal(t, len(second.Events), resolveFaults)
}

func TestDeniedActionIsNotQueued(t *testing.T) {
	o := newTestOrchestrator(t, world.NewCity(42), nil)

	out := o.UsePower(world.PersonaMask, content.PowerKinetic, rules.UseContext{Contact: true})

	assert.False(t, out.Allowed)
	assert.Equal(t, rules.DenyPersonaNotActive, out.Reason)
	assert.Zero(t, o.Pending())
}

func TestSwitchPersonaAppliesOnResolve(t *testing.T) {
	o := newTestOrchestrator(t, world.NewCity(42), nil)

	out := o.SwitchPersona(world.PlayerActor, world.PersonaMask)
	require.True(t, out.Allowed, out.Detail)
	assert.Equal(t, world.PersonaCivvies, o.Snapshot().Personas.Actors[world.PlayerActor].Active)

	_, err := o.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, world.PersonaMask, o.Snapshot().Personas.Actors[world.PlayerActor].Active)
}

func TestSecondSwitchInOneTickFaults(t *testing.T) {
	// Setup: a third persona so both switches pass the gateway.
	w := world.NewCity(42)
	stack := w.Personas.Actors[world.PlayerActor]
	stack.AddPersona(world.Persona{ID: "per.third", Label: "Riptide", Type: world.PersonaMasked})
	w.Personas.Actors[world.PlayerActor] = stack
	o := newTestOrchestrator(t, w, nil)

	first := o.SwitchPersona(world.PlayerActor, world.PersonaMask)
	second := o.SwitchPersona(world.PlayerActor, "per.third")
	require.True(t, first.Allowed, first.Detail)
	require.True(t, second.Allowed, second.Detail)

	// Act
	report, err := o.Tick(context.Background())
	require.NoError(t, err)

	// Assert
	assert.Equal(t, world.PersonaMask, o.Snapshot().Personas.Actors[world.PlayerActor].Active)
	var switchFaults int
	for _, f := range report.Faults {
		if f.Phase == PhaseResolve && f.Kind == events.KindPersona {
			switchFaults++
			assert.Contains(t, f.Reason, "switch on cooldown")
		}
	}
	assert.Equal(t, 1, switchFaults)
}

func TestCheckpointOnIntervalAndRequest(t *testing.T) {
	repo := &memRepo{}
	o := newTestOrchestrator(t, world.NewCity(42), func(opts *Options) {
		opts.Repo = repo
		opts.Balance.Checkpoint.Interval = 2
	})

	for i := 0; i < 4; i++ {
		_, err := o.Tick(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []uint64{2, 4}, repo.saves)

	o.RequestCheckpoint()
	report, err := o.Tick(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Checkpointed)
	assert.Equal(t, []uint64{2, 4, 5}, repo.saves)
}

func TestCheckpointFailureIsReportedAndRetried(t *testing.T) {
	// Setup
	repo := &memRepo{failOn: map[uint64]bool{2: true}}
	o := newTestOrchestrator(t, world.NewCity(42), func(opts *Options) {
		opts.Repo = repo
		opts.Balance.Checkpoint.Interval = 2
	})

	// Act
	_, err := o.Tick(context.Background())
	require.NoError(t, err)
	failed, err := o.Tick(context.Background())
	require.NoError(t, err, "persistence faults do not abort the tick")
	retried, err := o.Tick(context.Background())
	require.NoError(t, err)

	// Assert
	assert.False(t, failed.Checkpointed)
	assert.Error(t, failed.CheckpointErr)
	assert.NotEmpty(t, failed.CheckpointError)
	assert.Equal(t, uint64(2), failed.Tick, "world advanced despite the failed save")
	assert.True(t, retried.Checkpointed)
	assert.Equal(t, []uint64{3}, repo.saves)
}

func TestSystemPanicRestoresPreTickWorld(t *testing.T) {
	// Setup
	o := newTestOrchestrator(t, maskedAt(world.NewCity(42), world.LocDocks), nil)
	_, err := o.Tick(context.Background())
	require.NoError(t, err)
	o.UsePower(world.PersonaMask, content.PowerKinetic, rules.UseContext{Contact: true})
	before := o.Snapshot().Digest()
	o.phases = append(o.phases, phasePlan{phase: "Test", systems: []System{panicSystem{}}})

	// Act
	_, err = o.Tick(context.Background())

	// Assert
	require.ErrorIs(t, err, ErrTickAborted)
	assert.Equal(t, before, o.Snapshot().Digest())
	assert.Equal(t, 1, o.Pending(), "queued actions survive an aborted tick")
}

func TestUndeclaredStreamAbortsTick(t *testing.T) {
	// Setup
	o := newTestOrchestrator(t, world.NewCity(42), nil)
	before := o.Snapshot().Digest()
	o.phases = append(o.phases, phasePlan{phase: "Test", systems: []System{greedySystem{}}})

	// Act
	_, err := o.Tick(context.Background())

	// Assert
	require.ErrorIs(t, err, ErrTickAborted)
	require.ErrorIs(t, err, ErrUndeclaredStream)
	assert.Contains(t, err.Error(), "greedy")
	assert.Equal(t, before, o.Snapshot().Digest())
}

func TestDeclaredStreamsAreServed(t *testing.T) {
	reg := rng.New(42, 1)
	scoped := scopeStreams(NewFactionSystem(config.DefaultBalance().Factions), reg)

	h := scoped.Stream(rng.Factions)

	assert.Same(t, reg.Stream(rng.Factions), h)
	assert.Panics(t, func() { scoped.Stream(rng.Incidents) })
}

func TestAbortedTickReplaysIdentically(t *testing.T) {
	clean := newTestOrchestrator(t, world.NewCity(42), nil)
	flaky := newTestOrchestrator(t, world.NewCity(42), nil)

	saved := flaky.phases
	flaky.phases = append(append([]phasePlan(nil), saved...), phasePlan{phase: "Test", systems: []System{failingSystem{}}})
	_, err := flaky.Tick(context.Background())
	require.ErrorIs(t, err, ErrTickAborted)
	flaky.phases = saved

	rc, err := clean.Tick(context.Background())
	require.NoError(t, err)
	rf, err := flaky.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rc.Digest, rf.Digest)
}

func TestSinkReceivesResolvedEventsAndDraws(t *testing.T) {
	sink := &recordingSink{}
	o := newTestOrchestrator(t, world.NewCity(42), func(opts *Options) { opts.Sink = sink })

	report, err := o.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sink.ticks)
	assert.Len(t, sink.envs, len(report.Events))
	assert.NotEmpty(t, sink.draws, "world generation always draws")
	for i, env := range sink.envs {
		assert.Equal(t, i, env.Seq)
	}
}

func TestInjectedEventIsValidatedByOwner(t *testing.T) {
	o := newTestOrchestrator(t, world.NewCity(42), nil)
	o.Inject("test", events.FactionEvent{Action: events.FactionHeatDecay, LocationID: world.LocMarket, HeatDelta: 10})

	report, err := o.Tick(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, report.Faults)
	last := report.Faults[len(report.Faults)-1]
	assert.Equal(t, "inject:test", last.Source)
	assert.Contains(t, last.Reason, "decay cannot add heat")
}
