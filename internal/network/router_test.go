package network

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/rules"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
)

func newTestOrchestrator(sink engine.EventSink) *engine.Orchestrator {
	return engine.New(engine.Options{
		World:   world.NewCity(42),
		Content: content.MustDefaultCatalog(),
		Balance: config.DefaultBalance(),
		Sink:    sink,
		Logger:  logger.Discard(),
		Metrics: metrics.New(),
	})
}

func TestDeniedUseIsAResultNotAnError(t *testing.T) {
	// Setup
	r := NewRouter(newTestOrchestrator(nil), false, logger.Discard())

	// Act
	reply := r.Handle(context.Background(), Command{ID: "c1", Type: CmdUsePower, Persona: world.PersonaMask, Power: content.PowerKinetic, Use: rules.UseContext{Contact: true}})

	// Assert
	assert.Equal(t, ReplyResult, reply.Type)
	assert.Equal(t, "c1", reply.ID)
	require.NotNil(t, reply.Decision)
	assert.False(t, reply.Decision.Allowed)
	assert.Equal(t, rules.DenyPersonaNotActive, reply.Decision.Reason)
	assert.Zero(t, reply.Queued)
}

func TestSwitchQueuesAndAdvanceResolves(t *testing.T) {
	sim := newTestOrchestrator(nil)
	r := NewRouter(sim, false, logger.Discard())

	sw := r.Handle(context.Background(), Command{Type: CmdSwitch, Persona: world.PersonaMask})
	require.NotNil(t, sw.Decision)
	require.True(t, sw.Decision.Allowed, sw.Decision.Detail)
	assert.Equal(t, 1, sw.Queued)

	adv := r.Handle(context.Background(), Command{Type: CmdAdvance})
	require.Equal(t, ReplyResult, adv.Type, adv.Error)
	require.NotNil(t, adv.Report)
	assert.Equal(t, uint64(1), adv.Report.Tick)

	st := r.Handle(context.Background(), Command{Type: CmdStatus})
	require.NotNil(t, st.Status)
	assert.Equal(t, uint64(1), st.Status.Tick)
	assert.Equal(t, world.PersonaMask, st.Status.Active[world.PlayerActor])
	assert.Equal(t, sim.Snapshot().Digest(), st.Status.Digest)
	assert.Zero(t, st.Status.Pending)
}

func TestInjectOnlyInDevMode(t *testing.T) {
	raw, err := json.Marshal(events.FactionEvent{Action: events.FactionHeatShift, LocationID: world.LocDocks, HeatDelta: 7})
	require.NoError(t, err)
	cmd := Command{Type: CmdInject, Kind: events.KindFaction, Event: raw}

	prod := NewRouter(newTestOrchestrator(nil), false, logger.Discard())
	reply := prod.Handle(context.Background(), cmd)
	assert.Equal(t, ReplyError, reply.Type)
	assert.Equal(t, errDevOnly.Error(), reply.Error)

	sim := newTestOrchestrator(nil)
	dev := NewRouter(sim, true, logger.Discard())
	reply = dev.Handle(context.Background(), cmd)
	require.Equal(t, ReplyResult, reply.Type, reply.Error)
	assert.Equal(t, 1, reply.Queued)

	report, err := sim.Tick(context.Background())
	require.NoError(t, err)
	var injected []events.Envelope
	for _, env := range report.Events {
		if env.Source == "inject:dev" {
			injected = append(injected, env)
		}
	}
	require.Len(t, injected, 1)
	assert.Equal(t, events.KindFaction, injected[0].Kind())
}

func TestUnknownCommandAndBadKind(t *testing.T) {
	r := NewRouter(newTestOrchestrator(nil), true, logger.Discard())

	reply := r.Handle(context.Background(), Command{ID: "x", Type: "TELEPORT"})
	assert.Equal(t, ReplyError, reply.Type)
	assert.Equal(t, "x", reply.ID)
	assert.Contains(t, reply.Error, "TELEPORT")

	reply = r.Handle(context.Background(), Command{Type: CmdInject, Kind: "WEATHER", Event: json.RawMessage(`{}`)})
	assert.Equal(t, ReplyError, reply.Type)
}

func TestCheckpointCommandFlagsNextTick(t *testing.T) {
	sim := newTestOrchestrator(nil)
	r := NewRouter(sim, false, logger.Discard())

	reply := r.Handle(context.Background(), Command{Type: CmdCheckpoint})
	assert.Equal(t, ReplyResult, reply.Type)
}
