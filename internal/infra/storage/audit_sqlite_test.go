package storage

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

func TestAuditRecordsEnvelopesAndDraws(t *testing.T) {
	// Setup
	ctx := context.Background()
	m := metrics.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	audit := NewSQLiteAuditRepository(openTestDB(t), fixedClock{at}, m)
	envs := []events.Envelope{
		{Tick: 3, Phase: "WorldGen", Source: "worldgen", Seq: 0, Event: events.IncidentEvent{Action: events.IncidentOpen, LocationID: world.LocDocks, Severity: 2, Codename: "Grey Lantern"}},
		{Tick: 3, Phase: "Faction", Source: "faction", Seq: 1, Event: events.FactionEvent{Action: events.FactionRespond, FactionID: world.FactionSyndicate, LocationID: world.LocDocks, CaseID: "case-000001", HeatDelta: 3}},
	}
	draws := []rng.Draw{{Stream: rng.Incidents, Tick: 3, Seq: 0, Op: "intn", Value: 1}}

	// Act
	require.NoError(t, audit.Record(ctx, envs, draws))

	// Assert
	got, err := audit.EventsBetween(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, envs[0].Event, got[0].Envelope.Event)
	assert.Equal(t, envs[1], got[1].Envelope)
	assert.Equal(t, audit.RunID(), got[0].RunID)
	assert.True(t, got[0].ID.Compare(got[1].ID) < 0, "ULIDs sort in insertion order")
	assert.Equal(t, ulid.Timestamp(at), got[0].ID.Time())

	responses, err := audit.EventsByKind(ctx, events.KindFaction)
	require.NoError(t, err)
	assert.Len(t, responses, 1)

	gotDraws, err := audit.DrawsAt(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, draws, gotDraws)

	last, ok, err := audit.LastTick(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), last)
	assert.Equal(t, int64(1), m.AuditWrites)
}

func TestAuditLastTickOnEmptyTrail(t *testing.T) {
	audit := NewSQLiteAuditRepository(openTestDB(t), nil, nil)
	_, ok, err := audit.LastTick(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplayedHeatMatchesSimulatedHeat(t *testing.T) {
	// Setup: a real run writing to the audit trail.
	ctx := context.Background()
	audit := NewSQLiteAuditRepository(openTestDB(t), nil, nil)
	initial := world.NewCity(42)
	o := engine.New(engine.Options{
		World:   initial.Clone(),
		Content: content.MustDefaultCatalog(),
		Balance: config.DefaultBalance(),
		Sink:    audit,
		Logger:  logger.Discard(),
		Metrics: metrics.New(),
	})
	for i := 0; i < 12; i++ {
		_, err := o.Tick(ctx)
		require.NoError(t, err)
	}

	// Act
	heat, err := NewReconstructor(audit).ReplayHeat(ctx, initial.Heat, 0, 12)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, o.Snapshot().Heat, heat)
}

func TestRecapKeepsNotableEventsOnly(t *testing.T) {
	ctx := context.Background()
	audit := NewSQLiteAuditRepository(openTestDB(t), nil, nil)
	require.NoError(t, audit.Record(ctx, []events.Envelope{
		{Tick: 1, Phase: "Decay", Source: "heat", Seq: 0, Event: events.FactionEvent{Action: events.FactionHeatDecay, LocationID: world.LocMarket, HeatDelta: -1}},
		{Tick: 1, Phase: "WorldGen", Source: "worldgen", Seq: 1, Event: events.IncidentEvent{Action: events.IncidentOpen, LocationID: world.LocMarket, Severity: 1, Codename: "Velvet Hook"}},
		{Tick: 2, Phase: "Resolve", Source: "switch_persona", Seq: 0, Event: events.PersonaEvent{Action: events.PersonaSwitch, ActorID: "actor.other", PersonaID: world.PersonaMask}},
		{Tick: 2, Phase: "Nemesis", Source: "nemesis", Seq: 1, Event: events.NemesisEvent{Action: events.NemesisAdapt, Level: 1}},
	}, nil))

	recap, err := NewReconstructor(audit).Recap(ctx, 0, 5, world.PlayerActor)

	require.NoError(t, err)
	require.Len(t, recap, 2)
	assert.Equal(t, events.KindIncident, recap[0].Kind)
	assert.Contains(t, recap[0].Summary, "Velvet Hook")
	assert.Equal(t, "NEGATIVE", recap[1].Impact)
}
