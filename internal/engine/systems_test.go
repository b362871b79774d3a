package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

func TestHeatDecayNeverAddsHeat(t *testing.T) {
	// Setup
	w := world.NewCity(42)
	w.Heat.Locations[world.LocMarket] = 10
	w.Heat.Locations[world.LocDocks] = 1
	w.Incidents.CrimePressure[world.LocDocks] = 30
	w.Heat.Factions[world.FactionPolice] = 4
	police := w.Factions.Roster[world.FactionPolice]
	police.Patrols[world.LocMarket] = 1
	w.Factions.Roster[world.FactionPolice] = police

	// Act
	out, err := NewHeatSystem(config.DefaultBalance().Heat).Run(w, nil, nil)
	require.NoError(t, err)

	// Assert
	decays := map[ids.LocationID]int{}
	for _, ev := range out {
		fe, ok := ev.(events.FactionEvent)
		require.True(t, ok)
		assert.LessOrEqual(t, fe.HeatDelta, 0)
		if fe.LocationID != "" {
			decays[fe.LocationID] = fe.HeatDelta
		}
	}
	assert.Equal(t, -2, decays[world.LocMarket], "base decay plus patrol presence")
	_, docks := decays[world.LocDocks]
	assert.False(t, docks, "high crime stalls decay")
	assert.Len(t, decays, 1)
}

func TestHeatSystemAgesEveryEvidenceRecord(t *testing.T) {
	w := world.NewCity(42)
	w.Evidence.Records[world.LocDocks] = []world.EvidenceRecord{{ID: "ev-000001"}, {ID: "ev-000002"}}

	out, err := NewHeatSystem(config.DefaultBalance().Heat).Run(w, nil, nil)
	require.NoError(t, err)

	aged := 0
	for _, ev := range out {
		if ee, ok := ev.(events.EvidenceEvent); ok && ee.Action == events.EvidenceDecay {
			aged++
		}
	}
	assert.Equal(t, 2, aged)
}

func TestRecoveryStopsAtMaximum(t *testing.T) {
	w := world.NewCity(42)
	stack := w.Personas.Actors[world.PlayerActor]
	stack.Stamina = stack.MaxStamina - 2
	w.Personas.Actors[world.PlayerActor] = stack

	out, err := NewRecoverySystem(config.DefaultBalance().Recovery).Run(w, nil, nil)
	require.NoError(t, err)

	require.Len(t, out, 1)
	pe := out[0].(events.PersonaEvent)
	assert.Equal(t, 2, pe.StaminaDelta)
	assert.Zero(t, pe.FocusDelta)
}

func TestIncidentCountFollowsPressure(t *testing.T) {
	s := NewWorldGenSystem(config.DefaultBalance().Incidents)
	assert.Equal(t, 1, s.IncidentCount(0))
	assert.Equal(t, 1, s.IncidentCount(39))
	assert.Equal(t, 2, s.IncidentCount(40))
	assert.Equal(t, 3, s.IncidentCount(1000))
}

func TestWorldGenIsDeterministicPerSeedAndTick(t *testing.T) {
	s := NewWorldGenSystem(config.DefaultBalance().Incidents)
	w := world.NewCity(42)

	a, err := s.Run(w, nil, rng.New(42, 1))
	require.NoError(t, err)
	b, err := s.Run(w, nil, rng.New(42, 1))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	require.Len(t, a, 1)
	open := a[0].(events.IncidentEvent)
	assert.Equal(t, events.IncidentOpen, open.Action)
	assert.GreaterOrEqual(t, open.Severity, 1)
	assert.LessOrEqual(t, open.Severity, 3)
	assert.NotEmpty(t, open.Codename)
}

func TestWorldGenProgressesCasesAndLinksEvidence(t *testing.T) {
	// Setup: an open case at the market with matching evidence and an investigator.
	w := world.NewCity(42)
	w.Time.Tick = 4
	w.Incidents.Cases["case-000001"] = world.Case{ID: "case-000001", LocationID: world.LocMarket, Status: world.CaseOpen, OpenedTick: 2}
	w.Evidence.Records[world.LocMarket] = []world.EvidenceRecord{
		{ID: "ev-000001", LocationID: world.LocMarket, Signature: content.SigKineticStress, Strength: 40},
		{ID: "ev-000002", LocationID: world.LocMarket, Signature: content.SigVisualAnomaly, Strength: 10},
	}
	police := w.Factions.Roster[world.FactionPolice]
	police.Investigating[world.LocMarket] = true
	w.Factions.Roster[world.FactionPolice] = police

	// Act
	out, err := NewWorldGenSystem(config.DefaultBalance().Incidents).Run(w, nil, rng.New(42, 5))
	require.NoError(t, err)

	// Assert
	var links int
	var progress *events.IncidentEvent
	for _, ev := range out {
		switch e := ev.(type) {
		case events.EvidenceEvent:
			if e.Action == events.EvidenceLink {
				links++
			}
		case events.IncidentEvent:
			if e.Action == events.IncidentProgress {
				progress = &e
			}
		}
	}
	assert.Equal(t, 2, links)
	require.NotNil(t, progress)
	bal := config.DefaultBalance().Incidents
	assert.Equal(t, bal.InvestigatorProgress+2*bal.EvidenceProgress, progress.ProgressDelta)
	assert.Equal(t, []content.SignatureType{content.SigKineticStress, content.SigVisualAnomaly}, progress.Pattern)
}

func TestResponderPrefersInfluenceThenLowestID(t *testing.T) {
	w := world.NewCity(42)

	f, ok := Responder(w, world.LocMarket)
	require.True(t, ok)
	assert.Equal(t, world.FactionPolice, f.ID, "tie goes to the lowest ID")

	syndicate := w.Factions.Roster[world.FactionSyndicate]
	syndicate.Influence[world.LocMarket] = 3
	w.Factions.Roster[world.FactionSyndicate] = syndicate
	f, _ = Responder(w, world.LocMarket)
	assert.Equal(t, world.FactionSyndicate, f.ID)
}

func TestFactionEscalatesOnlyOnLevelChange(t *testing.T) {
	// Setup
	w := world.NewCity(42)
	w.Heat.Locations[world.LocOldTown] = world.HeatInvestigation
	s := NewFactionSystem(config.DefaultBalance().Factions)

	// Act
	out, err := s.Run(w, nil, rng.New(42, 1))
	require.NoError(t, err)

	// Assert
	var escalations []events.FactionEvent
	for _, ev := range out {
		if fe := ev.(events.FactionEvent); fe.Action == events.FactionEscalate {
			escalations = append(escalations, fe)
		}
	}
	require.Len(t, escalations, 1)
	assert.Equal(t, world.LevelInvestigation, escalations[0].Level)
	assert.Contains(t, []string{world.ActionStartInvestigation, world.ActionSpawnPatrol}, escalations[0].ResponseAct)

	police := w.Factions.Roster[world.FactionPolice]
	police.Levels[world.LocOldTown] = world.LevelInvestigation
	w.Factions.Roster[world.FactionPolice] = police
	out, err = s.Run(w, nil, rng.New(42, 1))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNemesisAdaptsMonotonically(t *testing.T) {
	s := NewNemesisSystem(config.DefaultBalance().Nemesis)
	c := content.MustDefaultCatalog()

	w := world.NewCity(42)
	w.Incidents.Cases["case-000001"] = world.Case{ID: "case-000001", LocationID: world.LocMarket, Status: world.CaseOpen, Progress: 30}
	w.Nemesis.CasesSeen["case-000001"] = true
	w.Heat.Locations[world.LocMarket] = 40

	out, err := s.Run(w, c, rng.New(42, 1))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	adapt := out[0].(events.NemesisEvent)
	assert.Equal(t, events.NemesisAdapt, adapt.Action)
	assert.Equal(t, 1, adapt.Level)

	w.Nemesis.Level = 2
	w.Nemesis.HasActed = true
	w.Nemesis.LastActionTick = 1
	out, err = s.Run(w, c, rng.New(42, 2))
	require.NoError(t, err)
	for _, ev := range out {
		assert.NotEqual(t, events.NemesisAdapt, ev.(events.NemesisEvent).Action)
	}
}

func TestNemesisActsOnlyAfterCooldown(t *testing.T) {
	s := NewNemesisSystem(config.DefaultBalance().Nemesis)
	c := content.MustDefaultCatalog()
	w := world.NewCity(42)
	w.Time.Tick = 10
	w.Heat.Locations[world.LocDocks] = 20
	w.Nemesis.Level = 1
	w.Nemesis.HasActed = true
	w.Nemesis.LastActionTick = 10

	out, err := s.Run(w, c, rng.New(42, 11))
	require.NoError(t, err)
	assert.Empty(t, out, "level 1 waits three ticks between actions")

	w.Time.Tick = 12
	out, err = s.Run(w, c, rng.New(42, 13))
	require.NoError(t, err)
	require.Len(t, out, 1)
	act := out[0].(events.NemesisEvent)
	assert.Equal(t, events.NemesisAct, act.Action)
	assert.Equal(t, world.LocDocks, act.LocationID)
	assert.Equal(t, "nem.scout", act.Plan, "unfocused nemesis only has the scout action")
}

func TestPressureApproachesTargetByStep(t *testing.T) {
	assert.Equal(t, 2, approach(0, 50, 2))
	assert.Equal(t, 50, approach(49, 50, 2))
	assert.Equal(t, 8, approach(10, 0, 2))
	assert.Equal(t, 7, approach(7, 7, 2))
}

func TestStoryletFiresWithTaggedSideEffects(t *testing.T) {
	// Setup: enough heat for the headline storylet.
	w := world.NewCity(42)
	w.Heat.Locations[world.LocMarket] = 25
	s := NewNarrativeSystem(config.DefaultBalance().Narrative)

	// Act
	out, err := s.Run(w, content.MustDefaultCatalog(), rng.New(42, 1))
	require.NoError(t, err)

	// Assert
	var fired []events.StoryEvent
	for _, ev := range out {
		if se, ok := ev.(events.StoryEvent); ok && se.Action == events.StoryFire {
			fired = append(fired, se)
		}
	}
	require.Len(t, fired, 1)
	assert.Equal(t, ids.StoryletID("st.first_headline"), fired[0].StoryletID)
	assert.Equal(t, "press_attention", fired[0].SetFlag)
}

func TestStoryletRespectsFlagsAndOnce(t *testing.T) {
	w := world.NewCity(42)
	w.Heat.Locations[world.LocMarket] = 25
	w.Story.Fired["st.first_headline"] = 1
	s := NewNarrativeSystem(config.DefaultBalance().Narrative)

	out, err := s.Run(w, content.MustDefaultCatalog(), rng.New(42, 2))
	require.NoError(t, err)
	for _, ev := range out {
		if se, ok := ev.(events.StoryEvent); ok {
			assert.NotEqual(t, events.StoryFire, se.Action)
		}
	}

	assert.False(t, Eligible(w, content.Preconditions{RequireFlag: "press_attention"}))
	w.Story.Flags["press_attention"] = true
	assert.True(t, Eligible(w, content.Preconditions{RequireFlag: "press_attention"}))
	assert.False(t, Eligible(w, content.Preconditions{ForbidFlag: "press_attention"}))
}
