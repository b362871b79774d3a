package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

func moveTo(w *world.State, loc ids.LocationID) {
	s := w.Personas.Actors[world.PlayerActor]
	s.Location = loc
	w.Personas.Actors[world.PlayerActor] = s
}

func TestSwitchPersonaAllowed(t *testing.T) {
	w := world.NewCity(1)

	out := SwitchPersona(w, world.PlayerActor, world.PersonaMask)
	require.True(t, out.Allowed, out.Detail)
	require.Len(t, out.Events, 1)
	ev := out.Events[0].(events.PersonaEvent)
	assert.Equal(t, events.PersonaSwitch, ev.Action)
	assert.Equal(t, w.Time.Tick+2, ev.NextSwitchTick)
}

func TestSwitchPersonaDenials(t *testing.T) {
	w := world.NewCity(1)
	assert.Equal(t, DenyUnknownPersona, SwitchPersona(w, world.PlayerActor, "per.ghost").Reason)
	assert.Equal(t, DenyUnknownPersona, SwitchPersona(w, "actor.ghost", world.PersonaMask).Reason)
	assert.Equal(t, DenyAlreadyActive, SwitchPersona(w, world.PlayerActor, world.PersonaCivvies).Reason)

	s := w.Personas.Actors[world.PlayerActor]
	s.NextSwitchTick = w.Time.Tick + 5
	w.Personas.Actors[world.PlayerActor] = s
	assert.Equal(t, DenySwitchCooldown, SwitchPersona(w, world.PlayerActor, world.PersonaMask).Reason)

	w = world.NewCity(1)
	moveTo(w, world.LocPrecinct)
	assert.Equal(t, DenyLocation, SwitchPersona(w, world.PlayerActor, world.PersonaMask).Reason)
}

func TestSwitchToCivilianBlockedByWitnesses(t *testing.T) {
	w := world.NewCity(1)
	s := w.Personas.Actors[world.PlayerActor]
	s.Active = world.PersonaMask
	w.Personas.Actors[world.PlayerActor] = s
	moveTo(w, world.LocMarket)
	w.Heat.Locations[world.LocMarket] = world.HeatWitnesses + 1

	assert.Equal(t, DenyWitnesses, SwitchPersona(w, world.PlayerActor, world.PersonaCivvies).Reason)

	w.Heat.Locations[world.LocMarket] = world.HeatWitnesses
	w.Evidence.Records[world.LocMarket] = []world.EvidenceRecord{{ID: "ev-000001", Signature: content.SigVisualAnomaly, RemainingTicks: 2}}
	out := SwitchPersona(w, world.PlayerActor, world.PersonaCivvies)
	require.True(t, out.Allowed)
	assert.Equal(t, CivilianExposure, out.Events[0].(events.PersonaEvent).SuspicionDelta)
}
