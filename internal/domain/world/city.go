package world

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// Identifiers of the built-in city.
const (
	LocDocks    ids.LocationID = "loc.docks"
	LocHeights  ids.LocationID = "loc.heights"
	LocMarket   ids.LocationID = "loc.market"
	LocOldTown  ids.LocationID = "loc.old_town"
	LocPrecinct ids.LocationID = "loc.precinct"

	FactionPolice    ids.FactionID = "fac.police"
	FactionSyndicate ids.FactionID = "fac.syndicate"

	PlayerActor    ids.ActorID   = "actor.player"
	PersonaCivvies ids.PersonaID = "per.civilian"
	PersonaMask    ids.PersonaID = "per.mask"
)

// NewCity builds the starting world used by the server and the test harness.
func NewCity(seed int64) *State {
	s := NewState(seed)

	for _, l := range []Location{
		{ID: LocDocks, Name: "Harbor Docks", District: "Waterfront", Tags: []LocationTag{TagIndustrial}},
		{ID: LocHeights, Name: "Maple Heights", District: "Uptown", Tags: []LocationTag{TagResidential}},
		{ID: LocMarket, Name: "Night Market", District: "Central", Tags: []LocationTag{TagPublic}},
		{ID: LocOldTown, Name: "Old Town", District: "Central", Tags: []LocationTag{TagPublic, TagResidential}},
		{ID: LocPrecinct, Name: "Ninth Precinct", District: "Central", Tags: []LocationTag{TagHighSecurity}},
	} {
		s.Locations[l.ID] = l
		s.Heat.Locations[l.ID] = 0
		s.Incidents.CrimePressure[l.ID] = 0
	}

	police := NewFaction(FactionPolice, "City Police", 5,
		[]ids.LocationID{LocHeights, LocMarket, LocOldTown, LocPrecinct}, DefaultThresholds())
	syndicate := NewFaction(FactionSyndicate, "Harbor Syndicate", 3,
		[]ids.LocationID{LocDocks, LocMarket}, []Threshold{
			{Heat: HeatPatrol, Level: LevelPatrol, Actions: []string{ActionProxyCrime}},
			{Heat: HeatAttention, Level: LevelAttention, Actions: []string{ActionSpawnTactical, ActionProxyCrime}},
		})
	syndicate.Influence[LocDocks] = 10
	police.Influence[LocPrecinct] = 10
	s.Factions.Roster[police.ID] = police
	s.Factions.Roster[syndicate.ID] = syndicate
	s.Factions.Relations[FactionPolice] = map[ids.FactionID]int{FactionSyndicate: -10}
	s.Factions.Relations[FactionSyndicate] = map[ids.FactionID]int{FactionPolice: -10}
	s.Heat.Factions[FactionPolice] = 0
	s.Heat.Factions[FactionSyndicate] = 0

	player := NewPersonaStack(PlayerActor, LocHeights)
	player.AddPersona(Persona{ID: PersonaCivvies, Label: "Sam Ortiz", Type: PersonaCivilian})
	player.AddPersona(Persona{
		ID:             PersonaMask,
		Label:          "Undertow",
		Type:           PersonaMasked,
		Loadout:        []ids.PowerID{content.PowerKinetic, content.PowerShadow},
		RestrictedTags: []LocationTag{TagHighSecurity},
	})
	player.Grant(content.PowerKinetic, content.AcqKineticAwakening, content.ExprKineticShove, content.ExprKineticQuake)
	player.Grant(content.PowerShadow, content.AcqShadowMentor, content.ExprShadowVeil)
	s.Personas.Actors[player.ActorID] = player

	s.Nemesis.Name = "The Curator"
	return s
}
