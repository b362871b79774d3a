// Package engine - owner_faction.go
package engine

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
)

// maxRelation bounds faction relations in both directions.
const maxRelation = 100

// factionOwner is the only writer of world.Factions and world.Heat.
type factionOwner struct {
	w       *world.State
	tick    uint64
	balance config.FactionBalance
}

func (o factionOwner) apply(e events.FactionEvent) error {
	if e.LocationID != "" {
		if _, ok := o.w.Locations[e.LocationID]; !ok {
			return fmt.Errorf("unknown location %q", e.LocationID)
		}
	}
	switch e.Action {
	case events.FactionRespond:
		return o.respond(e)
	case events.FactionEscalate:
		return o.escalate(e)
	case events.FactionHeatDecay:
		if e.HeatDelta > 0 {
			return fmt.Errorf("decay cannot add heat (%+d)", e.HeatDelta)
		}
		return o.shiftHeat(e)
	case events.FactionHeatShift:
		return o.shiftHeat(e)
	case events.FactionRelation:
		return o.relate(e)
	default:
		return fmt.Errorf("unknown faction action %q", e.Action)
	}
}

func (o factionOwner) faction(e events.FactionEvent) (world.Faction, error) {
	f, ok := o.w.Factions.Roster[e.FactionID]
	if !ok {
		return f, fmt.Errorf("unknown faction %q", e.FactionID)
	}
	return f, nil
}

func (o factionOwner) respond(e events.FactionEvent) error {
	f, err := o.faction(e)
	if err != nil {
		return err
	}
	if !f.Active || !f.Covers(e.LocationID) {
		return fmt.Errorf("%s does not cover %s", f.ID, e.LocationID)
	}
	if _, ok := o.w.Incidents.Cases[e.CaseID]; !ok {
		return fmt.Errorf("unknown case %q", e.CaseID)
	}
	for id, other := range o.w.Factions.Roster {
		if _, done := other.Responded[e.CaseID]; done {
			return fmt.Errorf("case %s already answered by %s", e.CaseID, id)
		}
	}

	o.w.Heat.Locations[e.LocationID] = world.ClampHeat(o.w.Heat.Locations[e.LocationID] + e.HeatDelta)
	o.w.Heat.Factions[f.ID] = world.ClampHeat(o.w.Heat.Factions[f.ID] + e.HeatDelta)
	f.Responded[e.CaseID] = o.tick
	f.Influence[e.LocationID] += o.balance.InfluencePerAction
	o.w.Factions.Roster[f.ID] = f
	return nil
}

func (o factionOwner) escalate(e events.FactionEvent) error {
	f, err := o.faction(e)
	if err != nil {
		return err
	}
	if !f.Covers(e.LocationID) {
		return fmt.Errorf("%s does not cover %s", f.ID, e.LocationID)
	}
	loc := e.LocationID
	if e.Level == world.LevelNone {
		f.Levels[loc] = e.Level
		delete(f.Patrols, loc)
		delete(f.Investigating, loc)
		delete(f.Proxies, loc)
		o.w.Factions.Roster[f.ID] = f
		return nil
	}

	switch e.ResponseAct {
	case "", world.ActionSpawnPatrol, world.ActionEscalateSecurity, world.ActionSpawnTactical,
		world.ActionStartInvestigation, world.ActionProxyCrime:
	default:
		return fmt.Errorf("unknown response action %q", e.ResponseAct)
	}

	f.Levels[loc] = e.Level
	switch e.ResponseAct {
	case world.ActionSpawnPatrol, world.ActionEscalateSecurity:
		f.Patrols[loc]++
	case world.ActionSpawnTactical:
		f.Patrols[loc] += 2
	case world.ActionStartInvestigation:
		f.Investigating[loc] = true
	case world.ActionProxyCrime:
		f.Proxies[loc] = true
	}
	f.Influence[loc] += o.balance.InfluencePerAction
	o.w.Factions.Roster[f.ID] = f
	return nil
}

func (o factionOwner) shiftHeat(e events.FactionEvent) error {
	if e.LocationID == "" && e.FactionID == "" {
		return fmt.Errorf("heat change names neither a location nor a faction")
	}
	if e.FactionID != "" {
		if _, err := o.faction(e); err != nil {
			return err
		}
	}
	if e.LocationID != "" {
		o.w.Heat.Locations[e.LocationID] = world.ClampHeat(o.w.Heat.Locations[e.LocationID] + e.HeatDelta)
	}
	if e.FactionID != "" {
		o.w.Heat.Factions[e.FactionID] = world.ClampHeat(o.w.Heat.Factions[e.FactionID] + e.HeatDelta)
	}
	return nil
}

func (o factionOwner) relate(e events.FactionEvent) error {
	if _, err := o.faction(e); err != nil {
		return err
	}
	if _, ok := o.w.Factions.Roster[e.Other]; !ok || e.Other == e.FactionID {
		return fmt.Errorf("invalid relation target %q", e.Other)
	}
	rel := o.w.Factions.Relations
	for _, pair := range [][2]ids.FactionID{{e.FactionID, e.Other}, {e.Other, e.FactionID}} {
		if rel[pair[0]] == nil {
			rel[pair[0]] = make(map[ids.FactionID]int)
		}
		rel[pair[0]][pair[1]] = clampInt(rel[pair[0]][pair[1]]+e.RelationDelta, -maxRelation, maxRelation)
	}
	return nil
}
