// Package engine - faction_system.go
// Factions answer new incidents and escalate as heat crosses their thresholds.
package engine

import (
	"slices"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

type FactionSystem struct {
	balance config.FactionBalance
}

func NewFactionSystem(b config.FactionBalance) *FactionSystem {
	return &FactionSystem{balance: b}
}

func (s *FactionSystem) Name() string              { return "faction" }
func (s *FactionSystem) Streams() []rng.StreamName { return []rng.StreamName{rng.Factions} }

func (s *FactionSystem) Run(snap *world.State, _ content.Repository, rs Streams) ([]events.Event, error) {
	tick := simTick(snap)
	var out []events.Event

	for _, c := range snap.Incidents.OpenedAt(tick) {
		f, ok := Responder(snap, c.LocationID)
		if !ok {
			continue
		}
		if _, done := f.Responded[c.ID]; done {
			continue
		}
		out = append(out, events.FactionEvent{
			Action:     events.FactionRespond,
			FactionID:  f.ID,
			LocationID: c.LocationID,
			CaseID:     c.ID,
			HeatDelta:  f.ResponseHeat,
		})
	}

	h := rs.Stream(rng.Factions)
	for _, fid := range snap.SortedFactionIDs() {
		f := snap.Factions.Roster[fid]
		if !f.Active {
			continue
		}
		territory := slices.Clone(f.Territory)
		slices.Sort(territory)
		for _, loc := range territory {
			threshold, ok := f.LevelFor(snap.Heat.Locations[loc])
			level := world.LevelNone
			if ok {
				level = threshold.Level
			}
			if level == f.CurrentLevel(loc) {
				continue
			}
			ev := events.FactionEvent{
				Action:     events.FactionEscalate,
				FactionID:  fid,
				LocationID: loc,
				Level:      level,
			}
			if ok && len(threshold.Actions) > 0 {
				ev.ResponseAct = threshold.Actions[h.IntN(len(threshold.Actions))]
			}
			out = append(out, ev)

			if level == world.LevelNone {
				continue
			}
			for _, other := range snap.SortedFactionIDs() {
				if other == fid || snap.Factions.Roster[other].Influence[loc] == 0 {
					continue
				}
				out = append(out, events.FactionEvent{
					Action:        events.FactionRelation,
					FactionID:     fid,
					LocationID:    loc,
					Other:         other,
					RelationDelta: s.balance.RivalryDelta,
				})
			}
		}
	}
	return out, nil
}

// Responder picks the single active faction that answers an incident at loc:
// highest influence there, lowest FactionID on ties.
func Responder(snap *world.State, loc ids.LocationID) (world.Faction, bool) {
	var best world.Faction
	found := false
	for _, fid := range snap.SortedFactionIDs() {
		f := snap.Factions.Roster[fid]
		if !f.Active || !f.Covers(loc) {
			continue
		}
		if !found || f.Influence[loc] > best.Influence[loc] {
			best, found = f, true
		}
	}
	return best, found
}
