// Package engine - heat_system.go
// Decay phase: heat cools off and evidence ages.
package engine

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// HeatSystem applies the fixed decay curve to location and faction heat and
// ages every evidence record by one tick.
type HeatSystem struct {
	balance config.HeatBalance
}

func NewHeatSystem(b config.HeatBalance) *HeatSystem {
	return &HeatSystem{balance: b}
}

func (s *HeatSystem) Name() string              { return "heat" }
func (s *HeatSystem) Streams() []rng.StreamName { return nil }

func (s *HeatSystem) Run(snap *world.State, _ content.Repository, _ Streams) ([]events.Event, error) {
	var out []events.Event

	openAt := make(map[ids.LocationID]bool)
	for _, c := range snap.Incidents.OpenCases() {
		openAt[c.LocationID] = true
	}

	for _, loc := range snap.SortedLocationIDs() {
		heat := snap.Heat.Locations[loc]
		if heat == 0 {
			continue
		}
		decay := s.balance.BaseDecay
		for _, fid := range snap.SortedFactionIDs() {
			if snap.Factions.Roster[fid].Patrols[loc] > 0 {
				decay += s.balance.PresenceBonus
				break
			}
		}
		if snap.Incidents.CrimePressure[loc] >= s.balance.HighCrimeThreshold {
			decay -= s.balance.CrimeDrag
		}
		if openAt[loc] {
			decay -= s.balance.CrimeDrag
		}
		decay = clampInt(decay, 0, heat)
		if decay == 0 {
			continue
		}
		out = append(out, events.FactionEvent{
			Action:     events.FactionHeatDecay,
			LocationID: loc,
			HeatDelta:  -decay,
		})
	}

	for _, fid := range snap.SortedFactionIDs() {
		heat := snap.Heat.Factions[fid]
		decay := clampInt(s.balance.FactionDecay, 0, heat)
		if decay == 0 {
			continue
		}
		out = append(out, events.FactionEvent{
			Action:    events.FactionHeatDecay,
			FactionID: fid,
			HeatDelta: -decay,
		})
	}

	for _, loc := range snap.SortedLocationIDs() {
		for _, rec := range snap.Evidence.At(loc) {
			out = append(out, events.EvidenceEvent{
				Action:     events.EvidenceDecay,
				LocationID: loc,
				RecordID:   rec.ID,
				CaseID:     rec.CaseID,
			})
		}
	}
	return out, nil
}
