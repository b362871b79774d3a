// Package engine - narrative_system.go
// Narrative pressure follows the state of the city; storylets fire when
// their preconditions hold.
package engine

import (
	"maps"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// nightTension is added to temporal pressure outside daytime hours.
const nightTension = 10

type NarrativeSystem struct {
	balance config.NarrativeBalance
}

func NewNarrativeSystem(b config.NarrativeBalance) *NarrativeSystem {
	return &NarrativeSystem{balance: b}
}

func (s *NarrativeSystem) Name() string              { return "narrative" }
func (s *NarrativeSystem) Streams() []rng.StreamName { return []rng.StreamName{rng.Narrative} }

func (s *NarrativeSystem) Run(snap *world.State, c content.Repository, rs Streams) ([]events.Event, error) {
	var out []events.Event

	open := len(snap.Incidents.OpenCases())
	step := s.balance.StepBase
	if s.balance.CasesPerBonus > 0 {
		step += open / s.balance.CasesPerBonus
	}

	targets := PressureTargets(snap)
	next := make(map[content.Axis]int, len(content.AllAxes))
	changed := false
	for _, axis := range content.AllAxes {
		cur := snap.Story.Pressure[axis]
		next[axis] = approach(cur, targets[axis], step)
		if next[axis] != cur {
			changed = true
		}
	}
	if changed {
		out = append(out, events.StoryEvent{Action: events.StoryPressure, Pressure: next})
	}

	return append(out, s.fire(snap, c, rs)...), nil
}

// PressureTargets derives where each axis is heading from the current world.
func PressureTargets(snap *world.State) map[content.Axis]int {
	open := len(snap.Incidents.OpenCases())

	temporal := open * 12
	if !snap.Time.IsDay() {
		temporal += nightTension
	}

	identity := 0
	for _, actor := range snap.SortedActorIDs() {
		for _, p := range snap.Personas.Actors[actor].Personas {
			identity = max(identity, p.Suspicion*5)
		}
	}
	for _, loc := range snap.SortedLocationIDs() {
		for _, rec := range snap.Evidence.At(loc) {
			if rec.Signature == content.SigVisualAnomaly {
				identity += 5
			}
		}
	}

	institutional := 0
	if n := len(snap.Heat.Factions); n > 0 {
		for _, h := range snap.Heat.Factions {
			institutional += h
		}
		institutional /= n
	}

	moral := 0
	for _, crime := range snap.Incidents.CrimePressure {
		moral += crime
	}
	moral /= 2

	resource := 0
	for _, actor := range snap.SortedActorIDs() {
		st := snap.Personas.Actors[actor]
		if st.MaxStamina > 0 {
			resource = max(resource, 100-st.Stamina*100/st.MaxStamina)
		}
	}

	psychological := snap.Nemesis.Level*25 + snap.Evidence.Count()*2

	raw := map[content.Axis]int{
		content.AxisTemporal:      temporal,
		content.AxisIdentity:      identity,
		content.AxisInstitutional: institutional,
		content.AxisMoral:         moral,
		content.AxisResource:      resource,
		content.AxisPsychological: psychological,
	}
	for axis, v := range raw {
		raw[axis] = clampInt(v, 0, world.MaxPressure)
	}
	return raw
}

func approach(cur, target, step int) int {
	switch {
	case cur < target:
		return min(cur+step, target)
	case cur > target:
		return max(cur-step, target)
	default:
		return cur
	}
}

// fire selects storylets whose preconditions hold, at most MaxFiredPerTick,
// drawing on rng_narrative when more are eligible than may fire.
func (s *NarrativeSystem) fire(snap *world.State, c content.Repository, rs Streams) []events.Event {
	tick := simTick(snap)
	var eligible []content.Storylet
	for _, st := range c.Storylets() {
		if snap.Story.Ready(st, tick) && Eligible(snap, st.Preconditions) {
			eligible = append(eligible, st)
		}
	}
	if len(eligible) == 0 || s.balance.MaxFiredPerTick <= 0 {
		return nil
	}

	chosen := eligible
	if len(eligible) > s.balance.MaxFiredPerTick {
		h := rs.Stream(rng.Narrative)
		pool := eligible
		chosen = nil
		for len(chosen) < s.balance.MaxFiredPerTick {
			i := h.IntN(len(pool))
			chosen = append(chosen, pool[i])
			pool = append(pool[:i:i], pool[i+1:]...)
		}
	}

	var out []events.Event
	for _, st := range chosen {
		fire := events.StoryEvent{
			Action:     events.StoryFire,
			StoryletID: st.ID,
			Pressure:   maps.Clone(st.Effects.Pressure),
			SetFlag:    st.Effects.SetFlag,
		}
		if st.Cooldown > 0 {
			fire.CooldownUntil = tick + uint64(st.Cooldown)
		}
		out = append(out, fire)

		loc, ok := storyLocation(snap)
		if !ok {
			continue
		}
		if st.Effects.HeatDelta != 0 {
			out = append(out, events.FactionEvent{
				Action:     events.FactionHeatShift,
				LocationID: loc,
				HeatDelta:  st.Effects.HeatDelta,
				Storylet:   st.ID,
			})
		}
		if st.Effects.CrimeDelta != 0 {
			out = append(out, events.IncidentEvent{
				Action:     events.IncidentShift,
				LocationID: loc,
				CrimeDelta: st.Effects.CrimeDelta,
				Storylet:   st.ID,
			})
		}
	}
	return out
}

// Eligible evaluates storylet preconditions against a snapshot.
func Eligible(snap *world.State, pre content.Preconditions) bool {
	for axis, minimum := range pre.MinPressure {
		if snap.Story.Pressure[axis] < minimum {
			return false
		}
	}
	if snap.Heat.Max() < pre.MinHeat {
		return false
	}
	if snap.Nemesis.Level < pre.MinNemesisLevel {
		return false
	}
	if len(snap.Incidents.OpenCases()) < pre.MinOpenCases {
		return false
	}
	if pre.RequireFlag != "" && !snap.Story.Flags[pre.RequireFlag] {
		return false
	}
	if pre.ForbidFlag != "" && snap.Story.Flags[pre.ForbidFlag] {
		return false
	}
	return true
}

// storyLocation is where storylet heat and crime land: the hottest location,
// else the one with the most crime.
func storyLocation(snap *world.State) (ids.LocationID, bool) {
	if loc, ok := snap.Heat.Hottest(); ok {
		return loc, true
	}
	best, bestCrime := ids.LocationID(""), 0
	for _, loc := range snap.SortedLocationIDs() {
		if crime := snap.Incidents.CrimePressure[loc]; crime > bestCrime {
			best, bestCrime = loc, crime
		}
	}
	return best, bestCrime > 0
}
