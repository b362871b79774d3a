// Package engine - nemesis_system.go
// The nemesis watches the same evidence the investigators do, adapts as the
// pressure on the player builds, and schedules countermeasures.
package engine

import (
	"cmp"
	"slices"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

type NemesisSystem struct {
	balance config.NemesisBalance
}

func NewNemesisSystem(b config.NemesisBalance) *NemesisSystem {
	th := slices.Clone(b.Thresholds)
	slices.SortFunc(th, func(a, b config.NemesisThreshold) int { return cmp.Compare(a.Level, b.Level) })
	return &NemesisSystem{balance: config.NemesisBalance{Thresholds: th}}
}

func (s *NemesisSystem) Name() string              { return "nemesis" }
func (s *NemesisSystem) Streams() []rng.StreamName { return []rng.StreamName{rng.Nemesis} }

func (s *NemesisSystem) Run(snap *world.State, c content.Repository, rs Streams) ([]events.Event, error) {
	out := s.perceive(snap)

	open := snap.Incidents.OpenCases()
	if target := s.adaptTarget(snap, open); target > snap.Nemesis.Level {
		out = append(out, events.NemesisEvent{Action: events.NemesisAdapt, Level: target})
	}

	if act, ok := s.act(snap, c, open, rs); ok {
		out = append(out, act)
	}
	return out, nil
}

// perceive learns signatures from cases seen for the first time and from
// evidence left during the previous tick.
func (s *NemesisSystem) perceive(snap *world.State) []events.Event {
	var out []events.Event
	fresh := snap.Time.Tick

	for _, c := range snap.Incidents.OpenCases() {
		if snap.Nemesis.CasesSeen[c.ID] {
			continue
		}
		var sigs []content.SignatureType
		for _, rec := range snap.Evidence.At(c.LocationID) {
			if rec.CreatedTick != fresh && !slices.Contains(sigs, rec.Signature) {
				sigs = append(sigs, rec.Signature)
			}
		}
		slices.Sort(sigs)
		out = append(out, events.NemesisEvent{
			Action:     events.NemesisLearn,
			CaseID:     c.ID,
			LocationID: c.LocationID,
			Signatures: sigs,
		})
	}

	if snap.Time.Tick == 0 {
		return out
	}
	for _, loc := range snap.SortedLocationIDs() {
		var sigs []content.SignatureType
		for _, rec := range snap.Evidence.At(loc) {
			if rec.CreatedTick == fresh {
				sigs = append(sigs, rec.Signature)
			}
		}
		if len(sigs) == 0 {
			continue
		}
		slices.Sort(sigs)
		out = append(out, events.NemesisEvent{
			Action:     events.NemesisLearn,
			LocationID: loc,
			Signatures: sigs,
		})
	}
	return out
}

// adaptTarget is the highest level whose heat and progress gates are both
// met by a single open case.
func (s *NemesisSystem) adaptTarget(snap *world.State, open []world.Case) int {
	target := 0
	for _, th := range s.balance.Thresholds {
		for _, c := range open {
			if snap.Heat.Locations[c.LocationID] >= th.MinHeat && c.Progress >= th.MinProgress {
				target = max(target, th.Level)
				break
			}
		}
	}
	return min(target, world.MaxAdaptation)
}

func (s *NemesisSystem) cooldown(level int) uint64 {
	for _, th := range s.balance.Thresholds {
		if th.Level == level {
			return uint64(max(th.Cooldown, 0))
		}
	}
	return 0
}

func (s *NemesisSystem) act(snap *world.State, c content.Repository, open []world.Case, rs Streams) (events.NemesisEvent, bool) {
	n := snap.Nemesis
	if n.Level == 0 {
		return events.NemesisEvent{}, false
	}
	tick := simTick(snap)
	if n.HasActed && tick < n.LastActionTick+s.cooldown(n.Level) {
		return events.NemesisEvent{}, false
	}

	loc, ok := planLocation(snap, open)
	if !ok {
		return events.NemesisEvent{}, false
	}

	maxHeat := snap.Heat.Max()
	maxProgress := 0
	for _, cs := range open {
		maxProgress = max(maxProgress, cs.Progress)
	}
	focus, hasFocus := n.Focus()

	var candidates []content.NemesisAction
	for _, a := range c.NemesisActions() {
		if a.MinLevel > n.Level || a.MinHeat > maxHeat || a.MinProgress > maxProgress {
			continue
		}
		if a.Focus != "" && (!hasFocus || a.Focus != focus) {
			continue
		}
		candidates = append(candidates, a)
	}
	if len(candidates) == 0 {
		return events.NemesisEvent{}, false
	}
	slices.SortFunc(candidates, func(a, b content.NemesisAction) int {
		return cmp.Or(
			cmp.Compare(a.MinLevel, b.MinLevel),
			cmp.Compare(a.MinHeat, b.MinHeat),
			cmp.Compare(a.MinProgress, b.MinProgress),
			cmp.Compare(a.ID, b.ID),
		)
	})

	// Later candidates have stricter gates and are favoured.
	weights := make([]int, len(candidates))
	for i := range weights {
		weights[i] = i + 1
	}
	pick := rs.Stream(rng.Nemesis).Weighted(weights)
	return events.NemesisEvent{
		Action:     events.NemesisAct,
		LocationID: loc,
		Plan:       candidates[pick].ID,
	}, true
}

// planLocation targets the hottest open case, or the hottest location when
// nothing is open.
func planLocation(snap *world.State, open []world.Case) (ids.LocationID, bool) {
	best, bestHeat, found := ids.LocationID(""), -1, false
	for _, c := range open {
		if h := snap.Heat.Locations[c.LocationID]; h > bestHeat {
			best, bestHeat, found = c.LocationID, h, true
		}
	}
	if found {
		return best, true
	}
	return snap.Heat.Hottest()
}
