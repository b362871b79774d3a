// Package engine - worldgen_system.go
// Incidents appear where crime and heat are, cases move forward, streets cool down.
package engine

import (
	"fmt"
	"slices"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// proxyWeight is added to a location's incident weight for every faction
// running proxy crime there.
const proxyWeight = 5

var (
	codenameAdjectives = []string{"Amber", "Broken", "Cold", "Crimson", "Hollow", "Iron", "Quiet", "Silver", "Static", "Velvet"}
	codenameNouns      = []string{"Anchor", "Harbor", "Lantern", "Mirror", "Needle", "Orchid", "Raven", "Signal", "Tide", "Vault"}
)

// WorldGenSystem opens new incidents, cools crime pressure where nothing
// happened, advances investigations and links evidence to cases.
type WorldGenSystem struct {
	balance config.IncidentBalance
}

func NewWorldGenSystem(b config.IncidentBalance) *WorldGenSystem {
	return &WorldGenSystem{balance: b}
}

func (s *WorldGenSystem) Name() string { return "worldgen" }
func (s *WorldGenSystem) Streams() []rng.StreamName {
	return []rng.StreamName{rng.Incidents, rng.Names}
}

func (s *WorldGenSystem) Run(snap *world.State, _ content.Repository, rs Streams) ([]events.Event, error) {
	locs := snap.SortedLocationIDs()
	if len(locs) == 0 {
		return nil, nil
	}

	out, hit, err := s.spawn(snap, locs, rs)
	if err != nil {
		return nil, err
	}

	for _, loc := range locs {
		crime := snap.Incidents.CrimePressure[loc]
		if crime == 0 || hit[loc] {
			continue
		}
		cool := clampInt(s.balance.CoolRate, 0, crime)
		if cool == 0 {
			continue
		}
		out = append(out, events.IncidentEvent{
			Action:     events.IncidentShift,
			LocationID: loc,
			CrimeDelta: -cool,
		})
	}

	return append(out, s.investigate(snap)...), nil
}

// IncidentCount is how many incidents open this tick for the given total pressure.
func (s *WorldGenSystem) IncidentCount(totalPressure int) int {
	n := s.balance.BaseCount
	if s.balance.PressurePerExtra > 0 {
		n += totalPressure / s.balance.PressurePerExtra
	}
	return clampInt(n, 0, s.balance.MaxPerTick)
}

func (s *WorldGenSystem) spawn(snap *world.State, locs []ids.LocationID, rs Streams) ([]events.Event, map[ids.LocationID]bool, error) {
	total := 0
	weights := make([]int, len(locs))
	for i, loc := range locs {
		crime := snap.Incidents.CrimePressure[loc]
		heat := snap.Heat.Locations[loc]
		total += crime + heat/2
		weights[i] = crime + heat + 1
		for _, fid := range snap.SortedFactionIDs() {
			if snap.Factions.Roster[fid].Proxies[loc] {
				weights[i] += proxyWeight
			}
		}
	}

	count := s.IncidentCount(total)
	hit := make(map[ids.LocationID]bool, count)
	if count == 0 {
		return nil, hit, nil
	}

	incidents := rs.Stream(rng.Incidents)
	names := rs.Stream(rng.Names)

	out := make([]events.Event, 0, count)
	for i := 0; i < count; i++ {
		idx := incidents.Weighted(weights)
		if idx < 0 {
			return nil, nil, fmt.Errorf("worldgen: no location has positive weight")
		}
		loc := locs[idx]
		severity := 1 + incidents.IntN(3)
		codename := codenameAdjectives[names.IntN(len(codenameAdjectives))] + " " +
			codenameNouns[names.IntN(len(codenameNouns))]

		hit[loc] = true
		out = append(out, events.IncidentEvent{
			Action:     events.IncidentOpen,
			LocationID: loc,
			Codename:   codename,
			Severity:   severity,
			CrimeDelta: severity * s.balance.CrimeBumpPerSeverity,
		})
	}
	return out, hit, nil
}

// investigate advances open cases and links loose evidence to them.
func (s *WorldGenSystem) investigate(snap *world.State) []events.Event {
	var out []events.Event
	linked := make(map[string]bool)

	for _, c := range snap.Incidents.OpenCases() {
		recs := snap.Evidence.At(c.LocationID)

		pattern := c.Pattern
		var newPattern []content.SignatureType
		if len(pattern) == 0 && len(recs) > 0 {
			newPattern = dominantSignatures(recs, s.balance.PatternSize)
			pattern = newPattern
		}

		matching := 0
		for _, rec := range recs {
			switch {
			case rec.CaseID == c.ID:
				matching++
			case rec.CaseID == "" && !linked[rec.ID] && slices.Contains(pattern, rec.Signature):
				matching++
				linked[rec.ID] = true
				out = append(out, events.EvidenceEvent{
					Action:     events.EvidenceLink,
					LocationID: c.LocationID,
					RecordID:   rec.ID,
					CaseID:     c.ID,
				})
			}
		}

		investigators := 0
		for _, fid := range snap.SortedFactionIDs() {
			if snap.Factions.Roster[fid].Investigating[c.LocationID] {
				investigators++
			}
		}

		gain := investigators*s.balance.InvestigatorProgress + min(matching, 3)*s.balance.EvidenceProgress
		if gain == 0 && newPattern == nil {
			continue
		}
		out = append(out, events.IncidentEvent{
			Action:        events.IncidentProgress,
			LocationID:    c.LocationID,
			CaseID:        c.ID,
			ProgressDelta: gain,
			Pattern:       newPattern,
		})
	}
	return out
}

// dominantSignatures returns up to n signature types with the highest total
// strength among recs, ties broken by name.
func dominantSignatures(recs []world.EvidenceRecord, n int) []content.SignatureType {
	totals := make(map[content.SignatureType]int)
	for _, r := range recs {
		totals[r.Signature] += r.Strength
	}
	sigs := make([]content.SignatureType, 0, len(totals))
	for sig := range totals {
		sigs = append(sigs, sig)
	}
	slices.SortFunc(sigs, func(a, b content.SignatureType) int {
		if totals[a] != totals[b] {
			return totals[b] - totals[a]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	if n > 0 && len(sigs) > n {
		sigs = sigs[:n]
	}
	return sigs
}
