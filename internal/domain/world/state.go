// Package world defines the single mutable aggregate of the simulation.
// Each top-level slice has exactly one owner in the resolver; systems only
// ever see a cloned snapshot.
// This package is PURE and must NOT import any infrastructure packages.
package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"sort"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// SliceName identifies an owned slice of the world.
type SliceName string

const (
	SliceHeat      SliceName = "heat"
	SliceFactions  SliceName = "factions"
	SliceIncidents SliceName = "incidents"
	SliceEvidence  SliceName = "evidence"
	SlicePersonas  SliceName = "personas"
	SliceNemesis   SliceName = "nemesis"
	SliceStory     SliceName = "story"
	SliceTime      SliceName = "time"
)

var AllSlices = []SliceName{
	SliceHeat, SliceFactions, SliceIncidents, SliceEvidence,
	SlicePersonas, SliceNemesis, SliceStory, SliceTime,
}

// State is the authoritative world aggregate.
type State struct {
	Seed      int64                       `json:"seed"`
	Time      Time                        `json:"time"`
	Locations map[ids.LocationID]Location `json:"locations"`
	Heat      Heat                        `json:"heat"`
	Factions  Factions                    `json:"factions"`
	Incidents Incidents                   `json:"incidents"`
	Evidence  Evidence                    `json:"evidence"`
	Personas  Personas                    `json:"personas"`
	Nemesis   Nemesis                     `json:"nemesis"`
	Story     Story                       `json:"story"`
}

// NewState creates an empty world for the given seed.
func NewState(seed int64) *State {
	s := &State{Seed: seed, Time: NewTime()}
	s.Normalize()
	return s
}

// Normalize fills nil maps so that fields missing from older saves default
// to empty values instead of failing later.
func (s *State) Normalize() {
	if s.Time.Day == 0 {
		s.Time = Time{Tick: s.Time.Tick, Day: 1, Hour: s.Time.Hour, Week: 1, Month: 1}
	}
	if s.Locations == nil {
		s.Locations = make(map[ids.LocationID]Location)
	}
	if s.Heat.Locations == nil {
		s.Heat.Locations = make(map[ids.LocationID]int)
	}
	if s.Heat.Factions == nil {
		s.Heat.Factions = make(map[ids.FactionID]int)
	}
	if s.Factions.Roster == nil {
		s.Factions.Roster = make(map[ids.FactionID]Faction)
	}
	if s.Factions.Relations == nil {
		s.Factions.Relations = make(map[ids.FactionID]map[ids.FactionID]int)
	}
	for id, f := range s.Factions.Roster {
		if f.Influence == nil {
			f.Influence = make(map[ids.LocationID]int)
		}
		if f.Levels == nil {
			f.Levels = make(map[ids.LocationID]string)
		}
		if f.Investigating == nil {
			f.Investigating = make(map[ids.LocationID]bool)
		}
		if f.Patrols == nil {
			f.Patrols = make(map[ids.LocationID]int)
		}
		if f.Proxies == nil {
			f.Proxies = make(map[ids.LocationID]bool)
		}
		if f.Responded == nil {
			f.Responded = make(map[ids.CaseID]uint64)
		}
		s.Factions.Roster[id] = f
	}
	if s.Incidents.Cases == nil {
		s.Incidents.Cases = make(map[ids.CaseID]Case)
	}
	if s.Incidents.CrimePressure == nil {
		s.Incidents.CrimePressure = make(map[ids.LocationID]int)
	}
	if s.Evidence.Records == nil {
		s.Evidence.Records = make(map[ids.LocationID][]EvidenceRecord)
	}
	if s.Personas.Actors == nil {
		s.Personas.Actors = make(map[ids.ActorID]PersonaStack)
	}
	for id, st := range s.Personas.Actors {
		if st.Personas == nil {
			st.Personas = make(map[ids.PersonaID]Persona)
		}
		if st.Powers == nil {
			st.Powers = make(map[ids.PowerID]PowerGrant)
		}
		if st.Unlocked == nil {
			st.Unlocked = make(map[ids.ExpressionID]bool)
		}
		if st.CooldownUntil == nil {
			st.CooldownUntil = make(map[ids.ExpressionID]uint64)
		}
		s.Personas.Actors[id] = st
	}
	if s.Nemesis.Knowledge == nil {
		s.Nemesis.Knowledge = make(map[content.SignatureType]int)
	}
	if s.Nemesis.CasesSeen == nil {
		s.Nemesis.CasesSeen = make(map[ids.CaseID]bool)
	}
	if s.Story.Pressure == nil {
		s.Story.Pressure = make(map[content.Axis]int)
	}
	for _, axis := range content.AllAxes {
		if _, ok := s.Story.Pressure[axis]; !ok {
			s.Story.Pressure[axis] = 0
		}
	}
	if s.Story.Fired == nil {
		s.Story.Fired = make(map[ids.StoryletID]uint64)
	}
	if s.Story.CooldownUntil == nil {
		s.Story.CooldownUntil = make(map[ids.StoryletID]uint64)
	}
	if s.Story.Flags == nil {
		s.Story.Flags = make(map[string]bool)
	}
}

// Clone returns a deep copy. Systems receive clones and may not affect the original.
func (s *State) Clone() *State {
	c := &State{
		Seed:      s.Seed,
		Time:      s.Time,
		Locations: make(map[ids.LocationID]Location, len(s.Locations)),
		Heat: Heat{
			Locations: maps.Clone(s.Heat.Locations),
			Factions:  maps.Clone(s.Heat.Factions),
		},
		Factions: Factions{
			Roster:    make(map[ids.FactionID]Faction, len(s.Factions.Roster)),
			Relations: make(map[ids.FactionID]map[ids.FactionID]int, len(s.Factions.Relations)),
		},
		Incidents: Incidents{
			Cases:         make(map[ids.CaseID]Case, len(s.Incidents.Cases)),
			CrimePressure: maps.Clone(s.Incidents.CrimePressure),
			NextCaseSeq:   s.Incidents.NextCaseSeq,
		},
		Evidence: Evidence{
			Records: make(map[ids.LocationID][]EvidenceRecord, len(s.Evidence.Records)),
			NextSeq: s.Evidence.NextSeq,
		},
		Personas: Personas{Actors: make(map[ids.ActorID]PersonaStack, len(s.Personas.Actors))},
		Nemesis:  s.Nemesis,
		Story: Story{
			Pressure:      maps.Clone(s.Story.Pressure),
			Fired:         maps.Clone(s.Story.Fired),
			CooldownUntil: maps.Clone(s.Story.CooldownUntil),
			Flags:         maps.Clone(s.Story.Flags),
		},
	}
	for id, l := range s.Locations {
		l.Tags = slices.Clone(l.Tags)
		c.Locations[id] = l
	}
	for id, f := range s.Factions.Roster {
		f.Territory = slices.Clone(f.Territory)
		f.Thresholds = slices.Clone(f.Thresholds)
		for i := range f.Thresholds {
			f.Thresholds[i].Actions = slices.Clone(f.Thresholds[i].Actions)
		}
		f.Influence = maps.Clone(f.Influence)
		f.Levels = maps.Clone(f.Levels)
		f.Investigating = maps.Clone(f.Investigating)
		f.Patrols = maps.Clone(f.Patrols)
		f.Proxies = maps.Clone(f.Proxies)
		f.Responded = maps.Clone(f.Responded)
		c.Factions.Roster[id] = f
	}
	for id, rel := range s.Factions.Relations {
		c.Factions.Relations[id] = maps.Clone(rel)
	}
	for id, cs := range s.Incidents.Cases {
		cs.Pattern = slices.Clone(cs.Pattern)
		c.Incidents.Cases[id] = cs
	}
	for loc, recs := range s.Evidence.Records {
		c.Evidence.Records[loc] = slices.Clone(recs)
	}
	for id, st := range s.Personas.Actors {
		personas := make(map[ids.PersonaID]Persona, len(st.Personas))
		for pid, p := range st.Personas {
			p.Loadout = slices.Clone(p.Loadout)
			p.AllowedTags = slices.Clone(p.AllowedTags)
			p.RestrictedTags = slices.Clone(p.RestrictedTags)
			personas[pid] = p
		}
		st.Personas = personas
		st.Powers = maps.Clone(st.Powers)
		st.Unlocked = maps.Clone(st.Unlocked)
		st.CooldownUntil = maps.Clone(st.CooldownUntil)
		c.Personas.Actors[id] = st
	}
	c.Nemesis.Knowledge = maps.Clone(s.Nemesis.Knowledge)
	c.Nemesis.CasesSeen = maps.Clone(s.Nemesis.CasesSeen)
	return c
}

// Digest is a stable hash of the full state. Two runs with the same seed and
// inputs produce the same digest.
func (s *State) Digest() string {
	raw, err := json.Marshal(s)
	if err != nil {
		// State only holds JSON-safe values.
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// SliceJSON returns the encoded form of one slice, used by tests and the SQLite store.
func (s *State) SliceJSON(name SliceName) ([]byte, error) {
	return json.Marshal(s.slicePtr(name))
}

// SetSliceJSON decodes one slice in place.
func (s *State) SetSliceJSON(name SliceName, raw []byte) error {
	return json.Unmarshal(raw, s.slicePtr(name))
}

func (s *State) slicePtr(name SliceName) any {
	switch name {
	case SliceHeat:
		return &s.Heat
	case SliceFactions:
		return &s.Factions
	case SliceIncidents:
		return &s.Incidents
	case SliceEvidence:
		return &s.Evidence
	case SlicePersonas:
		return &s.Personas
	case SliceNemesis:
		return &s.Nemesis
	case SliceStory:
		return &s.Story
	case SliceTime:
		return &s.Time
	}
	panic("world: unknown slice " + string(name))
}

// SortedLocationIDs returns location identifiers in ascending order.
func (s *State) SortedLocationIDs() []ids.LocationID {
	out := make([]ids.LocationID, 0, len(s.Locations))
	for id := range s.Locations {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SortedFactionIDs returns faction identifiers in ascending order.
func (s *State) SortedFactionIDs() []ids.FactionID {
	out := make([]ids.FactionID, 0, len(s.Factions.Roster))
	for id := range s.Factions.Roster {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SortedActorIDs returns actor identifiers in ascending order.
func (s *State) SortedActorIDs() []ids.ActorID {
	out := make([]ids.ActorID, 0, len(s.Personas.Actors))
	for id := range s.Personas.Actors {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func sortCases(cs []Case) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}
