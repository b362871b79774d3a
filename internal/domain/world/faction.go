package world

import "github.com/MRamiBalles/heatcity/internal/domain/ids"

// Response levels a faction escalates through at a location.
const (
	LevelNone          = "NONE"
	LevelPatrol        = "PATROL"
	LevelInvestigation = "INVESTIGATION"
	LevelAttention     = "FACTION_ATTENTION"
)

// Response actions a threshold may trigger.
const (
	ActionSpawnPatrol        = "SPAWN_PATROL"
	ActionSpawnTactical      = "SPAWN_TACTICAL"
	ActionStartInvestigation = "START_INVESTIGATION"
	ActionEscalateSecurity   = "ESCALATE_SECURITY"
	ActionProxyCrime         = "PROXY_CRIME"
)

// Threshold maps a minimum heat to a response level and candidate actions.
type Threshold struct {
	Heat    int      `json:"heat"`
	Level   string   `json:"level"`
	Actions []string `json:"actions"`
}

// Faction is an institution reacting to heat in its territory.
type Faction struct {
	ID           ids.FactionID    `json:"id"`
	Name         string           `json:"name"`
	Active       bool             `json:"active"`
	Territory    []ids.LocationID `json:"territory"`
	ResponseHeat int              `json:"response_heat"` // heat added when answering an incident
	Thresholds   []Threshold      `json:"thresholds"`

	Influence     map[ids.LocationID]int    `json:"influence"`
	Levels        map[ids.LocationID]string `json:"levels"`
	Investigating map[ids.LocationID]bool   `json:"investigating"`
	Patrols       map[ids.LocationID]int    `json:"patrols"`
	Proxies       map[ids.LocationID]bool   `json:"proxies"`
	Responded     map[ids.CaseID]uint64     `json:"responded"`
}

// NewFaction creates a faction with empty per-location state.
func NewFaction(id ids.FactionID, name string, responseHeat int, territory []ids.LocationID, thresholds []Threshold) Faction {
	return Faction{
		ID:            id,
		Name:          name,
		Active:        true,
		Territory:     territory,
		ResponseHeat:  responseHeat,
		Thresholds:    thresholds,
		Influence:     make(map[ids.LocationID]int),
		Levels:        make(map[ids.LocationID]string),
		Investigating: make(map[ids.LocationID]bool),
		Patrols:       make(map[ids.LocationID]int),
		Proxies:       make(map[ids.LocationID]bool),
		Responded:     make(map[ids.CaseID]uint64),
	}
}

func (f Faction) Covers(loc ids.LocationID) bool {
	for _, l := range f.Territory {
		if l == loc {
			return true
		}
	}
	return false
}

// LevelFor selects the highest threshold at or below heat.
func (f Faction) LevelFor(heat int) (Threshold, bool) {
	var best Threshold
	found := false
	for _, t := range f.Thresholds {
		if heat >= t.Heat && (!found || t.Heat > best.Heat) {
			best, found = t, true
		}
	}
	return best, found
}

// CurrentLevel returns the recorded level at loc, LevelNone when unset.
func (f Faction) CurrentLevel(loc ids.LocationID) string {
	if lvl, ok := f.Levels[loc]; ok {
		return lvl
	}
	return LevelNone
}

// Factions is the roster plus pairwise relations. Owned by the faction resolver.
type Factions struct {
	Roster    map[ids.FactionID]Faction               `json:"roster"`
	Relations map[ids.FactionID]map[ids.FactionID]int `json:"relations"`
}

// DefaultThresholds is the escalation ladder used by built-in factions.
func DefaultThresholds() []Threshold {
	return []Threshold{
		{Heat: HeatPatrol, Level: LevelPatrol, Actions: []string{ActionSpawnPatrol}},
		{Heat: HeatInvestigation, Level: LevelInvestigation, Actions: []string{ActionStartInvestigation, ActionSpawnPatrol}},
		{Heat: HeatAttention, Level: LevelAttention, Actions: []string{ActionSpawnTactical, ActionEscalateSecurity, ActionProxyCrime}},
	}
}
