package world

import "github.com/MRamiBalles/heatcity/internal/domain/ids"

// MaxHeat caps every heat value.
const MaxHeat = 100

// Response thresholds shared by faction escalation and persona witnesses.
const (
	HeatWitnesses     = 25
	HeatPatrol        = 30
	HeatInvestigation = 50
	HeatAttention     = 70
)

// Heat is the attention level the player has drawn, per location and per faction.
// Owned by the faction resolver.
type Heat struct {
	Locations map[ids.LocationID]int `json:"locations"`
	Factions  map[ids.FactionID]int  `json:"factions"`
}

// ClampHeat bounds v to 0..MaxHeat.
func ClampHeat(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxHeat {
		return MaxHeat
	}
	return v
}

// Hottest returns the location with the highest heat, lowest ID on ties.
// The second result is false when no location has heat above zero.
func (h Heat) Hottest() (ids.LocationID, bool) {
	var best ids.LocationID
	bestHeat := 0
	for id, v := range h.Locations {
		if v > bestHeat || (v == bestHeat && v > 0 && id < best) {
			best, bestHeat = id, v
		}
	}
	return best, bestHeat > 0
}

// Max returns the highest location heat.
func (h Heat) Max() int {
	m := 0
	for _, v := range h.Locations {
		if v > m {
			m = v
		}
	}
	return m
}
