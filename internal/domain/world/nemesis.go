package world

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// MaxAdaptation is the highest adaptation level.
const MaxAdaptation = 3

// Nemesis is the single adaptive antagonist. Owned by the nemesis resolver.
type Nemesis struct {
	Name           string                        `json:"name"`
	Level          int                           `json:"level"`
	Knowledge      map[content.SignatureType]int `json:"knowledge"`
	CasesSeen      map[ids.CaseID]bool           `json:"cases_seen"`
	Plan           string                        `json:"plan"`
	PlanLocation   ids.LocationID                `json:"plan_location"`
	LastActionTick uint64                        `json:"last_action_tick"`
	HasActed       bool                          `json:"has_acted"`
}

// Focus returns the most observed signature, lowest name on ties.
func (n Nemesis) Focus() (content.SignatureType, bool) {
	var best content.SignatureType
	bestCount := 0
	for sig, c := range n.Knowledge {
		if c > bestCount || (c == bestCount && c > 0 && sig < best) {
			best, bestCount = sig, c
		}
	}
	return best, bestCount > 0
}
