package world

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// MaxPressure caps every narrative pressure axis.
const MaxPressure = 100

// Story tracks narrative pressure and storylet bookkeeping. Owned by the story resolver.
type Story struct {
	Pressure      map[content.Axis]int      `json:"pressure"`
	Fired         map[ids.StoryletID]uint64 `json:"fired"`
	CooldownUntil map[ids.StoryletID]uint64 `json:"cooldown_until"`
	Flags         map[string]bool           `json:"flags"`
}

// Ready reports whether a storylet may fire at tick given once/cooldown bookkeeping.
func (s Story) Ready(st content.Storylet, tick uint64) bool {
	if _, fired := s.Fired[st.ID]; fired && st.Once {
		return false
	}
	return tick >= s.CooldownUntil[st.ID]
}
