// Package engine - owner_story.go
package engine

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

// storyOwner is the only writer of world.Story.
type storyOwner struct {
	w    *world.State
	tick uint64
}

func (o storyOwner) apply(e events.StoryEvent) error {
	s := &o.w.Story
	switch e.Action {
	case events.StoryPressure:
		for axis, v := range e.Pressure {
			s.Pressure[axis] = clampInt(v, 0, world.MaxPressure)
		}
	case events.StoryFire:
		if e.StoryletID == "" {
			return fmt.Errorf("storylet fire without an ID")
		}
		if until := s.CooldownUntil[e.StoryletID]; until > o.tick {
			return fmt.Errorf("storylet %s cooling down until tick %d", e.StoryletID, until)
		}
		s.Fired[e.StoryletID] = o.tick
		if e.CooldownUntil > 0 {
			s.CooldownUntil[e.StoryletID] = e.CooldownUntil
		}
		for axis, d := range e.Pressure {
			s.Pressure[axis] = clampInt(s.Pressure[axis]+d, 0, world.MaxPressure)
		}
		if e.SetFlag != "" {
			s.Flags[e.SetFlag] = true
		}
	default:
		return fmt.Errorf("unknown story action %q", e.Action)
	}
	return nil
}
