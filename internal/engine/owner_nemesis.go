// Package engine - owner_nemesis.go
package engine

import (
	"fmt"
	"slices"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

// nemesisOwner is the only writer of world.Nemesis. Adaptation only ever rises.
type nemesisOwner struct {
	w    *world.State
	tick uint64
}

func (o nemesisOwner) apply(e events.NemesisEvent) error {
	n := &o.w.Nemesis
	switch e.Action {
	case events.NemesisLearn:
		for _, sig := range e.Signatures {
			if !slices.Contains(content.AllSignatureTypes, sig) {
				return fmt.Errorf("unknown signature %q", sig)
			}
		}
		if e.CaseID != "" {
			if _, ok := o.w.Incidents.Cases[e.CaseID]; !ok {
				return fmt.Errorf("unknown case %s", e.CaseID)
			}
		}
		for _, sig := range e.Signatures {
			n.Knowledge[sig]++
		}
		if e.CaseID != "" {
			n.CasesSeen[e.CaseID] = true
		}
	case events.NemesisAdapt:
		if e.Level <= n.Level {
			return fmt.Errorf("adaptation cannot drop from %d to %d", n.Level, e.Level)
		}
		if e.Level > world.MaxAdaptation {
			return fmt.Errorf("adaptation %d above max %d", e.Level, world.MaxAdaptation)
		}
		n.Level = e.Level
	case events.NemesisAct:
		if e.Plan == "" {
			return fmt.Errorf("nemesis act without a plan")
		}
		n.Plan = e.Plan
		n.PlanLocation = e.LocationID
		n.LastActionTick = o.tick
		n.HasActed = true
	default:
		return fmt.Errorf("unknown nemesis action %q", e.Action)
	}
	return nil
}
