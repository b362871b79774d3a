// Package storage - reconstructor.go
// Rebuilds derived views from the audit trail: state = f(events).
package storage

import (
	"context"
	"fmt"
	"maps"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

// Reconstructor reads the audit trail back. It is used for:
// 1. The "what happened while you were away" recap
// 2. Cross-checking a checkpoint's heat against the events that produced it
type Reconstructor struct {
	audit AuditReader
}

func NewReconstructor(audit AuditReader) *Reconstructor {
	return &Reconstructor{audit: audit}
}

// RecapEvent is one line of the recap screen.
type RecapEvent struct {
	Tick    uint64      `json:"tick"`
	Kind    events.Kind `json:"kind"`
	Summary string      `json:"summary"`
	Impact  string      `json:"impact"` // POSITIVE, NEGATIVE or NEUTRAL
}

// Recap lists the notable events since a tick. Routine bookkeeping (decay,
// recovery, pressure drift) is left out. When actor is set, persona events
// of other actors are skipped too.
func (r *Reconstructor) Recap(ctx context.Context, sinceTick, untilTick uint64, actor ids.ActorID) ([]RecapEvent, error) {
	recs, err := r.audit.EventsBetween(ctx, sinceTick, untilTick)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}
	var out []RecapEvent
	for _, rec := range recs {
		env := rec.Envelope
		if pe, ok := env.Event.(events.PersonaEvent); ok && actor != "" && pe.ActorID != actor {
			continue
		}
		summary, impact, notable := summarize(env.Event)
		if !notable {
			continue
		}
		out = append(out, RecapEvent{Tick: env.Tick, Kind: env.Kind(), Summary: summary, Impact: impact})
	}
	return out, nil
}

func summarize(ev events.Event) (summary, impact string, notable bool) {
	switch e := ev.(type) {
	case events.IncidentEvent:
		switch e.Action {
		case events.IncidentOpen:
			return fmt.Sprintf("New case %q opened at %s (severity %d).", e.Codename, e.LocationID, e.Severity), "NEGATIVE", true
		case events.IncidentSuppress:
			return fmt.Sprintf("Case %s at %s was shut down.", e.CaseID, e.LocationID), "POSITIVE", true
		}
	case events.FactionEvent:
		switch e.Action {
		case events.FactionRespond:
			return fmt.Sprintf("%s answered case %s at %s.", e.FactionID, e.CaseID, e.LocationID), "NEGATIVE", true
		case events.FactionEscalate:
			return fmt.Sprintf("%s moved to %s at %s (%s).", e.FactionID, e.Level, e.LocationID, e.ResponseAct), "NEGATIVE", true
		}
	case events.PersonaEvent:
		switch e.Action {
		case events.PersonaSwitch:
			return fmt.Sprintf("%s became %s.", e.ActorID, e.PersonaID), "NEUTRAL", true
		case events.PersonaSpendCost:
			return fmt.Sprintf("%s used %s.", e.PersonaID, e.ExpressionID), "NEUTRAL", true
		}
	case events.NemesisEvent:
		switch e.Action {
		case events.NemesisAdapt:
			return fmt.Sprintf("The nemesis adapted to level %d.", e.Level), "NEGATIVE", true
		case events.NemesisAct:
			return fmt.Sprintf("The nemesis moved on %s: %s.", e.LocationID, e.Plan), "NEGATIVE", true
		}
	case events.StoryEvent:
		if e.Action == events.StoryFire {
			return fmt.Sprintf("Story beat: %s.", e.StoryletID), "NEUTRAL", true
		}
	}
	return "", "", false
}

// ReplayHeat folds the faction events of ticks (from, to] onto base. The
// result matches the heat of a checkpoint taken at tick to when base was
// the heat at tick from.
func (r *Reconstructor) ReplayHeat(ctx context.Context, base world.Heat, from, to uint64) (world.Heat, error) {
	h := world.Heat{Locations: maps.Clone(base.Locations), Factions: maps.Clone(base.Factions)}
	if h.Locations == nil {
		h.Locations = make(map[ids.LocationID]int)
	}
	if h.Factions == nil {
		h.Factions = make(map[ids.FactionID]int)
	}
	if to <= from {
		return h, nil
	}
	recs, err := r.audit.EventsBetween(ctx, from+1, to)
	if err != nil {
		return h, fmt.Errorf("failed to read audit trail: %w", err)
	}
	for _, rec := range recs {
		fe, ok := rec.Envelope.Event.(events.FactionEvent)
		if !ok || fe.HeatDelta == 0 {
			continue
		}
		switch fe.Action {
		case events.FactionRespond:
			h.Locations[fe.LocationID] = world.ClampHeat(h.Locations[fe.LocationID] + fe.HeatDelta)
			h.Factions[fe.FactionID] = world.ClampHeat(h.Factions[fe.FactionID] + fe.HeatDelta)
		case events.FactionHeatDecay, events.FactionHeatShift:
			if fe.LocationID != "" {
				h.Locations[fe.LocationID] = world.ClampHeat(h.Locations[fe.LocationID] + fe.HeatDelta)
			}
			if fe.FactionID != "" {
				h.Factions[fe.FactionID] = world.ClampHeat(h.Factions[fe.FactionID] + fe.HeatDelta)
			}
		}
	}
	return h, nil
}
