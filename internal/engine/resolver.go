// Package engine - resolver.go
// The resolver is the only code that mutates world state. Every event is
// routed to the single owner of its slice; an event an owner rejects is
// logged as a Fault and dropped without touching the world.
package engine

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

// Fault is an event dropped because an invariant failed at application time.
type Fault struct {
	Tick   uint64       `json:"tick"`
	Phase  Phase        `json:"phase"`
	Source string       `json:"source"`
	Kind   events.Kind  `json:"kind"`
	Reason string       `json:"reason"`
	Event  events.Event `json:"-"`
}

func (f Fault) Error() string {
	return fmt.Sprintf("tick %d %s %s %s: %s", f.Tick, f.Phase, f.Source, f.Kind, f.Reason)
}

// Emission is one emitter's output in emission order.
type Emission struct {
	Source string
	Events []events.Event
}

type sourcedEvent struct {
	source string
	event  events.Event
}

// Merge interleaves several emitters into application order. Each emitter
// keeps its own order; between emitters the next events are compared by
// kind priority, then key, then emitter index.
func Merge(batches []Emission) []sourcedEvent {
	heads := make([]int, len(batches))
	total := 0
	for _, b := range batches {
		total += len(b.Events)
	}

	out := make([]sourcedEvent, 0, total)
	for len(out) < total {
		best := -1
		for i, b := range batches {
			if heads[i] >= len(b.Events) {
				continue
			}
			if best < 0 || before(b.Events[heads[i]], batches[best].Events[heads[best]]) {
				best = i
			}
		}
		b := batches[best]
		out = append(out, sourcedEvent{source: b.Source, event: b.Events[heads[best]]})
		heads[best]++
	}
	return out
}

// before reports whether a sorts strictly ahead of b. Equal events keep
// emitter order because Merge scans emitters by index.
func before(a, b events.Event) bool {
	pa, pb := a.Kind().Priority(), b.Kind().Priority()
	if pa != pb {
		return pa < pb
	}
	return a.SortKey().Less(b.SortKey())
}

// Resolver applies events to the world through the slice owners.
type Resolver struct {
	balance config.Balance
	logger  *logger.Logger
}

func NewResolver(b config.Balance, log *logger.Logger) *Resolver {
	return &Resolver{balance: b, logger: log}
}

// ApplyPhase merges the output of a phase's systems and applies it.
func (r *Resolver) ApplyPhase(w *world.State, tick uint64, phase Phase, batches []Emission, seq *int) ([]events.Envelope, []Fault) {
	var envs []events.Envelope
	var faults []Fault
	for _, se := range Merge(batches) {
		env, fault := r.applyOne(w, tick, phase, se.source, se.event, seq)
		if fault != nil {
			faults = append(faults, *fault)
			continue
		}
		envs = append(envs, env)
	}
	return envs, faults
}

// ApplyGroups applies queued submissions in submission order. A submission
// stops at its first fault; the rest of its events are dropped with it.
func (r *Resolver) ApplyGroups(w *world.State, tick uint64, phase Phase, groups []Emission, seq *int) ([]events.Envelope, []Fault) {
	var envs []events.Envelope
	var faults []Fault
	for _, g := range groups {
		for i, ev := range g.Events {
			env, fault := r.applyOne(w, tick, phase, g.Source, ev, seq)
			if fault == nil {
				envs = append(envs, env)
				continue
			}
			faults = append(faults, *fault)
			for _, rest := range g.Events[i+1:] {
				f := Fault{Tick: tick, Phase: phase, Source: g.Source, Kind: rest.Kind(), Reason: "submission aborted by earlier fault", Event: rest}
				r.logger.Fault(tick, string(phase), f.Reason, rest)
				faults = append(faults, f)
			}
			break
		}
	}
	return envs, faults
}

// AdvanceTime moves the clock one tick. Time is only ever advanced here.
func (r *Resolver) AdvanceTime(w *world.State) {
	w.Time = w.Time.Advance()
}

func (r *Resolver) applyOne(w *world.State, tick uint64, phase Phase, source string, ev events.Event, seq *int) (events.Envelope, *Fault) {
	if err := ev.Accept(r.owners(w, tick)); err != nil {
		r.logger.Fault(tick, string(phase), err.Error(), ev)
		return events.Envelope{}, &Fault{Tick: tick, Phase: phase, Source: source, Kind: ev.Kind(), Reason: err.Error(), Event: ev}
	}
	env := events.Envelope{Tick: tick, Phase: string(phase), Source: source, Seq: *seq, Event: ev}
	*seq++
	return env, nil
}

func (r *Resolver) owners(w *world.State, tick uint64) *applier {
	return &applier{
		evidence:  evidenceOwner{w: w, tick: tick},
		incidents: incidentOwner{w: w, tick: tick, balance: r.balance.Incidents},
		factions:  factionOwner{w: w, tick: tick, balance: r.balance.Factions},
		personas:  personaOwner{w: w, tick: tick},
		nemesis:   nemesisOwner{w: w, tick: tick},
		story:     storyOwner{w: w, tick: tick},
	}
}

// applier dispatches each kind to its owner. Owners validate before they
// mutate, so a rejected event leaves the world untouched.
type applier struct {
	evidence  evidenceOwner
	incidents incidentOwner
	factions  factionOwner
	personas  personaOwner
	nemesis   nemesisOwner
	story     storyOwner
}

func (a *applier) VisitEvidence(e events.EvidenceEvent) error { return a.evidence.apply(e) }
func (a *applier) VisitIncident(e events.IncidentEvent) error { return a.incidents.apply(e) }
func (a *applier) VisitFaction(e events.FactionEvent) error   { return a.factions.apply(e) }
func (a *applier) VisitPersona(e events.PersonaEvent) error   { return a.personas.apply(e) }
func (a *applier) VisitNemesis(e events.NemesisEvent) error   { return a.nemesis.apply(e) }
func (a *applier) VisitStory(e events.StoryEvent) error       { return a.story.apply(e) }
