// Package engine - owner_incident.go
package engine

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
)

// incidentOwner is the only writer of world.Incidents: cases and crime pressure.
type incidentOwner struct {
	w       *world.State
	tick    uint64
	balance config.IncidentBalance
}

func (o incidentOwner) apply(e events.IncidentEvent) error {
	if _, ok := o.w.Locations[e.LocationID]; !ok {
		return fmt.Errorf("unknown location %q", e.LocationID)
	}
	switch e.Action {
	case events.IncidentOpen:
		return o.open(e)
	case events.IncidentProgress:
		return o.progress(e)
	case events.IncidentSuppress:
		return o.suppress(e)
	case events.IncidentShift:
		o.shiftCrime(e.LocationID, e.CrimeDelta)
		return nil
	default:
		return fmt.Errorf("unknown incident action %q", e.Action)
	}
}

func (o incidentOwner) shiftCrime(loc ids.LocationID, delta int) {
	o.w.Incidents.CrimePressure[loc] = max(0, o.w.Incidents.CrimePressure[loc]+delta)
}

func (o incidentOwner) open(e events.IncidentEvent) error {
	if e.Severity < 1 || e.Severity > 3 {
		return fmt.Errorf("severity %d out of range", e.Severity)
	}
	in := &o.w.Incidents
	in.NextCaseSeq++
	id := ids.CaseIDFromSeq(in.NextCaseSeq)
	in.Cases[id] = world.Case{
		ID:         id,
		Codename:   e.Codename,
		LocationID: e.LocationID,
		Severity:   e.Severity,
		OpenedTick: o.tick,
		Status:     world.CaseOpen,
		Target:     world.TargetUnknownMasked,
	}
	o.shiftCrime(e.LocationID, e.CrimeDelta)
	return nil
}

func (o incidentOwner) openCase(id ids.CaseID, loc ids.LocationID) (world.Case, error) {
	c, ok := o.w.Incidents.Cases[id]
	if !ok {
		return c, fmt.Errorf("unknown case %q", id)
	}
	if c.Status != world.CaseOpen {
		return c, fmt.Errorf("case %s is %s", id, c.Status)
	}
	if c.LocationID != loc {
		return c, fmt.Errorf("case %s is at %s, not %s", id, c.LocationID, loc)
	}
	return c, nil
}

func (o incidentOwner) progress(e events.IncidentEvent) error {
	c, err := o.openCase(e.CaseID, e.LocationID)
	if err != nil {
		return err
	}
	if e.ProgressDelta < 0 {
		return fmt.Errorf("case progress cannot go backwards (%d)", e.ProgressDelta)
	}
	c.Progress = clampInt(c.Progress+e.ProgressDelta, 0, 100)
	c.Milestone, c.Target = world.MilestoneFor(c.Progress)
	if len(c.Pattern) == 0 && len(e.Pattern) > 0 {
		size := len(e.Pattern)
		if o.balance.PatternSize > 0 {
			size = min(size, o.balance.PatternSize)
		}
		c.Pattern = append(c.Pattern[:0:0], e.Pattern[:size]...)
	}
	o.w.Incidents.Cases[c.ID] = c
	return nil
}

func (o incidentOwner) suppress(e events.IncidentEvent) error {
	if e.ResolveCase {
		c, err := o.openCase(e.CaseID, e.LocationID)
		if err != nil {
			return err
		}
		c.Status = world.CaseResolved
		o.w.Incidents.Cases[c.ID] = c
	}
	o.shiftCrime(e.LocationID, e.CrimeDelta)
	return nil
}
