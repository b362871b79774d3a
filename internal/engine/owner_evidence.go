// Package engine - owner_evidence.go
package engine

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

// evidenceOwner is the only writer of world.Evidence.
type evidenceOwner struct {
	w    *world.State
	tick uint64
}

func (o evidenceOwner) apply(e events.EvidenceEvent) error {
	if _, ok := o.w.Locations[e.LocationID]; !ok {
		return fmt.Errorf("unknown location %q", e.LocationID)
	}
	switch e.Action {
	case events.EvidenceCreate:
		return o.create(e)
	case events.EvidenceDecay:
		return o.decay(e)
	case events.EvidenceLink:
		return o.link(e)
	default:
		return fmt.Errorf("unknown evidence action %q", e.Action)
	}
}

func (o evidenceOwner) create(e events.EvidenceEvent) error {
	if e.Strength <= 0 {
		return fmt.Errorf("evidence strength %d must be positive", e.Strength)
	}
	persistence := e.Persistence
	if persistence <= 0 {
		persistence = content.DefaultPersistenceTicks
	}
	ev := &o.w.Evidence
	ev.NextSeq++
	ev.Records[e.LocationID] = append(ev.Records[e.LocationID], world.EvidenceRecord{
		ID:             ids.EvidenceIDFromSeq(ev.NextSeq),
		LocationID:     e.LocationID,
		Signature:      e.Signature,
		Strength:       e.Strength,
		RemainingTicks: persistence,
		CreatedTick:    o.tick,
		PersonaID:      e.PersonaID,
		CaseID:         e.CaseID,
	})
	return nil
}

func (o evidenceOwner) find(loc ids.LocationID, id string) (int, error) {
	for i, rec := range o.w.Evidence.Records[loc] {
		if rec.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no evidence record %q at %s", id, loc)
}

func (o evidenceOwner) decay(e events.EvidenceEvent) error {
	i, err := o.find(e.LocationID, e.RecordID)
	if err != nil {
		return err
	}
	recs := o.w.Evidence.Records[e.LocationID]
	recs[i].RemainingTicks--
	if recs[i].RemainingTicks <= 0 {
		recs = append(recs[:i], recs[i+1:]...)
	}
	if len(recs) == 0 {
		delete(o.w.Evidence.Records, e.LocationID)
		return nil
	}
	o.w.Evidence.Records[e.LocationID] = recs
	return nil
}

func (o evidenceOwner) link(e events.EvidenceEvent) error {
	i, err := o.find(e.LocationID, e.RecordID)
	if err != nil {
		return err
	}
	c, ok := o.w.Incidents.Cases[e.CaseID]
	if !ok || c.Status != world.CaseOpen {
		return fmt.Errorf("cannot link %s to case %q: not open", e.RecordID, e.CaseID)
	}
	rec := &o.w.Evidence.Records[e.LocationID][i]
	if rec.CaseID != "" {
		return fmt.Errorf("evidence %s already linked to %s", rec.ID, rec.CaseID)
	}
	rec.CaseID = e.CaseID
	return nil
}
