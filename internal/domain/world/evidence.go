package world

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// EvidenceRecord is a signature left at a location that investigators can pick up.
type EvidenceRecord struct {
	ID             string                `json:"id"`
	LocationID     ids.LocationID        `json:"location_id"`
	Signature      content.SignatureType `json:"signature"`
	Strength       int                   `json:"strength"`
	RemainingTicks int                   `json:"remaining_ticks"`
	CreatedTick    uint64                `json:"created_tick"`
	PersonaID      ids.PersonaID         `json:"persona_id,omitempty"`
	CaseID         ids.CaseID            `json:"case_id,omitempty"`
}

// Evidence is indexed by location. Owned by the evidence resolver.
type Evidence struct {
	Records map[ids.LocationID][]EvidenceRecord `json:"records"`
	NextSeq int                                 `json:"next_seq"`
}

// At returns the records at a location in creation order.
func (e Evidence) At(loc ids.LocationID) []EvidenceRecord {
	return e.Records[loc]
}

// Count returns the total number of live records.
func (e Evidence) Count() int {
	n := 0
	for _, recs := range e.Records {
		n += len(recs)
	}
	return n
}
