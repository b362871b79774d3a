// Package ids defines the canonical identifiers shared by content, world
// state and events. Identifiers are opaque strings compared by value.
// This package is PURE and must NOT import any infrastructure packages.
package ids

import "fmt"

type (
	PowerID       string
	ExpressionID  string
	PersonaID     string
	FactionID     string
	LocationID    string
	CaseID        string
	AcquisitionID string
	ActorID       string
	StoryletID    string
)

// CaseIDFromSeq formats a case identifier so lexical order matches creation order.
func CaseIDFromSeq(seq int) CaseID {
	return CaseID(fmt.Sprintf("case-%06d", seq))
}

// EvidenceIDFromSeq formats an evidence record identifier.
func EvidenceIDFromSeq(seq int) string {
	return fmt.Sprintf("ev-%06d", seq)
}

// Key is the tie-break tuple used when ordering independently emitted events.
type Key struct {
	Faction  FactionID
	Location LocationID
	Case     CaseID
}

// Less orders keys by (FactionID, LocationID, CaseID) ascending.
func (k Key) Less(o Key) bool {
	if k.Faction != o.Faction {
		return k.Faction < o.Faction
	}
	if k.Location != o.Location {
		return k.Location < o.Location
	}
	return k.Case < o.Case
}
