package world

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

type CaseStatus string

const (
	CaseOpen       CaseStatus = "OPEN"
	CaseResolved   CaseStatus = "RESOLVED"
	CaseSuppressed CaseStatus = "SUPPRESSED"
)

// TargetType is how much the investigators know about who they are chasing.
type TargetType string

const (
	TargetUnknownMasked TargetType = "UNKNOWN_MASKED"
	TargetKnownMasked   TargetType = "KNOWN_MASKED"
	TargetCivilianLink  TargetType = "CIVILIAN_LINK"
)

// Case milestones reached as investigation progress grows.
const (
	MilestoneNone        = ""
	MilestoneProfile     = "PROFILE_FORMED"
	MilestoneOperations  = "ACTIVE_OPERATIONS"
	MilestoneLinkage     = "LINKAGE_ATTEMPT"
	MilestoneConvergence = "CONVERGENCE"
)

// Case is an incident under investigation.
type Case struct {
	ID         ids.CaseID              `json:"id"`
	Codename   string                  `json:"codename"`
	LocationID ids.LocationID          `json:"location_id"`
	Severity   int                     `json:"severity"`
	OpenedTick uint64                  `json:"opened_tick"`
	Status     CaseStatus              `json:"status"`
	Progress   int                     `json:"progress"` // 0-100
	Milestone  string                  `json:"milestone"`
	Target     TargetType              `json:"target"`
	Pattern    []content.SignatureType `json:"pattern,omitempty"`
}

// MilestoneFor maps progress to the milestone reached and the implied target knowledge.
func MilestoneFor(progress int) (string, TargetType) {
	switch {
	case progress >= 100:
		return MilestoneConvergence, TargetCivilianLink
	case progress >= 85:
		return MilestoneLinkage, TargetCivilianLink
	case progress >= 60:
		return MilestoneOperations, TargetKnownMasked
	case progress >= 30:
		return MilestoneProfile, TargetUnknownMasked
	default:
		return MilestoneNone, TargetUnknownMasked
	}
}

// Incidents holds cases and per-location crime pressure. Owned by the incident resolver.
type Incidents struct {
	Cases         map[ids.CaseID]Case    `json:"cases"`
	CrimePressure map[ids.LocationID]int `json:"crime_pressure"`
	NextCaseSeq   int                    `json:"next_case_seq"`
}

// OpenCases returns open cases ordered by ID.
func (in Incidents) OpenCases() []Case {
	var out []Case
	for _, c := range in.Cases {
		if c.Status == CaseOpen {
			out = append(out, c)
		}
	}
	sortCases(out)
	return out
}

// OpenedAt returns cases opened on the given tick, ordered by ID.
func (in Incidents) OpenedAt(tick uint64) []Case {
	var out []Case
	for _, c := range in.Cases {
		if c.OpenedTick == tick {
			out = append(out, c)
		}
	}
	sortCases(out)
	return out
}
