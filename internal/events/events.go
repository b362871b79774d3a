// Package events defines the closed set of world mutation requests.
//
// Systems and the rules gateway never touch world state; they return events.
// The resolver applies each event through exactly one slice owner. Dispatch
// goes through Visitor, so adding a kind fails to compile until every
// consumer handles it.
package events

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// Kind tags an event variant.
type Kind string

const (
	KindEvidence Kind = "EVIDENCE"
	KindIncident Kind = "INCIDENT"
	KindFaction  Kind = "FACTION"
	KindPersona  Kind = "PERSONA"
	KindNemesis  Kind = "NEMESIS"
	KindStory    Kind = "STORY"
)

// AllKinds lists every kind in cross-kind application order.
var AllKinds = []Kind{KindEvidence, KindIncident, KindFaction, KindPersona, KindNemesis, KindStory}

// Priority is the cross-kind order used when events from one phase are merged:
// evidence lands before the incidents that may link it, incidents before the
// faction responses that read them.
func (k Kind) Priority() int {
	for i, kind := range AllKinds {
		if kind == k {
			return i
		}
	}
	return len(AllKinds)
}

// Event is a mutation request for exactly one slice owner.
type Event interface {
	Kind() Kind
	SortKey() ids.Key
	Accept(v Visitor) error
}

// Visitor handles every event kind.
type Visitor interface {
	VisitEvidence(EvidenceEvent) error
	VisitIncident(IncidentEvent) error
	VisitFaction(FactionEvent) error
	VisitPersona(PersonaEvent) error
	VisitNemesis(NemesisEvent) error
	VisitStory(StoryEvent) error
}

type EvidenceAction string

const (
	EvidenceCreate EvidenceAction = "CREATE"
	EvidenceDecay  EvidenceAction = "DECAY"
	EvidenceLink   EvidenceAction = "LINK"
)

// EvidenceEvent creates, ages or links evidence records.
// Create records get their identifier from the owner when applied.
type EvidenceEvent struct {
	Action      EvidenceAction        `json:"action"`
	LocationID  ids.LocationID        `json:"location_id"`
	RecordID    string                `json:"record_id,omitempty"`
	CaseID      ids.CaseID            `json:"case_id,omitempty"`
	PersonaID   ids.PersonaID         `json:"persona_id,omitempty"`
	Signature   content.SignatureType `json:"signature,omitempty"`
	Strength    int                   `json:"strength,omitempty"`
	Persistence int                   `json:"persistence,omitempty"`
	Storylet    ids.StoryletID        `json:"storylet,omitempty"`
}

func (e EvidenceEvent) Kind() Kind             { return KindEvidence }
func (e EvidenceEvent) SortKey() ids.Key       { return ids.Key{Location: e.LocationID, Case: e.CaseID} }
func (e EvidenceEvent) Accept(v Visitor) error { return v.VisitEvidence(e) }

type IncidentAction string

const (
	IncidentOpen     IncidentAction = "OPEN"
	IncidentProgress IncidentAction = "PROGRESS"
	IncidentSuppress IncidentAction = "SUPPRESS"
	IncidentShift    IncidentAction = "CRIME_SHIFT"
)

// IncidentEvent opens, advances or suppresses cases and moves crime pressure.
type IncidentEvent struct {
	Action        IncidentAction          `json:"action"`
	LocationID    ids.LocationID          `json:"location_id"`
	CaseID        ids.CaseID              `json:"case_id,omitempty"`
	Codename      string                  `json:"codename,omitempty"`
	Severity      int                     `json:"severity,omitempty"`
	CrimeDelta    int                     `json:"crime_delta,omitempty"`
	ProgressDelta int                     `json:"progress_delta,omitempty"`
	Pattern       []content.SignatureType `json:"pattern,omitempty"`
	ResolveCase   bool                    `json:"resolve_case,omitempty"`
	Storylet      ids.StoryletID          `json:"storylet,omitempty"`
}

func (e IncidentEvent) Kind() Kind             { return KindIncident }
func (e IncidentEvent) SortKey() ids.Key       { return ids.Key{Location: e.LocationID, Case: e.CaseID} }
func (e IncidentEvent) Accept(v Visitor) error { return v.VisitIncident(e) }

type FactionAction string

const (
	FactionRespond   FactionAction = "RESPOND"
	FactionEscalate  FactionAction = "ESCALATE"
	FactionHeatDecay FactionAction = "HEAT_DECAY"
	FactionHeatShift FactionAction = "HEAT_SHIFT"
	FactionRelation  FactionAction = "RELATION"
)

// FactionEvent changes faction state, relations and heat.
type FactionEvent struct {
	Action        FactionAction  `json:"action"`
	FactionID     ids.FactionID  `json:"faction_id,omitempty"`
	LocationID    ids.LocationID `json:"location_id,omitempty"`
	CaseID        ids.CaseID     `json:"case_id,omitempty"`
	HeatDelta     int            `json:"heat_delta,omitempty"`
	Level         string         `json:"level,omitempty"`
	ResponseAct   string         `json:"response_act,omitempty"`
	Other         ids.FactionID  `json:"other,omitempty"`
	RelationDelta int            `json:"relation_delta,omitempty"`
	Storylet      ids.StoryletID `json:"storylet,omitempty"`
}

func (e FactionEvent) Kind() Kind { return KindFaction }
func (e FactionEvent) SortKey() ids.Key {
	return ids.Key{Faction: e.FactionID, Location: e.LocationID, Case: e.CaseID}
}
func (e FactionEvent) Accept(v Visitor) error { return v.VisitFaction(e) }

type PersonaAction string

const (
	PersonaSwitch    PersonaAction = "SWITCH"
	PersonaSpendCost PersonaAction = "SPEND_COST"
	PersonaRecover   PersonaAction = "RECOVER"
)

// PersonaEvent changes an actor's persona stack. Deltas are signed.
type PersonaEvent struct {
	Action         PersonaAction    `json:"action"`
	ActorID        ids.ActorID      `json:"actor_id"`
	PersonaID      ids.PersonaID    `json:"persona_id,omitempty"`
	PowerID        ids.PowerID      `json:"power_id,omitempty"`
	ExpressionID   ids.ExpressionID `json:"expression_id,omitempty"`
	StaminaDelta   int              `json:"stamina_delta,omitempty"`
	FocusDelta     int              `json:"focus_delta,omitempty"`
	ResourceDelta  int              `json:"resource_delta,omitempty"`
	CooldownUntil  uint64           `json:"cooldown_until,omitempty"`
	NextSwitchTick uint64           `json:"next_switch_tick,omitempty"`
	SuspicionDelta int              `json:"suspicion_delta,omitempty"`
	Storylet       ids.StoryletID   `json:"storylet,omitempty"`
}

func (e PersonaEvent) Kind() Kind             { return KindPersona }
func (e PersonaEvent) SortKey() ids.Key       { return ids.Key{} }
func (e PersonaEvent) Accept(v Visitor) error { return v.VisitPersona(e) }

type NemesisAction string

const (
	NemesisLearn NemesisAction = "LEARN"
	NemesisAdapt NemesisAction = "ADAPT"
	NemesisAct   NemesisAction = "ACT"
)

// NemesisEvent updates the nemesis' knowledge, adaptation and plan.
type NemesisEvent struct {
	Action     NemesisAction           `json:"action"`
	CaseID     ids.CaseID              `json:"case_id,omitempty"`
	LocationID ids.LocationID          `json:"location_id,omitempty"`
	Signatures []content.SignatureType `json:"signatures,omitempty"`
	Level      int                     `json:"level,omitempty"`
	Plan       string                  `json:"plan,omitempty"`
	Storylet   ids.StoryletID          `json:"storylet,omitempty"`
}

func (e NemesisEvent) Kind() Kind             { return KindNemesis }
func (e NemesisEvent) SortKey() ids.Key       { return ids.Key{Location: e.LocationID, Case: e.CaseID} }
func (e NemesisEvent) Accept(v Visitor) error { return v.VisitNemesis(e) }

type StoryAction string

const (
	StoryPressure StoryAction = "PRESSURE"
	StoryFire     StoryAction = "FIRE"
)

// StoryEvent updates narrative pressure or records a fired storylet.
type StoryEvent struct {
	Action        StoryAction          `json:"action"`
	Pressure      map[content.Axis]int `json:"pressure,omitempty"` // absolute values for PRESSURE, deltas for FIRE
	StoryletID    ids.StoryletID       `json:"storylet_id,omitempty"`
	SetFlag       string               `json:"set_flag,omitempty"`
	CooldownUntil uint64               `json:"cooldown_until,omitempty"`
}

func (e StoryEvent) Kind() Kind             { return KindStory }
func (e StoryEvent) SortKey() ids.Key       { return ids.Key{} }
func (e StoryEvent) Accept(v Visitor) error { return v.VisitStory(e) }
