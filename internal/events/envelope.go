package events

import (
	"encoding/json"
	"fmt"
)

// Envelope places a resolved or pending event in the tick timeline.
type Envelope struct {
	Tick   uint64 `json:"tick"`
	Phase  string `json:"phase"`
	Source string `json:"source"` // emitting system or surface
	Seq    int    `json:"seq"`    // application order within the tick
	Event  Event  `json:"-"`
}

type wireEnvelope struct {
	Tick    uint64          `json:"tick"`
	Phase   string          `json:"phase"`
	Source  string          `json:"source"`
	Seq     int             `json:"seq"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Event == nil {
		return nil, fmt.Errorf("envelope %d/%d has no event", e.Tick, e.Seq)
	}
	payload, err := json.Marshal(e.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{
		Tick:    e.Tick,
		Phase:   e.Phase,
		Source:  e.Source,
		Seq:     e.Seq,
		Kind:    e.Event.Kind(),
		Payload: payload,
	})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	ev, err := Decode(w.Kind, w.Payload)
	if err != nil {
		return err
	}
	*e = Envelope{Tick: w.Tick, Phase: w.Phase, Source: w.Source, Seq: w.Seq, Event: ev}
	return nil
}

// Kind is a nil-safe accessor for the wrapped event kind.
func (e Envelope) Kind() Kind {
	if e.Event == nil {
		return ""
	}
	return e.Event.Kind()
}

// Decode builds the concrete event for a kind tag.
func Decode(kind Kind, payload []byte) (Event, error) {
	switch kind {
	case KindEvidence:
		var ev EvidenceEvent
		err := json.Unmarshal(payload, &ev)
		return ev, err
	case KindIncident:
		var ev IncidentEvent
		err := json.Unmarshal(payload, &ev)
		return ev, err
	case KindFaction:
		var ev FactionEvent
		err := json.Unmarshal(payload, &ev)
		return ev, err
	case KindPersona:
		var ev PersonaEvent
		err := json.Unmarshal(payload, &ev)
		return ev, err
	case KindNemesis:
		var ev NemesisEvent
		err := json.Unmarshal(payload, &ev)
		return ev, err
	case KindStory:
		var ev StoryEvent
		err := json.Unmarshal(payload, &ev)
		return ev, err
	}
	return nil, fmt.Errorf("unknown event kind %q", kind)
}
