package world

import "github.com/MRamiBalles/heatcity/internal/domain/ids"

// PersonaType distinguishes the public civilian identity from masked ones.
type PersonaType string

const (
	PersonaCivilian PersonaType = "CIVILIAN"
	PersonaMasked   PersonaType = "MASKED"
)

// Persona is one identity an actor can present.
type Persona struct {
	ID             ids.PersonaID `json:"id"`
	Label          string        `json:"label"`
	Type           PersonaType   `json:"type"`
	Loadout        []ids.PowerID `json:"loadout"` // powers usable while this persona is active
	AllowedTags    []LocationTag `json:"allowed_tags,omitempty"`
	RestrictedTags []LocationTag `json:"restricted_tags,omitempty"`
	Locked         bool          `json:"locked,omitempty"`
	Suspicion      int           `json:"suspicion"`
}

func (p Persona) HasInLoadout(power ids.PowerID) bool {
	for _, pw := range p.Loadout {
		if pw == power {
			return true
		}
	}
	return false
}

// PowerGrant records how an actor acquired a power and how often it was used.
type PowerGrant struct {
	Acquisition ids.AcquisitionID `json:"acquisition"`
	Uses        int               `json:"uses"`
}

// PersonaStack is the full state of one player actor across all personas.
type PersonaStack struct {
	ActorID        ids.ActorID                 `json:"actor_id"`
	Location       ids.LocationID              `json:"location"`
	Personas       map[ids.PersonaID]Persona   `json:"personas"`
	Active         ids.PersonaID               `json:"active"`
	NextSwitchTick uint64                      `json:"next_switch_tick"`
	Stamina        int                         `json:"stamina"`
	MaxStamina     int                         `json:"max_stamina"`
	Focus          int                         `json:"focus"`
	MaxFocus       int                         `json:"max_focus"`
	Resources      int                         `json:"resources"`
	Powers         map[ids.PowerID]PowerGrant  `json:"powers"`
	Unlocked       map[ids.ExpressionID]bool   `json:"unlocked"`
	CooldownUntil  map[ids.ExpressionID]uint64 `json:"cooldown_until"`
}

// NewPersonaStack creates an actor with full vitals and no personas.
func NewPersonaStack(actor ids.ActorID, location ids.LocationID) PersonaStack {
	return PersonaStack{
		ActorID:       actor,
		Location:      location,
		Personas:      make(map[ids.PersonaID]Persona),
		Stamina:       100,
		MaxStamina:    100,
		Focus:         60,
		MaxFocus:      60,
		Resources:     5,
		Powers:        make(map[ids.PowerID]PowerGrant),
		Unlocked:      make(map[ids.ExpressionID]bool),
		CooldownUntil: make(map[ids.ExpressionID]uint64),
	}
}

// AddPersona registers a persona; the first one added becomes active.
func (s *PersonaStack) AddPersona(p Persona) {
	if s.Personas == nil {
		s.Personas = make(map[ids.PersonaID]Persona)
	}
	s.Personas[p.ID] = p
	if s.Active == "" {
		s.Active = p.ID
	}
}

// Grant records an acquired power and unlocks the given expressions.
func (s *PersonaStack) Grant(power ids.PowerID, acq ids.AcquisitionID, unlock ...ids.ExpressionID) {
	if s.Powers == nil {
		s.Powers = make(map[ids.PowerID]PowerGrant)
	}
	if s.Unlocked == nil {
		s.Unlocked = make(map[ids.ExpressionID]bool)
	}
	s.Powers[power] = PowerGrant{Acquisition: acq}
	for _, e := range unlock {
		s.Unlocked[e] = true
	}
}

func (s PersonaStack) HasPower(power ids.PowerID) bool {
	_, ok := s.Powers[power]
	return ok
}

// ActivePersona returns the currently presented persona.
func (s PersonaStack) ActivePersona() (Persona, bool) {
	p, ok := s.Personas[s.Active]
	return p, ok
}

// Personas is every player actor keyed by actor. Owned by the persona resolver.
type Personas struct {
	Actors map[ids.ActorID]PersonaStack `json:"actors"`
}

// Owner finds the actor that owns a persona.
func (p Personas) Owner(persona ids.PersonaID) (PersonaStack, bool) {
	for _, stack := range p.Actors {
		if _, ok := stack.Personas[persona]; ok {
			return stack, true
		}
	}
	return PersonaStack{}, false
}
