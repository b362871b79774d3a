package rules

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

// CivilianExposure is the suspicion a civilian persona gains when it
// appears where a visual anomaly is still fresh.
const CivilianExposure = 2

// SwitchPersona validates and plans a persona change for an actor.
func SwitchPersona(w *world.State, actor ids.ActorID, target ids.PersonaID) Outcome {
	stack, ok := w.Personas.Actors[actor]
	if !ok {
		return Outcome{Decision: deny(DenyUnknownPersona, fmt.Sprintf("unknown actor %s", actor))}
	}
	persona, ok := stack.Personas[target]
	if !ok {
		return Outcome{Decision: deny(DenyUnknownPersona, string(target))}
	}
	if stack.Active == target {
		return Outcome{Decision: deny(DenyAlreadyActive, string(target))}
	}
	if persona.Locked {
		return Outcome{Decision: deny(DenyPersonaLocked, string(target))}
	}

	now := actionTick(w)
	if now < stack.NextSwitchTick {
		return Outcome{Decision: deny(DenySwitchCooldown, fmt.Sprintf("next switch at tick %d", stack.NextSwitchTick))}
	}

	loc := w.Locations[stack.Location]
	for _, tag := range persona.RestrictedTags {
		if loc.HasTag(tag) {
			return Outcome{Decision: deny(DenyLocation, fmt.Sprintf("%s is %s", loc.ID, tag))}
		}
	}
	if len(persona.AllowedTags) > 0 {
		allowed := false
		for _, tag := range persona.AllowedTags {
			if loc.HasTag(tag) {
				allowed = true
				break
			}
		}
		if !allowed {
			return Outcome{Decision: deny(DenyLocation, fmt.Sprintf("%s not allowed at %s", target, loc.ID))}
		}
	}

	if persona.Type == world.PersonaCivilian && loc.HasTag(world.TagPublic) &&
		w.Heat.Locations[stack.Location] > world.HeatWitnesses {
		return Outcome{Decision: deny(DenyWitnesses, fmt.Sprintf("heat %d at %s", w.Heat.Locations[stack.Location], loc.ID))}
	}

	ev := events.PersonaEvent{
		Action:         events.PersonaSwitch,
		ActorID:        actor,
		PersonaID:      target,
		NextSwitchTick: now + 1,
	}
	if persona.Type == world.PersonaCivilian {
		for _, rec := range w.Evidence.At(stack.Location) {
			if rec.Signature == content.SigVisualAnomaly {
				ev.SuspicionDelta = CivilianExposure
				break
			}
		}
	}
	return Outcome{Decision: allow(), Events: []events.Event{ev}}
}
