// Package engine - owner_persona.go
package engine

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
)

// personaOwner is the only writer of world.Personas.
type personaOwner struct {
	w    *world.State
	tick uint64
}

func (o personaOwner) apply(e events.PersonaEvent) error {
	stack, ok := o.w.Personas.Actors[e.ActorID]
	if !ok {
		return fmt.Errorf("unknown actor %q", e.ActorID)
	}
	switch e.Action {
	case events.PersonaSwitch:
		return o.switchTo(stack, e)
	case events.PersonaSpendCost:
		return o.spend(stack, e)
	case events.PersonaRecover:
		if e.StaminaDelta < 0 || e.FocusDelta < 0 {
			return fmt.Errorf("recovery cannot drain vitals")
		}
		stack.Stamina = min(stack.MaxStamina, stack.Stamina+e.StaminaDelta)
		stack.Focus = min(stack.MaxFocus, stack.Focus+e.FocusDelta)
		o.w.Personas.Actors[e.ActorID] = stack
		return nil
	default:
		return fmt.Errorf("unknown persona action %q", e.Action)
	}
}

func (o personaOwner) switchTo(stack world.PersonaStack, e events.PersonaEvent) error {
	p, ok := stack.Personas[e.PersonaID]
	if !ok {
		return fmt.Errorf("actor %s has no persona %q", stack.ActorID, e.PersonaID)
	}
	if p.Locked {
		return fmt.Errorf("persona %s is locked", p.ID)
	}
	if stack.Active == p.ID {
		return fmt.Errorf("persona %s already active", p.ID)
	}
	if stack.NextSwitchTick > o.tick {
		return fmt.Errorf("switch on cooldown until tick %d", stack.NextSwitchTick)
	}
	p.Suspicion += e.SuspicionDelta
	stack.Personas[p.ID] = p
	stack.Active = p.ID
	stack.NextSwitchTick = e.NextSwitchTick
	o.w.Personas.Actors[stack.ActorID] = stack
	return nil
}

func (o personaOwner) spend(stack world.PersonaStack, e events.PersonaEvent) error {
	if stack.Active != e.PersonaID {
		return fmt.Errorf("persona %s is no longer active", e.PersonaID)
	}
	if until := stack.CooldownUntil[e.ExpressionID]; until > o.tick {
		return fmt.Errorf("expression %s on cooldown until tick %d", e.ExpressionID, until)
	}
	grant, ok := stack.Powers[e.PowerID]
	if !ok {
		return fmt.Errorf("actor %s does not hold %s", stack.ActorID, e.PowerID)
	}
	stamina := stack.Stamina + e.StaminaDelta
	focus := stack.Focus + e.FocusDelta
	resources := stack.Resources + e.ResourceDelta
	if stamina < 0 || focus < 0 || resources < 0 {
		return fmt.Errorf("insufficient vitals: stamina %d focus %d resources %d", stamina, focus, resources)
	}

	stack.Stamina, stack.Focus, stack.Resources = stamina, focus, resources
	grant.Uses++
	stack.Powers[e.PowerID] = grant
	if e.CooldownUntil > 0 {
		stack.CooldownUntil[e.ExpressionID] = e.CooldownUntil
	}
	o.w.Personas.Actors[stack.ActorID] = stack
	return nil
}
