package rules

import (
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// UseContext describes the target situation of a power use.
type UseContext struct {
	Expression  ids.ExpressionID `json:"expression,omitempty"` // empty selects the power's first expression
	TargetCase  ids.CaseID       `json:"target_case,omitempty"`
	DistanceM   int              `json:"distance_m,omitempty"`
	LineOfSight bool             `json:"line_of_sight,omitempty"`
	Contact     bool             `json:"contact,omitempty"`
}

// actionTick is the tick during which an action submitted now resolves.
func actionTick(w *world.State) uint64 {
	return w.Time.Tick + 1
}

// usePlan is everything CanUse established, reused by UsePower.
type usePlan struct {
	stack   world.PersonaStack
	persona world.Persona
	power   content.Power
	expr    content.Expression
	stage   MasteryStage
	costs   Costs
}

// CanUse checks every gate for a persona using a power.
func CanUse(w *world.State, c content.Repository, persona ids.PersonaID, power ids.PowerID, ctx UseContext) Decision {
	_, d := plan(w, c, persona, power, ctx)
	return d
}

func plan(w *world.State, c content.Repository, personaID ids.PersonaID, powerID ids.PowerID, ctx UseContext) (usePlan, Decision) {
	var p usePlan

	stack, ok := w.Personas.Owner(personaID)
	if !ok {
		return p, deny(DenyUnknownPersona, string(personaID))
	}
	p.stack = stack
	p.persona = stack.Personas[personaID]
	if stack.Active != personaID {
		return p, deny(DenyPersonaNotActive, fmt.Sprintf("active persona is %s", stack.Active))
	}

	pw, ok := c.GetPower(powerID)
	if !ok {
		return p, deny(DenyUnknownPower, string(powerID))
	}
	p.power = pw
	if !p.persona.HasInLoadout(powerID) {
		return p, deny(DenyNotInLoadout, string(powerID))
	}

	grant, ok := stack.Powers[powerID]
	if !ok {
		return p, deny(DenyNotAcquired, string(powerID))
	}
	if acq, ok := c.GetAcquisition(grant.Acquisition); ok {
		for _, req := range acq.Requires {
			if !stack.HasPower(req) {
				return p, deny(DenyPrerequisite, fmt.Sprintf("%s requires %s", acq.ID, req))
			}
		}
	}

	exprID := ctx.Expression
	if exprID == "" {
		if len(pw.Expressions) == 0 {
			return p, deny(DenyUnknownExpression, "power has no expressions")
		}
		exprID = pw.Expressions[0]
	}
	expr, ok := c.GetExpression(exprID)
	if !ok || expr.PowerID != powerID {
		return p, deny(DenyUnknownExpression, string(exprID))
	}
	p.expr = expr
	if !stack.Unlocked[exprID] {
		return p, deny(DenyExpressionLocked, string(exprID))
	}

	if d := checkConstraints(w, stack.Location, expr.Constraints, ctx); !d.Allowed {
		return p, d
	}

	now := actionTick(w)
	if until := stack.CooldownUntil[exprID]; now < until {
		return p, deny(DenyOnCooldown, fmt.Sprintf("ready at tick %d", until))
	}

	p.stage = StageFromUses(grant.Uses)
	p.costs = ComputeCosts(expr, p.stage, ModifiersFrom(w.Story))
	if stack.Stamina < p.costs.Stamina {
		return p, deny(DenyStamina, fmt.Sprintf("need %d, have %d", p.costs.Stamina, stack.Stamina))
	}
	if stack.Focus < p.costs.Focus {
		return p, deny(DenyFocus, fmt.Sprintf("need %d, have %d", p.costs.Focus, stack.Focus))
	}
	if stack.Resources < p.costs.Resource {
		return p, deny(DenyResource, fmt.Sprintf("need %d, have %d", p.costs.Resource, stack.Resources))
	}
	return p, allow()
}

func checkConstraints(w *world.State, at ids.LocationID, cons content.Constraints, ctx UseContext) Decision {
	if cons.RequiresContact && !ctx.Contact {
		return deny(DenyConstraint, "requires contact")
	}
	if cons.RequiresLOS && !ctx.LineOfSight {
		return deny(DenyConstraint, "requires line of sight")
	}
	if cons.MaxRangeM > 0 && ctx.DistanceM > cons.MaxRangeM {
		return deny(DenyConstraint, fmt.Sprintf("target at %dm, range %dm", ctx.DistanceM, cons.MaxRangeM))
	}
	if ctx.TargetCase != "" {
		cs, ok := w.Incidents.Cases[ctx.TargetCase]
		if !ok || cs.Status != world.CaseOpen {
			return deny(DenyConstraint, fmt.Sprintf("case %s is not open", ctx.TargetCase))
		}
		if cs.LocationID != at {
			return deny(DenyConstraint, fmt.Sprintf("case %s is at %s, not %s", ctx.TargetCase, cs.LocationID, at))
		}
	}
	return allow()
}

// UsePower re-validates through CanUse and, when allowed, returns the events
// for cost deduction, signature creation and the expression's effect.
// RISK costs roll on the supplied handle; a nil handle never triggers them.
func UsePower(w *world.State, c content.Repository, persona ids.PersonaID, power ids.PowerID, ctx UseContext, h *rng.Handle) Outcome {
	p, d := plan(w, c, persona, power, ctx)
	if !d.Allowed {
		return Outcome{Decision: d}
	}

	now := actionTick(w)
	spend := events.PersonaEvent{
		Action:        events.PersonaSpendCost,
		ActorID:       p.stack.ActorID,
		PersonaID:     persona,
		PowerID:       power,
		ExpressionID:  p.expr.ID,
		StaminaDelta:  -p.costs.Stamina,
		FocusDelta:    -p.costs.Focus,
		ResourceDelta: -p.costs.Resource,
	}
	if p.costs.Cooldown > 0 {
		spend.CooldownUntil = now + uint64(p.costs.Cooldown)
	}
	out := []events.Event{spend}

	exposed := false
	for _, r := range p.costs.Risks {
		if h != nil && r.Chance > 0 && h.Chance(r.Chance) {
			exposed = true
		}
	}

	for _, sig := range p.expr.Signatures {
		strength, persistence := ScaledSignature(sig, p.stage)
		if exposed {
			strength += strength / 2
			persistence++
		}
		out = append(out, events.EvidenceEvent{
			Action:      events.EvidenceCreate,
			LocationID:  p.stack.Location,
			PersonaID:   persona,
			Signature:   sig.Type,
			Strength:    strength,
			Persistence: persistence,
		})
	}

	eff := p.expr.Effect
	resolve := eff.ResolvesTargetCase && ctx.TargetCase != ""
	if eff.CrimeDelta != 0 || resolve {
		out = append(out, events.IncidentEvent{
			Action:      events.IncidentSuppress,
			LocationID:  p.stack.Location,
			CaseID:      ctx.TargetCase,
			CrimeDelta:  eff.CrimeDelta,
			ResolveCase: resolve,
		})
	}

	return Outcome{Decision: d, Events: out}
}
