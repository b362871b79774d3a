package rules

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
)

// Modifiers are percent multipliers narrative pressure applies to power use.
type Modifiers struct {
	CostPercent int
	RiskPercent int
}

// ModifiersFrom derives cost and risk multipliers from story pressure.
// Resource and temporal pressure raise costs by up to 15%; the remaining
// axes raise risk chances by up to 20%.
func ModifiersFrom(story world.Story) Modifiers {
	costSum := clamp(story.Pressure[content.AxisResource]+story.Pressure[content.AxisTemporal], 0, 200)
	riskSum := clamp(story.Pressure[content.AxisIdentity]+story.Pressure[content.AxisInstitutional]+
		story.Pressure[content.AxisMoral]+story.Pressure[content.AxisPsychological], 0, 400)
	return Modifiers{
		CostPercent: 100 + costSum*15/200,
		RiskPercent: 100 + riskSum*20/400,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Costs are the effective costs of one use after mastery and pressure.
type Costs struct {
	Stamina  int
	Focus    int
	Resource int
	Cooldown int
	Risks    []Risk
}

// Risk is a chance-based consequence rolled at use time.
type Risk struct {
	Type   string
	Chance int // percent
}

// ComputeCosts applies mastery and pressure modifiers to an expression's cost lines.
func ComputeCosts(expr content.Expression, stage MasteryStage, mods Modifiers) Costs {
	costPct, riskPct := stage.costPercent()
	var c Costs
	for _, spec := range expr.Costs {
		switch spec.Type {
		case content.CostStamina:
			c.Stamina += scale(scale(spec.Value, costPct), mods.CostPercent)
		case content.CostFocus:
			c.Focus += scale(scale(spec.Value, costPct), mods.CostPercent)
		case content.CostResource:
			c.Resource += scale(scale(spec.Value, costPct), mods.CostPercent)
		case content.CostCooldown:
			if spec.Value > c.Cooldown {
				c.Cooldown = spec.Value
			}
		case content.CostRisk:
			chance := clamp(spec.RiskChance*riskPct/100*mods.RiskPercent/100, 0, 100)
			c.Risks = append(c.Risks, Risk{Type: spec.RiskType, Chance: chance})
		}
	}
	return c
}
