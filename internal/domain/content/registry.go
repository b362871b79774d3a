package content

import "github.com/MRamiBalles/heatcity/internal/domain/ids"

// Canonical identifiers of the built-in content.
const (
	PowerKinetic ids.PowerID = "pwr.kinetic"
	PowerShadow  ids.PowerID = "pwr.shadow"
	PowerStatic  ids.PowerID = "pwr.static"

	ExprKineticShove ids.ExpressionID = "exp.kinetic.shove"
	ExprKineticQuake ids.ExpressionID = "exp.kinetic.quake"
	ExprShadowVeil   ids.ExpressionID = "exp.shadow.veil"
	ExprStaticArc    ids.ExpressionID = "exp.static.arc"

	AcqKineticAwakening ids.AcquisitionID = "acq.kinetic.awakening"
	AcqShadowMentor     ids.AcquisitionID = "acq.shadow.mentor"
	AcqStaticOverload   ids.AcquisitionID = "acq.static.overload"
)

// Registry contains the built-in powers used for new worlds and tests.
var Registry = map[ids.PowerID]Power{
	PowerKinetic: {
		ID:           PowerKinetic,
		Name:         "Kinetic Surge",
		Description:  "Stored momentum released through touch or ground strikes.",
		Expressions:  []ids.ExpressionID{ExprKineticShove, ExprKineticQuake},
		Acquisitions: []ids.AcquisitionID{AcqKineticAwakening},
	},
	PowerShadow: {
		ID:           PowerShadow,
		Name:         "Umbral Veil",
		Description:  "Bends light around the user. Leaves shimmer for a few hours.",
		Expressions:  []ids.ExpressionID{ExprShadowVeil},
		Acquisitions: []ids.AcquisitionID{AcqShadowMentor},
	},
	PowerStatic: {
		ID:           PowerStatic,
		Name:         "Static Lance",
		Description:  "Discharges built-up charge in a line. Fries nearby electronics.",
		Expressions:  []ids.ExpressionID{ExprStaticArc},
		Acquisitions: []ids.AcquisitionID{AcqStaticOverload},
	},
}

// ExpressionRegistry contains the built-in expressions.
var ExpressionRegistry = map[ids.ExpressionID]Expression{
	ExprKineticShove: {
		ID:      ExprKineticShove,
		PowerID: PowerKinetic,
		Name:    "Shove",
		Costs: []CostSpec{
			{Type: CostStamina, Value: 10},
			{Type: CostCooldown, Value: 1},
		},
		Signatures:  []SignatureSpec{{Type: SigKineticStress, Strength: 40, PersistenceTicks: 4}},
		Constraints: Constraints{RequiresContact: true},
		Effect:      Effect{CrimeDelta: -3},
	},
	ExprKineticQuake: {
		ID:      ExprKineticQuake,
		PowerID: PowerKinetic,
		Name:    "Quake",
		Costs: []CostSpec{
			{Type: CostStamina, Value: 25},
			{Type: CostFocus, Value: 5},
			{Type: CostCooldown, Value: 3},
			{Type: CostRisk, Value: 1, RiskType: "collateral", RiskChance: 20},
		},
		Signatures: []SignatureSpec{
			{Type: SigKineticStress, Strength: 70},
			{Type: SigAcousticShock, Strength: 50, PersistenceTicks: 3},
		},
		Constraints: Constraints{MaxRangeM: 30},
		Effect:      Effect{CrimeDelta: -6, ResolvesTargetCase: true},
	},
	ExprShadowVeil: {
		ID:      ExprShadowVeil,
		PowerID: PowerShadow,
		Name:    "Veil",
		Costs: []CostSpec{
			{Type: CostFocus, Value: 15},
			{Type: CostCooldown, Value: 2},
		},
		Signatures:  []SignatureSpec{{Type: SigVisualAnomaly, Strength: 30, PersistenceTicks: 3}},
		Constraints: Constraints{RequiresLOS: true, MaxRangeM: 20},
		Effect:      Effect{CrimeDelta: -1},
	},
	ExprStaticArc: {
		ID:      ExprStaticArc,
		PowerID: PowerStatic,
		Name:    "Arc",
		Costs: []CostSpec{
			{Type: CostFocus, Value: 10},
			{Type: CostResource, Value: 1},
			{Type: CostCooldown, Value: 2},
		},
		Signatures:  []SignatureSpec{{Type: SigEMSpike, Strength: 60}},
		Constraints: Constraints{RequiresLOS: true, MaxRangeM: 40},
		Effect:      Effect{CrimeDelta: -4},
	},
}

var AcquisitionRegistry = map[ids.AcquisitionID]Acquisition{
	AcqKineticAwakening: {ID: AcqKineticAwakening, PowerID: PowerKinetic},
	AcqShadowMentor:     {ID: AcqShadowMentor, PowerID: PowerShadow},
	AcqStaticOverload:   {ID: AcqStaticOverload, PowerID: PowerStatic, Requires: []ids.PowerID{PowerKinetic}},
}

var StoryletRegistry = []Storylet{
	{
		ID:            "st.first_headline",
		Title:         "Masked vigilante makes the evening news",
		Preconditions: Preconditions{MinHeat: 20},
		Effects:       StoryletEffects{Pressure: map[Axis]int{AxisIdentity: 10}, SetFlag: "press_attention"},
		Once:          true,
	},
	{
		ID:            "st.budget_hearing",
		Title:         "City council debates the police budget",
		Preconditions: Preconditions{MinOpenCases: 3},
		Effects:       StoryletEffects{Pressure: map[Axis]int{AxisInstitutional: 8}, HeatDelta: 3},
		Cooldown:      12,
	},
	{
		ID:            "st.calling_card",
		Title:         "A calling card left at the scene",
		Preconditions: Preconditions{MinNemesisLevel: 1, RequireFlag: "press_attention"},
		Effects:       StoryletEffects{Pressure: map[Axis]int{AxisPsychological: 15}, CrimeDelta: 2},
		Once:          true,
	},
	{
		ID:            "st.quiet_night",
		Title:         "An unusually quiet night",
		Preconditions: Preconditions{MinPressure: map[Axis]int{AxisTemporal: 10}, ForbidFlag: "curfew"},
		Effects:       StoryletEffects{Pressure: map[Axis]int{AxisMoral: -5}, CrimeDelta: -2},
		Cooldown:      24,
	},
}

var NemesisActionRegistry = []NemesisAction{
	{ID: "nem.scout", Name: "Scout the district", MinLevel: 1},
	{ID: "nem.jammer", Name: "Plant signal jammers", MinLevel: 1, MinHeat: 20, Focus: SigEMSpike},
	{ID: "nem.decoy", Name: "Stage a decoy sighting", MinLevel: 2, MinHeat: 40, Focus: SigVisualAnomaly},
	{ID: "nem.dampers", Name: "Install kinetic dampers", MinLevel: 2, MinProgress: 50, Focus: SigKineticStress},
	{ID: "nem.trap", Name: "Spring the trap", MinLevel: 3, MinHeat: 70, MinProgress: 80},
}

// DefaultSet bundles the registries into a Set.
func DefaultSet() Set {
	s := Set{
		Storylets:      append([]Storylet(nil), StoryletRegistry...),
		NemesisActions: append([]NemesisAction(nil), NemesisActionRegistry...),
	}
	for _, p := range Registry {
		s.Powers = append(s.Powers, p)
	}
	for _, e := range ExpressionRegistry {
		s.Expressions = append(s.Expressions, e)
	}
	for _, a := range AcquisitionRegistry {
		s.Acquisitions = append(s.Acquisitions, a)
	}
	return s
}

// MustDefaultCatalog returns the built-in catalog. It panics on broken built-ins.
func MustDefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultSet())
	if err != nil {
		panic(err)
	}
	return c
}
