// Package content defines the read-only definitions the simulation refers to
// by identifier: powers, expressions, acquisition rules, storylets and the
// nemesis action catalog.
// This package is PURE and must NOT import any infrastructure packages.
package content

import "github.com/MRamiBalles/heatcity/internal/domain/ids"

// CostType identifies which resource an expression consumes.
type CostType string

const (
	CostStamina  CostType = "STAMINA"
	CostFocus    CostType = "FOCUS"
	CostResource CostType = "RESOURCE"
	CostCooldown CostType = "COOLDOWN" // ticks before the expression is usable again
	CostRisk     CostType = "RISK"     // chance-based exposure, drawn at use time
)

var AllCostTypes = []CostType{CostStamina, CostFocus, CostResource, CostCooldown, CostRisk}

// SignatureType is the kind of trace a power leaves behind.
type SignatureType string

const (
	SigVisualAnomaly       SignatureType = "VISUAL_ANOMALY"
	SigEMSpike             SignatureType = "EM_SPIKE"
	SigThermalBloom        SignatureType = "THERMAL_BLOOM"
	SigAcousticShock       SignatureType = "ACOUSTIC_SHOCK"
	SigChemicalResidue     SignatureType = "CHEMICAL_RESIDUE"
	SigPsychicEcho         SignatureType = "PSYCHIC_ECHO"
	SigRadiationTrace      SignatureType = "RADIATION_TRACE"
	SigBioMarker           SignatureType = "BIO_MARKER"
	SigDimensionalResidue  SignatureType = "DIMENSIONAL_RESIDUE"
	SigGraviticDisturbance SignatureType = "GRAVITIC_DISTURBANCE"
	SigArcaneResonance     SignatureType = "ARCANE_RESONANCE"
	SigCausalImprint       SignatureType = "CAUSAL_IMPRINT"
	SigKineticStress       SignatureType = "KINETIC_STRESS"
)

var AllSignatureTypes = []SignatureType{
	SigVisualAnomaly, SigEMSpike, SigThermalBloom, SigAcousticShock,
	SigChemicalResidue, SigPsychicEcho, SigRadiationTrace, SigBioMarker,
	SigDimensionalResidue, SigGraviticDisturbance, SigArcaneResonance,
	SigCausalImprint, SigKineticStress,
}

// DefaultPersistenceTicks applies when a signature spec leaves persistence unset.
const DefaultPersistenceTicks = 5

// Axis is one of the narrative pressure dimensions.
type Axis string

const (
	AxisTemporal      Axis = "temporal"
	AxisIdentity      Axis = "identity"
	AxisInstitutional Axis = "institutional"
	AxisMoral         Axis = "moral"
	AxisResource      Axis = "resource"
	AxisPsychological Axis = "psychological"
)

var AllAxes = []Axis{AxisTemporal, AxisIdentity, AxisInstitutional, AxisMoral, AxisResource, AxisPsychological}

// CostSpec is one cost line of an expression.
type CostSpec struct {
	Type       CostType `json:"type"`
	Value      int      `json:"value"`
	RiskType   string   `json:"risk_type,omitempty"`
	RiskChance int      `json:"risk_chance,omitempty"` // percent, RISK only
}

// SignatureSpec is a trace emitted when the expression is used.
type SignatureSpec struct {
	Type             SignatureType `json:"type"`
	Strength         int           `json:"strength"`
	PersistenceTicks int           `json:"persistence_ticks,omitempty"`
}

// Persistence returns the configured persistence or the default.
func (s SignatureSpec) Persistence() int {
	if s.PersistenceTicks <= 0 {
		return DefaultPersistenceTicks
	}
	return s.PersistenceTicks
}

// Constraints limit when an expression can target something.
type Constraints struct {
	RequiresContact bool `json:"requires_contact,omitempty"`
	RequiresLOS     bool `json:"requires_los,omitempty"`
	MaxRangeM       int  `json:"max_range_m,omitempty"` // 0 = unlimited
}

// Effect is what a successful use does to the world.
type Effect struct {
	CrimeDelta         int  `json:"crime_delta,omitempty"`
	ResolvesTargetCase bool `json:"resolves_target_case,omitempty"`
}

// Expression is one concrete way of using a power.
type Expression struct {
	ID          ids.ExpressionID `json:"id"`
	PowerID     ids.PowerID      `json:"power_id"`
	Name        string           `json:"name"`
	Costs       []CostSpec       `json:"costs"`
	Signatures  []SignatureSpec  `json:"signatures"`
	Constraints Constraints      `json:"constraints"`
	Effect      Effect           `json:"effect"`
}

// Power groups expressions and the acquisition routes that grant it.
type Power struct {
	ID           ids.PowerID         `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Expressions  []ids.ExpressionID  `json:"expressions"`
	Acquisitions []ids.AcquisitionID `json:"acquisitions"`
}

// Acquisition grants a power once every required power is already held.
type Acquisition struct {
	ID       ids.AcquisitionID `json:"id"`
	PowerID  ids.PowerID       `json:"power_id"`
	Requires []ids.PowerID     `json:"requires,omitempty"`
}

// Preconditions gate a storylet. Zero values do not constrain.
type Preconditions struct {
	MinPressure     map[Axis]int `json:"min_pressure,omitempty"`
	MinHeat         int          `json:"min_heat,omitempty"`
	MinNemesisLevel int          `json:"min_nemesis_level,omitempty"`
	MinOpenCases    int          `json:"min_open_cases,omitempty"`
	RequireFlag     string       `json:"require_flag,omitempty"`
	ForbidFlag      string       `json:"forbid_flag,omitempty"`
}

// StoryletEffects are applied through the regular event kinds when a storylet fires.
// Heat and crime shifts land on the hottest location.
type StoryletEffects struct {
	Pressure   map[Axis]int `json:"pressure,omitempty"`
	SetFlag    string       `json:"set_flag,omitempty"`
	HeatDelta  int          `json:"heat_delta,omitempty"`
	CrimeDelta int          `json:"crime_delta,omitempty"`
}

type Storylet struct {
	ID            ids.StoryletID  `json:"id"`
	Title         string          `json:"title"`
	Preconditions Preconditions   `json:"preconditions"`
	Effects       StoryletEffects `json:"effects"`
	Once          bool            `json:"once,omitempty"`
	Cooldown      int             `json:"cooldown,omitempty"`
}

// NemesisAction is a countermeasure the nemesis can schedule.
type NemesisAction struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	MinLevel    int           `json:"min_level"`
	MinHeat     int           `json:"min_heat"`
	MinProgress int           `json:"min_progress"`
	Focus       SignatureType `json:"focus,omitempty"`
}

// Repository is the read side the core uses to resolve content identifiers.
type Repository interface {
	GetPower(id ids.PowerID) (Power, bool)
	GetExpression(id ids.ExpressionID) (Expression, bool)
	GetAcquisition(id ids.AcquisitionID) (Acquisition, bool)
	Storylets() []Storylet
	NemesisActions() []NemesisAction
}
