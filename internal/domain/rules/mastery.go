package rules

import "github.com/MRamiBalles/heatcity/internal/domain/content"

// MasteryStage grows with how often a power has been used.
type MasteryStage string

const (
	MasteryRaw        MasteryStage = "RAW"
	MasteryControlled MasteryStage = "CONTROLLED"
	MasteryPrecise    MasteryStage = "PRECISE"
	MasterySilent     MasteryStage = "SILENT"
	MasteryIconic     MasteryStage = "ICONIC"
)

// StageFromUses maps a use count to its mastery stage.
func StageFromUses(uses int) MasteryStage {
	switch {
	case uses >= 40:
		return MasteryIconic
	case uses >= 24:
		return MasterySilent
	case uses >= 12:
		return MasteryPrecise
	case uses >= 5:
		return MasteryControlled
	default:
		return MasteryRaw
	}
}

// costPercent and riskPercent scale resource costs and risk chances.
func (m MasteryStage) costPercent() (cost, risk int) {
	switch m {
	case MasteryControlled:
		return 95, 90
	case MasteryPrecise:
		return 90, 85
	case MasterySilent:
		return 85, 70
	case MasteryIconic:
		return 80, 65
	default:
		return 100, 100
	}
}

// signatureFactor scales signature strength and shifts persistence.
func (m MasteryStage) signatureFactor() (strengthPct, persistenceDelta int) {
	switch m {
	case MasteryControlled:
		return 90, 0
	case MasteryPrecise:
		return 80, -1
	case MasterySilent:
		return 65, -2
	case MasteryIconic:
		return 60, -2
	default:
		return 100, 0
	}
}

// scale computes ceil(v*pct/100), never dropping a positive value below 1.
func scale(v, pct int) int {
	if v <= 0 {
		return 0
	}
	out := (v*pct + 99) / 100
	if out < 1 {
		return 1
	}
	return out
}

// ScaledSignature applies mastery to one signature spec.
func ScaledSignature(spec content.SignatureSpec, stage MasteryStage) (strength, persistence int) {
	pct, delta := stage.signatureFactor()
	strength = scale(spec.Strength, pct)
	persistence = spec.Persistence() + delta
	if persistence < 1 {
		persistence = 1
	}
	return strength, persistence
}
