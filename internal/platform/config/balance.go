package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Balance is the gameplay tuning shared by every system.
type Balance struct {
	Heat       HeatBalance       `yaml:"heat" json:"heat"`
	Incidents  IncidentBalance   `yaml:"incidents" json:"incidents"`
	Factions   FactionBalance    `yaml:"factions" json:"factions"`
	Nemesis    NemesisBalance    `yaml:"nemesis" json:"nemesis"`
	Narrative  NarrativeBalance  `yaml:"narrative" json:"narrative"`
	Recovery   RecoveryBalance   `yaml:"recovery" json:"recovery"`
	Checkpoint CheckpointBalance `yaml:"checkpoint" json:"checkpoint"`
}

// HeatBalance is the decay curve. Per location, decay starts at BaseDecay,
// grows by PresenceBonus while a faction patrols there and shrinks by
// CrimeDrag under high crime or an open case. Decay never adds heat.
type HeatBalance struct {
	BaseDecay          int `yaml:"base_decay" json:"base_decay"`
	PresenceBonus      int `yaml:"presence_bonus" json:"presence_bonus"`
	CrimeDrag          int `yaml:"crime_drag" json:"crime_drag"`
	HighCrimeThreshold int `yaml:"high_crime_threshold" json:"high_crime_threshold"`
	FactionDecay       int `yaml:"faction_decay" json:"faction_decay"`
}

// IncidentBalance drives world generation and case progress.
type IncidentBalance struct {
	BaseCount            int `yaml:"base_count" json:"base_count"`
	PressurePerExtra     int `yaml:"pressure_per_extra" json:"pressure_per_extra"`
	MaxPerTick           int `yaml:"max_per_tick" json:"max_per_tick"`
	CrimeBumpPerSeverity int `yaml:"crime_bump_per_severity" json:"crime_bump_per_severity"`
	CoolRate             int `yaml:"cool_rate" json:"cool_rate"`
	InvestigatorProgress int `yaml:"investigator_progress" json:"investigator_progress"`
	EvidenceProgress     int `yaml:"evidence_progress" json:"evidence_progress"`
	PatternSize          int `yaml:"pattern_size" json:"pattern_size"`
}

type FactionBalance struct {
	InfluencePerAction int `yaml:"influence_per_action" json:"influence_per_action"`
	RivalryDelta       int `yaml:"rivalry_delta" json:"rivalry_delta"`
}

// NemesisThreshold gates an adaptation level.
type NemesisThreshold struct {
	Level       int `yaml:"level" json:"level"`
	MinHeat     int `yaml:"min_heat" json:"min_heat"`
	MinProgress int `yaml:"min_progress" json:"min_progress"`
	Cooldown    int `yaml:"cooldown" json:"cooldown"` // ticks between actions at this level
}

type NemesisBalance struct {
	Thresholds []NemesisThreshold `yaml:"thresholds" json:"thresholds"`
}

// NarrativeBalance controls how fast pressure axes approach their targets.
type NarrativeBalance struct {
	StepBase        int `yaml:"step_base" json:"step_base"`
	CasesPerBonus   int `yaml:"cases_per_bonus" json:"cases_per_bonus"`
	MaxFiredPerTick int `yaml:"max_fired_per_tick" json:"max_fired_per_tick"`
}

type RecoveryBalance struct {
	Stamina int `yaml:"stamina" json:"stamina"`
	Focus   int `yaml:"focus" json:"focus"`
}

// CheckpointBalance sets how often Commit persists. Interval 0 checkpoints only on request.
type CheckpointBalance struct {
	Interval int `yaml:"interval" json:"interval"`
}

// DefaultBalance returns the shipped tuning.
func DefaultBalance() Balance {
	return Balance{
		Heat: HeatBalance{
			BaseDecay:          1,
			PresenceBonus:      1,
			CrimeDrag:          1,
			HighCrimeThreshold: 12,
			FactionDecay:       1,
		},
		Incidents: IncidentBalance{
			BaseCount:            1,
			PressurePerExtra:     40,
			MaxPerTick:           3,
			CrimeBumpPerSeverity: 2,
			CoolRate:             1,
			InvestigatorProgress: 4,
			EvidenceProgress:     2,
			PatternSize:          3,
		},
		Factions: FactionBalance{
			InfluencePerAction: 5,
			RivalryDelta:       -1,
		},
		Nemesis: NemesisBalance{
			Thresholds: []NemesisThreshold{
				{Level: 1, MinHeat: 35, MinProgress: 25, Cooldown: 3},
				{Level: 2, MinHeat: 55, MinProgress: 60, Cooldown: 2},
				{Level: 3, MinHeat: 75, MinProgress: 85, Cooldown: 1},
			},
		},
		Narrative: NarrativeBalance{
			StepBase:        2,
			CasesPerBonus:   4,
			MaxFiredPerTick: 1,
		},
		Recovery: RecoveryBalance{
			Stamina: 5,
			Focus:   3,
		},
		Checkpoint: CheckpointBalance{
			Interval: 6,
		},
	}
}

// LoadBalance reads YAML tuning over the defaults. An empty path returns the defaults.
func LoadBalance(path string) (Balance, error) {
	b := DefaultBalance()
	if path == "" {
		return b, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance: %w", err)
	}
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return Balance{}, fmt.Errorf("parse balance %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return Balance{}, fmt.Errorf("balance %s: %w", path, err)
	}
	return b, nil
}

// Validate rejects tuning that would break system invariants.
func (b Balance) Validate() error {
	if b.Heat.BaseDecay < 0 || b.Heat.FactionDecay < 0 {
		return fmt.Errorf("heat decay must not be negative")
	}
	if b.Incidents.MaxPerTick < b.Incidents.BaseCount {
		return fmt.Errorf("incidents.max_per_tick (%d) below base_count (%d)", b.Incidents.MaxPerTick, b.Incidents.BaseCount)
	}
	if b.Incidents.PressurePerExtra <= 0 {
		return fmt.Errorf("incidents.pressure_per_extra must be positive")
	}
	prev := 0
	for _, t := range b.Nemesis.Thresholds {
		if t.Level != prev+1 {
			return fmt.Errorf("nemesis thresholds must list levels 1..n in order")
		}
		prev = t.Level
	}
	if b.Checkpoint.Interval < 0 {
		return fmt.Errorf("checkpoint.interval must not be negative")
	}
	return nil
}
