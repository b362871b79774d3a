// Package config loads runtime settings from the environment and balance
// tuning from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process-level settings.
type Runtime struct {
	ListenAddr   string        `env:"HEATCITY_ADDR" envDefault:":8080"`
	Store        string        `env:"HEATCITY_STORE" envDefault:"sqlite"` // sqlite | file
	DBPath       string        `env:"HEATCITY_DB" envDefault:"data/heatcity.db"`
	SavePath     string        `env:"HEATCITY_SAVE" envDefault:"data/world.json"`
	Seed         int64         `env:"HEATCITY_SEED" envDefault:"42"`
	TickInterval time.Duration `env:"HEATCITY_TICK_INTERVAL" envDefault:"10s"`
	AutoTick     bool          `env:"HEATCITY_AUTOTICK" envDefault:"true"`
	BalancePath  string        `env:"HEATCITY_BALANCE"`
	Profile      string        `env:"HEATCITY_PROFILE" envDefault:"default"`
	DevMode      bool          `env:"HEATCITY_DEV"`
	Verbose      bool          `env:"HEATCITY_VERBOSE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadRuntime parses Runtime from the environment and validates it.
func LoadRuntime() (Runtime, error) {
	var rt Runtime
	if err := ParseEnv(&rt); err != nil {
		return Runtime{}, err
	}
	if rt.Store != "sqlite" && rt.Store != "file" {
		return Runtime{}, fmt.Errorf("HEATCITY_STORE must be sqlite or file, got %q", rt.Store)
	}
	if rt.TickInterval <= 0 {
		return Runtime{}, fmt.Errorf("HEATCITY_TICK_INTERVAL must be positive")
	}
	return rt, nil
}
