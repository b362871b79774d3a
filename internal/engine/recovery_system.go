// Package engine - recovery_system.go
package engine

import (
	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/config"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// RecoverySystem regenerates stamina and focus for every actor, up to their maximum.
type RecoverySystem struct {
	balance config.RecoveryBalance
}

func NewRecoverySystem(b config.RecoveryBalance) *RecoverySystem {
	return &RecoverySystem{balance: b}
}

func (s *RecoverySystem) Name() string              { return "recovery" }
func (s *RecoverySystem) Streams() []rng.StreamName { return nil }

func (s *RecoverySystem) Run(snap *world.State, _ content.Repository, _ Streams) ([]events.Event, error) {
	var out []events.Event
	for _, actor := range snap.SortedActorIDs() {
		stack := snap.Personas.Actors[actor]
		stamina := clampInt(s.balance.Stamina, 0, max(0, stack.MaxStamina-stack.Stamina))
		focus := clampInt(s.balance.Focus, 0, max(0, stack.MaxFocus-stack.Focus))
		if stamina == 0 && focus == 0 {
			continue
		}
		out = append(out, events.PersonaEvent{
			Action:       events.PersonaRecover,
			ActorID:      actor,
			StaminaDelta: stamina,
			FocusDelta:   focus,
		})
	}
	return out, nil
}
