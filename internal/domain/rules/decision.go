// Package rules contains the pure gatekeeping logic for player actions.
// Every function here reads a world snapshot and returns data: a decision
// and, when allowed, the events the resolver should apply. Denial is never
// an error.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "github.com/MRamiBalles/heatcity/internal/events"

// DenialReason is a machine-readable cause of denial.
type DenialReason string

const (
	DenyUnknownPersona    DenialReason = "UNKNOWN_PERSONA"
	DenyPersonaNotActive  DenialReason = "PERSONA_NOT_ACTIVE"
	DenyUnknownPower      DenialReason = "UNKNOWN_POWER"
	DenyNotInLoadout      DenialReason = "POWER_NOT_IN_LOADOUT"
	DenyNotAcquired       DenialReason = "POWER_NOT_ACQUIRED"
	DenyPrerequisite      DenialReason = "ACQUISITION_PREREQUISITE"
	DenyUnknownExpression DenialReason = "UNKNOWN_EXPRESSION"
	DenyExpressionLocked  DenialReason = "EXPRESSION_LOCKED"
	DenyConstraint        DenialReason = "CONSTRAINT_FAILED"
	DenyOnCooldown        DenialReason = "ON_COOLDOWN"
	DenyStamina           DenialReason = "NOT_ENOUGH_STAMINA"
	DenyFocus             DenialReason = "NOT_ENOUGH_FOCUS"
	DenyResource          DenialReason = "MISSING_RESOURCE"

	DenyAlreadyActive  DenialReason = "ALREADY_ACTIVE"
	DenyPersonaLocked  DenialReason = "PERSONA_LOCKED"
	DenySwitchCooldown DenialReason = "SWITCH_ON_COOLDOWN"
	DenyLocation       DenialReason = "SWITCH_BLOCKED_BY_LOCATION"
	DenyWitnesses      DenialReason = "SWITCH_BLOCKED_BY_WITNESSES"
)

// Decision is the result of a gate check.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Reason  DenialReason `json:"reason,omitempty"`
	Detail  string       `json:"detail,omitempty"`
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenialReason, detail string) Decision {
	return Decision{Reason: reason, Detail: detail}
}

// Outcome is a decision plus the events to resolve when it was allowed.
type Outcome struct {
	Decision
	Events []events.Event `json:"-"`
}
