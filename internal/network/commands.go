// Package network exposes the simulation to clients over WebSocket and HTTP.
// Every command goes through the orchestrator's rules gateway; nothing here
// writes world state.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/rules"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

// Simulation is the part of the orchestrator the surface drives.
type Simulation interface {
	Tick(ctx context.Context) (engine.TickReport, error)
	CanUse(persona ids.PersonaID, power ids.PowerID, uctx rules.UseContext) rules.Decision
	UsePower(persona ids.PersonaID, power ids.PowerID, uctx rules.UseContext) rules.Outcome
	SwitchPersona(actor ids.ActorID, persona ids.PersonaID) rules.Outcome
	Inject(source string, ev events.Event)
	RequestCheckpoint()
	Snapshot() *world.State
	Pending() int
}

// CommandType names a client request.
type CommandType string

const (
	CmdAdvance    CommandType = "ADVANCE"
	CmdCanUse     CommandType = "CAN_USE"
	CmdUsePower   CommandType = "USE_POWER"
	CmdSwitch     CommandType = "SWITCH_PERSONA"
	CmdCheckpoint CommandType = "CHECKPOINT"
	CmdStatus     CommandType = "STATUS"
	CmdInject     CommandType = "INJECT" // dev mode only
)

// Command is an incoming request from a client.
type Command struct {
	ID      string           `json:"id,omitempty"` // echoed in the reply
	Type    CommandType      `json:"type"`
	Actor   ids.ActorID      `json:"actor,omitempty"`
	Persona ids.PersonaID    `json:"persona,omitempty"`
	Power   ids.PowerID      `json:"power,omitempty"`
	Use     rules.UseContext `json:"use"`
	Kind    events.Kind      `json:"kind,omitempty"`
	Event   json.RawMessage  `json:"event,omitempty"`
	Source  string           `json:"source,omitempty"`
}

// Reply types.
const (
	ReplyResult = "RESULT"
	ReplyError  = "ERROR"
	ReplyEvents = "EVENTS"
)

// Reply answers one command, or carries a broadcast.
type Reply struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type"`
	Command  CommandType        `json:"command,omitempty"`
	Session  string             `json:"session,omitempty"`
	Decision *rules.Decision    `json:"decision,omitempty"`
	Queued   int                `json:"queued,omitempty"`
	Report   *engine.TickReport `json:"report,omitempty"`
	Status   *Status            `json:"status,omitempty"`
	Tick     uint64             `json:"tick,omitempty"`
	Events   []events.Envelope  `json:"events,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Status is a compact view of the world for dashboards and bots.
type Status struct {
	Tick      uint64                         `json:"tick"`
	Time      world.Time                     `json:"time"`
	Digest    string                         `json:"digest"`
	Pending   int                            `json:"pending"`
	OpenCases int                            `json:"open_cases"`
	MaxHeat   int                            `json:"max_heat"`
	Nemesis   int                            `json:"nemesis_level"`
	Active    map[ids.ActorID]ids.PersonaID  `json:"active"`
	Locations map[ids.ActorID]ids.LocationID `json:"locations"`
}

var errDevOnly = errors.New("inject is only available in dev mode")

// Router turns commands into orchestrator calls.
type Router struct {
	sim    Simulation
	dev    bool
	logger *logger.Logger
}

func NewRouter(sim Simulation, dev bool, log *logger.Logger) *Router {
	return &Router{sim: sim, dev: dev, logger: log}
}

// Handle runs one command. Denials are results, not errors.
func (r *Router) Handle(ctx context.Context, cmd Command) Reply {
	reply, err := r.route(ctx, cmd)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("command %s failed: %v", cmd.Type, err))
		return Reply{ID: cmd.ID, Type: ReplyError, Command: cmd.Type, Error: err.Error()}
	}
	reply.ID = cmd.ID
	reply.Type = ReplyResult
	reply.Command = cmd.Type
	return reply
}

func (r *Router) route(ctx context.Context, cmd Command) (Reply, error) {
	switch cmd.Type {
	case CmdAdvance:
		report, err := r.sim.Tick(ctx)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Report: &report}, nil

	case CmdCanUse:
		d := r.sim.CanUse(cmd.Persona, cmd.Power, cmd.Use)
		return Reply{Decision: &d}, nil

	case CmdUsePower:
		out := r.sim.UsePower(cmd.Persona, cmd.Power, cmd.Use)
		return Reply{Decision: &out.Decision, Queued: r.sim.Pending()}, nil

	case CmdSwitch:
		actor := cmd.Actor
		if actor == "" {
			actor = world.PlayerActor
		}
		out := r.sim.SwitchPersona(actor, cmd.Persona)
		return Reply{Decision: &out.Decision, Queued: r.sim.Pending()}, nil

	case CmdCheckpoint:
		r.sim.RequestCheckpoint()
		return Reply{}, nil

	case CmdStatus:
		return Reply{Status: StatusOf(r.sim.Snapshot(), r.sim.Pending())}, nil

	case CmdInject:
		if !r.dev {
			return Reply{}, errDevOnly
		}
		ev, err := events.Decode(cmd.Kind, cmd.Event)
		if err != nil {
			return Reply{}, fmt.Errorf("decode injected event: %w", err)
		}
		source := cmd.Source
		if source == "" {
			source = "dev"
		}
		r.sim.Inject(source, ev)
		r.logger.Event("INJECT", source, fmt.Sprintf("%s %+v", cmd.Kind, ev))
		return Reply{Queued: r.sim.Pending()}, nil
	}
	return Reply{}, fmt.Errorf("unknown command %q", cmd.Type)
}

// StatusOf summarizes a snapshot.
func StatusOf(w *world.State, pending int) *Status {
	s := &Status{
		Tick:      w.Time.Tick,
		Time:      w.Time,
		Digest:    w.Digest(),
		Pending:   pending,
		OpenCases: len(w.Incidents.OpenCases()),
		MaxHeat:   w.Heat.Max(),
		Nemesis:   w.Nemesis.Level,
		Active:    make(map[ids.ActorID]ids.PersonaID, len(w.Personas.Actors)),
		Locations: make(map[ids.ActorID]ids.LocationID, len(w.Personas.Actors)),
	}
	for id, st := range w.Personas.Actors {
		s.Active[id] = st.Active
		s.Locations[id] = st.Location
	}
	return s
}
