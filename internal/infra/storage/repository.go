package storage

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// AuditRecord is one resolved event as kept in the audit trail.
type AuditRecord struct {
	ID         ulid.ULID       `json:"id"`
	RunID      string          `json:"run_id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Envelope   events.Envelope `json:"envelope"`
}

// AuditReader is the read side of the audit trail, used by the recap and
// the replay endpoint.
type AuditReader interface {
	// EventsBetween returns envelopes for ticks in [from, to], in tick and seq order.
	EventsBetween(ctx context.Context, from, to uint64) ([]AuditRecord, error)

	// EventsByKind returns every envelope of one kind, oldest first.
	EventsByKind(ctx context.Context, kind events.Kind) ([]AuditRecord, error)

	// DrawsAt returns the random outcomes recorded for one tick.
	DrawsAt(ctx context.Context, tick uint64) ([]rng.Draw, error)

	// LastTick is the newest tick with at least one envelope.
	LastTick(ctx context.Context) (uint64, bool, error)
}
