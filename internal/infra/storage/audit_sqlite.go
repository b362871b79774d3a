package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/MRamiBalles/heatcity/internal/engine"
	"github.com/MRamiBalles/heatcity/internal/events"
	"github.com/MRamiBalles/heatcity/internal/platform/metrics"
	"github.com/MRamiBalles/heatcity/internal/rng"
)

// SQLiteAuditRepository is an engine.EventSink that appends every resolved
// envelope and every random draw. Rows are keyed by ULID so they sort by
// recording time across runs.
type SQLiteAuditRepository struct {
	db      *sql.DB
	clock   engine.Clock
	metrics *metrics.Collector
	runID   string
}

func NewSQLiteAuditRepository(db *sql.DB, clock engine.Clock, m *metrics.Collector) *SQLiteAuditRepository {
	if clock == nil {
		clock = engine.SystemClock{}
	}
	return &SQLiteAuditRepository{db: db, clock: clock, metrics: m, runID: uuid.NewString()}
}

// RunID identifies this process's rows.
func (r *SQLiteAuditRepository) RunID() string { return r.runID }

// Record writes one tick in a single transaction.
func (r *SQLiteAuditRepository) Record(ctx context.Context, envs []events.Envelope, draws []rng.Draw) (err error) {
	if r.metrics != nil {
		defer func() { r.metrics.RecordAuditWrite(err) }()
	}
	now := r.clock.Now().UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit write: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, env := range envs {
		payload, err := json.Marshal(env.Event)
		if err != nil {
			return fmt.Errorf("encode event %d/%d: %w", env.Tick, env.Seq, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_events (id, run_id, tick, seq, phase, source, kind, payload, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.newID(now), r.runID, env.Tick, env.Seq, env.Phase, env.Source, string(env.Kind()), string(payload), now,
		); err != nil {
			return fmt.Errorf("append event %d/%d: %w", env.Tick, env.Seq, err)
		}
	}
	for _, d := range draws {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO audit_draws (id, run_id, tick, stream, seq, op, value)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.newID(now), r.runID, d.Tick, string(d.Stream), d.Seq, d.Op, d.Value,
		); err != nil {
			return fmt.Errorf("append draw %s/%d: %w", d.Stream, d.Seq, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteAuditRepository) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

const auditColumns = `id, run_id, recorded_at, tick, seq, phase, source, kind, payload`

func (r *SQLiteAuditRepository) EventsBetween(ctx context.Context, from, to uint64) ([]AuditRecord, error) {
	return r.getMany(ctx, `SELECT `+auditColumns+` FROM audit_events WHERE tick BETWEEN ? AND ? ORDER BY tick, seq, id`, from, to)
}

func (r *SQLiteAuditRepository) EventsByKind(ctx context.Context, kind events.Kind) ([]AuditRecord, error) {
	return r.getMany(ctx, `SELECT `+auditColumns+` FROM audit_events WHERE kind = ? ORDER BY tick, seq, id`, string(kind))
}

func (r *SQLiteAuditRepository) getMany(ctx context.Context, query string, args ...any) ([]AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditRecord
	for rows.Next() {
		var (
			rec            AuditRecord
			id, kind, body string
		)
		env := &rec.Envelope
		if err := rows.Scan(&id, &rec.RunID, &rec.RecordedAt, &env.Tick, &env.Seq, &env.Phase, &env.Source, &kind, &body); err != nil {
			return nil, err
		}
		if rec.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("audit id %q: %w", id, err)
		}
		if env.Event, err = events.Decode(events.Kind(kind), []byte(body)); err != nil {
			return nil, fmt.Errorf("audit %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteAuditRepository) DrawsAt(ctx context.Context, tick uint64) ([]rng.Draw, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT stream, tick, seq, op, value FROM audit_draws WHERE tick = ? ORDER BY stream, seq, id`, tick)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []rng.Draw
	for rows.Next() {
		var d rng.Draw
		var stream string
		if err := rows.Scan(&stream, &d.Tick, &d.Seq, &d.Op, &d.Value); err != nil {
			return nil, err
		}
		d.Stream = rng.StreamName(stream)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *SQLiteAuditRepository) LastTick(ctx context.Context) (uint64, bool, error) {
	var tick sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(tick) FROM audit_events`).Scan(&tick); err != nil {
		return 0, false, err
	}
	if !tick.Valid {
		return 0, false, nil
	}
	return uint64(tick.Int64), true, nil
}
