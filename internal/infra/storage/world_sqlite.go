package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
)

// SQLiteWorldRepository stores the world as one row per slice plus one row
// per location. A save replaces all rows in a single transaction.
type SQLiteWorldRepository struct {
	db       *sql.DB
	now      func() time.Time
	lastSize atomic.Int64
}

func NewSQLiteWorldRepository(db *sql.DB) *SQLiteWorldRepository {
	return &SQLiteWorldRepository{db: db, now: time.Now}
}

func (r *SQLiteWorldRepository) LastSaveSize() int64 { return r.lastSize.Load() }

func (r *SQLiteWorldRepository) Save(ctx context.Context, w *world.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var size int64
	_, err = tx.ExecContext(ctx, `
		INSERT INTO world_meta (id, seed, tick, schema_version, save_version, save_id, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			seed = excluded.seed, tick = excluded.tick,
			schema_version = excluded.schema_version, save_version = excluded.save_version,
			save_id = excluded.save_id, saved_at = excluded.saved_at`,
		w.Seed, w.Time.Tick, SchemaVersion, SaveVersion, uuid.NewString(), r.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write world meta: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM world_locations`); err != nil {
		return fmt.Errorf("clear locations: %w", err)
	}
	for _, id := range w.SortedLocationIDs() {
		raw, err := json.Marshal(w.Locations[id])
		if err != nil {
			return fmt.Errorf("encode location %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO world_locations (location_id, payload) VALUES (?, ?)`, string(id), string(raw),
		); err != nil {
			return fmt.Errorf("write location %s: %w", id, err)
		}
		size += int64(len(raw))
	}

	for _, name := range world.AllSlices {
		raw, err := w.SliceJSON(name)
		if err != nil {
			return fmt.Errorf("encode slice %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO world_slices (name, payload) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET payload = excluded.payload`,
			string(name), string(raw),
		); err != nil {
			return fmt.Errorf("write slice %s: %w", name, err)
		}
		size += int64(len(raw))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	r.lastSize.Store(size)
	return nil
}

func (r *SQLiteWorldRepository) Load(ctx context.Context) (*world.State, error) {
	var seed int64
	var schema, save int
	err := r.db.QueryRowContext(ctx,
		`SELECT seed, schema_version, save_version FROM world_meta WHERE id = 1`,
	).Scan(&seed, &schema, &save)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoWorld
	}
	if err != nil {
		return nil, fmt.Errorf("read world meta: %w", err)
	}
	if err := checkVersions(StoreSQLite, schema, save); err != nil {
		return nil, err
	}

	w := &world.State{Seed: seed, Locations: make(map[ids.LocationID]world.Location)}
	if err := r.loadLocations(ctx, w); err != nil {
		return nil, err
	}
	if err := r.loadSlices(ctx, w); err != nil {
		return nil, err
	}
	upgrade(w, save)
	return w, nil
}

func (r *SQLiteWorldRepository) loadLocations(ctx context.Context, w *world.State) error {
	rows, err := r.db.QueryContext(ctx, `SELECT location_id, payload FROM world_locations ORDER BY location_id`)
	if err != nil {
		return fmt.Errorf("read locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return err
		}
		var loc world.Location
		if err := json.Unmarshal([]byte(payload), &loc); err != nil {
			return fmt.Errorf("decode location %s: %w", id, err)
		}
		w.Locations[ids.LocationID(id)] = loc
	}
	return rows.Err()
}

// loadSlices decodes the rows that exist. Slices missing from older stores
// keep their zero value until upgrade fills them.
func (r *SQLiteWorldRepository) loadSlices(ctx context.Context, w *world.State) error {
	rows, err := r.db.QueryContext(ctx, `SELECT name, payload FROM world_slices`)
	if err != nil {
		return fmt.Errorf("read slices: %w", err)
	}
	defer rows.Close()

	known := make(map[world.SliceName]bool, len(world.AllSlices))
	for _, name := range world.AllSlices {
		known[name] = true
	}
	for rows.Next() {
		var name, payload string
		if err := rows.Scan(&name, &payload); err != nil {
			return err
		}
		if !known[world.SliceName(name)] {
			continue
		}
		if err := w.SetSliceJSON(world.SliceName(name), []byte(payload)); err != nil {
			return fmt.Errorf("decode slice %s: %w", name, err)
		}
	}
	return rows.Err()
}
