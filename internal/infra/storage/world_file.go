package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/heatcity/internal/domain/world"
)

// fileEnvelope is the on-disk layout from schema version 2. Version 1 files
// are a bare world document.
type fileEnvelope struct {
	SchemaVersion int             `json:"schema_version"`
	SaveVersion   int             `json:"save_version"`
	SaveID        string          `json:"save_id"`
	SavedAt       time.Time       `json:"saved_at"`
	World         json.RawMessage `json:"world"`
}

// FileWorldRepository keeps the world as one JSON document. Saves go to a
// temp file in the same directory, are fsynced and then renamed over the
// target, so a crash leaves either the old or the new checkpoint.
type FileWorldRepository struct {
	path     string
	now      func() time.Time
	lastSize atomic.Int64
}

// NewFileWorldRepository stores checkpoints at path.
func NewFileWorldRepository(path string) *FileWorldRepository {
	return &FileWorldRepository{path: path, now: time.Now}
}

// Path returns the checkpoint location.
func (r *FileWorldRepository) Path() string { return r.path }

func (r *FileWorldRepository) LastSaveSize() int64 { return r.lastSize.Load() }

func (r *FileWorldRepository) Save(ctx context.Context, w *world.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	raw, err := json.MarshalIndent(fileEnvelope{
		SchemaVersion: SchemaVersion,
		SaveVersion:   SaveVersion,
		SaveID:        uuid.NewString(),
		SavedAt:       r.now().UTC(),
		World:         payload,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := writeAtomic(r.path, raw); err != nil {
		return err
	}
	r.lastSize.Store(int64(len(raw)))
	return nil
}

func (r *FileWorldRepository) Load(ctx context.Context) (*world.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoWorld
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	return decodeFile(raw)
}

func decodeFile(raw []byte) (*world.State, error) {
	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	if err := checkVersions(StoreFile, env.SchemaVersion, env.SaveVersion); err != nil {
		return nil, err
	}

	payload := []byte(env.World)
	save := env.SaveVersion
	if env.SchemaVersion < 2 {
		payload, save = raw, 1
	}
	w := &world.State{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(w); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	upgrade(w, save)
	return w, nil
}

// writeAtomic replaces path with data. The temp file is removed on every
// failure path.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp checkpoint: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	if d, derr := os.Open(dir); derr == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
