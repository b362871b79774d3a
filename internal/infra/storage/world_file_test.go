package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
)

func busyCity() *world.State {
	w := world.NewCity(42)
	w.Time = w.Time.Advance().Advance()
	w.Heat.Locations[world.LocDocks] = 33
	w.Incidents.Cases["case-000001"] = world.Case{ID: "case-000001", LocationID: world.LocDocks, Status: world.CaseOpen, OpenedTick: 1}
	w.Incidents.NextCaseSeq = 1
	w.Evidence.Records[world.LocDocks] = []world.EvidenceRecord{{ID: "ev-000001", LocationID: world.LocDocks, Signature: content.SigKineticStress, Strength: 12, RemainingTicks: 3}}
	w.Story.Flags["press_attention"] = true
	return w
}

func TestFileRepositoryRoundTrip(t *testing.T) {
	// Setup
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "saves", "world.json")
	repo := NewFileWorldRepository(path)
	w := busyCity()

	// Act
	require.NoError(t, repo.Save(ctx, w))
	loaded, err := repo.Load(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, w.Digest(), loaded.Digest())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), repo.LastSaveSize())
}

func TestFileRepositoryLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	repo := NewFileWorldRepository(filepath.Join(dir, "world.json"))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Save(context.Background(), busyCity()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "world.json", entries[0].Name())
}

func TestFileRepositoryFailedSaveKeepsPreviousCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.json")
	repo := NewFileWorldRepository(path)
	require.NoError(t, repo.Save(context.Background(), busyCity()))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, repo.Save(ctx, world.NewCity(1)))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileRepositoryMissingFile(t *testing.T) {
	repo := NewFileWorldRepository(filepath.Join(t.TempDir(), "absent.json"))
	_, err := repo.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoWorld)
}

func TestFileRepositoryRefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 9, "save_version": 3, "world": {}}`), 0o644))

	_, err := NewFileWorldRepository(path).Load(context.Background())

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, StoreFile, schemaErr.Store)
	assert.Equal(t, SchemaVersion, schemaErr.Expected)
	assert.Equal(t, 9, schemaErr.Found)
}

func TestFileRepositoryRefusesNewerSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 2, "save_version": 4, "world": {}}`), 0o644))

	_, err := NewFileWorldRepository(path).Load(context.Background())

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "save_version", schemaErr.Field)
}

func TestFileRepositoryUpgradesBareLegacyDocument(t *testing.T) {
	// Setup: a version 1 save, written before the envelope, the calendar
	// weeks and the story slice existed.
	legacy := `{
		"seed": 7,
		"time": {"tick": 200, "day": 9, "hour": 14},
		"locations": {"loc.docks": {"id": "loc.docks", "name": "Harbor Docks", "district": "Waterfront", "tags": ["INDUSTRIAL"]}},
		"heat": {"locations": {"loc.docks": 12}},
		"factions": {"roster": {"fac.police": {"id": "fac.police", "name": "City Police", "active": true}}}
	}`
	path := filepath.Join(t.TempDir(), "world.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	// Act
	w, err := NewFileWorldRepository(path).Load(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(7), w.Seed)
	assert.Equal(t, 12, w.Heat.Locations[world.LocDocks])
	assert.Equal(t, 2, w.Time.Week)
	assert.Equal(t, 1, w.Time.Month)
	assert.Len(t, w.Story.Pressure, len(content.AllAxes))
	assert.NotNil(t, w.Story.Flags)
	assert.NotNil(t, w.Factions.Roster[world.FactionPolice].Proxies)
	assert.NotNil(t, w.Nemesis.Knowledge)
}
