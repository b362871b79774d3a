package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/domain/world"
	"github.com/MRamiBalles/heatcity/internal/platform/storage/sqlitemigrate"
)

func TestInitSQLiteAppliesEmbeddedMigrations(t *testing.T) {
	db := openTestDB(t)

	applied, err := sqlitemigrate.Applied(context.Background(), db)

	require.NoError(t, err)
	assert.Equal(t, []string{"migrations/001_world.sql", "migrations/002_content.sql", "migrations/003_audit.sql"}, applied)
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	// Setup
	ctx := context.Background()
	repo := NewSQLiteWorldRepository(openTestDB(t))
	w := busyCity()

	// Act
	require.NoError(t, repo.Save(ctx, w))
	w.Heat.Locations[world.LocDocks] = 40
	require.NoError(t, repo.Save(ctx, w), "a second save replaces the first")
	loaded, err := repo.Load(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, w.Digest(), loaded.Digest())
	assert.Positive(t, repo.LastSaveSize())
}

func TestSQLiteRepositoryEmpty(t *testing.T) {
	_, err := NewSQLiteWorldRepository(openTestDB(t)).Load(context.Background())
	assert.ErrorIs(t, err, ErrNoWorld)
}

func TestSQLiteRepositoryUpgradesOlderSave(t *testing.T) {
	// Setup: a version 2 store has no story row and no faction proxies.
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSQLiteWorldRepository(db)
	require.NoError(t, repo.Save(ctx, busyCity()))
	_, err := db.Exec(`DELETE FROM world_slices WHERE name = ?`, string(world.SliceStory))
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE world_meta SET save_version = 2, schema_version = 1`)
	require.NoError(t, err)

	// Act
	loaded, err := repo.Load(ctx)

	// Assert
	require.NoError(t, err)
	assert.Len(t, loaded.Story.Pressure, len(content.AllAxes))
	assert.Empty(t, loaded.Story.Flags, "the dropped slice comes back empty")
	assert.Equal(t, 33, loaded.Heat.Locations[world.LocDocks])
	assert.Len(t, loaded.Locations, 5)
}

func TestSQLiteRepositoryRefusesNewerSchema(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewSQLiteWorldRepository(db)
	require.NoError(t, repo.Save(ctx, busyCity()))
	_, err := db.Exec(`UPDATE world_meta SET schema_version = ?`, SchemaVersion+1)
	require.NoError(t, err)

	_, err = repo.Load(ctx)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, StoreSQLite, schemaErr.Store)
	assert.Equal(t, SchemaVersion+1, schemaErr.Found)
}
