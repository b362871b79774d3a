package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/content"
	"github.com/MRamiBalles/heatcity/internal/platform/logger"
)

func TestContentStoreServesSeededCatalog(t *testing.T) {
	// Setup
	ctx := context.Background()
	db := openTestDB(t)
	seeded, err := SeedDefaultContent(ctx, db)
	require.NoError(t, err)
	require.True(t, seeded)
	again, err := SeedDefaultContent(ctx, db)
	require.NoError(t, err)
	assert.False(t, again, "a populated store is left alone")

	// Act
	store, err := OpenSQLiteContent(ctx, db, 8, logger.Discard())
	require.NoError(t, err)

	// Assert
	catalog := content.MustDefaultCatalog()
	want, _ := catalog.GetPower(content.PowerKinetic)
	got, ok := store.GetPower(content.PowerKinetic)
	require.True(t, ok)
	assert.Equal(t, want, got)

	wantExpr, _ := catalog.GetExpression(content.ExprKineticShove)
	gotExpr, ok := store.GetExpression(content.ExprKineticShove)
	require.True(t, ok)
	assert.Equal(t, wantExpr, gotExpr)

	assert.Equal(t, catalog.Storylets(), store.Storylets())
	assert.Equal(t, catalog.NemesisActions(), store.NemesisActions())
	assert.Equal(t, 2, store.CacheLen())

	_, ok = store.GetPower("pow.unknown")
	assert.False(t, ok)
	assert.Equal(t, 2, store.CacheLen(), "misses are not cached")
}

func TestContentStoreListsAreCopies(t *testing.T) {
	// Setup
	ctx := context.Background()
	db := openTestDB(t)
	_, err := SeedDefaultContent(ctx, db)
	require.NoError(t, err)
	store, err := OpenSQLiteContent(ctx, db, 8, logger.Discard())
	require.NoError(t, err)
	storylets := store.Storylets()
	actions := store.NemesisActions()
	require.NotEmpty(t, storylets)
	require.NotEmpty(t, actions)
	firstStorylet, firstAction := storylets[0].ID, actions[0].ID

	// Act
	storylets[0].ID = "story.tampered"
	actions[0].ID = "nem.tampered"

	// Assert
	assert.Equal(t, firstStorylet, store.Storylets()[0].ID)
	assert.Equal(t, firstAction, store.NemesisActions()[0].ID)
}

func TestContentStoreRejectsBrokenReferences(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	set := content.DefaultSet()
	set.Expressions = append(set.Expressions, content.Expression{ID: "expr.orphan", PowerID: "pow.missing", Name: "Orphan"})
	require.NoError(t, WriteContentSet(ctx, db, set))

	_, err := OpenSQLiteContent(ctx, db, 0, logger.Discard())

	var integrity *content.IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.NotEmpty(t, integrity.Problems)
}
