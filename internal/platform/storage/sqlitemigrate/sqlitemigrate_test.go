package sqlitemigrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// :memory: is per connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&n))
	return n == 1
}

func TestApplyRecordsEachFileOnce(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	files := fstest.MapFS{
		"002_more.sql":   {Data: []byte("-- +migrate Up\nCREATE TABLE more(id TEXT);\n-- +migrate Down\nDROP TABLE more;")},
		"001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);")},
		"notes.txt":      {Data: []byte("ignored")},
	}

	require.NoError(t, Apply(ctx, db, files, ""))
	require.NoError(t, Apply(ctx, db, files, ""), "second run is a no-op")

	applied, err := Applied(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create.sql", "002_more.sql"}, applied)
	assert.True(t, tableExists(t, db, "items"))
	assert.True(t, tableExists(t, db, "more"))
}

func TestFailedMigrationStaysUnrecorded(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("CREAT TABLE things(id INT);")}}
	require.Error(t, Apply(ctx, db, bad, ""))
	applied, err := Applied(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	good := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE things(id INTEGER PRIMARY KEY);")}}
	require.NoError(t, Apply(ctx, db, good, ""))
	assert.True(t, tableExists(t, db, "things"))
}

func TestApplyKeysByRoot(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	files := fstest.MapFS{"world/001_meta.sql": {Data: []byte("CREATE TABLE meta(k TEXT);")}}

	require.NoError(t, Apply(ctx, db, files, "world"))

	applied, err := Applied(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{"world/001_meta.sql"}, applied)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nA;\n", UpSection("-- +migrate Up\nA;\n-- +migrate Down\nB;"))
	assert.Equal(t, "A;", UpSection("A;"))
}
