package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitSQLite(context.Background(), filepath.Join(t.TempDir(), "heatcity.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
