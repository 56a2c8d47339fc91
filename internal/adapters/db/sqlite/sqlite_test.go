package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"modmanager/internal/testutil"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func withClock(r *Repo) *testutil.Clock {
	c := testutil.NewClock(t0)
	r.Clock = c
	return c
}

func TestInit_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "app.db")
	db, err := Init(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Init(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('catalog_items','translation_cache','sync_runs','sync_run_errors')`).Scan(&n))
	require.Equal(t, 4, n)
}
