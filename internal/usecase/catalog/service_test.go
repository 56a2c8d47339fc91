package catalog

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modmanager/internal/adapters/db/sqlite"
	"modmanager/internal/adapters/exporter/csv"
	"modmanager/internal/adapters/exporter/json"
	"modmanager/internal/adapters/exporter/registry"
	"modmanager/internal/domain"
	"modmanager/internal/testutil"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *sqlite.CatalogRepo) {
	t.Helper()
	db, err := sqlite.Init(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlite.NewCatalogRepo(db)

	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, &domain.CatalogItem{
		ID: "1", Title: "更大的背包", Description: "增加格子", Language: "zh",
		Subscriptions: 10, UpdatedAt: t0.Add(-time.Hour),
		Translation: &domain.TranslationRecord{
			OriginalTitle: "更大的背包", OriginalDescription: "增加格子",
			TranslatedTitle: "Bigger Backpack", TranslatedDescription: "Adds slots",
			TargetLanguage: "en", LastTranslatedAt: t0,
		},
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.CatalogItem{
		ID: "2", Title: "Quick Loot", Language: "en", Subscriptions: 99, UpdatedAt: t0.Add(-30 * 24 * time.Hour),
	}))
	svc := New(repo, registry.New(csv.New(), json.New()), testutil.NewClock(t0), 7*24*time.Hour)
	return svc, repo
}

func TestGetItem_Projection(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	tr, err := svc.GetItem(ctx, "1", true)
	require.NoError(t, err)
	assert.Equal(t, "Bigger Backpack", tr.Title)
	assert.Equal(t, "Adds slots", tr.Description)
	require.NotNil(t, tr.Translation)
	assert.Equal(t, "更大的背包", tr.Translation.OriginalTitle)

	orig, err := svc.GetItem(ctx, "1", false)
	require.NoError(t, err)
	assert.Equal(t, "更大的背包", orig.Title)
	assert.Equal(t, "增加格子", orig.Description)
	assert.Nil(t, orig.Translation)

	plain, err := svc.GetItem(ctx, "2", true)
	require.NoError(t, err)
	assert.Equal(t, "Quick Loot", plain.Title)

	_, err = svc.GetItem(ctx, "404", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearch(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	got, err := svc.Search(ctx, "backpack", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bigger Backpack", got[0].Title)

	got, err = svc.Search(ctx, "背包", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got, err = svc.Search(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID, "most subscribed first")
}

func TestStatistics(t *testing.T) {
	svc, _ := setup(t)
	st, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalItems)
	assert.Equal(t, 1, st.TranslatedItems)
	assert.Equal(t, 1, st.RecentUpdateCount)
	assert.Equal(t, map[string]int{"zh": 1, "en": 1}, st.LanguageBreakdown)
}

func TestExport(t *testing.T) {
	svc, _ := setup(t)
	out, err := svc.Export(context.Background(), "CSV")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Bigger Backpack")

	_, err = svc.Export(context.Background(), "xml")
	assert.ErrorContains(t, err, "csv, json")
}
