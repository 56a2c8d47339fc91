package syncer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modmanager/internal/domain"
)

const week = 7 * 24 * time.Hour

func TestSync_TranslatesForeignItems(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1", "2"}
	f.remote.add(record("1", "更大的背包", t0.Add(-time.Hour)), record("2", "Bigger Backpack", t0.Add(-time.Hour)))

	res, err := f.orchestrator(Options{}).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ScannedCount)
	assert.Len(t, res.SyncedItems, 2)
	assert.Equal(t, 1, res.TranslatedCount)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, f.backend.calls())
	assert.Equal(t, "zh", f.backend.reqs[0].SourceLang)

	zh, err := f.catalog.Get(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, zh.Translation)
	assert.Equal(t, "zh", zh.Language)
	assert.Equal(t, "更大的背包", zh.Title)
	assert.Equal(t, "EN:更大的背包", zh.Translation.TranslatedTitle)
	assert.Equal(t, "更大的背包", zh.Translation.OriginalTitle)
	assert.Equal(t, "en", zh.Translation.TargetLanguage)
	assert.True(t, zh.Translation.LastTranslatedAt.Equal(t0), "translated at %v", zh.Translation.LastTranslatedAt)

	en, err := f.catalog.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "en", en.Language)
	assert.Nil(t, en.Translation)
}

func TestSync_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1", "2", "3"}
	f.remote.add(
		record("1", "更大的背包", t0.Add(-time.Hour)),
		record("2", "无限弹药", t0.Add(-time.Hour)),
		record("3", "Quick Loot", t0.Add(-time.Hour)),
	)
	o := f.orchestrator(Options{})

	first, err := o.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.TranslatedCount)
	calls := f.backend.calls()

	// the decision alone must avoid remote calls, not the cache
	require.NoError(t, f.trans.ClearCache(context.Background()))
	f.clock.Advance(time.Hour)
	second, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.TranslatedCount)
	assert.Len(t, second.SyncedItems, 3)
	assert.Equal(t, calls, f.backend.calls())
}

func TestSync_StalenessBoundaryInclusive(t *testing.T) {
	t.Run("at horizon", func(t *testing.T) {
		f := newFixture(t)
		f.local.ids = []string{"1"}
		f.remote.add(record("1", "更大的背包", t0.Add(-time.Hour)))
		o := f.orchestrator(Options{StaleAfter: week})
		_, err := o.Sync(context.Background())
		require.NoError(t, err)

		f.clock.Set(t0.Add(week))
		res, err := o.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.TranslatedCount)
		assert.Equal(t, 2, f.backend.calls())

		item, err := f.catalog.Get(context.Background(), "1")
		require.NoError(t, err)
		assert.True(t, item.Translation.LastTranslatedAt.Equal(t0.Add(week)))
	})
	t.Run("just inside", func(t *testing.T) {
		f := newFixture(t)
		f.local.ids = []string{"1"}
		f.remote.add(record("1", "更大的背包", t0.Add(-time.Hour)))
		o := f.orchestrator(Options{StaleAfter: week})
		_, err := o.Sync(context.Background())
		require.NoError(t, err)

		f.clock.Set(t0.Add(week - time.Millisecond))
		res, err := o.Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, res.TranslatedCount)
		assert.Equal(t, 1, f.backend.calls())
	})
}

func TestSync_RemoteUpdateRetranslates(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1"}
	f.remote.add(record("1", "更大的背包", t0.Add(-time.Hour)))
	o := f.orchestrator(Options{})
	_, err := o.Sync(context.Background())
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	f.remote.add(record("1", "更大的背包二代", t0.Add(time.Hour)))
	res, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.TranslatedCount)

	item, err := f.catalog.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "EN:更大的背包二代", item.Translation.TranslatedTitle)
}

func TestSync_TranslationFailureKeepsPreviousRecord(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1"}
	f.remote.add(record("1", "更大的背包", t0.Add(-time.Hour)))
	o := f.orchestrator(Options{})
	_, err := o.Sync(context.Background())
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	rec := record("1", "更大的背包", t0.Add(time.Hour))
	rec.Description = "新的描述"
	rec.Subscriptions = 42
	f.remote.add(rec)
	f.backend.set(func(b *fakeBackend) {
		b.err = &domain.TranslationError{Kind: domain.ErrTransient, Status: 503}
	})

	res, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.TranslatedCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "item 1: translate")
	assert.Len(t, res.SyncedItems, 1)

	item, err := f.catalog.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.EqualValues(t, 42, item.Subscriptions)
	assert.Equal(t, "新的描述", item.Description)
	require.NotNil(t, item.Translation)
	assert.Equal(t, "EN:更大的背包", item.Translation.TranslatedTitle)
	assert.True(t, item.Translation.LastTranslatedAt.Equal(t0))
}

func TestSync_QuotaStopsTranslationForThePass(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1", "2", "3"}
	f.remote.add(
		record("1", "更大的背包", t0),
		record("2", "无限弹药", t0),
		record("3", "自动拾取", t0),
	)
	f.backend.err = &domain.TranslationError{Kind: domain.ErrQuotaExceeded, Status: 403, Category: "dailyLimitExceeded"}

	res, err := f.orchestrator(Options{}).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.backend.calls())
	assert.Len(t, res.SyncedItems, 3)
	assert.Equal(t, 0, res.TranslatedCount)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "no further translations")
}

func TestSync_DisabledTranslationReportedOnce(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1", "2"}
	f.remote.add(record("1", "更大的背包", t0), record("2", "无限弹药", t0))
	f.backend.err = &domain.TranslationError{Kind: domain.ErrConfiguration, Status: 401}

	res, err := f.orchestrator(Options{}).Sync(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.SyncedItems, 2)
	assert.Len(t, res.Errors, 1)
}

type unknownDetector struct{}

func (unknownDetector) Detect(string) string { return "" }

func TestSync_UnknownLanguage(t *testing.T) {
	t.Run("backend says default language", func(t *testing.T) {
		f := newFixture(t)
		f.detector = unknownDetector{}
		f.backend.detected = "en"
		f.local.ids = []string{"1"}
		f.remote.add(record("1", "ok", t0))

		res, err := f.orchestrator(Options{}).Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, res.TranslatedCount)
		assert.Equal(t, "", f.backend.reqs[0].SourceLang)

		item, err := f.catalog.Get(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "en", item.Language)
		assert.Nil(t, item.Translation)
	})
	t.Run("backend says foreign", func(t *testing.T) {
		f := newFixture(t)
		f.detector = unknownDetector{}
		f.backend.detected = "de-DE"
		f.local.ids = []string{"1"}
		f.remote.add(record("1", "Rucksack", t0))

		res, err := f.orchestrator(Options{}).Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, res.TranslatedCount)

		item, err := f.catalog.Get(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, "de", item.Language)
		require.NotNil(t, item.Translation)
		assert.Equal(t, "EN:Rucksack", item.Translation.TranslatedTitle)
	})
}

func TestSync_BatchesOfOneHundred(t *testing.T) {
	f := newFixture(t)
	ids, recs := englishItems(150)
	f.local.ids = ids
	f.remote.add(recs...)

	res, err := f.orchestrator(Options{}).Sync(context.Background())
	require.NoError(t, err)
	fetches := f.remote.fetches()
	require.Len(t, fetches, 2)
	assert.Len(t, fetches[0], 100)
	assert.Len(t, fetches[1], 50)
	assert.Len(t, res.SyncedItems, 150)
	assert.Equal(t, 0, f.backend.calls())
}

func TestSync_PartialFailureIsolation(t *testing.T) {
	f := newFixture(t)
	ids, recs := englishItems(250)
	f.local.ids = ids
	f.remote.add(recs...)
	f.remote.failBatch[2] = true

	res, err := f.orchestrator(Options{}).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250, res.ScannedCount)
	assert.Len(t, res.SyncedItems, 150)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "batch 2")
	assert.Contains(t, res.Errors[0], "0100")
	assert.Contains(t, res.Errors[0], "0199")
	assert.Len(t, f.remote.fetches(), 3)

	stored, err := f.catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 150)
}

func TestSync_PerItemErrors(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"a", "b", "a", " "}
	f.remote.add(record("a", "Alpha", t0))

	res, err := f.orchestrator(Options{}).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.ScannedCount)
	assert.Len(t, res.SyncedItems, 1)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "item b")
}

func TestSync_FatalErrors(t *testing.T) {
	t.Run("enumeration", func(t *testing.T) {
		f := newFixture(t)
		f.local.err = errors.New("permission denied")

		res, err := f.orchestrator(Options{}).Sync(context.Background())
		require.ErrorIs(t, err, domain.ErrEnumerationFailed)
		assert.Empty(t, f.remote.fetches())

		run, err := f.runs.Get(context.Background(), res.RunID)
		require.NoError(t, err)
		assert.Equal(t, domain.RunStatusFailed, run.Status)
	})
	t.Run("every batch", func(t *testing.T) {
		f := newFixture(t)
		ids, recs := englishItems(150)
		f.local.ids = ids
		f.remote.add(recs...)
		f.remote.failBatch[1] = true
		f.remote.failBatch[2] = true

		res, err := f.orchestrator(Options{}).Sync(context.Background())
		require.ErrorIs(t, err, domain.ErrCatalogUnreachable)
		assert.Len(t, res.Errors, 2)
		assert.Empty(t, res.SyncedItems)
	})
	t.Run("nothing installed", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.orchestrator(Options{}).Sync(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, res.ScannedCount)
	})
}

func TestSync_CancelDuringFetchKeepsBatch(t *testing.T) {
	f := newFixture(t)
	ids, recs := englishItems(250)
	f.local.ids = ids
	f.remote.add(recs...)
	o := f.orchestrator(Options{})

	f.remote.onFetch = func(n int) {
		if n == 1 {
			running := o.Running()
			require.Len(t, running, 1)
			assert.True(t, o.Cancel(running[0]))
		}
	}
	res, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.Len(t, f.remote.fetches(), 1)
	assert.Len(t, res.SyncedItems, 100)
	assert.Empty(t, res.Errors)
	assert.Empty(t, o.Running())
	assert.False(t, o.Cancel(res.RunID))

	last, err := f.catalog.Get(context.Background(), "0099")
	require.NoError(t, err)
	assert.NotNil(t, last)
	next, err := f.catalog.Get(context.Background(), "0100")
	require.NoError(t, err)
	assert.Nil(t, next)

	run, err := f.runs.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunStatusCanceled, run.Status)
	assert.Equal(t, 100, run.Synced)
}

func TestSync_CancelDuringTranslationKeepsItem(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1", "2"}
	f.remote.add(record("1", "更大的背包", t0.Add(-time.Hour)), record("2", "无限弹药", t0.Add(-time.Hour)))
	o := f.orchestrator(Options{})

	f.backend.onTranslate = func(n int) {
		if n == 1 {
			running := o.Running()
			require.Len(t, running, 1)
			o.Cancel(running[0])
		}
	}
	res, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, f.backend.calls(), "no translation starts after cancel")
	assert.Equal(t, 1, res.TranslatedCount)
	assert.Len(t, res.SyncedItems, 2)

	first, err := f.catalog.Get(context.Background(), "1")
	require.NoError(t, err)
	require.NotNil(t, first.Translation)
	assert.Equal(t, "EN:更大的背包", first.Translation.TranslatedTitle)

	second, err := f.catalog.Get(context.Background(), "2")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "无限弹药", second.Title)
	assert.Nil(t, second.Translation)

	// the untranslated item is picked up by the next pass
	f.backend.onTranslate = nil
	f.clock.Advance(time.Minute)
	again, err := o.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, again.TranslatedCount)
}

func TestSync_RecordsRunAndEvents(t *testing.T) {
	f := newFixture(t)
	f.local.ids = []string{"1", "2"}
	f.remote.add(record("1", "更大的背包", t0), record("2", "Bigger", t0))
	o := f.orchestrator(Options{})
	rec := &recorder{}
	o.SetEmitter(rec)

	res, err := o.Sync(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, rec.events)
	assert.Equal(t, EventStarted, rec.events[0])
	assert.Equal(t, EventDone, rec.events[len(rec.events)-1])
	assert.Equal(t, 2, strings.Count(strings.Join(rec.events, " "), EventItem))
	assert.Contains(t, rec.events, EventBatch)

	run, err := f.runs.Get(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunKindSync, run.Kind)
	assert.Equal(t, domain.RunStatusDone, run.Status)
	assert.Equal(t, 2, run.Scanned)
	assert.Equal(t, 2, run.Synced)
	assert.Equal(t, 1, run.Translated)
}

func TestNeedsTranslation(t *testing.T) {
	now := t0
	translatedAt := func(at time.Time) *domain.CatalogItem {
		return &domain.CatalogItem{ID: "1", Translation: &domain.TranslationRecord{
			OriginalTitle: "x", TranslatedTitle: "y", TargetLanguage: "en", LastTranslatedAt: at,
		}}
	}
	remote := domain.RemoteRecord{ID: "1", UpdatedAt: now.Add(-30 * 24 * time.Hour)}

	cases := []struct {
		name     string
		existing *domain.CatalogItem
		remote   domain.RemoteRecord
		target   string
		want     bool
	}{
		{"never stored", nil, remote, "en", true},
		{"never translated", &domain.CatalogItem{ID: "1"}, remote, "en", true},
		{"no timestamp", translatedAt(time.Time{}), remote, "en", true},
		{"fresh", translatedAt(now.Add(-time.Hour)), remote, "en", false},
		{"remote newer", translatedAt(now.Add(-time.Hour)), domain.RemoteRecord{UpdatedAt: now.Add(-time.Minute)}, "en", true},
		{"remote same instant", translatedAt(now.Add(-time.Hour)), domain.RemoteRecord{UpdatedAt: now.Add(-time.Hour)}, "en", false},
		{"exactly stale", translatedAt(now.Add(-week)), remote, "en", true},
		{"older than stale", translatedAt(now.Add(-week - time.Second)), remote, "en", true},
		{"just inside", translatedAt(now.Add(-week + time.Millisecond)), remote, "en", false},
		{"other target", translatedAt(now.Add(-time.Hour)), remote, "de", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, NeedsTranslation(c.existing, c.remote, c.target, now, week))
		})
	}
}

func TestBaseLanguage(t *testing.T) {
	assert.Equal(t, "zh", baseLanguage("zh-CN"))
	assert.Equal(t, "pt", baseLanguage("PT_br"))
	assert.Equal(t, "", baseLanguage("auto"))
	assert.Equal(t, "", baseLanguage(" "))
}
