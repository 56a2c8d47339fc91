package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/stretchr/testify/require"

	"modmanager/internal/adapters/db/sqlite"
	"modmanager/internal/adapters/memcache"
	"modmanager/internal/domain"
	"modmanager/internal/ports"
	"modmanager/internal/testutil"
	"modmanager/internal/usecase/translator"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeBackend prefixes every text and reports a fixed detected language.
// Like an HTTP client it fails with the context error once ctx is done.
type fakeBackend struct {
	mu          sync.Mutex
	prefix      string
	detected    string
	err         error
	reqs        []ports.TranslateRequest
	onTranslate func(n int)
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Translate(ctx context.Context, req ports.TranslateRequest) ([]domain.Translation, error) {
	b.mu.Lock()
	b.reqs = append(b.reqs, req)
	n, hook := len(b.reqs), b.onTranslate
	b.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	out := make([]domain.Translation, len(req.Texts))
	for i, t := range req.Texts {
		out[i] = domain.Translation{Text: b.prefix + t, DetectedLanguage: b.detected}
	}
	return out, nil
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reqs)
}

func (b *fakeBackend) set(fn func(b *fakeBackend)) {
	b.mu.Lock()
	fn(b)
	b.mu.Unlock()
}

// fakeRemote serves records from a map; ids it does not know come back as
// not found. Batches listed in failBatch fail as a whole.
type fakeRemote struct {
	mu        sync.Mutex
	records   map[string]domain.RemoteRecord
	failBatch map[int]bool
	calls     [][]string
	onFetch   func(n int)
}

func newRemote() *fakeRemote {
	return &fakeRemote{records: map[string]domain.RemoteRecord{}, failBatch: map[int]bool{}}
}

func (r *fakeRemote) add(recs ...domain.RemoteRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range recs {
		r.records[rec.ID] = rec
	}
}

func (r *fakeRemote) FetchDetails(ctx context.Context, ids []string) ([]domain.FetchResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), ids...))
	n := len(r.calls)
	fail := r.failBatch[n]
	hook := r.onFetch
	r.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if fail {
		return nil, fmt.Errorf("connection reset")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.FetchResult, 0, len(ids))
	for _, id := range ids {
		if rec, ok := r.records[id]; ok {
			out = append(out, domain.Fetched(rec))
		} else {
			out = append(out, domain.FetchFailed(id, 9))
		}
	}
	return out, nil
}

func (r *fakeRemote) fetches() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeLocal struct {
	ids []string
	err error
}

func (l fakeLocal) ListLocalIdentifiers(context.Context) ([]string, error) { return l.ids, l.err }

// scriptDetector calls any text with a Han character "zh" and plain ASCII
// "en"; anything else is unknown.
type scriptDetector struct{}

func (scriptDetector) Detect(text string) string {
	ascii := true
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return "zh"
		}
		if r > unicode.MaxASCII {
			ascii = false
		}
	}
	if ascii && text != "" && text != "\n" {
		return "en"
	}
	return ""
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Emit(name string, _ any) {
	r.mu.Lock()
	r.events = append(r.events, name)
	r.mu.Unlock()
}

type fixture struct {
	clock    *testutil.Clock
	catalog  *sqlite.CatalogRepo
	runs     *sqlite.SyncRunRepo
	backend  *fakeBackend
	remote   *fakeRemote
	trans    *translator.Service
	local    *fakeLocal
	detector ports.LanguageDetector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Init(context.Background(), filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		clock:    testutil.NewClock(t0),
		catalog:  sqlite.NewCatalogRepo(db),
		runs:     sqlite.NewSyncRunRepo(db),
		backend:  &fakeBackend{prefix: "EN:", detected: "zh"},
		remote:   newRemote(),
		local:    &fakeLocal{},
		detector: scriptDetector{},
	}
	f.runs.Clock = f.clock
	f.catalog.Clock = f.clock
	f.trans = translator.New(translator.Deps{
		Backend: f.backend,
		Memory:  memcache.New(time.Hour, f.clock),
		Clock:   f.clock,
	}, translator.Options{PerSecond: 1000, PerMinute: 100000})
	return f
}

func (f *fixture) orchestrator(opts Options) *Orchestrator {
	return New(Deps{
		Catalog:    f.catalog,
		Remote:     f.remote,
		Local:      f.local,
		Translator: f.trans,
		Runs:       f.runs,
		Detector:   f.detector,
		Clock:      f.clock,
	}, opts)
}

func record(id, title string, updated time.Time) domain.RemoteRecord {
	return domain.RemoteRecord{ID: id, Title: title, Description: "", CreatedAt: updated, UpdatedAt: updated}
}

func englishItems(n int) ([]string, []domain.RemoteRecord) {
	ids := make([]string, n)
	recs := make([]domain.RemoteRecord, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%04d", i)
		recs[i] = record(ids[i], "Mod "+ids[i], t0.Add(-time.Hour))
	}
	return ids, recs
}
