// Package syncer keeps the local catalog in step with the remote one and
// translates item text that is not in the default language.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"modmanager/internal/domain"
	"modmanager/internal/logging"
	"modmanager/internal/ports"
)

// Translator is the part of the translation service a pass needs.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]domain.Translation, error)
}

type Deps struct {
	Catalog    ports.CatalogRepository
	Remote     ports.RemoteCatalog
	Local      ports.LocalEnumerator
	Translator Translator
	// Runs and Detector are optional.
	Runs     ports.SyncRunRepository
	Detector ports.LanguageDetector
	Clock    ports.Clock
	Logger   logging.Logger
}

type Options struct {
	BatchSize       int
	DefaultLanguage string
	StaleAfter      time.Duration
	// ItemTimeout bounds the translation of a single item.
	ItemTimeout time.Duration
}

func (op *Options) withDefaults() {
	if op.BatchSize <= 0 || op.BatchSize > 100 {
		op.BatchSize = 100
	}
	if op.DefaultLanguage == "" {
		op.DefaultLanguage = "en"
	}
	if op.StaleAfter <= 0 {
		op.StaleAfter = 7 * 24 * time.Hour
	}
	if op.ItemTimeout <= 0 {
		op.ItemTimeout = 2 * time.Minute
	}
}

type Orchestrator struct {
	d   Deps
	o   Options
	log logging.Logger

	mu     sync.Mutex
	active map[string]context.CancelFunc
	em     EventEmitter
}

func New(d Deps, o Options) *Orchestrator {
	o.withDefaults()
	if d.Clock == nil {
		d.Clock = ports.SystemClock
	}
	if d.Logger == nil {
		d.Logger = logging.NoOp()
	}
	return &Orchestrator{d: d, o: o, log: d.Logger.With("component", "syncer"), active: map[string]context.CancelFunc{}}
}

// Cancel stops a running pass. It reports false when no pass has that id.
func (o *Orchestrator) Cancel(runID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if cancel, ok := o.active[runID]; ok {
		cancel()
		delete(o.active, runID)
		return true
	}
	return false
}

// Running lists the ids of passes in progress.
func (o *Orchestrator) Running() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := make([]string, 0, len(o.active))
	for id := range o.active {
		ids = append(ids, id)
	}
	return ids
}

func (o *Orchestrator) track(ctx context.Context, runID string) (context.Context, func()) {
	cctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.active[runID] = cancel
	o.mu.Unlock()
	return cctx, func() {
		o.mu.Lock()
		delete(o.active, runID)
		o.mu.Unlock()
		cancel()
	}
}

// pass holds the state of one sync run.
type pass struct {
	res        domain.SyncResult
	now        time.Time
	stopped    bool // no further translation attempts this pass
	canceled   bool
	batches    int
	failedNets int
}

func (p *pass) fail(format string, args ...any) {
	p.res.Errors = append(p.res.Errors, fmt.Sprintf(format, args...))
}

// Sync runs one pass: list installed items, fetch their details in batches,
// translate what needs it and store the result. It returns an error only
// when local enumeration fails or every batch fails to reach the catalog;
// everything else is reported in SyncResult.Errors.
func (o *Orchestrator) Sync(ctx context.Context) (domain.SyncResult, error) {
	p := &pass{now: o.d.Clock.Now()}
	p.res = domain.SyncResult{RunID: uuid.NewString(), StartedAt: p.now, SyncedItems: []domain.CatalogItem{}, Errors: []string{}}
	ctx, done := o.track(ctx, p.res.RunID)
	defer done()
	log := o.log.With("run_id", p.res.RunID)
	o.startRun(ctx, domain.RunKindSync, p.res.RunID, p.now)

	ids, err := o.d.Local.ListLocalIdentifiers(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrEnumerationFailed, err)
		p.fail("%v", err)
		log.Error(ctx, "sync aborted", "error", err)
		return o.finishSync(ctx, p, domain.RunStatusFailed), err
	}
	ids = dedupe(ids)
	p.res.ScannedCount = len(ids)
	log.Info(ctx, "sync started", "items", len(ids), "batch_size", o.o.BatchSize)
	o.emit(EventStarted, map[string]any{"run_id": p.res.RunID, "total": len(ids)})

	for start := 0; start < len(ids); start += o.o.BatchSize {
		if ctx.Err() != nil {
			break
		}
		batch := ids[start:min(start+o.o.BatchSize, len(ids))]
		p.batches++
		o.syncBatch(ctx, p, p.batches, batch)
		o.emit(EventBatch, map[string]any{"run_id": p.res.RunID, "batch": p.batches, "done": min(start+len(batch), len(ids)), "total": len(ids)})
	}

	if ctx.Err() != nil {
		p.res.Canceled = true
		log.Info(ctx, "sync canceled", "synced", len(p.res.SyncedItems))
		return o.finishSync(ctx, p, domain.RunStatusCanceled), nil
	}
	if p.batches > 0 && p.failedNets == p.batches {
		err := fmt.Errorf("%w: all %d batches failed", domain.ErrCatalogUnreachable, p.batches)
		log.Error(ctx, "sync failed", "error", err)
		return o.finishSync(ctx, p, domain.RunStatusFailed), err
	}
	log.Info(ctx, "sync finished",
		"scanned", p.res.ScannedCount, "synced", len(p.res.SyncedItems),
		"translated", p.res.TranslatedCount, "errors", len(p.res.Errors))
	return o.finishSync(ctx, p, domain.RunStatusDone), nil
}

// syncBatch fetches and stores one batch. Remote calls and store writes run
// on a context detached from cancellation, so a call already in flight
// completes and its result is kept; ctx is only checked between items. Once
// the pass is canceled the remaining fetched records are stored without
// starting new translations.
func (o *Orchestrator) syncBatch(ctx context.Context, p *pass, n int, ids []string) {
	callCtx := context.WithoutCancel(ctx)
	results, err := o.d.Remote.FetchDetails(callCtx, ids)
	if err != nil {
		p.failedNets++
		p.fail("batch %d [%s]: %v", n, strings.Join(ids, ", "), err)
		o.log.Warn(ctx, "catalog batch failed", "batch", n, "items", len(ids), "error", err)
		return
	}
	existing, err := o.d.Catalog.GetMany(callCtx, ids)
	if err != nil {
		p.fail("batch %d [%s]: load stored items: %v", n, strings.Join(ids, ", "), err)
		return
	}
	for _, r := range results {
		if ctx.Err() != nil {
			p.canceled = true
		}
		if !r.OK() {
			err := r.Err
			if err == nil {
				err = domain.ErrRecordUnavailable
			}
			p.fail("item %s: %v", r.ID, err)
			o.emit(EventItem, map[string]any{"run_id": p.res.RunID, "id": r.ID, "error": err.Error()})
			continue
		}
		item, translated, err := o.syncItem(callCtx, p, *r.Record, existing[r.ID])
		payload := map[string]any{"run_id": p.res.RunID, "id": r.ID, "translated": translated}
		if err != nil {
			payload["error"] = err.Error()
		}
		o.emit(EventItem, payload)
		if item == nil {
			continue
		}
		p.res.SyncedItems = append(p.res.SyncedItems, *item)
		if translated {
			p.res.TranslatedCount++
		}
	}
}

// syncItem merges a fetched record into the catalog, translating it when
// required. A translation failure keeps the previous translation and still
// stores the fresh metadata.
func (o *Orchestrator) syncItem(ctx context.Context, p *pass, rec domain.RemoteRecord, existing *domain.CatalogItem) (*domain.CatalogItem, bool, error) {
	item := &domain.CatalogItem{
		ID:            rec.ID,
		Title:         rec.Title,
		Description:   rec.Description,
		Creator:       rec.Creator,
		Rating:        rec.Rating,
		Subscriptions: rec.Subscriptions,
		Tags:          rec.Tags,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		Language:      o.detect(rec, existing),
		SyncedAt:      p.now,
	}
	if existing != nil && existing.Translation != nil {
		tr := *existing.Translation
		item.Translation = &tr
	}

	var (
		translated bool
		itemErr    error
	)
	switch {
	case item.Language == o.o.DefaultLanguage:
		item.Translation = nil
	case p.stopped, p.canceled:
	case NeedsTranslation(existing, rec, o.o.DefaultLanguage, p.now, o.o.StaleAfter):
		itemErr = o.translate(ctx, item, p.now)
		switch {
		case itemErr == nil:
			translated = item.Translation != nil
		case domain.StopsTranslation(itemErr):
			p.stopped = true
			p.fail("item %s: translate: %v; no further translations this pass", rec.ID, itemErr)
		default:
			p.fail("item %s: translate: %v", rec.ID, itemErr)
		}
	}

	if err := o.d.Catalog.Upsert(ctx, item); err != nil {
		p.fail("item %s: store: %v", rec.ID, err)
		return nil, false, err
	}
	return item, translated, itemErr
}

// translate fills item.Translation from its current title and description.
// When the backend finds the text is already in the default language the
// item keeps no translation.
func (o *Orchestrator) translate(ctx context.Context, item *domain.CatalogItem, now time.Time) error {
	src := item.Language
	tctx, cancel := context.WithTimeout(ctx, o.o.ItemTimeout)
	defer cancel()
	out, err := o.d.Translator.TranslateBatch(tctx, []string{item.Title, item.Description}, src, o.o.DefaultLanguage)
	if err != nil {
		return err
	}
	if item.Language == "" {
		item.Language = detectedOf(out)
	}
	if item.Language == o.o.DefaultLanguage {
		item.Translation = nil
		return nil
	}
	item.Translation = &domain.TranslationRecord{
		OriginalTitle:         item.Title,
		OriginalDescription:   item.Description,
		TranslatedTitle:       out[0].Text,
		TranslatedDescription: out[1].Text,
		TargetLanguage:        o.o.DefaultLanguage,
		LastTranslatedAt:      now,
	}
	return nil
}

func (o *Orchestrator) detect(rec domain.RemoteRecord, existing *domain.CatalogItem) string {
	var lang string
	if o.d.Detector != nil {
		lang = o.d.Detector.Detect(rec.Title + "\n" + rec.Description)
	}
	// a backend-detected language survives while the text is unchanged
	if lang == "" && existing != nil && existing.Title == rec.Title && existing.Description == rec.Description {
		lang = existing.Language
	}
	return lang
}

func detectedOf(out []domain.Translation) string {
	for _, t := range out {
		if d := baseLanguage(t.DetectedLanguage); d != "" {
			return d
		}
	}
	return ""
}

// baseLanguage trims region and script subtags: "zh-CN" becomes "zh".
func baseLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if code == domain.AutoLanguage {
		return ""
	}
	return code
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (o *Orchestrator) startRun(ctx context.Context, kind, id string, at time.Time) {
	if o.d.Runs == nil {
		return
	}
	run := &domain.SyncRun{ID: id, Kind: kind, Status: domain.RunStatusRunning, StartedAt: at}
	if err := o.d.Runs.Create(ctx, run); err != nil {
		o.log.Warn(ctx, "cannot record sync run", "run_id", id, "error", err)
	}
}

func (o *Orchestrator) finishRun(ctx context.Context, run *domain.SyncRun) {
	if o.d.Runs == nil {
		return
	}
	// the pass context may already be canceled
	if err := o.d.Runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		o.log.Warn(ctx, "cannot record sync run", "run_id", run.ID, "error", err)
	}
}

func (o *Orchestrator) finishSync(ctx context.Context, p *pass, status string) domain.SyncResult {
	p.res.FinishedAt = o.d.Clock.Now()
	o.finishRun(ctx, &domain.SyncRun{
		ID:         p.res.RunID,
		Kind:       domain.RunKindSync,
		Status:     status,
		Scanned:    p.res.ScannedCount,
		Synced:     len(p.res.SyncedItems),
		Translated: p.res.TranslatedCount,
		Errors:     p.res.Errors,
		StartedAt:  p.res.StartedAt,
		FinishedAt: p.res.FinishedAt,
	})
	o.emit(EventDone, map[string]any{
		"run_id": p.res.RunID, "status": status, "synced": len(p.res.SyncedItems),
		"translated": p.res.TranslatedCount, "errors": len(p.res.Errors),
	})
	return p.res
}
