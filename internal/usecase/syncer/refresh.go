package syncer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"modmanager/internal/domain"
)

// RefreshTranslations retranslates every stored item that is not in the
// default language, ignoring staleness. An empty languageFilter selects all
// such items; otherwise only items detected as that language. Cached
// translations are reused, so refreshing unchanged text costs no remote calls.
func (o *Orchestrator) RefreshTranslations(ctx context.Context, languageFilter string) (domain.RefreshResult, error) {
	now := o.d.Clock.Now()
	res := domain.RefreshResult{RunID: uuid.NewString(), Errors: []string{}}
	ctx, done := o.track(ctx, res.RunID)
	defer done()
	log := o.log.With("run_id", res.RunID)
	o.startRun(ctx, domain.RunKindRefresh, res.RunID, now)

	filter := baseLanguage(languageFilter)
	items, err := o.d.Catalog.ListByLanguage(ctx, o.o.DefaultLanguage, filter)
	if err != nil {
		err = fmt.Errorf("list items to refresh: %w", err)
		res.Errors = append(res.Errors, err.Error())
		o.finishRefresh(ctx, &res, 0, 0, domain.RunStatusFailed)
		return res, err
	}
	log.Info(ctx, "refresh started", "items", len(items), "language", filter)
	o.emit(EventStarted, map[string]any{"run_id": res.RunID, "total": len(items), "kind": domain.RunKindRefresh})

	// an item whose translation has started is finished and stored even if
	// the refresh is canceled meanwhile
	callCtx := context.WithoutCancel(ctx)
	status := domain.RunStatusDone
	translated := 0
	for i, it := range items {
		if ctx.Err() != nil {
			status = domain.RunStatusCanceled
			break
		}
		orig := it.Original()
		err := o.translate(callCtx, &orig, now)
		if err == nil {
			err = o.d.Catalog.Upsert(callCtx, &orig)
		}
		if err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, fmt.Sprintf("item %s: %v", it.ID, err))
			o.emit(EventItem, map[string]any{"run_id": res.RunID, "id": it.ID, "error": err.Error()})
			if domain.StopsTranslation(err) {
				rest := len(items) - i - 1
				res.ErrorCount += rest
				res.Errors = append(res.Errors, fmt.Sprintf("translation stopped, %d items not attempted", rest))
				break
			}
			continue
		}
		res.SuccessCount++
		if orig.Translation != nil {
			translated++
		}
		o.emit(EventItem, map[string]any{"run_id": res.RunID, "id": it.ID, "translated": orig.Translation != nil})
	}
	log.Info(ctx, "refresh finished", "status", status, "ok", res.SuccessCount, "failed", res.ErrorCount)
	o.finishRefresh(ctx, &res, len(items), translated, status)
	return res, nil
}

func (o *Orchestrator) finishRefresh(ctx context.Context, res *domain.RefreshResult, scanned, translated int, status string) {
	o.finishRun(ctx, &domain.SyncRun{
		ID:         res.RunID,
		Kind:       domain.RunKindRefresh,
		Status:     status,
		Scanned:    scanned,
		Synced:     res.SuccessCount,
		Translated: translated,
		Errors:     res.Errors,
		FinishedAt: o.d.Clock.Now(),
	})
	o.emit(EventDone, map[string]any{
		"run_id": res.RunID, "kind": domain.RunKindRefresh, "status": status,
		"ok": res.SuccessCount, "errors": res.ErrorCount,
	})
}
