package syncer

import (
	"time"

	"modmanager/internal/domain"
)

// NeedsTranslation decides whether an item must be (re)translated during a
// pass at now. A translation at exactly the staleness horizon is stale.
func NeedsTranslation(existing *domain.CatalogItem, remote domain.RemoteRecord, targetLang string, now time.Time, staleAfter time.Duration) bool {
	if existing == nil || existing.Translation == nil {
		return true
	}
	tr := existing.Translation
	if tr.LastTranslatedAt.IsZero() {
		return true
	}
	if tr.TargetLanguage != "" && tr.TargetLanguage != targetLang {
		return true
	}
	if remote.UpdatedAt.After(tr.LastTranslatedAt) {
		return true
	}
	return !tr.LastTranslatedAt.After(now.Add(-staleAfter))
}
