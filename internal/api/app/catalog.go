package app

import (
	"context"
	"strings"

	"modmanager/internal/domain"
	"modmanager/internal/ports"
	catalogusecase "modmanager/internal/usecase/catalog"
	"modmanager/internal/usecase/syncer"
	"modmanager/internal/usecase/translator"
)

// CatalogAPI is the surface bound to the frontend and used by the CLI.
type CatalogAPI struct {
	ctx     context.Context
	sync    *syncer.Orchestrator
	catalog *catalogusecase.Service
	trans   *translator.Service
	runs    ports.SyncRunRepository
}

// NewCatalogAPI binds the use cases. Every call runs under ctx, so
// canceling it stops running passes.
func NewCatalogAPI(ctx context.Context, s *syncer.Orchestrator, c *catalogusecase.Service, t *translator.Service, runs ports.SyncRunRepository) *CatalogAPI {
	return &CatalogAPI{ctx: ctx, sync: s, catalog: c, trans: t, runs: runs}
}

func (a *CatalogAPI) Sync() (domain.SyncResult, error) { return a.sync.Sync(a.ctx) }

func (a *CatalogAPI) CancelSync(runID string) bool { return a.sync.Cancel(runID) }

func (a *CatalogAPI) GetItem(id string, includeTranslation bool) (*domain.CatalogItem, error) {
	return a.catalog.GetItem(a.ctx, id, includeTranslation)
}

func (a *CatalogAPI) Search(term string, limit int) ([]domain.CatalogItem, error) {
	return a.catalog.Search(a.ctx, term, limit)
}

func (a *CatalogAPI) RefreshTranslations(languageFilter string) (domain.RefreshResult, error) {
	return a.sync.RefreshTranslations(a.ctx, languageFilter)
}

func (a *CatalogAPI) GetStatistics() (domain.Statistics, error) { return a.catalog.Statistics(a.ctx) }

type CacheStatsResponse struct {
	domain.CacheStats
	TranslationEnabled bool                      `json:"translation_enabled"`
	Budget             translator.BudgetSnapshot `json:"budget"`
}

func (a *CatalogAPI) GetCacheStats() CacheStatsResponse {
	return CacheStatsResponse{
		CacheStats:         a.trans.CacheStats(a.ctx),
		TranslationEnabled: a.trans.Enabled(),
		Budget:             a.trans.Budget().Snapshot(),
	}
}

func (a *CatalogAPI) ClearTranslationCache() error { return a.trans.ClearCache(a.ctx) }

func (a *CatalogAPI) PurgeExpiredTranslations() (int64, error) { return a.trans.PurgeExpired(a.ctx) }

func (a *CatalogAPI) ListSyncRuns(limit int) ([]*domain.SyncRun, error) { return a.runs.List(a.ctx, limit) }

func (a *CatalogAPI) GetSyncRun(id string) (*domain.SyncRun, error) {
	run, err := a.runs.Get(a.ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, domain.ErrNotFound
	}
	return run, nil
}

type ExportResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (a *CatalogAPI) Export(format string) (ExportResponse, error) {
	b, err := a.catalog.Export(a.ctx, format)
	if err != nil {
		return ExportResponse{}, err
	}
	return ExportResponse{Filename: "catalog." + strings.ToLower(format), Content: string(b)}, nil
}
