// Package bootstrap assembles the application from configuration; the
// desktop shell and the CLI share it.
package bootstrap

import (
	"context"
	"database/sql"

	dbsqlite "modmanager/internal/adapters/db/sqlite"
	expcsv "modmanager/internal/adapters/exporter/csv"
	expjson "modmanager/internal/adapters/exporter/json"
	exportreg "modmanager/internal/adapters/exporter/registry"
	"modmanager/internal/adapters/langdetect"
	"modmanager/internal/adapters/memcache"
	"modmanager/internal/adapters/steam"
	"modmanager/internal/adapters/translation/factory"
	apiapp "modmanager/internal/api/app"
	"modmanager/internal/config"
	"modmanager/internal/logging"
	"modmanager/internal/ports"
	catalogusecase "modmanager/internal/usecase/catalog"
	"modmanager/internal/usecase/syncer"
	"modmanager/internal/usecase/translator"
)

// Overrides replaces adapters that would otherwise be built from config.
type Overrides struct {
	Remote  ports.RemoteCatalog
	Local   ports.LocalEnumerator
	Backend ports.TranslationBackend
	Clock   ports.Clock
}

type App struct {
	Config     *config.Config
	Logger     logging.Logger
	DB         *sql.DB
	Translator *translator.Service
	Syncer     *syncer.Orchestrator
	Catalog    *catalogusecase.Service
	API        *apiapp.CatalogAPI
}

func Build(ctx context.Context, cfg *config.Config, log logging.Logger, ov Overrides) (*App, error) {
	if log == nil {
		log = logging.NoOp()
	}
	clock := ov.Clock
	if clock == nil {
		clock = ports.SystemClock
	}
	db, err := dbsqlite.Init(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	cacheRepo := dbsqlite.NewCacheRepo(db)
	catalogRepo := dbsqlite.NewCatalogRepo(db)
	runRepo := dbsqlite.NewSyncRunRepo(db)
	for _, r := range []*dbsqlite.Repo{cacheRepo.Repo, catalogRepo.Repo, runRepo.Repo} {
		r.Clock = clock
	}

	backend := ov.Backend
	if backend == nil {
		backend = factory.FromConfig(cfg)
	}
	if backend == nil {
		log.Warn(ctx, "translation disabled: no credentials configured", "provider", cfg.Translation.Provider)
	}
	trans := translator.New(translator.Deps{
		Backend: backend,
		Memory:  memcache.New(cfg.Cache.MemoryTTL, clock),
		Store:   cacheRepo,
		Clock:   clock,
		Logger:  log,
	}, translator.Options{
		PerSecond:   cfg.Translation.PerSecond,
		PerMinute:   cfg.Translation.PerMinute,
		MinInterval: cfg.Translation.MinInterval,
		MaxRetries:  cfg.Translation.MaxRetries,
		BaseBackoff: cfg.Translation.BaseBackoff,
		StoreTTL:    cfg.CacheTTL(),
		BatchLimit:  cfg.Translation.BatchLimit,
	})

	remote := ov.Remote
	if remote == nil {
		remote = steam.NewCatalog(cfg.Catalog.Endpoint, cfg.Catalog.APIKey, cfg.Catalog.Timeout)
	}
	local := ov.Local
	if local == nil {
		local = steam.NewWorkshop(cfg.Catalog.WorkshopDir, cfg.Catalog.AppID)
	}
	orch := syncer.New(syncer.Deps{
		Catalog:    catalogRepo,
		Remote:     remote,
		Local:      local,
		Translator: trans,
		Runs:       runRepo,
		Detector:   langdetect.New(),
		Clock:      clock,
		Logger:     log,
	}, syncer.Options{
		BatchSize:       cfg.Catalog.BatchSize,
		DefaultLanguage: cfg.DefaultLanguage,
		StaleAfter:      cfg.StaleAfter(),
		ItemTimeout:     cfg.Translation.Timeout * 2,
	})

	catalog := catalogusecase.New(catalogRepo, exportreg.New(expcsv.New(), expjson.New()), clock, cfg.Stats.RecentWindow)

	return &App{
		Config:     cfg,
		Logger:     log,
		DB:         db,
		Translator: trans,
		Syncer:     orch,
		Catalog:    catalog,
		API:        apiapp.NewCatalogAPI(ctx, orch, catalog, trans, runRepo),
	}, nil
}

// StartMaintenance sweeps expired cache entries until ctx is done.
func (a *App) StartMaintenance(ctx context.Context) {
	go a.Translator.RunMaintenance(ctx, a.Config.Cache.SweepInterval)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
