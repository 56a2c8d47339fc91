package ports

import (
	"context"
	"time"

	"modmanager/internal/domain"
)

// TranslationCacheRepository is the persistent translation cache.
// Get returns nil, nil for a missing or expired key.
type TranslationCacheRepository interface {
	Get(ctx context.Context, key domain.CacheKey) (*domain.TranslationCacheEntry, error)
	Put(ctx context.Context, key domain.CacheKey, tr domain.Translation, ttl time.Duration) error
	PurgeExpired(ctx context.Context) (int64, error)
	Clear(ctx context.Context) (int64, error)
	Count(ctx context.Context) (int, error)
}

type CatalogRepository interface {
	Get(ctx context.Context, id string) (*domain.CatalogItem, error)
	GetMany(ctx context.Context, ids []string) (map[string]*domain.CatalogItem, error)
	Upsert(ctx context.Context, item *domain.CatalogItem) error
	Search(ctx context.Context, term string, limit int) ([]*domain.CatalogItem, error)
	ListByLanguage(ctx context.Context, exclude string, only string) ([]*domain.CatalogItem, error)
	List(ctx context.Context) ([]*domain.CatalogItem, error)
	Statistics(ctx context.Context, recentSince time.Time) (domain.Statistics, error)
}

type SyncRunRepository interface {
	Create(ctx context.Context, run *domain.SyncRun) error
	Finish(ctx context.Context, run *domain.SyncRun) error
	Get(ctx context.Context, id string) (*domain.SyncRun, error)
	List(ctx context.Context, limit int) ([]*domain.SyncRun, error)
}
