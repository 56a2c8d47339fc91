package translator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"modmanager/internal/domain"
	"modmanager/internal/logging"
	"modmanager/internal/ports"
)

// Tier is one cache layer. Tiers are consulted in order; a hit in a later
// tier is copied into the earlier ones.
type Tier interface {
	Name() string
	Lookup(ctx context.Context, key domain.CacheKey) (domain.Translation, bool)
	Store(ctx context.Context, key domain.CacheKey, tr domain.Translation)
}

// MemoryCache is the process-local cache the memory tier wraps.
type MemoryCache interface {
	Get(key domain.CacheKey) (domain.Translation, bool)
	Set(key domain.CacheKey, value domain.Translation, ttl time.Duration)
	Clear()
	Len() int
	ApproxSize() int64
	Sweep() int
}

type memoryTier struct {
	cache MemoryCache
}

func (t memoryTier) Name() string { return "memory" }

func (t memoryTier) Lookup(_ context.Context, key domain.CacheKey) (domain.Translation, bool) {
	return t.cache.Get(key)
}

func (t memoryTier) Store(_ context.Context, key domain.CacheKey, tr domain.Translation) {
	t.cache.Set(key, tr, 0)
}

// storeTier fronts the persistent cache. The first failure switches it off
// for the rest of the process.
type storeTier struct {
	repo     ports.TranslationCacheRepository
	ttl      time.Duration
	log      logging.Logger
	degraded atomic.Bool
	once     sync.Once
}

func (t *storeTier) Name() string { return "store" }

func (t *storeTier) Lookup(ctx context.Context, key domain.CacheKey) (domain.Translation, bool) {
	if t.degraded.Load() {
		return domain.Translation{}, false
	}
	e, err := t.repo.Get(ctx, key)
	if err != nil {
		t.degrade(ctx, err)
		return domain.Translation{}, false
	}
	if e == nil {
		return domain.Translation{}, false
	}
	return domain.Translation{Text: e.TranslatedText, DetectedLanguage: e.DetectedLanguage}, true
}

func (t *storeTier) Store(ctx context.Context, key domain.CacheKey, tr domain.Translation) {
	if t.degraded.Load() {
		return
	}
	if err := t.repo.Put(ctx, key, tr, t.ttl); err != nil {
		t.degrade(ctx, err)
	}
}

func (t *storeTier) degrade(ctx context.Context, err error) {
	if ctx.Err() != nil {
		// the caller gave up; the store itself may be fine
		return
	}
	t.once.Do(func() {
		t.degraded.Store(true)
		t.log.Warn(ctx, "translation store unavailable, continuing with memory cache only", "error", err)
	})
}

func (t *storeTier) Degraded() bool { return t.degraded.Load() }
