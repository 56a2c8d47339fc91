// Package memcache is the process-local translation cache that sits in
// front of the persistent store.
package memcache

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"modmanager/internal/domain"
	"modmanager/internal/ports"
)

const DefaultTTL = time.Hour

// per-entry bookkeeping estimate used by ApproxSize
const entryOverhead = 64

type entry struct {
	value     domain.Translation
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool { return !now.Before(e.expiresAt) }

type Cache struct {
	m     *xsync.MapOf[string, entry]
	ttl   time.Duration
	clock ports.Clock
}

func New(ttl time.Duration, clock ports.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = ports.SystemClock
	}
	return &Cache{m: xsync.NewMapOf[string, entry](), ttl: ttl, clock: clock}
}

// TTL is the lifetime applied by Set when none is given.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) Get(key domain.CacheKey) (domain.Translation, bool) {
	k := key.String()
	e, ok := c.m.Load(k)
	if !ok {
		return domain.Translation{}, false
	}
	now := c.clock.Now()
	if e.expired(now) {
		c.evict(k, now)
		return domain.Translation{}, false
	}
	return e.value, true
}

// Set stores value for ttl; a non-positive ttl means the cache default.
func (c *Cache) Set(key domain.CacheKey, value domain.Translation, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.m.Store(key.String(), entry{value: value, expiresAt: c.clock.Now().Add(ttl)})
}

func (c *Cache) Delete(key domain.CacheKey) { c.m.Delete(key.String()) }

func (c *Cache) Clear() { c.m.Clear() }

func (c *Cache) Len() int { return c.m.Size() }

// ApproxSize estimates the memory held by cached strings, in bytes.
func (c *Cache) ApproxSize() int64 {
	var total int64
	c.m.Range(func(k string, e entry) bool {
		total += int64(len(k)+len(e.value.Text)+len(e.value.DetectedLanguage)) + entryOverhead
		return true
	})
	return total
}

// Sweep removes expired entries and returns how many were dropped.
func (c *Cache) Sweep() int {
	now := c.clock.Now()
	var stale []string
	c.m.Range(func(k string, e entry) bool {
		if e.expired(now) {
			stale = append(stale, k)
		}
		return true
	})
	n := 0
	for _, k := range stale {
		if c.evict(k, now) {
			n++
		}
	}
	return n
}

// evict deletes k only if it is still expired, so a concurrent Set of a
// fresh value survives.
func (c *Cache) evict(k string, now time.Time) bool {
	removed := false
	c.m.Compute(k, func(old entry, loaded bool) (entry, bool) {
		if !loaded {
			return old, true
		}
		if old.expired(now) {
			removed = true
			return old, true
		}
		return old, false
	})
	return removed
}
