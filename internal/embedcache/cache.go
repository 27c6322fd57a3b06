// Package embedcache caches chunk embeddings keyed by (tenant, content
// fingerprint), so reloads do not re-embed unchanged text.
//
// The cache guarantees at most one in-flight provider call per key:
// concurrent callers for the same key await the single outstanding
// computation instead of issuing duplicate provider calls. Provider
// failures are never cached, so a later retry may succeed.
package embedcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/logger"
)

// DefaultTTL is how long a cached embedding stays fresh.
const DefaultTTL = time.Hour

// DefaultCapacity bounds the number of in-memory entries per tenant.
const DefaultCapacity = 10000

// Ensure Cache implements the port.
var _ driven.EmbeddingCache = (*Cache)(nil)

type entry struct {
	vector    []float32
	createdAt time.Time
}

// Cache is a TTL- and capacity-bounded embedding cache with a
// persistent write-through store.
type Cache struct {
	provider driven.EmbeddingProvider
	store    driven.CacheStore
	ttl      time.Duration
	capacity int
	now      func() time.Time

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
	perTen  map[domain.TenantID]int
}

// Option configures the cache.
type Option func(*Cache)

// WithTTL sets the freshness window. Zero or negative disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCapacity sets the per-tenant in-memory entry bound.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithStore sets the persistent backing store. Optional; without it
// the cache is memory-only.
func WithStore(store driven.CacheStore) Option {
	return func(c *Cache) { c.store = store }
}

// WithClock overrides the time source. Useful for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an embedding cache in front of the given provider.
func New(provider driven.EmbeddingProvider, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		now:      time.Now,
		entries:  make(map[string]entry),
		perTen:   make(map[domain.TenantID]int),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the embedding for (tenant, text), calling the
// provider only when no fresh entry exists.
func (c *Cache) GetOrCompute(ctx context.Context, tenant domain.TenantID, text string) ([]float32, error) {
	fp := domain.Fingerprint(text)
	key := tenant.String() + ":" + fp

	if vec, ok := c.lookup(tenant, key, fp); ok {
		return vec, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent flight may have populated the entry between the
		// miss and this call.
		if vec, ok := c.lookup(tenant, key, fp); ok {
			return vec, nil
		}

		vec, err := c.provider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}

		c.put(tenant, key, fp, vec)
		return vec, nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingProvider, err)
	}
	return v.([]float32), nil
}

// lookup checks memory first, then the persistent store, applying the
// TTL in both places. Stale entries are dropped so the next access
// recomputes.
func (c *Cache) lookup(tenant domain.TenantID, key, fp string) ([]float32, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		if c.fresh(e.createdAt) {
			return e.vector, true
		}
		c.evict(tenant, key)
	}

	if c.store == nil {
		return nil, false
	}
	stored, err := c.store.GetEntry(context.Background(), tenant, fp)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("embedding cache read failed for %s: %v", tenant, err)
		}
		return nil, false
	}
	if !c.fresh(stored.CreatedAt) {
		if err := c.store.DeleteEntry(context.Background(), tenant, fp); err != nil {
			logger.Debug("stale cache entry delete failed: %v", err)
		}
		return nil, false
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		c.entries[key] = entry{vector: stored.Vector, createdAt: stored.CreatedAt}
		c.perTen[tenant]++
	}
	c.mu.Unlock()
	return stored.Vector, true
}

func (c *Cache) fresh(createdAt time.Time) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(createdAt) < c.ttl
}

func (c *Cache) put(tenant domain.TenantID, key, fp string, vec []float32) {
	createdAt := c.now()

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		c.perTen[tenant]++
	}
	c.entries[key] = entry{vector: vec, createdAt: createdAt}
	c.enforceCapacityLocked(tenant)
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	err := c.store.PutEntry(context.Background(), driven.CacheEntry{
		Tenant:      tenant,
		Fingerprint: fp,
		Vector:      vec,
		CreatedAt:   createdAt,
	})
	if err != nil {
		logger.Warn("embedding cache write failed for %s: %v", tenant, err)
		return
	}
	if _, err := c.store.EvictOldest(context.Background(), tenant, c.capacity); err != nil {
		logger.Debug("cache store eviction failed: %v", err)
	}
}

func (c *Cache) evict(tenant domain.TenantID, key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.perTen[tenant]--
	}
	c.mu.Unlock()
}

// enforceCapacityLocked drops the oldest entries of a tenant while it
// is over capacity. Called with the write lock held.
func (c *Cache) enforceCapacityLocked(tenant domain.TenantID) {
	prefix := tenant.String() + ":"
	for c.perTen[tenant] > c.capacity {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.entries {
			if len(k) < len(prefix) || k[:len(prefix)] != prefix {
				continue
			}
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey = k
				oldest = e.createdAt
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
		c.perTen[tenant]--
	}
}

// Len returns the number of in-memory entries for a tenant.
func (c *Cache) Len(tenant domain.TenantID) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.perTen[tenant]
}
