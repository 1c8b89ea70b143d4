package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/bnema/voicepool/internal/ports"
)

const DefaultCacheCleanupInterval = 5 * time.Minute

type cacheKey struct {
	scope  domain.ConfigScope
	tenant domain.TenantID
}

// ConfigCache mirrors tenant configuration from the durable store. Writes go
// through to the store first; the whole mirror is dropped on a fixed
// interval so cross-process staleness is bounded by one interval.
//
// generation moves on every Write and Clear. A read that missed only
// publishes what it loaded when nothing moved while the store was being
// queried, so an in-flight load can never shadow a newer write.
type ConfigCache struct {
	store  ports.ConfigStore
	logger *slog.Logger

	mu         sync.RWMutex
	entries    map[cacheKey]domain.ConfigDocument
	generation uint64
	writeLocks map[cacheKey]*sync.Mutex
}

func NewConfigCache(store ports.ConfigStore, logger *slog.Logger) *ConfigCache {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConfigCache{
		store:   store,
		logger:  logger.With("component", "config_cache"),
		entries:    map[cacheKey]domain.ConfigDocument{},
		writeLocks: map[cacheKey]*sync.Mutex{},
	}
}

func (c *ConfigCache) Read(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey{scope: scope, tenant: tenant}

	c.mu.RLock()
	doc, ok := c.entries[key]
	seen := c.generation
	c.mu.RUnlock()
	if ok {
		return doc.Clone(), nil
	}

	loaded, err := c.store.Get(ctx, scope, tenant)
	if err != nil {
		return nil, fmt.Errorf("load config %s/%s: %w", scope, tenant, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if current, ok := c.entries[key]; ok {
		return current.Clone(), nil
	}
	if c.generation == seen {
		c.entries[key] = loaded.Clone()
	}
	return loaded, nil
}

func (c *ConfigCache) Write(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID, doc domain.ConfigDocument) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	key := cacheKey{scope: scope, tenant: tenant}
	lock := c.writeLock(key)
	lock.Lock()
	defer lock.Unlock()

	if err := c.store.Put(ctx, scope, tenant, doc); err != nil {
		return fmt.Errorf("store config %s/%s: %w", scope, tenant, err)
	}

	c.mu.Lock()
	c.entries[key] = doc.Clone()
	c.generation++
	c.mu.Unlock()

	return nil
}

// writeLock serializes store writes per document so the store and the
// mirror see them in the same order.
func (c *ConfigCache) writeLock(key cacheKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.writeLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.writeLocks[key] = lock
	}
	return lock
}

func (c *ConfigCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[cacheKey]domain.ConfigDocument{}
	c.generation++
}

func (c *ConfigCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// InvalidationTask clears the cache every interval. It exits quietly when
// the store binding is absent or does not support caching.
func (c *ConfigCache) InvalidationTask(interval time.Duration) Task {
	return func(ctx context.Context) error {
		return c.RunInvalidation(ctx, interval)
	}
}

func (c *ConfigCache) RunInvalidation(ctx context.Context, interval time.Duration) error {
	cacheable, ok := c.store.(ports.Cacheable)
	if !ok || !cacheable.SupportsCache() {
		c.logger.Debug("store does not support caching, invalidation loop not started")
		return nil
	}
	if interval <= 0 {
		interval = DefaultCacheCleanupInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			dropped := c.Len()
			c.Clear()
			c.logger.Debug("config cache cleared", "entries", dropped)
		}
	}
}
