package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/corebank/pkg/cache"
	"github.com/amirasaad/corebank/pkg/provider"
)

// MemoryCache implements cache.VerificationCache in process memory.
type MemoryCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	value     provider.AccountVerification
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache that evicts expired entries
// every cleanupInterval (5 minutes when zero).
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.cleanup(cleanupInterval)
	return c
}

// Get returns a copy of the cached verification, or nil when absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) (*provider.AccountVerification, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	v := entry.value
	return &v, nil
}

// Set stores a verification with TTL.
func (c *MemoryCache) Set(_ context.Context, key string, v *provider.AccountVerification, ttl time.Duration) error {
	if v == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{value: *v, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes a key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

var _ cache.VerificationCache = (*MemoryCache)(nil)
