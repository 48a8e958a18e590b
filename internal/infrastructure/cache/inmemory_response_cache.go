package cache

import (
	"context"
	"sync"
	"time"
)

// entry is a stored body with its expiration
type entry struct {
	body      []byte
	expiresAt time.Time
}

// InMemoryResponseCache implements ResponseCache using a map.
// Suitable for the CLI and for single-instance servers.
type InMemoryResponseCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryResponseCache creates a cache that evicts expired entries
// every cleanupEvery. A zero interval disables the background cleanup.
func NewInMemoryResponseCache(cleanupEvery time.Duration) *InMemoryResponseCache {
	c := &InMemoryResponseCache{
		entries:  make(map[string]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if cleanupEvery > 0 {
		c.wg.Add(1)
		go c.cleanupLoop(cleanupEvery)
	}
	return c
}

// Get implements ResponseCache
func (c *InMemoryResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	out := make([]byte, len(e.body))
	copy(out, e.body)
	return out, true, nil
}

// Set implements ResponseCache. A non-positive ttl stores nothing.
func (c *InMemoryResponseCache) Set(_ context.Context, key string, body []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	stored := make([]byte, len(body))
	copy(stored, body)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{body: stored, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete implements ResponseCache
func (c *InMemoryResponseCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryResponseCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryResponseCache) cleanupLoop(every time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryResponseCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Size returns the number of stored entries, expired ones included
func (c *InMemoryResponseCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ ResponseCache = (*InMemoryResponseCache)(nil)
