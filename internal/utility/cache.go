package utility

import (
	"sync"
	"time"
)

type cacheItem[V any] struct {
	value   V
	expires time.Time
}

// Cache is a small TTL cache. Expired items are dropped on read and by a periodic sweep.
type Cache[V any] struct {
	items    map[string]cacheItem[V]
	mu       sync.RWMutex
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewCache starts a cache whose sweep runs every cleanup interval.
func NewCache[V any](ttl, cleanup time.Duration) *Cache[V] {
	c := &Cache[V]{
		items:    make(map[string]cacheItem[V]),
		ttl:      ttl,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
	if cleanup > 0 {
		go c.cleanupLoop(cleanup)
	}
	return c
}

func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheItem[V]{value: value, expires: c.now().Add(c.ttl)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[key]
	if !ok || c.now().After(item.expires) {
		var zero V
		return zero, false
	}
	return item.value, true
}

// Delete evicts key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Stop ends the sweep goroutine.
func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cache[V]) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for k, item := range c.items {
				if now.After(item.expires) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopChan:
			return
		}
	}
}
