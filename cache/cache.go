// ABOUTME: In-memory TTL cache for short-lived server-side state
// ABOUTME: Thread-safe, supports single-use entries via Take, with background expiry sweeps

package cache

import (
	"log/slog"
	"sync"
	"time"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache maps string keys to values that expire after a TTL.
type Cache[V any] struct {
	store sync.Map
	ttl   time.Duration
	stop  chan struct{}
	once  sync.Once
}

// New creates a cache whose entries live for ttl and starts the sweeper.
func New[V any](ttl time.Duration) *Cache[V] {
	c := &Cache[V]{
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go c.startCleanup(time.Minute)
	return c
}

// Set stores value for the cache TTL.
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.store.Store(key, entry[V]{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	})
}

// Take returns and removes the entry in one step. Concurrent callers with
// the same key see it at most once.
func (c *Cache[V]) Take(key string) (V, bool) {
	var zero V
	val, ok := c.store.LoadAndDelete(key)
	if !ok {
		return zero, false
	}

	e := val.(entry[V])
	if time.Now().After(e.expiresAt) {
		return zero, false
	}
	return e.data, true
}

// Close stops the background sweeper.
func (c *Cache[V]) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache[V]) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *Cache[V]) sweep(now time.Time) {
	removed := 0
	c.store.Range(func(key, val interface{}) bool {
		if now.After(val.(entry[V]).expiresAt) {
			c.store.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		slog.Debug("Cache sweep removed expired entries", "count", removed)
	}
}
