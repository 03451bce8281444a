package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultTTL             = 10 * time.Minute
	DefaultCleanupInterval = time.Hour
)

// Cache is a typed in-memory TTL cache.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Flush()
}

type ttlCache[V any] struct {
	store *gocache.Cache
}

// NewTTLCache returns a cache whose entries expire after ttl unless Set is
// called with an explicit duration.
func NewTTLCache[V any](ttl time.Duration) Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ttlCache[V]{store: gocache.New(ttl, DefaultCleanupInterval)}
}

func (c *ttlCache[V]) Get(key string) (V, bool) {
	var zero V
	raw, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return value, true
}

// Set stores value. A zero ttl uses the cache default.
func (c *ttlCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, value, ttl)
}

func (c *ttlCache[V]) Delete(key string) {
	c.store.Delete(key)
}

func (c *ttlCache[V]) Flush() {
	c.store.Flush()
}

// Key joins non-empty, lower-cased parts with "|".
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
