package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is an in-memory TTL cache for extracted text
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryCache{
		cache: gocache.New(ttl, cleanup),
	}
}

// Get retrieves the cached text for a URL
func (c *MemoryCache) Get(url string) (string, bool) {
	if val, found := c.cache.Get(Key(url)); found {
		return val.(string), true
	}
	return "", false
}

// Set stores text for a URL with the default TTL
func (c *MemoryCache) Set(url string, text string) {
	c.cache.SetDefault(Key(url), text)
}

// Clear removes all entries
func (c *MemoryCache) Clear() {
	c.cache.Flush()
}
