package cache

import (
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/scorelog/internal/model"
)

// MemoryCache keeps documents in memory for the lifetime of the process
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a new memory cache without expiration
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Get retrieves a copy of a document from the cache
func (c *MemoryCache) Get(key model.FetchKey) ([]byte, bool) {
	if val, found := c.cache.Get(key.String()); found {
		return slices.Clone(val.([]byte)), true
	}
	return nil, false
}

// Put stores a copy of a document in the cache
func (c *MemoryCache) Put(key model.FetchKey, doc []byte) error {
	c.cache.Set(key.String(), slices.Clone(doc), gocache.NoExpiration)
	return nil
}

// Delete removes a document from the cache
func (c *MemoryCache) Delete(key model.FetchKey) error {
	c.cache.Delete(key.String())
	return nil
}

// Clear removes all documents from the cache
func (c *MemoryCache) Clear() error {
	c.cache.Flush()
	return nil
}

// Len returns the number of cached documents
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}
