package cache

import (
	"errors"

	"github.com/ppiankov/scorelog/internal/model"
)

// LayeredCache implements a multi-layer cache (memory + disk)
type LayeredCache struct {
	memory Cache
	disk   Cache
}

// NewLayeredCache creates a layered cache over a disk cache rooted at diskDir
func NewLayeredCache(diskDir string) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(),
		disk:   NewDiskCache(diskDir),
	}
}

// Get retrieves a document (checks memory first, then disk)
func (c *LayeredCache) Get(key model.FetchKey) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		// Promote to memory cache
		_ = c.memory.Put(key, val)
		return val, true
	}

	return nil, false
}

// Put stores a document on disk, then in memory
func (c *LayeredCache) Put(key model.FetchKey, doc []byte) error {
	if err := c.disk.Put(key, doc); err != nil {
		return err
	}
	return c.memory.Put(key, doc)
}

// Delete removes a document from both layers
func (c *LayeredCache) Delete(key model.FetchKey) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

// Clear removes all documents from both layers
func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// New returns the cache described by cfg
func New(cfg model.CacheConfig) Cache {
	if cfg.Memory {
		return NewLayeredCache(cfg.Dir)
	}
	return NewDiskCache(cfg.Dir)
}
