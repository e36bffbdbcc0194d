package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ppiankov/scorelog/internal/model"
)

// DiskCache stores each document verbatim at <dir>/<TEAM>/<SEASON>.html
type DiskCache struct {
	dir string
}

// NewDiskCache creates a new disk cache rooted at dir
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{dir: dir}
}

// Dir returns the cache root
func (c *DiskCache) Dir() string {
	return c.dir
}

// Get retrieves a document; a missing or unreadable entry is reported as absent
func (c *DiskCache) Get(key model.FetchKey) ([]byte, bool) {
	if key.Validate() != nil {
		return nil, false
	}

	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		return nil, false
	}

	return data, true
}

// Put stores a document. The body is written to a temporary file in the
// team directory and renamed into place, so readers never see a partial entry.
func (c *DiskCache) Put(key model.FetchKey, doc []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}

	teamDir := filepath.Join(c.dir, key.Team)
	if err := os.MkdirAll(teamDir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(teamDir, "."+strconv.Itoa(key.Season)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}

	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename cache file: %w", err)
	}

	return nil
}

// Delete removes one document; deleting a missing entry is not an error
func (c *DiskCache) Delete(key model.FetchKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := os.Remove(c.Path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes all cached documents
func (c *DiskCache) Clear() error {
	return os.RemoveAll(c.dir)
}

// Path returns the file path for a cache key
func (c *DiskCache) Path(key model.FetchKey) string {
	return filepath.Join(c.dir, key.Team, strconv.Itoa(key.Season)+".html")
}
