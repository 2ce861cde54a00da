package cluster

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileCache provides file-based caching for CostResolver's AWS pricing
// lookups, so repeated cost resolution (including across restarts) does not
// re-query the pricing API for instance types it has already resolved.
type fileCache struct {
	dir string
}

func newFileCache(dir string) *fileCache {
	return &fileCache{dir: dir}
}

func (fc *fileCache) get(key string, ttl time.Duration, dest interface{}) bool {
	path := fc.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if time.Since(info.ModTime()) > ttl {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (fc *fileCache) set(key string, value interface{}) error {
	if err := os.MkdirAll(fc.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}
	return os.WriteFile(fc.path(key), data, 0644)
}

func (fc *fileCache) path(key string) string {
	return filepath.Join(fc.dir, key+".json")
}
