// Package cache is the query layer: a read-mostly projection of server state
// keyed by logical query keys ("tasks/<clientId>", "folderContents/<id>", ...).
// Entries are created on first successful fetch, discarded on invalidation,
// and re-fetched on the next read.
//
// The cache is an explicit value injected into whatever needs it, never a
// package singleton, so tests can construct isolated instances.
package cache

import (
	"context"
	"strings"
	"sync"
)

// Common key roots. Segment keys with Key(...) so prefix invalidation works.
const (
	KeyUser           = "user"
	KeyUsers          = "users"
	KeyTasks          = "tasks"
	KeyTasksOutlook   = "tasks/outlook"
	KeyFolders        = "folders"
	KeyFolderContents = "folderContents"
	KeyMessages       = "messages"
	KeyUnreadCounts   = "unreadcounts"
	KeyLatestEmail    = "latest-email"
	KeySubscription   = "ms-subscription-status"
)

// Key joins segments into a cache key.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

type entry struct {
	val any
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{entries: map[string]entry{}}
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.val, true
}

func (c *Cache) store(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{val: val}
}

// Invalidate discards every entry whose key equals a given prefix or sits
// under it ("tasks" hits "tasks" and "tasks/client-1", not "tasksother").
// Any caller may invalidate any key; the cache is a projection, not a source
// of truth.
func (c *Cache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		for _, p := range prefixes {
			if key == p || strings.HasPrefix(key, p+"/") {
				delete(c.entries, key)
				break
			}
		}
	}
}

// Clear empties the cache (logout, client switch).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
}

// Len reports the number of live entries (tests, status output).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get returns the cached value for key, calling fetch on miss. Concurrent
// misses for the same key may fetch more than once; last write wins, which is
// harmless for idempotent reads of server state.
func Get[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	val, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.store(key, val)
	return val, nil
}
