// Package memo is a per-call memoization cache keyed by function identity and arguments.
//
// Entries never expire; they are only removed by Flush. A Cache grows for as long as its
// owner lives, which for hook invocations is one process run.
package memo

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache maps memoization keys to previously computed results.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
	group   singleflight.Group
}

func New() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Get returns the stored value and true on a hit.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	v, ok := c.entries[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	c.entries[key] = v
	c.mu.Unlock()
}

// Len returns the number of memoized entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the memoization keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Flush removes every entry whose key contains substr and returns how many were removed.
// An empty substr matches every key.
func (c *Cache) Flush(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.Contains(k, substr) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// do returns the value stored under key, computing it with fn on a miss.
// Concurrent misses on the same key share one call of fn. Errors are not stored.
func (c *Cache) do(key string, fn func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		res, err := fn()
		if err != nil {
			return nil, err
		}
		c.Set(key, res)
		return res, nil
	})
	return v, err
}
