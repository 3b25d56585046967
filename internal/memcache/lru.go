// Package memcache provides an in-memory prefs.MemoryCache.
package memcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

// DefaultSize is used when NewLRU is given a non-positive size.
const DefaultSize = 1024

// LRU is a bounded, least-recently-used prefs.MemoryCache.
// It is safe for concurrent use by multiple goroutines.
type LRU struct {
	c *lru.Cache[string, prefs.Value]
}

var _ prefs.MemoryCache = (*LRU)(nil)

// NewLRU returns a cache holding at most size entries.
func NewLRU(size int) *LRU {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, prefs.Value](size)
	if err != nil {
		// Only a non-positive size makes lru.New fail.
		panic(err)
	}
	return &LRU{c: c}
}

func (m *LRU) Get(key string) (prefs.Value, bool) { return m.c.Get(key) }

func (m *LRU) Set(key string, v prefs.Value) { m.c.Add(key, v) }

func (m *LRU) Remove(key string) { m.c.Remove(key) }

func (m *LRU) RemoveAll() { m.c.Purge() }

// Len returns the number of cached entries.
func (m *LRU) Len() int { return m.c.Len() }
