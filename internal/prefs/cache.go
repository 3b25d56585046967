// Package prefs implements a typed, cache-accelerated facade over a durable
// key-value store.
//
// A Cache orchestrates two collaborators: a ValueStore, which is durable and
// authoritative, and a MemoryCache, which is a volatile shadow used to avoid a
// storage round-trip on every read. Writes go to the ValueStore, are flushed,
// and only then mirrored into the MemoryCache. Reads consult the MemoryCache
// first and fall back to the ValueStore, populating the MemoryCache on the way
// out. A key that is absent from both resolves to the caller's default; it is
// never an error.
//
// Every accessor family writes one Value kind. Reading a key through a
// different family than the one that wrote it never fails:
//
//	accessor                 result when the stored kind differs
//	Int/Float/Double/Bool    zero value of the requested kind
//	Object/URL/CustomObject  the default, as if the key were absent
//
// The URL accessor additionally accepts a string written through SetObject.
package prefs

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/leonardcser/prefs-cache/internal/logger"
)

// ValueStore is the durable, process-wide store behind a Cache.
// Implementations must be safe for concurrent use.
type ValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (Value, bool, error)
	// Set stores v under key. Object values that are not property lists are
	// rejected with ErrNotPlist.
	Set(key string, v Value) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// RemoveAll deletes every key in the store's domain.
	RemoveAll() error
	ContainsKey(key string) (bool, error)
	// Flush makes all previous writes durable before returning.
	Flush() error
}

// MemoryCache is the volatile fast path in front of a ValueStore. Capacity and
// eviction are entirely up to the implementation. Implementations must be
// safe for concurrent use.
type MemoryCache interface {
	Get(key string) (Value, bool)
	Set(key string, v Value)
	Remove(key string)
	RemoveAll()
}

// Cache is the typed facade. It is safe for concurrent use.
//
// Its two-tier sequences are not atomic. Two writers racing on one key can
// leave the MemoryCache holding the older value while the ValueStore holds
// the newer one (A writes the store, B writes the store and the cache, A
// writes the cache). The ValueStore stays authoritative; the stale entry
// lives until the next write to that key or until it is evicted.
type Cache struct {
	mu    sync.RWMutex // guards the collaborator fields, not the operations
	store ValueStore
	mem   MemoryCache
}

// New returns a Cache over store and mem.
func New(store ValueStore, mem MemoryCache) *Cache {
	return &Cache{store: store, mem: mem}
}

// SetValueStore replaces the durable store. Entries already in the
// MemoryCache are kept; callers switching to unrelated data should also
// call SetMemoryCache.
func (c *Cache) SetValueStore(s ValueStore) {
	c.mu.Lock()
	c.store = s
	c.mu.Unlock()
}

// SetMemoryCache replaces the in-memory cache.
func (c *Cache) SetMemoryCache(m MemoryCache) {
	c.mu.Lock()
	c.mem = m
	c.mu.Unlock()
}

func (c *Cache) collaborators() (ValueStore, MemoryCache) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store, c.mem
}

// load is the read-through path shared by every getter. Store errors are
// logged and resolve as absence, except ErrCorrupt, which is returned.
func (c *Cache) load(key string) (Value, bool, error) {
	if key == "" {
		return Value{}, false, nil
	}
	store, mem := c.collaborators()
	if v, ok := mem.Get(key); ok {
		return v, true, nil
	}
	v, ok, err := store.Get(key)
	if err != nil {
		logger.Warnf("prefs: read %q: %v", key, err)
		if errors.Is(err, ErrCorrupt) {
			return Value{}, false, err
		}
		return Value{}, false, nil
	}
	if !ok {
		return Value{}, false, nil
	}
	mem.Set(key, v)
	return v, true, nil
}

// lookup is load for the getters that have no error return.
func (c *Cache) lookup(key string) (Value, bool) {
	v, ok, _ := c.load(key)
	return v, ok
}

// save is the write-through path shared by every setter.
func (c *Cache) save(key string, v Value) error {
	if key == "" {
		return ErrEmptyKey
	}
	store, mem := c.collaborators()
	if err := store.Set(key, v); err != nil {
		return fmt.Errorf("prefs: set %q: %w", key, err)
	}
	if err := store.Flush(); err != nil {
		// The store may hold v already; drop the old entry so the next read
		// goes back to the store.
		mem.Remove(key)
		return fmt.Errorf("prefs: flush after set %q: %w", key, err)
	}
	mem.Set(key, v)
	return nil
}

// ContainsKey reports whether the ValueStore holds key. The MemoryCache is
// not consulted.
func (c *Cache) ContainsKey(key string) bool {
	if key == "" {
		return false
	}
	store, _ := c.collaborators()
	ok, err := store.ContainsKey(key)
	if err != nil {
		logger.Warnf("prefs: contains %q: %v", key, err)
		return false
	}
	return ok
}

// Remove deletes key from both tiers. Removing a missing key is a no-op.
func (c *Cache) Remove(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	store, mem := c.collaborators()
	if err := store.Remove(key); err != nil {
		return fmt.Errorf("prefs: remove %q: %w", key, err)
	}
	err := store.Flush()
	mem.Remove(key)
	if err != nil {
		return fmt.Errorf("prefs: flush after remove %q: %w", key, err)
	}
	return nil
}

// RemoveAll deletes every key in the ValueStore's domain, not only the keys
// written through this Cache, and empties the MemoryCache.
func (c *Cache) RemoveAll() error {
	store, mem := c.collaborators()
	if err := store.RemoveAll(); err != nil {
		return fmt.Errorf("prefs: remove all: %w", err)
	}
	err := store.Flush()
	mem.RemoveAll()
	if err != nil {
		return fmt.Errorf("prefs: flush after remove all: %w", err)
	}
	logger.Infof("prefs: removed all keys")
	return nil
}

func (c *Cache) Int(key string) int64 { return c.IntOr(key, 0) }

// IntOr returns the integer stored under key, or def if key is absent.
func (c *Cache) IntOr(key string, def int64) int64 {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	n, ok := v.Int()
	if !ok {
		return 0
	}
	return n
}

func (c *Cache) SetInt(key string, v int64) error { return c.save(key, IntValue(v)) }

func (c *Cache) Float(key string) float32 { return c.FloatOr(key, 0) }

// FloatOr returns the float stored under key, or def if key is absent.
func (c *Cache) FloatOr(key string, def float32) float32 {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	f, ok := v.Float()
	if !ok {
		return 0
	}
	return f
}

func (c *Cache) SetFloat(key string, v float32) error { return c.save(key, FloatValue(v)) }

func (c *Cache) Double(key string) float64 { return c.DoubleOr(key, 0) }

// DoubleOr returns the double stored under key, or def if key is absent.
func (c *Cache) DoubleOr(key string, def float64) float64 {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	f, ok := v.Double()
	if !ok {
		return 0
	}
	return f
}

func (c *Cache) SetDouble(key string, v float64) error { return c.save(key, DoubleValue(v)) }

func (c *Cache) Bool(key string) bool { return c.BoolOr(key, false) }

// BoolOr returns the boolean stored under key, or def if key is absent.
func (c *Cache) BoolOr(key string, def bool) bool {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	b, ok := v.Bool()
	return ok && b
}

func (c *Cache) SetBool(key string, v bool) error { return c.save(key, BoolValue(v)) }

// Object returns the property-list object stored under key, or nil.
func (c *Cache) Object(key string) any { return c.ObjectOr(key, nil) }

// ObjectOr returns a copy of the property-list object stored under key, or
// def if key is absent or holds another kind.
func (c *Cache) ObjectOr(key string, def any) any {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	obj, ok := v.Object()
	if !ok {
		return def
	}
	cp, err := NormalizePlist(obj)
	if err != nil {
		return def
	}
	return cp
}

// SetObject stores a property-list object. Setting nil removes key.
func (c *Cache) SetObject(key string, v any) error {
	if v == nil {
		return c.Remove(key)
	}
	obj, err := NormalizePlist(v)
	if err != nil {
		return fmt.Errorf("prefs: set %q: %w", key, err)
	}
	return c.save(key, ObjectValue(obj))
}

// SetCustomObject archives v and stores the resulting bytes. An archival
// failure is returned wrapped in ErrEncode and nothing is written.
func (c *Cache) SetCustomObject(key string, v Encodable) error {
	if key == "" {
		return ErrEmptyKey
	}
	val, err := archive(key, v)
	if err != nil {
		return err
	}
	return c.save(key, val)
}

// CustomObject unarchives the custom object stored under key. It returns the
// zero T if key is absent and an error wrapping ErrDecode if the stored bytes
// cannot be unarchived.
func CustomObject[T any, PT Decodable[T]](c *Cache, key string) (T, error) {
	var zero T
	return CustomObjectOr[T, PT](c, key, zero)
}

// CustomObjectOr is like CustomObject but returns def when key is absent or
// holds another kind.
func CustomObjectOr[T any, PT Decodable[T]](c *Cache, key string, def T) (T, error) {
	v, ok, err := c.load(key)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: key %q: %w", ErrDecode, key, err)
	}
	if !ok {
		return def, nil
	}
	b, ok := v.Blob()
	if !ok {
		return def, nil
	}
	return unarchive[T, PT](key, b)
}

func (c *Cache) URL(key string) *url.URL { return c.URLOr(key, nil) }

// URLOr returns the URL stored under key, or def if key is absent, holds
// another kind, or holds a string that does not parse as a URL.
func (c *Cache) URLOr(key string, def *url.URL) *url.URL {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	s, ok := v.URL()
	if !ok {
		obj, isObj := v.Object()
		if s, ok = obj.(string); !isObj || !ok {
			return def
		}
	}
	if s == "" {
		return def
	}
	u, err := url.Parse(s)
	if err != nil {
		return def
	}
	return u
}

// SetURL stores u in its canonical string form. Setting nil removes key.
func (c *Cache) SetURL(key string, u *url.URL) error {
	if u == nil {
		return c.Remove(key)
	}
	return c.save(key, URLValue(u.String()))
}
