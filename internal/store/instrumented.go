package store

import (
	"sync/atomic"
	"time"

	"github.com/leonardcser/prefs-cache/internal/prefs"
)

type counter struct {
	n       atomic.Uint64
	latency atomic.Uint64 // cumulative nanoseconds
}

func (c *counter) observe(start time.Time) {
	c.n.Add(1)
	c.latency.Add(uint64(time.Since(start).Nanoseconds()))
}

func (c *counter) snapshot() OpStats {
	n := c.n.Load()
	s := OpStats{Count: n}
	if n > 0 {
		s.AvgLatency = time.Duration(c.latency.Load() / n)
	}
	return s
}

// Instrumented wraps any prefs.ValueStore with operation counts and
// latencies.
type Instrumented struct {
	store prefs.ValueStore

	get, set, remove, flush counter
}

var _ prefs.ValueStore = (*Instrumented)(nil)

func NewInstrumented(s prefs.ValueStore) *Instrumented {
	return &Instrumented{store: s}
}

func (s *Instrumented) Get(key string) (prefs.Value, bool, error) {
	defer s.get.observe(time.Now())
	return s.store.Get(key)
}

func (s *Instrumented) Set(key string, v prefs.Value) error {
	defer s.set.observe(time.Now())
	return s.store.Set(key, v)
}

func (s *Instrumented) Remove(key string) error {
	defer s.remove.observe(time.Now())
	return s.store.Remove(key)
}

func (s *Instrumented) RemoveAll() error {
	defer s.remove.observe(time.Now())
	return s.store.RemoveAll()
}

func (s *Instrumented) ContainsKey(key string) (bool, error) {
	defer s.get.observe(time.Now())
	return s.store.ContainsKey(key)
}

func (s *Instrumented) Flush() error {
	defer s.flush.observe(time.Now())
	return s.store.Flush()
}

// OpStats is a point-in-time view of one operation family.
type OpStats struct {
	Count      uint64
	AvgLatency time.Duration
}

// Metrics is a point-in-time view of all counters. Gets include ContainsKey
// and removes include RemoveAll.
type Metrics struct {
	Get, Set, Remove, Flush OpStats
}

func (s *Instrumented) Metrics() Metrics {
	return Metrics{
		Get:    s.get.snapshot(),
		Set:    s.set.snapshot(),
		Remove: s.remove.snapshot(),
		Flush:  s.flush.snapshot(),
	}
}
