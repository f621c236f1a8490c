// Package cache provides the TTL response cache that backs the resilient
// NetBox client. Entries expire lazily on read, a capacity bound evicts the
// oldest-inserted entries first, and every entry keeps a stale copy around so
// degraded reads can be served while the downstream is unavailable.
package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Options configure a Store.
type Options struct {
	DefaultTTL time.Duration
	MaxEntries int
}

// Store is a TTL-keyed value store with FIFO capacity eviction and
// hit/miss/eviction accounting. The zero value is not usable; construct with
// New. All methods are safe for concurrent use and never return errors: a
// cache problem only disables the optimization, never the caller's operation.
type Store struct {
	backend    *gocache.Cache
	defaultTTL time.Duration
	maxEntries int

	mu    sync.Mutex
	order []string
	stale map[string]any

	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	puts          atomic.Uint64
	invalidations atomic.Uint64
}

// New creates a Store. MaxEntries <= 0 means unbounded.
func New(opts Options) *Store {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	// Janitor disabled: expiry is lazy on read, proactive sweeps run via the
	// job scheduler calling Sweep.
	return &Store{
		backend:    gocache.New(ttl, 0),
		defaultTTL: ttl,
		maxEntries: opts.MaxEntries,
		stale:      make(map[string]any),
	}
}

// Get returns the fresh value for key. An expired entry counts as a miss.
func (s *Store) Get(key string) (any, bool) {
	value, ok := s.backend.Get(key)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return value, true
}

// GetStale returns the last value stored under key regardless of TTL. Used
// only for degraded reads when the downstream cannot be reached.
func (s *Store) GetStale(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.stale[key]
	return value, ok
}

// Put stores value under key, replacing any previous entry wholesale.
// A non-positive ttl falls back to the store default.
func (s *Store) Put(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	if _, known := s.stale[key]; !known {
		s.order = append(s.order, key)
	}
	s.stale[key] = value
	s.evictOverCapacityLocked()
	s.mu.Unlock()

	s.backend.Set(key, value, ttl)
	s.puts.Add(1)
}

// evictOverCapacityLocked removes oldest-inserted entries until under the
// configured bound. Caller holds s.mu.
func (s *Store) evictOverCapacityLocked() {
	if s.maxEntries <= 0 {
		return
	}
	for len(s.order) > s.maxEntries {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.stale, oldest)
		s.backend.Delete(oldest)
		s.evictions.Add(1)
	}
}

// Invalidate removes key from the store, including its stale copy.
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	if _, known := s.stale[key]; known {
		delete(s.stale, key)
		s.removeFromOrderLocked(key)
		s.invalidations.Add(1)
	}
	s.mu.Unlock()
	s.backend.Delete(key)
}

// InvalidateType removes every entry whose key carries the given type tag.
func (s *Store) InvalidateType(tag string) {
	prefix := tag + ":"
	s.mu.Lock()
	var doomed []string
	for key := range s.stale {
		if strings.HasPrefix(key, prefix) {
			doomed = append(doomed, key)
		}
	}
	for _, key := range doomed {
		delete(s.stale, key)
		s.removeFromOrderLocked(key)
		s.invalidations.Add(1)
	}
	s.mu.Unlock()
	for _, key := range doomed {
		s.backend.Delete(key)
	}
}

func (s *Store) removeFromOrderLocked(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Sweep proactively drops expired entries from the fresh cache and reports
// how many were removed. Stale copies are kept for degraded reads until
// replaced, invalidated, or evicted.
func (s *Store) Sweep() int {
	before := s.backend.ItemCount()
	s.backend.DeleteExpired()
	return before - s.backend.ItemCount()
}

// Len reports the number of unexpired entries.
func (s *Store) Len() int {
	return s.backend.ItemCount()
}

// Snapshot is a point-in-time view of the cache counters.
type Snapshot struct {
	Hits          uint64  `json:"hits"`
	Misses        uint64  `json:"misses"`
	Evictions     uint64  `json:"evictions"`
	Puts          uint64  `json:"puts"`
	Invalidations uint64  `json:"invalidations"`
	HitRate       float64 `json:"hit_rate"`
	Entries       int     `json:"entries"`
}

// Metrics returns the current counters.
func (s *Store) Metrics() Snapshot {
	hits := s.hits.Load()
	misses := s.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Snapshot{
		Hits:          hits,
		Misses:        misses,
		Evictions:     s.evictions.Load(),
		Puts:          s.puts.Load(),
		Invalidations: s.invalidations.Load(),
		HitRate:       rate,
		Entries:       s.backend.ItemCount(),
	}
}
