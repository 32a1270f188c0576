// Package cache provides the content-addressed stage result cache shared by
// concurrent pipeline runs.
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/jonathan/showcase-forge/internal/types"
)

const (
	// DefaultTTL is how long an entry stays retrievable
	DefaultTTL = time.Hour
	// DefaultMaxEntries bounds the number of stored entries
	DefaultMaxEntries = 500
)

// Entry is one stored stage result.
type Entry struct {
	Key       string
	Payload   []byte
	Metadata  map[string]string
	CreatedAt time.Time
}

func (e *Entry) clone() *Entry {
	out := &Entry{
		Key:       e.Key,
		Payload:   append([]byte(nil), e.Payload...),
		CreatedAt: e.CreatedAt,
	}
	if e.Metadata != nil {
		out.Metadata = make(map[string]string, len(e.Metadata))
		for k, v := range e.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Config controls cache sizing and expiry.
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// DefaultConfig returns the default cache configuration
func DefaultConfig() Config {
	return Config{TTL: DefaultTTL, MaxEntries: DefaultMaxEntries}
}

// Observer receives cache events, typically for metrics.
type Observer interface {
	CacheLookup(stage types.StageID, hit bool)
	CacheEvicted()
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces the wall clock, for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithObserver reports lookups and evictions to o.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Expired   int64
	Evictions int64
}

// Cache stores entries in insertion order. When full, the oldest inserted
// entry is evicted; reads never change that order. Expired entries are
// dropped lazily when read.
type Cache struct {
	mu    sync.RWMutex
	store *lru.LRU[string, *Entry]

	ttl      time.Duration
	now      func() time.Time
	observer Observer

	hits      atomic.Int64
	misses    atomic.Int64
	expired   atomic.Int64
	evictions atomic.Int64
}

// New creates a cache. Zero config values fall back to the defaults.
func New(cfg Config, opts ...Option) (*Cache, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}

	c := &Cache{ttl: cfg.TTL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	store, err := lru.NewLRU[string, *Entry](cfg.MaxEntries, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}
	c.store = store
	return c, nil
}

// Get returns a copy of the entry for key. Entries older than the TTL are
// reported absent and removed.
func (c *Cache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	entry, ok := c.store.Peek(key)
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	if c.expiredAt(entry, c.now()) {
		c.mu.Lock()
		// Another writer may have replaced it meanwhile
		if current, still := c.store.Peek(key); still && current == entry {
			c.store.Remove(key)
			c.expired.Add(1)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return entry.clone(), true
}

// Set stores a copy of payload. A full cache evicts its oldest entry first.
// Replacing a key counts as a fresh insertion.
func (c *Cache) Set(key string, payload []byte, metadata map[string]string) {
	entry := (&Entry{Key: key, Payload: payload, Metadata: metadata}).clone()
	entry.CreatedAt = c.now()

	c.mu.Lock()
	c.store.Remove(key)
	evicted := c.store.Add(key, entry)
	c.mu.Unlock()

	if evicted {
		c.evictions.Add(1)
		if c.observer != nil {
			c.observer.CacheEvicted()
		}
	}
}

// Len returns the number of stored entries, including expired ones not yet dropped.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Purge()
}

// Stats returns current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Expired:   c.expired.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (c *Cache) expiredAt(e *Entry, now time.Time) bool {
	return now.Sub(e.CreatedAt) > c.ttl
}
