package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func newTestCache(t *testing.T, cfg Config, opts ...Option) *Cache {
	t.Helper()
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := newTestCache(t, Config{})
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, 0, c.Len())
}

func TestGet_TTLExpiry(t *testing.T) {
	start := time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	ttl := time.Minute
	c := newTestCache(t, Config{TTL: ttl, MaxEntries: 10}, WithClock(clock.Now))

	c.Set("k", []byte(`{"a":1}`), nil)

	clock.Set(start.Add(ttl - time.Millisecond))
	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, start, entry.CreatedAt)

	clock.Set(start.Add(ttl + time.Millisecond))
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
	assert.Equal(t, int64(1), c.Stats().Expired)
}

func TestSet_EvictionBound(t *testing.T) {
	const maxEntries = 5
	c := newTestCache(t, Config{MaxEntries: maxEntries})

	for i := 0; i < maxEntries+1; i++ {
		c.Set(fmt.Sprintf("k%d", i), []byte("{}"), nil)
		assert.LessOrEqual(t, c.Len(), maxEntries)
	}
	assert.Equal(t, maxEntries, c.Len())
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestSet_EvictsOldestInsertedEvenAfterReads(t *testing.T) {
	c := newTestCache(t, Config{MaxEntries: 3})
	c.Set("a", []byte("1"), nil)
	c.Set("b", []byte("2"), nil)
	c.Set("c", []byte("3"), nil)

	// Reads must not refresh "a"
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", []byte("4"), nil)
	_, ok = c.Get("a")
	assert.False(t, ok)
	for _, k := range []string{"b", "c", "d"} {
		_, ok := c.Get(k)
		assert.True(t, ok, k)
	}
}

func TestSet_OverwriteIsFreshInsertion(t *testing.T) {
	c := newTestCache(t, Config{MaxEntries: 2})
	c.Set("a", []byte("1"), nil)
	c.Set("b", []byte("2"), nil)
	c.Set("a", []byte("3"), nil)
	c.Set("c", []byte("4"), nil)

	_, ok := c.Get("b")
	assert.False(t, ok, "b is now the oldest insertion")
	entry, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("3"), entry.Payload)
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestGet_ReturnsCopies(t *testing.T) {
	c := newTestCache(t, Config{})
	payload := []byte("abc")
	meta := map[string]string{"m": "1"}
	c.Set("k", payload, meta)

	payload[0] = 'x'
	meta["m"] = "2"

	entry, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), entry.Payload)
	assert.Equal(t, "1", entry.Metadata["m"])

	entry.Payload[0] = 'z'
	again, _ := c.Get("k")
	assert.Equal(t, []byte("abc"), again.Payload)
}

func TestPurge(t *testing.T) {
	c := newTestCache(t, Config{})
	c.Set("a", []byte("1"), nil)
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions)
}

type countingObserver struct {
	mu        sync.Mutex
	hits      int
	misses    int
	evictions int
}

func (o *countingObserver) CacheLookup(_ types.StageID, hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *countingObserver) CacheEvicted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evictions++
}

func TestObserver_Evictions(t *testing.T) {
	obs := &countingObserver{}
	c := newTestCache(t, Config{MaxEntries: 1}, WithObserver(obs))
	c.Set("a", nil, nil)
	c.Set("b", nil, nil)
	assert.Equal(t, 1, obs.evictions)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	const maxEntries = 50
	c := newTestCache(t, Config{MaxEntries: maxEntries})

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (w*200+i)%120)
				if i%3 == 0 {
					c.Set(key, []byte(key), map[string]string{"w": fmt.Sprint(w)})
				} else if entry, ok := c.Get(key); ok {
					assert.Equal(t, key, string(entry.Payload))
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), maxEntries)
	stats := c.Stats()
	assert.Equal(t, c.Len(), stats.Entries)
}
