package interop

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/nooga/jsinterop/pkg/types"
)

// cacheKey identifies a (source shape, target description) pair. A null
// source has no Go type and sets null instead.
type cacheKey struct {
	source reflect.Type
	null   bool
	target reflect.Type
	name   string
}

func newCacheKey(value interface{}, target types.Type) cacheKey {
	k := cacheKey{target: target.GoType(), name: target.String()}
	if value == nil {
		k.null = true
	} else {
		k.source = reflect.TypeOf(value)
	}
	return k
}

// ConversionCache remembers whether values of a source type convert to a
// target description. It records convertibility only, never converted
// values. Entries are written once and never invalidated.
//
// The mutex only guards bookkeeping: a miss claims its key and converts
// outside the lock, so host code running during the conversion may call
// TryConvert on the same cache for other pairs.
type ConversionCache struct {
	entries  sync.Map // cacheKey -> bool
	mu       sync.Mutex
	inflight map[cacheKey]chan struct{}

	hits     atomic.Int64
	misses   atomic.Int64
	attempts atomic.Int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits     int64
	Misses   int64
	Attempts int64 // conversions run on the miss path
	Entries  int
}

// NewConversionCache creates an empty cache.
func NewConversionCache() *ConversionCache {
	return &ConversionCache{}
}

var (
	defaultCache     *ConversionCache
	defaultCacheOnce sync.Once
)

// DefaultCache returns the process-wide cache shared by converters created
// without WithCache.
func DefaultCache() *ConversionCache {
	defaultCacheOnce.Do(func() {
		defaultCache = NewConversionCache()
	})
	return defaultCache
}

func (c *ConversionCache) lookup(k cacheKey) (convertible, ok bool) {
	v, ok := c.entries.Load(k)
	if !ok {
		return false, false
	}
	return v.(bool), true
}

// acquire rechecks k under the lock. A known verdict is returned as is.
// When another caller is converting k, wait is closed once it settles.
// Otherwise the caller now owns k and must call settle.
func (c *ConversionCache) acquire(k cacheKey) (convertible, known bool, wait <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if convertible, ok := c.lookup(k); ok {
		return convertible, true, nil
	}
	if ch, busy := c.inflight[k]; busy {
		return false, false, ch
	}
	if c.inflight == nil {
		c.inflight = make(map[cacheKey]chan struct{})
	}
	c.inflight[k] = make(chan struct{})
	return false, false, nil
}

// settle records the verdict for a key claimed with acquire and wakes the
// callers waiting on it.
func (c *ConversionCache) settle(k cacheKey, convertible bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := c.record(k, convertible)
	if ch, ok := c.inflight[k]; ok {
		close(ch)
		delete(c.inflight, k)
	}
	return stored
}

// record stores the verdict unless another writer got there first, and
// returns the stored verdict.
func (c *ConversionCache) record(k cacheKey, convertible bool) bool {
	v, _ := c.entries.LoadOrStore(k, convertible)
	return v.(bool)
}

// Len returns the number of recorded pairs.
func (c *ConversionCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Stats returns the current counters.
func (c *ConversionCache) Stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Attempts: c.attempts.Load(),
		Entries:  c.Len(),
	}
}
