package store

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultFieldCacheSize is the default number of stored-field lookups
// kept per reader. It covers the whole Cranfield collection.
const DefaultFieldCacheSize = 4096

type fieldKey struct {
	id    string
	field string
}

type fieldValue struct {
	value string
	found bool
}

// CacheStats counts StoredField lookups served from the cache and from the
// wrapped reader.
type CacheStats struct {
	Hits   int
	Misses int
}

// CachedReader wraps an IndexReader with an LRU cache of StoredField
// lookups. Everything else passes through.
type CachedReader struct {
	IndexReader
	cache *lru.Cache[fieldKey, fieldValue]

	mu    sync.Mutex
	stats CacheStats
}

// NewCachedReader creates a cached reader wrapping inner.
func NewCachedReader(inner IndexReader, size int) *CachedReader {
	if size <= 0 {
		size = DefaultFieldCacheSize
	}
	cache, _ := lru.New[fieldKey, fieldValue](size)
	return &CachedReader{
		IndexReader: inner,
		cache:       cache,
	}
}

// StoredField returns a cached value if available, otherwise reads and caches.
// Errors are not cached.
func (c *CachedReader) StoredField(ctx context.Context, internalID, field string) (string, bool, error) {
	key := fieldKey{id: internalID, field: field}
	if v, ok := c.cache.Get(key); ok {
		c.count(true)
		return v.value, v.found, nil
	}
	c.count(false)

	value, found, err := c.IndexReader.StoredField(ctx, internalID, field)
	if err != nil {
		return "", false, err
	}

	c.cache.Add(key, fieldValue{value: value, found: found})
	return value, found, nil
}

func (c *CachedReader) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
}

// Stats returns the lookup counts so far.
func (c *CachedReader) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Len returns the number of cached lookups.
func (c *CachedReader) Len() int {
	return c.cache.Len()
}

// Inner returns the underlying reader.
func (c *CachedReader) Inner() IndexReader {
	return c.IndexReader
}

var _ IndexReader = (*CachedReader)(nil)
