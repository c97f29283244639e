package storage

import (
	"container/list"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL is how long an entry lives when Set is given no TTL
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheCapacity is the default maximum number of entries
	DefaultCacheCapacity = 500
)

// ErrInvalidCapacity is returned when a cache is built with capacity <= 0
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

// CacheEntry is one live value in the cache
type CacheEntry struct {
	Key       string
	Value     any
	ExpiresAt time.Time
	element   *list.Element
}

func (e *CacheEntry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheOption configures a ResponseCache
type CacheOption func(*ResponseCache)

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) CacheOption {
	return func(rc *ResponseCache) {
		if now != nil {
			rc.now = now
		}
	}
}

// ResponseCache is a bounded LRU cache with per-entry expiry. Entries go
// Absent -> Live -> (Expired | Evicted) -> Absent; only a fresh Set makes a
// key live again. There is no background sweeper: expired entries are dropped
// when touched or by Purge.
type ResponseCache struct {
	capacity   int
	defaultTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	items   map[string]*CacheEntry
	lruList *list.List // front = most recently used

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

// NewResponseCache creates a cache holding at most capacity entries
func NewResponseCache(capacity int, defaultTTL time.Duration, opts ...CacheOption) (*ResponseCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultCacheTTL
	}

	rc := &ResponseCache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
		items:      make(map[string]*CacheEntry),
		lruList:    list.New(),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc, nil
}

// Set inserts or replaces key. ttl <= 0 uses the default TTL. If the cache
// grows past capacity the least recently used entry is evicted.
func (rc *ResponseCache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = rc.defaultTTL
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	expiresAt := rc.now().Add(ttl)

	if item, exists := rc.items[key]; exists {
		item.Value = value
		item.ExpiresAt = expiresAt
		rc.lruList.MoveToFront(item.element)
		return
	}

	item := &CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiresAt,
	}
	item.element = rc.lruList.PushFront(item)
	rc.items[key] = item

	for len(rc.items) > rc.capacity {
		rc.evictOldest()
	}
}

// Get returns the value for key if it is present and not expired. A hit
// marks the entry as most recently used.
func (rc *ResponseCache) Get(key string) (any, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	item, exists := rc.items[key]
	if !exists {
		rc.misses++
		return nil, false
	}

	if item.expired(rc.now()) {
		rc.deleteItem(item)
		rc.expirations++
		rc.misses++
		return nil, false
	}

	rc.lruList.MoveToFront(item.element)
	rc.hits++
	return item.Value, true
}

// Delete removes key if present
func (rc *ResponseCache) Delete(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if item, exists := rc.items[key]; exists {
		rc.deleteItem(item)
	}
}

// Clear removes every entry. Counters are kept.
func (rc *ResponseCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.items = make(map[string]*CacheEntry)
	rc.lruList = list.New()
}

// Purge drops all expired entries and returns how many were removed
func (rc *ResponseCache) Purge() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	now := rc.now()
	var expiredItems []*CacheEntry
	for _, item := range rc.items {
		if item.expired(now) {
			expiredItems = append(expiredItems, item)
		}
	}

	for _, item := range expiredItems {
		rc.deleteItem(item)
	}
	rc.expirations += uint64(len(expiredItems))
	return len(expiredItems)
}

// Len returns the number of stored entries, expired ones included until they are touched
func (rc *ResponseCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.items)
}

// Stats returns a snapshot of cache statistics
func (rc *ResponseCache) Stats() CacheStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	stats := CacheStats{
		Size:        len(rc.items),
		Capacity:    rc.capacity,
		DefaultTTL:  rc.defaultTTL,
		Hits:        rc.hits,
		Misses:      rc.misses,
		Evictions:   rc.evictions,
		Expirations: rc.expirations,
	}
	if total := rc.hits + rc.misses; total > 0 {
		stats.HitRatio = float64(rc.hits) / float64(total)
	}
	return stats
}

// evictOldest removes the least recently used item
func (rc *ResponseCache) evictOldest() {
	element := rc.lruList.Back()
	if element == nil {
		return
	}
	rc.deleteItem(element.Value.(*CacheEntry))
	rc.evictions++
}

// deleteItem removes an item from both map and list
func (rc *ResponseCache) deleteItem(item *CacheEntry) {
	delete(rc.items, item.Key)
	rc.lruList.Remove(item.element)
}

// CacheStats represents cache statistics
type CacheStats struct {
	Size        int           `json:"size"`
	Capacity    int           `json:"capacity"`
	DefaultTTL  time.Duration `json:"default_ttl"`
	Hits        uint64        `json:"hits"`
	Misses      uint64        `json:"misses"`
	Evictions   uint64        `json:"evictions"`
	Expirations uint64        `json:"expirations"`
	HitRatio    float64       `json:"hit_ratio"`
}
