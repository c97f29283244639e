package storage

import "time"

// Cache is the contract the service layer depends on. ResponseCache
// implements it; tests may substitute their own.
type Cache interface {
	Set(key string, value any, ttl time.Duration)
	Get(key string) (any, bool)
	Delete(key string)
	Stats() CacheStats
}

var _ Cache = (*ResponseCache)(nil)
