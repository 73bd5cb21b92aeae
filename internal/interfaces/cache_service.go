package interfaces

import "time"

// CacheService is an in-process TTL cache for idempotent, repeatable
// lookups (query analyses, expansion results). Entries are read-only at
// query time and acceptable to lose on restart.
type CacheService interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{}, ttl time.Duration)
	Delete(key string)
	Len() int
}
