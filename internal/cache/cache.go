// Package cache memoizes provider responses behind a uniform adapter
// capability. Three backends are available: an in-memory store with
// insertion-order eviction, a file-backed store with atomic writes, and a
// redis store namespaced by key prefix.
//
// Every adapter is fail-open: internal errors degrade to cache-miss or
// no-op behavior and are logged, never propagated. Caching is an
// optimization, not a correctness dependency.
package cache

import (
	"fmt"
	"time"

	"github.com/davidbz/quorum/internal/domain"
)

// Entry is the stored representation shared by the file and memory
// backends. Expiry is a unix timestamp; zero means no expiry.
type Entry struct {
	Value   []byte `json:"value"`
	Expiry  int64  `json:"expiry,omitempty"`
	Created int64  `json:"created"`
}

// Expired reports whether the entry's expiry has passed at now.
func (e Entry) Expired(now time.Time) bool {
	return e.Expiry > 0 && now.Unix() > e.Expiry
}

// expiryFromTTL converts a TTL into an absolute unix expiry. Zero TTL
// means the entry never expires.
func expiryFromTTL(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).Unix()
}

// New builds the cache adapter selected by cfg.Adapter.
func New(cfg Config) (domain.CacheAdapter, error) {
	switch cfg.Adapter {
	case AdapterMemory:
		return NewMemoryAdapter(cfg.MaxEntries), nil
	case AdapterFile:
		return NewFileAdapter(cfg.Directory, time.Duration(cfg.FileMaxAgeSeconds)*time.Second)
	case AdapterRedis:
		return NewRedisAdapter(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache adapter: %q", cfg.Adapter)
	}
}
