package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/quorum/internal/observability"
)

const redisScanBatchSize = 100

// RedisOptions contains connection parameters for the redis adapter.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces every key so unrelated data in the same database
	// is never touched.
	Prefix string
}

// RedisAdapter is a remote key-value cache backend. The connection is
// established lazily on first use. Network errors are logged and degrade
// to cache-miss or no-op behavior.
type RedisAdapter struct {
	opts RedisOptions

	connectOnce sync.Once
	client      *redis.Client
}

// NewRedisAdapter creates a redis adapter. No connection is made until the
// first operation.
func NewRedisAdapter(opts RedisOptions) *RedisAdapter {
	return &RedisAdapter{opts: opts}
}

func (a *RedisAdapter) conn() *redis.Client {
	a.connectOnce.Do(func() {
		a.client = redis.NewClient(&redis.Options{
			Addr:     a.opts.Addr,
			Password: a.opts.Password,
			DB:       a.opts.DB,
		})
	})
	return a.client
}

func (a *RedisAdapter) prefixed(key string) string {
	return a.opts.Prefix + key
}

// Get retrieves a value. Missing keys and network errors both read as a
// miss.
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := a.conn().Get(ctx, a.prefixed(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			observability.FromContext(ctx).Warn("redis get failed",
				observability.String("key", key),
				observability.Error(err))
		}
		return nil, false
	}
	return data, true
}

// Set stores a value. A zero ttl stores the key without expiry.
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := a.conn().Set(ctx, a.prefixed(key), value, ttl).Err(); err != nil {
		observability.FromContext(ctx).Warn("redis set failed",
			observability.String("key", key),
			observability.Error(err))
	}
	return nil
}

// Delete removes a key. Idempotent.
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.conn().Del(ctx, a.prefixed(key)).Err(); err != nil {
		observability.FromContext(ctx).Warn("redis delete failed",
			observability.String("key", key),
			observability.Error(err))
	}
	return nil
}

// Clear scans keys matching this adapter's namespace prefix in batches and
// deletes them. Other data in the database is untouched.
func (a *RedisAdapter) Clear(ctx context.Context) error {
	logger := observability.FromContext(ctx)
	client := a.conn()

	var cursor uint64
	for {
		keys, next, err := client.Scan(ctx, cursor, a.opts.Prefix+"*", redisScanBatchSize).Result()
		if err != nil {
			logger.Warn("redis clear scan failed", observability.Error(err))
			return nil
		}

		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				logger.Warn("redis clear delete failed", observability.Error(err))
				return nil
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the connection if one was established.
func (a *RedisAdapter) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}
