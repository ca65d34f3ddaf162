package cache

import "time"

// Adapter tags recognized by the factory.
const (
	AdapterMemory = "memory"
	AdapterFile   = "file"
	AdapterRedis  = "redis"
)

// Config contains response cache configuration.
type Config struct {
	Enabled    bool   `env:"CACHE_ENABLED"     envDefault:"true"`
	Adapter    string `env:"CACHE_ADAPTER"     envDefault:"memory"`
	TTLSeconds int    `env:"CACHE_TTL_SECONDS" envDefault:"3600"`

	// Bypass skips both lookup and write; provider calls always go out.
	Bypass bool `env:"CACHE_BYPASS" envDefault:"false"`

	// Bust skips the lookup but overwrites the entry with the fresh result.
	Bust bool `env:"CACHE_BUST" envDefault:"false"`

	// MaxEntries bounds the memory adapter. Zero means unbounded.
	MaxEntries int `env:"CACHE_MAX_ENTRIES" envDefault:"1000"`

	// Directory holds the file adapter's entries.
	Directory string `env:"CACHE_DIR" envDefault:".quorum-cache"`

	// FileMaxAgeSeconds is the sweep age bound for the file adapter.
	FileMaxAgeSeconds int `env:"CACHE_FILE_MAX_AGE_SECONDS" envDefault:"86400"`

	RedisAddr     string `env:"CACHE_REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisPassword string `env:"CACHE_REDIS_PASSWORD"`
	RedisDB       int    `env:"CACHE_REDIS_DB"       envDefault:"0"`
	RedisPrefix   string `env:"CACHE_REDIS_PREFIX"   envDefault:"quorum:"`
}

// TTL returns the configured default TTL. Zero means entries never expire.
func (c Config) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TTLSeconds) * time.Second
}
