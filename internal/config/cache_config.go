package config

import "time"

const (
	cacheKindEnvVar = "CLEARANCE_CACHE"
	cacheTTLEnvVar  = "CLEARANCE_CACHE_TTL"
	redisURLEnvVar  = "REDIS_URL"
)

// Clearance cache backends.
const (
	CacheDisabled = ""
	CacheMemory   = "memory"
	CacheRedis    = "redis"
)

// Cache configures the optional clearance cache. Disabled by default: every
// authorized request then resolves clearance from the member store.
type Cache struct {
	Kind     string        `yaml:"kind"`
	TTL      time.Duration `yaml:"ttl"`
	RedisURL string        `yaml:"redis_url"`
}

func defaultCache() Cache {
	return Cache{
		Kind:     CacheDisabled,
		TTL:      30 * time.Second,
		RedisURL: "redis://localhost:6379/0",
	}
}

func (c *Cache) loadEnv() error {
	var err error
	c.Kind = GetEnv(cacheKindEnvVar, c.Kind)
	c.RedisURL = GetEnv(redisURLEnvVar, c.RedisURL)
	c.TTL, err = durationFromEnv(cacheTTLEnvVar, c.TTL)
	return err
}

func (c Cache) Enabled() bool {
	return c.Kind != CacheDisabled && c.TTL > 0
}
