package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient returns a go-redis client for a URL such as
// redis://localhost:6379/0 after a successful ping.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Redis shares cached clearances between processes. Entries expire through
// the key TTL.
type Redis struct {
	client  redis.Cmdable
	ttl     time.Duration
	prefix  string
	lookups lookupCounter
}

func NewRedis(client redis.Cmdable, ttl time.Duration, opts ...Option) *Redis {
	o := buildOptions(opts)
	return &Redis{
		client:  client,
		ttl:     ttl,
		prefix:  o.prefix,
		lookups: newLookupCounter(o.registerer, "redis"),
	}
}

func (r *Redis) key(memberID string) string {
	return r.prefix + memberID
}

func (r *Redis) Get(ctx context.Context, memberID string) (int, bool, error) {
	value, err := r.client.Get(ctx, r.key(memberID)).Result()
	if errors.Is(err, redis.Nil) {
		r.lookups.observe(false)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	level, err := strconv.Atoi(value)
	if err != nil {
		// Unreadable entries are treated as a miss and overwritten on Set.
		r.lookups.observe(false)
		return 0, false, nil
	}
	r.lookups.observe(true)
	return level, true, nil
}

func (r *Redis) Set(ctx context.Context, memberID string, level int) error {
	return r.client.Set(ctx, r.key(memberID), strconv.Itoa(level), r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, memberID string) error {
	return r.client.Del(ctx, r.key(memberID)).Err()
}
