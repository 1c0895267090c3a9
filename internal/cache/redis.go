package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache adapts a *redis.Client to the Cache[string, V] interface,
// repurposing the teacher's Redis wiring (originally backing asynq job
// queues and a raw-bytes robots.txt cache) to store JSON-encoded,
// TTL-stamped values of any serializable type. Selecting it is an
// operator choice made at wiring time (see cmd/robotsd); the default
// remains TTLCache.
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps client, namespacing keys under prefix (e.g.
// "robots:") to avoid collisions with other uses of the same Redis
// instance.
func NewRedisCache[V any](client *redis.Client, prefix string) *RedisCache[V] {
	return &RedisCache[V]{client: client, prefix: prefix}
}

func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *RedisCache[V]) Delete(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Del(ctx, c.prefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
