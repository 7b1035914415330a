// README: Redis-backed coordinate cache shared across matcher instances.
package location

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"pickup/internal/types"
)

const cacheKeyPrefix = "location:coords:%s"

type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(redis *redis.Client) *RedisCache {
	return &RedisCache{redis: redis}
}

func (c *RedisCache) Get(ctx context.Context, key string) (types.Point, bool, error) {
	val, err := c.redis.Get(ctx, fmt.Sprintf(cacheKeyPrefix, key)).Result()
	if err == redis.Nil {
		return types.Point{}, false, nil
	}
	if err != nil {
		return types.Point{}, false, err
	}
	var p types.Point
	if _, err := fmt.Sscanf(val, "%f,%f", &p.Lat, &p.Lng); err != nil {
		return types.Point{}, false, err
	}
	return p, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, p types.Point) error {
	val := fmt.Sprintf("%.7f,%.7f", p.Lat, p.Lng)
	// No TTL: campus and airport coordinates do not move.
	return c.redis.Set(ctx, fmt.Sprintf(cacheKeyPrefix, key), val, 0).Err()
}
