package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/canopact/internal/clock"
	distancedomain "github.com/smallbiznis/canopact/internal/distance/domain"
)

const distanceKeyPrefix = "canopact:distance"

// DistanceKey builds a cache key that ignores case, punctuation and surrounding
// whitespace in place names.
func DistanceKey(provider, origin, destination string) string {
	return distanceKeyPrefix + ":" + provider + ":" + slug.Make(origin) + ":" + slug.Make(destination)
}

// NewDistanceCache prefers redis so every instance shares lookups, and falls back to
// a process-local cache.
func NewDistanceCache(client *redis.Client, c clock.Clock) distancedomain.Cache {
	if client != nil {
		return &redisDistanceCache{client: client}
	}
	return &memoryDistanceCache{entries: NewTTLCache[string, float64](c)}
}

type redisDistanceCache struct {
	client *redis.Client
}

func (r *redisDistanceCache) Get(ctx context.Context, key string) (float64, bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	km, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, nil
	}
	return km, true, nil
}

func (r *redisDistanceCache) Set(ctx context.Context, key string, km float64, ttl time.Duration) error {
	return r.client.Set(ctx, key, strconv.FormatFloat(km, 'f', -1, 64), ttl).Err()
}

type memoryDistanceCache struct {
	entries Cache[string, float64]
}

func (m *memoryDistanceCache) Get(_ context.Context, key string) (float64, bool, error) {
	km, ok := m.entries.Get(key)
	return km, ok, nil
}

func (m *memoryDistanceCache) Set(_ context.Context, key string, km float64, ttl time.Duration) error {
	m.entries.Set(key, km, ttl)
	return nil
}
