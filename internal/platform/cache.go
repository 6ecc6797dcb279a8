package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"group-order-bot/internal/config"
	"group-order-bot/internal/logger"
)

// nameKeyPrefix namespaces cache keys so the display-name cache can
// share a Redis database with other users.
const nameKeyPrefix = "grouporder:names:"

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// CachedResolver caches resolved display names in Redis. Cache failures
// fall through to the wrapped resolver, which itself degrades to
// UnknownUser, so Resolve never fails.
type CachedResolver struct {
	rdb    *redis.Client
	next   NameResolver
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedResolver wraps a resolver with a Redis cache.
func NewCachedResolver(rdb *redis.Client, next NameResolver, ttl time.Duration, log *logger.Logger) *CachedResolver {
	return &CachedResolver{
		rdb:    rdb,
		next:   next,
		ttl:    ttl,
		logger: log,
	}
}

func (c *CachedResolver) Resolve(ctx context.Context, userID, groupID string) string {
	key := nameKeyPrefix + userID

	name, err := c.rdb.Get(ctx, key).Result()
	if err == nil && name != "" {
		return name
	}
	if err != nil && err != redis.Nil {
		c.logger.Error("name_cache_read_failed", "Display-name cache read failed", "", err, map[string]interface{}{
			"user_id": userID,
		})
	}

	name = c.next.Resolve(ctx, userID, groupID)

	// Placeholders are not cached: the next lookup may succeed.
	if name != UnknownUser {
		if err := c.rdb.Set(ctx, key, name, c.ttl).Err(); err != nil {
			c.logger.Error("name_cache_write_failed", "Display-name cache write failed", "", err, map[string]interface{}{
				"user_id": userID,
			})
		}
	}

	return name
}
