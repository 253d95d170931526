package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Connect returns a client for addr, or nil when redis is not reachable.
func Connect(ctx context.Context, addr string, log zerolog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Warn().Err(err).Msg("redis not available, running without cache")
		_ = client.Close()
		return nil
	}
	log.Info().Str("addr", addr).Msg("redis connected")
	return client
}

// Cache stores JSON values under versioned keys. A nil client turns every call into a miss.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get decodes the cached value into dest and reports whether the key existed.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// GetVersion returns the current version stored under versionKey, 0 when unset.
func (c *Cache) GetVersion(ctx context.Context, versionKey string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	v, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// IncrementVersion invalidates every key built from the previous version.
func (c *Cache) IncrementVersion(ctx context.Context, versionKey string) int64 {
	if c == nil || c.client == nil {
		return 0
	}
	v, err := c.client.Incr(ctx, versionKey).Result()
	if err != nil {
		return 0
	}
	return v
}

// WorkspaceVersionKey is bumped whenever any entity of the workspace changes.
const WorkspaceVersionKey = "workspace:version"

// ViewVersionKey is bumped whenever settings of the view change.
func ViewVersionKey(viewID string) string {
	return fmt.Sprintf("view:%s:version", viewID)
}
