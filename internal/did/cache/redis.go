package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dcx/internal/did"
)

const redisKeyPrefix = "dcx:did:"

// RedisClient is the subset of *redis.Client the cache uses.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis shares resolved documents across issuer replicas with TTL-based eviction.
type Redis struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedis stores documents in Redis as JSON with the given ttl.
func NewRedis(client RedisClient, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, id string) (*did.Document, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find did cache: %w", err)
	}
	var doc did.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode did cache: %w", err)
	}
	return &doc, nil
}

func (c *Redis) Set(ctx context.Context, id string, doc *did.Document) error {
	if doc == nil {
		return fmt.Errorf("did document is required")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode did cache: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+id, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("save did cache: %w", err)
	}
	return nil
}
