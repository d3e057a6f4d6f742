package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces pgrows keys in a shared Redis.
const DefaultRedisPrefix = "pgrows:query:"

// RedisBackend stores results in Redis under a hash of the query text.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend wraps client. An empty prefix selects DefaultRedisPrefix.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// OpenRedis connects to the Redis server at url (redis:// or rediss://) and pings it.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (b *RedisBackend) key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return b.prefix + hex.EncodeToString(sum[:])
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, query string) ([]byte, bool, error) {
	data, err := b.client.Get(ctx, b.key(query)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

// Set implements Backend. A ttl of zero stores the value without expiry.
func (b *RedisBackend) Set(ctx context.Context, query string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.key(query), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

var _ Backend = (*RedisBackend)(nil)
