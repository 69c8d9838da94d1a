// Package redis provides a Redis backend for tikakit.CachingEngine, so that
// several processes can share cached extraction results.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gobeaver/tikakit"
)

// Cache stores entries in Redis. Clear only removes keys under the namespace.
type Cache struct {
	client    redis.Cmdable
	namespace string
}

// Option configures a Cache
type Option func(*Cache)

// WithNamespace sets the key prefix Clear operates on. Default: "tikakit:"
func WithNamespace(namespace string) Option {
	return func(c *Cache) {
		c.namespace = namespace
	}
}

// New wraps an existing client
func New(client redis.Cmdable, opts ...Option) *Cache {
	c := &Cache{client: client, namespace: "tikakit:"}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to Redis and checks the connection with PING.
func Dial(ctx context.Context, opts *redis.Options, cacheOpts ...Option) (*Cache, *redis.Client, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("cannot connect to redis at %s: %w", opts.Addr, err)
	}
	return New(rdb, cacheOpts...), rdb, nil
}

// Get implements tikakit.Cache
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements tikakit.Cache
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete implements tikakit.Cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// DeletePrefix implements tikakit.Cache with SCAN and DEL.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	pattern := escapePattern(prefix) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Clear implements tikakit.Cache by removing the namespace.
func (c *Cache) Clear(ctx context.Context) error {
	if c.namespace == "" {
		return errors.New("refusing to clear redis without a namespace")
	}
	return c.DeletePrefix(ctx, c.namespace)
}

// escapePattern quotes the glob metacharacters of a SCAN MATCH pattern.
func escapePattern(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

var _ tikakit.Cache = (*Cache)(nil)
