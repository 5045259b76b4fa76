package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TextCache stores normalized text by key.
type TextCache struct {
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewTextCache(rdb goredis.Cmdable, prefix string, ttl time.Duration) *TextCache {
	if prefix == "" {
		prefix = "textnorm:"
	}
	return &TextCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Get reports ok=false on a miss.
func (c *TextCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *TextCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, c.prefix+key, value, c.ttl).Err()
}
