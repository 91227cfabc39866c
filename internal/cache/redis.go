package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces validity keys.
const DefaultKeyPrefix = "venue-scout:valid:"

// DefaultTTL bounds how long a shared verdict is trusted.
const DefaultTTL = 24 * time.Hour

// Redis stores verdicts in Redis so that concurrent processes share probes. Redis errors are
// logged and treated as cache misses.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis wraps a go-redis client.
func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration, logger *zap.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// key hashes the URL so that arbitrary query strings stay within key limits.
func (r *Redis) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return r.prefix + hex.EncodeToString(sum[:])
}

func (r *Redis) Get(ctx context.Context, url string) (bool, bool) {
	val, err := r.client.Get(ctx, r.key(url)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false
	}
	if err != nil {
		r.logger.Debug("validity cache read failed", zap.String("url", url), zap.Error(err))
		return false, false
	}
	return val == "1", true
}

func (r *Redis) Put(ctx context.Context, url string, valid bool) {
	val := "0"
	if valid {
		val = "1"
	}
	if err := r.client.Set(ctx, r.key(url), val, r.ttl).Err(); err != nil {
		r.logger.Debug("validity cache write failed", zap.String("url", url), zap.Error(err))
	}
}

// Layered reads from the first cache that has a verdict and writes to all of them.
type Layered []ValidityCache

func (l Layered) Get(ctx context.Context, url string) (bool, bool) {
	for _, c := range l {
		if v, ok := c.Get(ctx, url); ok {
			return v, true
		}
	}
	return false, false
}

func (l Layered) Put(ctx context.Context, url string, valid bool) {
	for _, c := range l {
		c.Put(ctx, url, valid)
	}
}
