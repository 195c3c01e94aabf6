package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

var ErrCacheMiss = errors.New(errors.ErrCodeNotFound, "cache miss")

// nullMarker records a loader result of "does not exist".
const nullMarker = "__null__"

// ErrAbsent is returned by a GetOrSet loader to say the value does not
// exist. The absence is cached for the null TTL and GetOrSet reports
// ErrCacheMiss.
var ErrAbsent = stderrors.New("value absent")

// Cache is a JSON read-through cache keyed under a common prefix.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

type redisCache struct {
	client       *Client
	logger       logging.Logger
	prefix       string
	defaultTTL   time.Duration
	nullCacheTTL time.Duration
	group        singleflight.Group
}

type CacheOption func(*redisCache)

func WithPrefix(prefix string) CacheOption {
	return func(c *redisCache) { c.prefix = prefix }
}

func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.defaultTTL = ttl }
}

func WithNullCacheTTL(ttl time.Duration) CacheOption {
	return func(c *redisCache) { c.nullCacheTTL = ttl }
}

// NewRedisCache builds a Cache on client. Keys default to the "docket:"
// prefix and a 15 minute TTL.
func NewRedisCache(client *Client, log logging.Logger, opts ...CacheOption) Cache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	c := &redisCache{
		client:       client,
		logger:       log.Named("cache"),
		prefix:       "docket:",
		defaultTTL:   15 * time.Minute,
		nullCacheTTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *redisCache) fullKey(key string) string {
	return c.prefix + key
}

// jitterTTL spreads expiries by ±10%.
func (c *redisCache) jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to get from cache")
	}
	if string(data) == nullMarker {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode cached value")
	}
	return nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode cache value")
	}
	if err := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to set cache value")
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
	}
	return nil
}

// GetOrSet reads key into dest, calling loader on a miss. Concurrent misses
// for one key share a single loader call. When the cache itself fails the
// loader result is still returned.
func (c *redisCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	raw, err := c.client.Get(ctx, c.fullKey(key)).Bytes()
	switch {
	case err == nil && string(raw) == nullMarker:
		return ErrCacheMiss
	case err == nil:
		if uerr := json.Unmarshal(raw, dest); uerr == nil {
			return nil
		}
	case err != redis.Nil:
		c.logger.Warn("cache read failed, loading from source",
			logging.String("key", key),
			logging.Err(err))
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		val, lerr := loader(ctx)
		if stderrors.Is(lerr, ErrAbsent) {
			if serr := c.client.Set(ctx, c.fullKey(key), nullMarker, c.nullCacheTTL).Err(); serr != nil {
				c.logger.Warn("cache null write failed", logging.String("key", key), logging.Err(serr))
			}
			return nil, lerr
		}
		if lerr != nil {
			return nil, lerr
		}
		data, merr := json.Marshal(val)
		if merr != nil {
			return nil, errors.Wrap(merr, errors.ErrCodeSerialization, "failed to encode cache value")
		}
		if ttl <= 0 {
			ttl = c.defaultTTL
		}
		if serr := c.client.Set(ctx, c.fullKey(key), data, c.jitterTTL(ttl)).Err(); serr != nil {
			c.logger.Warn("cache write failed", logging.String("key", key), logging.Err(serr))
		}
		return data, nil
	})
	if stderrors.Is(err, ErrAbsent) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), dest); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode loaded value")
	}
	return nil
}

// DeleteByPrefix removes every key under prefix and returns the count.
func (c *redisCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	pattern := c.fullKey(prefix) + "*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, errors.Wrap(err, errors.ErrCodeCacheError, "failed to scan cache keys")
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, errors.Wrap(err, errors.ErrCodeCacheError, "failed to delete cache keys")
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}

//Personal.AI order the ending
