package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// RedisCache keeps entries in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, eris.Wrapf(err, "cache: ping redis at %s", opts.Addr)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: rdb, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: get %s", key)
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return eris.Wrapf(err, "cache: set %s", key)
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
