package dedupe

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisKey is the SET holding fingerprints.
const DefaultRedisKey = "newsrag:fingerprints"

// Redis is an Index backed by a single redis SET, shared between processes.
type Redis struct {
	rdb *redis.Client
	key string
}

// RedisConfig configures the redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedis connects to redis and checks the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewRedisWithClient(rdb, cfg.Key), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{rdb: rdb, key: key}
}

func (r *Redis) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := r.rdb.SIsMember(ctx, r.key, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember: %w", err)
	}
	return ok, nil
}

func (r *Redis) Mark(ctx context.Context, key string) error {
	if err := r.rdb.SAdd(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("redis sadd: %w", err)
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }
