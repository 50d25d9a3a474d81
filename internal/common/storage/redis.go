// internal/common/storage/redis.go
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stock-backoffice/internal/common/config"
)

// RedisBackend shares persisted settings between machines of one operator.
type RedisBackend struct {
	Client    *redis.Client
	namespace string
}

// NewRedis creates a new Redis-backed store
func NewRedis(cfg config.RedisConfig, namespace string) *RedisBackend {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
		MinIdleConns: 1,
	})
	return NewRedisWithClient(rdb, namespace)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, namespace string) *RedisBackend {
	return &RedisBackend{Client: client, namespace: namespace}
}

func (r *RedisBackend) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Ping tests the Redis connection
func (r *RedisBackend) Ping(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.Client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	return val, err
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return r.Client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, r.key(key)).Err()
}

// Close closes the Redis connection
func (r *RedisBackend) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
