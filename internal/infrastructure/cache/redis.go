package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Store backed by Redis, for sharing the voice cache
// across server instances.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

// Set stores a key-value pair with expiration.
func (rs *RedisStore) Set(ctx context.Context, key, value string, expiration time.Duration) {
	if err := rs.client.Set(ctx, key, value, expiration).Err(); err != nil {
		rs.logger.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

// Get retrieves a value by key. A missing key and a Redis failure
// both read as a miss.
func (rs *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	value, err := rs.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		rs.logger.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return value, true
}

// Delete removes a key.
func (rs *RedisStore) Delete(ctx context.Context, key string) {
	if err := rs.client.Del(ctx, key).Err(); err != nil {
		rs.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the underlying connection pool.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
