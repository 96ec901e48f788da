package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPool carries the pool settings from config. Zero values keep the
// go-redis defaults.
type RedisPool struct {
	Size         int
	MinIdleConns int
	MaxRetries   int
}

func redisOptions(url string, pool RedisPool) *redis.Options {
	opts, err := redis.ParseURL(url)
	if err != nil {
		// plain host:port
		opts = &redis.Options{Addr: url}
	}

	if pool.Size > 0 {
		opts.PoolSize = pool.Size
	}
	if pool.MinIdleConns > 0 {
		opts.MinIdleConns = pool.MinIdleConns
	}
	if pool.MaxRetries != 0 {
		opts.MaxRetries = pool.MaxRetries
	}
	return opts
}

// NewRedisClient connects and pings Redis.
func NewRedisClient(url string, pool RedisPool) (*redis.Client, error) {
	opts := redisOptions(url, pool)
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	slog.Info("Connected to Redis", "addr", opts.Addr, "pool_size", opts.PoolSize)
	return client, nil
}

// RedisHealthCheck pings Redis with a short deadline.
func RedisHealthCheck(client redis.Cmdable) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	return nil
}
