package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a fixed-window counter on Redis.
// This is suitable for distributed deployments where multiple instances
// share one outbound request budget per store.
type RedisLimiter struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisLimiter creates a Redis-backed rate limiter
func NewRedisLimiter(cfg RedisConfig) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLimiter{
		client:    client,
		keyPrefix: "ratelimit:",
	}, nil
}

// NewRedisLimiterWithClient creates a limiter with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisLimiterWithClient(client *redis.Client, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisLimiter{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Allow increments the window counter for the key and reports whether
// the request still fits the budget. INCR and EXPIRE run in one
// pipeline so the window always carries a TTL.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error) {
	windowKey := fmt.Sprintf("%s%s:%d", l.keyPrefix, key, time.Now().UnixNano()/int64(period))

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, period+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return count.Val() <= int64(limit), nil
}

// Close closes the Redis client
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}

// Ensure RedisLimiter implements Limiter
var _ Limiter = (*RedisLimiter)(nil)
